// Package libredwg reads DWG files through LibreDWG's dwgread command,
// which converts a drawing to JSON. The provider is available when the
// binary can be found.
package libredwg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-dwgimport/pkg/native"
)

// ProviderName is the registry name of this provider.
const ProviderName = "libredwg"

const (
	defaultBinary  = "dwgread"
	defaultTimeout = 60 * time.Second
)

// Runner executes binary with args and returns its standard error output.
type Runner func(ctx context.Context, binary string, args ...string) (stderr []byte, err error)

// Options configures the provider.
type Options struct {
	// Binary is a path or a name resolved through LookPath.
	Binary string
	// Timeout bounds a single conversion.
	Timeout time.Duration
	// TempDir hosts the per-document scratch directory; empty uses os.TempDir.
	TempDir string

	LookPath func(file string) (string, error)
	Run      Runner
}

// Option mutates Options.
type Option func(*Options)

// WithBinary sets the dwgread path or name.
func WithBinary(binary string) Option {
	return func(o *Options) {
		o.Binary = binary
	}
}

// WithTimeout bounds each conversion.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithTempDir sets the scratch directory root.
func WithTempDir(dir string) Option {
	return func(o *Options) {
		o.TempDir = dir
	}
}

// WithLookPath overrides binary discovery.
func WithLookPath(lookPath func(string) (string, error)) Option {
	return func(o *Options) {
		o.LookPath = lookPath
	}
}

// WithRunner overrides process execution.
func WithRunner(run Runner) Option {
	return func(o *Options) {
		o.Run = run
	}
}

// Provider opens a Library backed by dwgread.
type Provider struct {
	options Options
}

var _ native.Provider = (*Provider)(nil)

// NewProvider applies options over the defaults.
func NewProvider(options ...Option) *Provider {
	cfg := Options{
		Binary:   defaultBinary,
		Timeout:  defaultTimeout,
		LookPath: exec.LookPath,
		Run:      runCommand,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.LookPath == nil {
		cfg.LookPath = exec.LookPath
	}
	if cfg.Run == nil {
		cfg.Run = runCommand
	}
	return &Provider{options: cfg}
}

// Name returns ProviderName.
func (p *Provider) Name() string {
	return ProviderName
}

// Open resolves the binary. A missing binary reports
// native.ErrProviderUnavailable.
func (p *Provider) Open(ctx context.Context) (native.Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := p.options.LookPath(p.options.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found: %v", native.ErrProviderUnavailable, p.options.Binary, err)
	}
	return &Library{
		binary:  path,
		timeout: p.options.Timeout,
		tempDir: p.options.TempDir,
		run:     p.options.Run,
	}, nil
}

// Library converts documents by invoking dwgread once per ReadDocument.
type Library struct {
	binary  string
	timeout time.Duration
	tempDir string
	run     Runner
	closed  atomic.Bool
}

var _ native.Library = (*Library)(nil)

// Name returns ProviderName.
func (l *Library) Name() string {
	return ProviderName
}

// Binary returns the resolved dwgread path.
func (l *Library) Binary() string {
	return l.binary
}

// ReadDocument writes raw to a scratch file, converts it to JSON and decodes
// the result. The scratch directory is removed before returning.
func (l *Library) ReadDocument(ctx context.Context, raw []byte) (native.Document, error) {
	if l.closed.Load() {
		return nil, fmt.Errorf("libredwg: library closed")
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("libredwg: empty input")
	}

	dir, err := os.MkdirTemp(l.tempDir, "dwgimport-*")
	if err != nil {
		return nil, fmt.Errorf("libredwg: scratch dir: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	input := filepath.Join(dir, "input.dwg")
	output := filepath.Join(dir, "output.json")
	if err := os.WriteFile(input, raw, 0o600); err != nil {
		return nil, fmt.Errorf("libredwg: write input: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	stderr, err := l.run(runCtx, l.binary, "-O", "JSON", "-o", output, input)
	if err != nil {
		return nil, fmt.Errorf("libredwg: dwgread: %w%s", err, stderrSuffix(stderr))
	}

	payload, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("libredwg: read output: %w%s", err, stderrSuffix(stderr))
	}
	return decode(payload)
}

// EnumerateEntities returns a copy of the decoded entity records.
func (l *Library) EnumerateEntities(_ context.Context, doc native.Document) ([]native.RawEntity, error) {
	d, err := asDocument(doc)
	if err != nil {
		return nil, err
	}
	return append([]native.RawEntity(nil), d.entities...), nil
}

// EnumerateLayers returns a copy of the decoded layer table.
func (l *Library) EnumerateLayers(_ context.Context, doc native.Document) ([]native.RawLayer, error) {
	d, err := asDocument(doc)
	if err != nil {
		return nil, err
	}
	return append([]native.RawLayer(nil), d.layers...), nil
}

// ReleaseDocument drops the decoded records. Releasing twice reports
// native.ErrDocumentReleased.
func (l *Library) ReleaseDocument(doc native.Document) error {
	d, ok := doc.(*document)
	if !ok || d == nil {
		return fmt.Errorf("libredwg: foreign document %T", doc)
	}
	if !d.released.CompareAndSwap(false, true) {
		return native.ErrDocumentReleased
	}
	d.entities = nil
	d.layers = nil
	return nil
}

// Close rejects further reads.
func (l *Library) Close() error {
	l.closed.Store(true)
	return nil
}

func asDocument(doc native.Document) (*document, error) {
	d, ok := doc.(*document)
	if !ok || d == nil {
		return nil, fmt.Errorf("libredwg: foreign document %T", doc)
	}
	if d.released.Load() {
		return nil, native.ErrDocumentReleased
	}
	return d, nil
}

func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

func stderrSuffix(stderr []byte) string {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return ""
	}
	const limit = 512
	if len(msg) > limit {
		msg = msg[:limit] + "..."
	}
	return ": " + msg
}
