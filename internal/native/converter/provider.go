// Package converter reads DWG files through a remote conversion service. The
// service accepts the raw file on POST /convert and answers with a JSON
// document; GET /health is probed before the provider is considered ready.
package converter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/goliatone/go-dwgimport/pkg/native"
)

// ProviderName is the registry name of this provider.
const ProviderName = "converter"

const (
	defaultTimeout     = 30 * time.Second
	defaultRetries     = 2
	defaultBackoff     = 200 * time.Millisecond
	defaultHealthPath  = "/health"
	defaultConvertPath = "/convert"
)

// Options configures the provider.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Retries     int
	Backoff     time.Duration
	HealthPath  string
	ConvertPath string
	HTTPClient  *http.Client
	Headers     map[string]string
}

// Option mutates Options.
type Option func(*Options)

// WithBaseURL sets the service root, e.g. http://converter:8080.
func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.BaseURL = url
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithRetries sets how many times the health probe and transient conversion
// failures (transport errors and 5xx answers) are retried.
func WithRetries(retries int) Option {
	return func(o *Options) {
		o.Retries = retries
	}
}

// WithBackoff sets the initial retry wait.
func WithBackoff(backoff time.Duration) Option {
	return func(o *Options) {
		o.Backoff = backoff
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(o *Options) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

// Provider opens a Library backed by the conversion service.
type Provider struct {
	options Options
}

var _ native.Provider = (*Provider)(nil)

// NewProvider applies options over the defaults.
func NewProvider(options ...Option) *Provider {
	cfg := Options{
		Timeout:     defaultTimeout,
		Retries:     defaultRetries,
		Backoff:     defaultBackoff,
		HealthPath:  defaultHealthPath,
		ConvertPath: defaultConvertPath,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Provider{options: cfg}
}

// Name returns ProviderName.
func (p *Provider) Name() string {
	return ProviderName
}

// Open probes the health endpoint with exponential backoff. An empty base URL
// or an unreachable service reports native.ErrProviderUnavailable.
func (p *Provider) Open(ctx context.Context) (native.Library, error) {
	if p.options.BaseURL == "" {
		return nil, fmt.Errorf("%w: converter URL not configured", native.ErrProviderUnavailable)
	}

	client := p.newClient()
	backoff := retry.WithMaxRetries(uint64(p.options.Retries), retry.NewExponential(p.options.Backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := client.R().SetContext(ctx).Get(p.options.HealthPath)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("health status %d", resp.StatusCode()))
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("health status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: converter %s: %v", native.ErrProviderUnavailable, p.options.BaseURL, err)
	}

	return &Library{
		client:      client,
		convertPath: p.options.ConvertPath,
		retries:     p.options.Retries,
		backoff:     p.options.Backoff,
	}, nil
}

func (p *Provider) newClient() *resty.Client {
	var client *resty.Client
	if p.options.HTTPClient != nil {
		client = resty.NewWithClient(p.options.HTTPClient)
	} else {
		client = resty.New()
	}
	client.
		SetBaseURL(p.options.BaseURL).
		SetTimeout(p.options.Timeout).
		SetHeader("Accept", "application/json")
	for key, value := range p.options.Headers {
		client.SetHeader(key, value)
	}
	return client
}

// Library posts documents to the conversion service.
type Library struct {
	client      *resty.Client
	convertPath string
	retries     int
	backoff     time.Duration
	closed      atomic.Bool
}

var _ native.Library = (*Library)(nil)

// Name returns ProviderName.
func (l *Library) Name() string {
	return ProviderName
}

// ReadDocument uploads raw and decodes the service response. Transport
// errors and 5xx answers are retried with the configured backoff.
func (l *Library) ReadDocument(ctx context.Context, raw []byte) (native.Document, error) {
	if l.closed.Load() {
		return nil, fmt.Errorf("converter: library closed")
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("converter: empty input")
	}

	var resp *resty.Response
	backoff := retry.WithMaxRetries(uint64(l.retries), retry.NewExponential(l.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		resp, err = l.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/octet-stream").
			SetBody(raw).
			Post(l.convertPath)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			return retry.RetryableError(fmt.Errorf("request failed: %w", err))
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return retry.RetryableError(statusError(resp))
		}
		if !resp.IsSuccess() {
			return statusError(resp)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("converter: %w", err)
	}

	var payload response
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("converter: decode response: %w", err)
	}
	return payload.document(), nil
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
		return fmt.Errorf("converter: foreign document %T", doc)
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

func statusError(resp *resty.Response) error {
	return fmt.Errorf("status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
}

func asDocument(doc native.Document) (*document, error) {
	d, ok := doc.(*document)
	if !ok || d == nil {
		return nil, fmt.Errorf("converter: foreign document %T", doc)
	}
	if d.released.Load() {
		return nil, native.ErrDocumentReleased
	}
	return d, nil
}
