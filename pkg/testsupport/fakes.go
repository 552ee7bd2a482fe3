package testsupport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-dwgimport/pkg/native"
)

// FakeLibrary is a scriptable native.Library. Zero values behave as an
// empty, healthy parser.
type FakeLibrary struct {
	LibraryName string
	DocHeader   native.Header
	Entities    []native.RawEntity
	Layers      []native.RawLayer

	ReadErr     error
	EntitiesErr error
	LayersErr   error
	// ReadPanic, when non-nil, is raised from ReadDocument.
	ReadPanic any
	// EntitiesPanic, when non-nil, is raised from EnumerateEntities.
	EntitiesPanic any

	mu          sync.Mutex
	reads       int
	payloads    [][]byte
	releases    int
	outstanding map[*fakeDocument]struct{}
	closed      bool
}

var _ native.Library = (*FakeLibrary)(nil)

type fakeDocument struct {
	header   native.Header
	released bool
}

func (d *fakeDocument) Header() native.Header { return d.header }

func (l *FakeLibrary) Name() string {
	if l.LibraryName == "" {
		return "fake"
	}
	return l.LibraryName
}

func (l *FakeLibrary) ReadDocument(ctx context.Context, raw []byte) (native.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.reads++
	l.payloads = append(l.payloads, append([]byte(nil), raw...))
	l.mu.Unlock()

	if l.ReadPanic != nil {
		panic(l.ReadPanic)
	}
	if l.ReadErr != nil {
		return nil, l.ReadErr
	}

	doc := &fakeDocument{header: l.DocHeader}
	l.mu.Lock()
	if l.outstanding == nil {
		l.outstanding = make(map[*fakeDocument]struct{})
	}
	l.outstanding[doc] = struct{}{}
	l.mu.Unlock()
	return doc, nil
}

func (l *FakeLibrary) EnumerateEntities(_ context.Context, doc native.Document) ([]native.RawEntity, error) {
	if err := l.check(doc); err != nil {
		return nil, err
	}
	if l.EntitiesPanic != nil {
		panic(l.EntitiesPanic)
	}
	if l.EntitiesErr != nil {
		return nil, l.EntitiesErr
	}
	out := make([]native.RawEntity, len(l.Entities))
	copy(out, l.Entities)
	return out, nil
}

func (l *FakeLibrary) EnumerateLayers(_ context.Context, doc native.Document) ([]native.RawLayer, error) {
	if err := l.check(doc); err != nil {
		return nil, err
	}
	if l.LayersErr != nil {
		return nil, l.LayersErr
	}
	out := make([]native.RawLayer, len(l.Layers))
	copy(out, l.Layers)
	return out, nil
}

func (l *FakeLibrary) ReleaseDocument(doc native.Document) error {
	d, ok := doc.(*fakeDocument)
	if !ok {
		return errors.New("testsupport: foreign document")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if d.released {
		return native.ErrDocumentReleased
	}
	d.released = true
	l.releases++
	delete(l.outstanding, d)
	return nil
}

func (l *FakeLibrary) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *FakeLibrary) check(doc native.Document) error {
	d, ok := doc.(*fakeDocument)
	if !ok {
		return errors.New("testsupport: foreign document")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if d.released {
		return native.ErrDocumentReleased
	}
	return nil
}

// Reads reports how many ReadDocument calls were made.
func (l *FakeLibrary) Reads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}

// Payloads returns a copy of every byte slice passed to ReadDocument.
func (l *FakeLibrary) Payloads() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.payloads))
	copy(out, l.payloads)
	return out
}

// Releases reports how many documents were released.
func (l *FakeLibrary) Releases() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.releases
}

// Outstanding reports documents read but not yet released.
func (l *FakeLibrary) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.outstanding)
}

// Closed reports whether Close was called.
func (l *FakeLibrary) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// FakeProvider opens a fixed Library, or fails with Err.
type FakeProvider struct {
	ProviderName string
	Library      native.Library
	Err          error
	// Delay is waited before Open answers; a cancelled context cuts it short.
	Delay time.Duration
	// Panic, when non-nil, is raised from Open.
	Panic any

	opens atomic.Int32
}

var _ native.Provider = (*FakeProvider)(nil)

func (p *FakeProvider) Name() string {
	if p.ProviderName == "" {
		return "fake"
	}
	return p.ProviderName
}

func (p *FakeProvider) Open(ctx context.Context) (native.Library, error) {
	p.opens.Add(1)
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if p.Panic != nil {
		panic(p.Panic)
	}
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Library == nil {
		return nil, native.ErrProviderUnavailable
	}
	return p.Library, nil
}

// Opens reports how many times Open was called.
func (p *FakeProvider) Opens() int {
	return int(p.opens.Load())
}

// UnavailableProvider returns a provider whose capability is missing.
func UnavailableProvider(name string) *FakeProvider {
	return &FakeProvider{ProviderName: name, Err: native.ErrProviderUnavailable}
}
