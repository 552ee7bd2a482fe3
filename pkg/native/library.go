package native

import (
	"context"
	"errors"
)

var (
	// ErrNoProvider is reported when no provider is registered at all.
	ErrNoProvider = errors.New("native: no DWG parser registered")
	// ErrProviderUnavailable is returned by Provider.Open when the backing
	// capability is missing on this host.
	ErrProviderUnavailable = errors.New("native: provider unavailable")
	// ErrDocumentReleased is returned when a released document is used again.
	ErrDocumentReleased = errors.New("native: document already released")
)

// Header carries document-level metadata exposed by a parser.
type Header struct {
	// Version is the $ACADVER code or release name, empty when unknown.
	Version string
	// InsUnits is the $INSUNITS code; nil when the parser does not expose it.
	InsUnits *int
}

// Document is an opaque parsed DWG held by a Library until released.
type Document interface {
	Header() Header
}

// RawEntity is one entity record as emitted by a parser. Type is the
// parser's upper-case type name (LINE, LWPOLYLINE, ...). Layer is already
// resolved to a name when the parser can do so. Properties keeps the
// parser's own field names and shapes.
type RawEntity struct {
	Type       string
	Handle     string
	Layer      string
	Properties map[string]any
}

// Get returns a property value.
func (e RawEntity) Get(key string) (any, bool) {
	if e.Properties == nil {
		return nil, false
	}
	value, ok := e.Properties[key]
	return value, ok
}

// RawLayer is one row of the document layer table.
type RawLayer struct {
	Name     string
	Color    *int
	Linetype string
	Off      bool
	Frozen   bool
}

// Visible reports whether entities on the layer are displayed by default.
func (l RawLayer) Visible() bool {
	return !l.Off && !l.Frozen
}

// Library is the capability every native DWG parser exposes. Implementations
// must be safe for concurrent use across distinct documents.
type Library interface {
	Name() string
	ReadDocument(ctx context.Context, raw []byte) (Document, error)
	EnumerateEntities(ctx context.Context, doc Document) ([]RawEntity, error)
	EnumerateLayers(ctx context.Context, doc Document) ([]RawLayer, error)
	ReleaseDocument(doc Document) error
	// Close releases the library handle itself.
	Close() error
}

// Provider constructs a Library. Open returns ErrProviderUnavailable (possibly
// wrapped) when the capability is not present on this host.
type Provider interface {
	Name() string
	Open(ctx context.Context) (Library, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc struct {
	ProviderName string
	OpenFunc     func(ctx context.Context) (Library, error)
}

func (p ProviderFunc) Name() string { return p.ProviderName }

func (p ProviderFunc) Open(ctx context.Context) (Library, error) {
	if p.OpenFunc == nil {
		return nil, ErrProviderUnavailable
	}
	return p.OpenFunc(ctx)
}
