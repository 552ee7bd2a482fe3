// Package loader turns CLI arguments into cad.File values backed by a local
// path, an fs.FS entry or an HTTP(S) URL. Bytes are fetched lazily when the
// orchestrator calls ReadAll.
package loader

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/goliatone/go-dwgimport/pkg/cad"
)

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source identifies where a drawing comes from.
type Source struct {
	Kind     SourceKind
	Location string
}

// SourceFromFile references a local path.
func SourceFromFile(p string) Source {
	return Source{Kind: SourceKindFile, Location: p}
}

// SourceFromFS references an entry of the loader's fs.FS.
func SourceFromFS(name string) Source {
	return Source{Kind: SourceKindFS, Location: name}
}

// SourceFromURL references an HTTP(S) resource.
func SourceFromURL(raw string) Source {
	return Source{Kind: SourceKindURL, Location: raw}
}

// SourceFromArg picks the URL kind for http:// and https:// arguments and the
// file kind for everything else.
func SourceFromArg(arg string) Source {
	lower := strings.ToLower(strings.TrimSpace(arg))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return SourceFromURL(strings.TrimSpace(arg))
	}
	return SourceFromFile(arg)
}

// Name is the filename the pipeline validates. URLs contribute their last
// path segment.
func (s Source) Name() string {
	if s.Kind == SourceKindURL {
		if parsed, err := url.Parse(s.Location); err == nil {
			return path.Base(parsed.Path)
		}
	}
	return path.Base(strings.ReplaceAll(s.Location, "\\", "/"))
}

// Options configures a Loader.
type Options struct {
	FileSystem        fs.FS
	HTTPClient        *http.Client
	AllowHTTPFallback bool
	RequestTimeout    time.Duration
}

// Loader resolves sources into cad.File values.
type Loader struct {
	fs        fs.FS
	http      *resty.Client
	allowHTTP bool
}

// New constructs a Loader. HTTP is enabled when a client is supplied or
// AllowHTTPFallback is set.
func New(options Options) *Loader {
	var client *resty.Client
	switch {
	case options.HTTPClient != nil:
		client = resty.NewWithClient(options.HTTPClient)
	case options.AllowHTTPFallback:
		client = resty.New()
	}
	if client != nil && options.RequestTimeout > 0 {
		client.SetTimeout(options.RequestTimeout)
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      client,
		allowHTTP: client != nil,
	}
}

// File wraps src as a cad.File.
func (l *Loader) File(src Source) cad.File {
	return &sourceFile{loader: l, source: src}
}

// Load fetches the bytes behind src.
func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	switch src.Kind {
	case SourceKindFile:
		return loadFile(ctx, src.Location)
	case SourceKindFS:
		return loadFromFS(ctx, l.fs, src.Location)
	case SourceKindURL:
		if !l.allowHTTP {
			return nil, errors.New("loader: http support disabled")
		}
		return loadHTTP(ctx, l.http, src.Location)
	default:
		return nil, errors.New("loader: unsupported source kind")
	}
}

type sourceFile struct {
	loader *Loader
	source Source
}

func (f *sourceFile) Name() string {
	return f.source.Name()
}

func (f *sourceFile) ReadAll(ctx context.Context) ([]byte, error) {
	return f.loader.Load(ctx, f.source)
}
