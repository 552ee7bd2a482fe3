package cad

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// SupportedExtension is the only file extension accepted by the pipeline.
const SupportedExtension = ".dwg"

// File is the input boundary: a filename plus a way to read its bytes. The
// pipeline never opens paths itself; callers decide where bytes come from.
type File interface {
	Name() string
	ReadAll(ctx context.Context) ([]byte, error)
}

type bytesFile struct {
	name string
	data []byte
}

func (f bytesFile) Name() string { return f.name }

func (f bytesFile) ReadAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]byte(nil), f.data...), nil
}

// FileFromBytes wraps an in-memory payload.
func FileFromBytes(name string, data []byte) File {
	return bytesFile{name: name, data: append([]byte(nil), data...)}
}

type readerFile struct {
	name   string
	reader io.Reader

	mu       sync.Mutex
	consumed bool
	data     []byte
	err      error
}

func (f *readerFile) Name() string { return f.name }

// ReadAll drains the reader on the first call and serves later calls from the
// buffered payload. A failed first read keeps failing.
func (f *readerFile) ReadAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.consumed {
		f.data, f.err = f.drain()
		f.consumed = true
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte(nil), f.data...), nil
}

func (f *readerFile) drain() ([]byte, error) {
	if f.reader == nil {
		return nil, errors.New("cad: reader is nil")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f.reader); err != nil {
		return nil, fmt.Errorf("cad: read %s: %w", f.name, err)
	}
	f.reader = nil
	return buf.Bytes(), nil
}

// FileFromReader wraps a stream, typically an upload body. The first ReadAll
// consumes the reader; the payload is buffered so a survey and a later parse
// see the same bytes.
func FileFromReader(name string, reader io.Reader) File {
	return &readerFile{name: name, reader: reader}
}

// Extension returns the lower-cased extension of a filename.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}

// CheckExtension returns an unsupported-format failure for anything that is
// not a .dwg file. DXF is rejected like every other format.
func CheckExtension(name string) *Failure {
	ext := Extension(name)
	if ext == SupportedExtension {
		return nil
	}
	if ext == "" {
		return NewFailure(ErrorKindUnsupportedFormat, nil, "file %q has no extension; only %s files are supported", name, SupportedExtension)
	}
	return NewFailure(ErrorKindUnsupportedFormat, nil, "file %q has unsupported extension %s; only %s files are supported", name, ext, SupportedExtension)
}
