package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dwgimport/pkg/cad"
)

// DWGBytes returns a payload that passes signature sniffing for the given
// $ACADVER code (AC1032 when empty). The body after the signature is filler.
func DWGBytes(code string) []byte {
	if len(code) != 6 {
		code = "AC1032"
	}
	payload := make([]byte, 128)
	copy(payload, code)
	for i := 6; i < len(payload); i++ {
		payload[i] = byte(i)
	}
	return payload
}

// DWGFile wraps DWGBytes in a cad.File.
func DWGFile(name string) cad.File {
	return cad.FileFromBytes(name, DWGBytes(""))
}

// FailingFile is a cad.File whose ReadAll always fails.
type FailingFile struct {
	FileName string
	Err      error
}

func (f FailingFile) Name() string { return f.FileName }

func (f FailingFile) ReadAll(context.Context) ([]byte, error) {
	if f.Err == nil {
		return nil, errors.New("testsupport: read failed")
	}
	return nil, f.Err
}

// LoadData reads a JSON golden into cad.Data.
func LoadData(path string) (*cad.Data, error) {
	if path == "" {
		return nil, errors.New("testsupport: data path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read data: %w", err)
	}
	var out cad.Data
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal data: %w", err)
	}
	return &out, nil
}

// MustLoadData is LoadData for tests.
func MustLoadData(t *testing.T, path string) *cad.Data {
	t.Helper()

	out, err := LoadData(path)
	if err != nil {
		t.Fatalf("load data: %v", err)
	}
	return out
}

// updateGoldens reports whether UPDATE_GOLDENS asks for regeneration.
func updateGoldens() bool {
	return os.Getenv("UPDATE_GOLDENS") != ""
}

func storeGolden(t *testing.T, path string, payload []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("golden %s: %v", path, err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("golden %s: %v", path, err)
	}
}

// WriteGolden stores value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()
	if !updateGoldens() {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("golden %s: encode: %v", path, err)
	}
	storeGolden(t, path, payload)
}

// CompareGolden diffs want against got.
func CompareGolden(want, got any, opts ...cmp.Option) string {
	return cmp.Diff(want, got, opts...)
}

// MustReadGolden returns the raw golden bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("golden %s: %v", path, err)
	}
	return data
}

// WriteMaybeGolden stores data when UPDATE_GOLDENS is set and reports
// whether it did, so the caller can skip the comparison.
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if !updateGoldens() {
		return false
	}
	storeGolden(t, path, bytes.TrimRight(data, "\n"))
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
