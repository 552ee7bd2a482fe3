package loader_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-dwgimport/internal/loader"
)

func TestSourceFromArg(t *testing.T) {
	tests := []struct {
		arg  string
		kind loader.SourceKind
		name string
	}{
		{arg: "plans/ground.dwg", kind: loader.SourceKindFile, name: "ground.dwg"},
		{arg: `C:\drawings\site.DWG`, kind: loader.SourceKindFile, name: "site.DWG"},
		{arg: "https://example.com/files/plan.dwg?token=abc", kind: loader.SourceKindURL, name: "plan.dwg"},
		{arg: " HTTP://example.com/a.dwg", kind: loader.SourceKindURL, name: "a.dwg"},
	}
	for _, tt := range tests {
		src := loader.SourceFromArg(tt.arg)
		if src.Kind != tt.kind || src.Name() != tt.name {
			t.Fatalf("SourceFromArg(%q) = %+v name %q", tt.arg, src, src.Name())
		}
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.dwg")
	if err := os.WriteFile(path, []byte("AC1032"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := loader.New(loader.Options{})
	file := l.File(loader.SourceFromFile(path))
	if file.Name() != "plan.dwg" {
		t.Fatalf("name = %q", file.Name())
	}
	got, err := file.ReadAll(context.Background())
	if err != nil || string(got) != "AC1032" {
		t.Fatalf("read = %q, %v", got, err)
	}

	if _, err := l.Load(context.Background(), loader.SourceFromFile(dir)); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("directory err = %v", err)
	}
	if _, err := l.Load(context.Background(), loader.SourceFromFile(filepath.Join(dir, "missing.dwg"))); err == nil {
		t.Fatalf("missing file loaded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx, loader.SourceFromFile(path)); err == nil {
		t.Fatalf("cancelled context ignored")
	}
}

func TestLoad_FS(t *testing.T) {
	l := loader.New(loader.Options{FileSystem: fstest.MapFS{
		"drawings/a.dwg": {Data: []byte("AC1027")},
	}})
	got, err := l.Load(context.Background(), loader.SourceFromFS("drawings/a.dwg"))
	if err != nil || string(got) != "AC1027" {
		t.Fatalf("read = %q, %v", got, err)
	}

	if _, err := loader.New(loader.Options{}).Load(context.Background(), loader.SourceFromFS("a.dwg")); err == nil {
		t.Fatalf("nil fs accepted")
	}
}

func TestLoad_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plan.dwg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("AC1032 remote"))
	}))
	defer server.Close()

	disabled := loader.New(loader.Options{})
	if _, err := disabled.Load(context.Background(), loader.SourceFromURL(server.URL+"/plan.dwg")); err == nil {
		t.Fatalf("http load should be disabled")
	}

	l := loader.New(loader.Options{HTTPClient: server.Client()})
	got, err := l.Load(context.Background(), loader.SourceFromURL(server.URL+"/plan.dwg"))
	if err != nil || string(got) != "AC1032 remote" {
		t.Fatalf("read = %q, %v", got, err)
	}

	_, err = l.Load(context.Background(), loader.SourceFromURL(server.URL+"/missing.dwg"))
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("404 err = %v", err)
	}
}
