package libredwg_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dwgimport/internal/native/libredwg"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

const dwgreadOutput = `{
  "FILEHEADER": {"version": "R_2018"},
  "HEADER": {"INSUNITS": 4},
  "OBJECTS": [
    {"object": "LAYER", "handle": [0, 1, 16], "name": "walls", "color": 7, "flag": 0, "ltype": [5, 1, 20, 20]},
    {"object": "LAYER", "handle": [0, 1, 17], "name": "archive", "color": {"index": -3}, "flag": 1},
    {"object": "LTYPE", "handle": [0, 1, 20], "name": "DASHED"},
    {"entity": "LINE", "handle": [0, 2, 256], "layer": [5, 1, 16, 16], "start": [0, 0, 0], "end": [10, 0, 0]},
    {"entity": "POLYLINE_2D", "handle": [0, 2, 257], "layer": [5, 1, 17, 17], "ltype": [5, 1, 20, 20], "flag": 1},
    {"entity": "VERTEX_2D", "handle": [0, 2, 258], "ownerhandle": [4, 2, 257, 257], "point": [0, 0]},
    {"entity": "VERTEX_2D", "handle": [0, 2, 259], "ownerhandle": [4, 2, 257, 257], "point": [5, 5]},
    {"entity": "SEQEND", "handle": [0, 2, 260]}
  ]
}`

// fakeDwgread writes output to the path following -o and records the args.
func fakeDwgread(output string, calls *[][]string) libredwg.Runner {
	return func(_ context.Context, binary string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{binary}, args...))
		for i, arg := range args {
			if arg == "-o" && i+1 < len(args) {
				return nil, os.WriteFile(args[i+1], []byte(output), 0o600)
			}
		}
		return nil, errors.New("no output flag")
	}
}

func found(path string) func(string) (string, error) {
	return func(string) (string, error) { return path, nil }
}

func TestProvider_MissingBinary(t *testing.T) {
	provider := libredwg.NewProvider(libredwg.WithLookPath(func(file string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	}))
	_, err := provider.Open(context.Background())
	if !errors.Is(err, native.ErrProviderUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "dwgread not found") {
		t.Fatalf("err should name the binary: %v", err)
	}
}

func TestLibrary_ReadDocument(t *testing.T) {
	var calls [][]string
	provider := libredwg.NewProvider(
		libredwg.WithBinary("dwgread"),
		libredwg.WithLookPath(found("/opt/libredwg/bin/dwgread")),
		libredwg.WithRunner(fakeDwgread(dwgreadOutput, &calls)),
		libredwg.WithTempDir(t.TempDir()),
	)
	ctx := context.Background()
	lib, err := provider.Open(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer lib.Close()

	doc, err := lib.ReadDocument(ctx, []byte("AC1032 bytes"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(calls) != 1 || calls[0][0] != "/opt/libredwg/bin/dwgread" || calls[0][1] != "-O" || calls[0][2] != "JSON" {
		t.Fatalf("calls = %v", calls)
	}

	header := doc.Header()
	if header.Version != "R2018" || header.InsUnits == nil || *header.InsUnits != 4 {
		t.Fatalf("header = %+v", header)
	}

	entities, err := lib.EnumerateEntities(ctx, doc)
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	var summary []string
	for _, entity := range entities {
		summary = append(summary, entity.Type+"/"+entity.Handle+"/"+entity.Layer)
	}
	if diff := cmp.Diff([]string{"LINE/100/walls", "POLYLINE_2D/101/archive"}, summary); diff != "" {
		t.Fatalf("entities mismatch (-want +got):\n%s", diff)
	}
	polyline := entities[1].Properties
	if polyline["ltype_name"] != "DASHED" {
		t.Fatalf("ltype_name = %v", polyline["ltype_name"])
	}
	wantPoints := []any{[]any{0.0, 0.0}, []any{5.0, 5.0}}
	if diff := cmp.Diff(wantPoints, polyline["points"]); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}

	layers, err := lib.EnumerateLayers(ctx, doc)
	if err != nil {
		t.Fatalf("layers: %v", err)
	}
	seven, three := 7, 3
	wantLayers := []native.RawLayer{
		{Name: "walls", Color: &seven, Linetype: "DASHED"},
		{Name: "archive", Color: &three, Off: true, Frozen: true},
	}
	if diff := cmp.Diff(wantLayers, layers); diff != "" {
		t.Fatalf("layers mismatch (-want +got):\n%s", diff)
	}

	if err := lib.ReleaseDocument(doc); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := lib.ReleaseDocument(doc); !errors.Is(err, native.ErrDocumentReleased) {
		t.Fatalf("double release err = %v", err)
	}
}

func TestLibrary_ReadFailures(t *testing.T) {
	tests := []struct {
		name   string
		runner libredwg.Runner
		want   string
	}{
		{
			name: "process error with stderr",
			runner: func(context.Context, string, ...string) ([]byte, error) {
				return []byte("ERROR: Invalid or unsupported DWG version\n"), errors.New("exit status 1")
			},
			want: "exit status 1: ERROR: Invalid or unsupported DWG version",
		},
		{
			name: "no output written",
			runner: func(context.Context, string, ...string) ([]byte, error) {
				return nil, nil
			},
			want: "read output",
		},
		{
			name:   "invalid json",
			runner: fakeDwgread("{not json", new([][]string)),
			want:   "not valid JSON",
		},
		{
			name:   "missing objects",
			runner: fakeDwgread(`{"HEADER": {}}`, new([][]string)),
			want:   "no OBJECTS array",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := libredwg.NewProvider(
				libredwg.WithLookPath(found("dwgread")),
				libredwg.WithRunner(tt.runner),
				libredwg.WithTempDir(t.TempDir()),
			).Open(context.Background())
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			_, err = lib.ReadDocument(context.Background(), []byte("AC1032"))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLibrary_RejectsAfterClose(t *testing.T) {
	lib, err := libredwg.NewProvider(libredwg.WithLookPath(found("dwgread"))).Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := lib.ReadDocument(context.Background(), nil); err == nil {
		t.Fatalf("empty input accepted")
	}
	_ = lib.Close()
	if _, err := lib.ReadDocument(context.Background(), []byte("AC1032")); err == nil {
		t.Fatalf("closed library accepted a read")
	}
}
