package prompt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dwgimport/internal/prompt"
	"github.com/goliatone/go-dwgimport/pkg/cad"
)

type fakeDriver struct {
	picked []int
	err    error

	got   prompt.SelectConfig
	infos []string
}

func (d *fakeDriver) MultiSelect(_ context.Context, cfg prompt.SelectConfig) ([]int, error) {
	d.got = cfg
	return d.picked, d.err
}

func (d *fakeDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func surveyed() []cad.LayerInfo {
	return []cad.LayerInfo{
		{Name: "doors", EntityCount: 3, IsVisible: true},
		{Name: "hidden", EntityCount: 0, IsVisible: false},
		{Name: "walls", EntityCount: 12, IsVisible: true},
	}
}

func TestSelectLayers(t *testing.T) {
	driver := &fakeDriver{picked: []int{0, 2}}
	names, err := prompt.SelectLayers(context.Background(), driver, surveyed())
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if diff := cmp.Diff([]string{"doors", "walls"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	wantOptions := []string{"doors (3)", "hidden (0) [hidden]", "walls (12)"}
	if diff := cmp.Diff(wantOptions, driver.got.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, driver.got.Defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectLayers_Errors(t *testing.T) {
	empty := &fakeDriver{}
	if _, err := prompt.SelectLayers(context.Background(), empty, nil); !errors.Is(err, prompt.ErrNothingSelected) {
		t.Fatalf("no layers err = %v", err)
	}
	if diff := cmp.Diff([]string{"drawing has no layers"}, empty.infos); diff != "" {
		t.Fatalf("infos mismatch (-want +got):\n%s", diff)
	}

	none := &fakeDriver{picked: nil}
	if _, err := prompt.SelectLayers(context.Background(), none, surveyed()); !errors.Is(err, prompt.ErrNothingSelected) {
		t.Fatalf("empty pick err = %v", err)
	}

	aborted := &fakeDriver{err: prompt.ErrAborted}
	if _, err := prompt.SelectLayers(context.Background(), aborted, surveyed()); !errors.Is(err, prompt.ErrAborted) {
		t.Fatalf("abort err = %v", err)
	}

	if _, err := prompt.SelectLayers(context.Background(), nil, surveyed()); err == nil {
		t.Fatalf("nil driver accepted")
	}
}
