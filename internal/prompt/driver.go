// Package prompt asks the user which layers to import after a survey.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-dwgimport/pkg/cad"
)

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrNothingSelected is returned when the user confirms an empty selection.
	ErrNothingSelected = errors.New("prompt: no layer selected")
)

// SelectConfig configures a multi-select prompt.
type SelectConfig struct {
	Message  string
	Options  []string
	Defaults []int // indices into Options
	Help     string
	PageSize int
}

// Driver abstracts the terminal so selection logic can be tested without one.
type Driver interface {
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns a Driver backed by survey/v2.
func NewSurveyDriver() Driver {
	return &surveyDriver{out: os.Stderr}
}

func (d *surveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	prompt := &survey.MultiSelect{
		Message: cfg.Message,
		Options: cfg.Options,
		Help:    cfg.Help,
	}
	if cfg.PageSize > 0 {
		prompt.PageSize = cfg.PageSize
	}
	if len(cfg.Defaults) > 0 {
		prompt.Default = defaultsFromIndices(cfg.Options, cfg.Defaults)
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return nil, translateSurveyErr(err)
	}
	return indicesOf(cfg.Options, out), nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// SelectLayers offers the surveyed layers, pre-selecting the visible ones,
// and returns the chosen names in survey order.
func SelectLayers(ctx context.Context, driver Driver, layers []cad.LayerInfo) ([]string, error) {
	if driver == nil {
		return nil, errors.New("prompt: driver is nil")
	}
	if len(layers) == 0 {
		if err := driver.Info(ctx, "drawing has no layers"); err != nil {
			return nil, err
		}
		return nil, ErrNothingSelected
	}

	options := make([]string, len(layers))
	var defaults []int
	for i, layer := range layers {
		options[i] = Label(layer)
		if layer.IsVisible {
			defaults = append(defaults, i)
		}
	}

	picked, err := driver.MultiSelect(ctx, SelectConfig{
		Message:  "Layers to import",
		Options:  options,
		Defaults: defaults,
		Help:     "Space toggles a layer, enter confirms",
		PageSize: 15,
	})
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return nil, ErrNothingSelected
	}

	names := make([]string, 0, len(picked))
	for _, idx := range picked {
		if idx >= 0 && idx < len(layers) {
			names = append(names, layers[idx].Name)
		}
	}
	return names, nil
}

// Label renders a layer as a prompt option.
func Label(layer cad.LayerInfo) string {
	label := fmt.Sprintf("%s (%d)", layer.Name, layer.EntityCount)
	if !layer.IsVisible {
		label += " [hidden]"
	}
	return label
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func indicesOf(options, values []string) []int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	var out []int
	for i, option := range options {
		if _, ok := seen[option]; ok {
			out = append(out, i)
		}
	}
	return out
}

func defaultsFromIndices(options []string, indices []int) []string {
	var out []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx])
		}
	}
	return out
}
