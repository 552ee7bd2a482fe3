package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/goliatone/go-dwgimport/internal/prompt"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

func surveyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "survey <drawing.dwg|url>",
		Short: "List the layers of a drawing with entity counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			src, err := requireFile(args)
			if err != nil {
				return err
			}
			orch := a.orchestrator()
			defer func() {
				_ = orch.Cleanup()
			}()

			result := orch.SurveyLayers(cmd.Context(), a.loader.File(src))
			if err := a.writeJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return errUnsuccessful
			}
			return nil
		},
	}
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <drawing.dwg|url>",
		Short: "Parse a drawing into normalized entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			src, err := requireFile(args)
			if err != nil {
				return err
			}
			layers, _ := cmd.Flags().GetStringSlice("layers")
			interactive, _ := cmd.Flags().GetBool("interactive")
			output, _ := cmd.Flags().GetString("output")

			orch := a.orchestrator()
			defer func() {
				_ = orch.Cleanup()
			}()
			file := a.loader.File(src)

			if interactive {
				survey := orch.SurveyLayers(cmd.Context(), file)
				if !survey.Success {
					if err := a.writeJSON(survey); err != nil {
						return err
					}
					return errUnsuccessful
				}
				layers, err = prompt.SelectLayers(cmd.Context(), prompt.NewSurveyDriver(), survey.Layers)
				if err != nil {
					return err
				}
			}

			result := orch.ParseWithLayers(cmd.Context(), file, layers)
			if output != "" {
				if err := a.writeJSONFile(output, result); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Result written to %s\n", output)
			} else if err := a.writeJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return errUnsuccessful
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("layers", nil, "layers to keep; empty keeps every layer")
	cmd.Flags().BoolP("interactive", "i", false, "survey first and pick layers from a prompt")
	cmd.Flags().StringP("output", "o", "", "output file (stdout if empty)")
	return cmd
}

type providerReport struct {
	Registered []string `json:"registered"`
	State      string   `json:"state"`
	Provider   string   `json:"provider,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Probe native providers and report which one is used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			orch := a.orchestrator()
			defer func() {
				_ = orch.Cleanup()
			}()

			status := orch.Init(cmd.Context())
			report := providerReport{
				Registered: orch.Registry().List(),
				State:      status.State.String(),
				Provider:   status.Provider,
			}
			if status.State == native.StateDegraded && status.Reason != nil {
				report.Reason = status.Reason.Error()
			}
			return a.writeJSON(report)
		},
	}
}

func (a *app) encode(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	formatted := pretty.Pretty(raw)
	if a.color {
		formatted = pretty.Color(formatted, nil)
	}
	return formatted, nil
}

func (a *app) writeJSON(value any) error {
	data, err := a.encode(value)
	if err != nil {
		return err
	}
	_, err = a.out.Write(data)
	return err
}

func (a *app) writeJSONFile(path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if err := os.WriteFile(path, pretty.Pretty(data), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
