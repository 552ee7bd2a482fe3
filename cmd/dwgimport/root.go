package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	dwgimport "github.com/goliatone/go-dwgimport"
	"github.com/goliatone/go-dwgimport/internal/loader"
	"github.com/goliatone/go-dwgimport/internal/logging"
	"github.com/goliatone/go-dwgimport/pkg/config"
	"github.com/goliatone/go-dwgimport/pkg/orchestrator"
)

// errUnsuccessful makes the process exit non-zero after a fatal result has
// already been printed.
var errUnsuccessful = errors.New("operation unsuccessful")

// app holds what every subcommand needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	loader *loader.Loader
	out    io.Writer
	color  bool
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dwgimport",
		Short:         "Survey and parse DWG drawings",
		Long:          "Reads DWG drawings through a native parser when one is available and falls back to a sample document otherwise.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: json or console")
	flags.StringSlice("providers", nil, "native providers in preference order")
	flags.String("libredwg-binary", "", "path or name of the dwgread binary")
	flags.String("converter-url", "", "base URL of the DWG conversion service")
	flags.Duration("probe-timeout", 0, "bound on each native provider probe")
	flags.Duration("http-timeout", 30*time.Second, "timeout when the input is a URL")
	flags.Bool("color", false, "colorize JSON output")

	root.AddCommand(
		surveyCmd(),
		parseCmd(),
		providersCmd(),
	)
	return root
}

// newApp loads configuration, applies flag overrides and builds the logger.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log, logging.Options{
		Fields: map[string]string{"command": cmd.Name()},
	})
	if err != nil {
		return nil, err
	}

	httpTimeout, _ := cmd.Flags().GetDuration("http-timeout")
	color, _ := cmd.Flags().GetBool("color")

	return &app{
		cfg:    *cfg,
		logger: logger,
		loader: loader.New(loader.Options{
			AllowHTTPFallback: true,
			RequestTimeout:    httpTimeout,
		}),
		out:   cmd.OutOrStdout(),
		color: color,
	}, nil
}

func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("providers") {
		cfg.Native.Providers, _ = flags.GetStringSlice("providers")
	}
	if flags.Changed("libredwg-binary") {
		cfg.LibreDWG.Binary, _ = flags.GetString("libredwg-binary")
	}
	if flags.Changed("converter-url") {
		cfg.Converter.URL, _ = flags.GetString("converter-url")
	}
	if flags.Changed("probe-timeout") {
		cfg.Native.ProbeTimeout, _ = flags.GetDuration("probe-timeout")
	}
}

func (a *app) orchestrator() *orchestrator.Orchestrator {
	return dwgimport.NewOrchestrator(dwgimport.OptionsFromConfig(a.cfg, a.logger, nil)...)
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func requireFile(args []string) (loader.Source, error) {
	if len(args) != 1 {
		return loader.Source{}, fmt.Errorf("expected exactly one drawing, got %d", len(args))
	}
	return loader.SourceFromArg(args[0]), nil
}
