package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/luaconf/luaconf/pkg/config"
	"github.com/luaconf/luaconf/pkg/printer"
	"github.com/luaconf/luaconf/pkg/telemetry"
)

// watchFlags holds the command line options of luaconf-watch.
type watchFlags struct {
	Format      string        `validate:"oneof=none indent pretty yaml"`
	Timeout     time.Duration `validate:"gte=0"`
	LogLevel    string        `validate:"oneof=trace debug info warn error"`
	LogFormat   string        `validate:"oneof=console json"`
	MetricsAddr string        `validate:"omitempty,hostname_port"`
	Trace       bool
}

var validate = validator.New()

// Execute runs the root command.
func Execute(ctx context.Context, out, errOut io.Writer, version, commit, buildDate string) error {
	rootCmd := newRootCommand(out, errOut, version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(out, errOut io.Writer, version, commit, buildDate string) *cobra.Command {
	flags := watchFlags{
		Format:    printer.FormatPretty.String(),
		LogLevel:  "info",
		LogFormat: "console",
	}

	rootCmd := &cobra.Command{
		Use:   "luaconf-watch <config-file>",
		Short: "Print a configuration script and reprint it whenever it changes",
		Long: `luaconf-watch loads a sandboxed configuration script, prints its table and
keeps watching the file. Every change triggers a reload; a reload that fails
is reported and the previous configuration stays active.`,
		Example: `  # Watch with pretty output
  luaconf-watch app.lua

  # YAML output, metrics on :9090, spans on stderr
  luaconf-watch --format yaml --metrics-addr :9090 --trace app.lua`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate.Struct(flags); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			return run(cmd.Context(), cmd.OutOrStdout(), errOut, version, flags, args[0])
		},
	}

	rootCmd.SetOut(out)
	rootCmd.Flags().StringVar(&flags.Format, "format", flags.Format,
		fmt.Sprintf("output format (%v)", printer.FormatNames()))
	rootCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "maximum script execution time (0 disables)")
	rootCmd.Flags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "log level (trace, debug, info, warn, error)")
	rootCmd.Flags().StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "log format (console, json)")
	rootCmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.Flags().BoolVar(&flags.Trace, "trace", false, "write load spans to stderr")

	return rootCmd
}

func telemetryConfig(flags watchFlags, version string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceName = "luaconf-watch"
	cfg.ServiceVersion = version
	cfg.Logging.Level = flags.LogLevel
	cfg.Logging.Format = flags.LogFormat
	cfg.Metrics.ListenAddress = flags.MetricsAddr
	if flags.Trace {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = "stdout"
	}
	return cfg
}

func run(ctx context.Context, out, errOut io.Writer, version string, flags watchFlags, path string) error {
	format, err := printer.ParseFormat(flags.Format)
	if err != nil {
		return err
	}

	tel, err := telemetry.NewTelemetry(telemetryConfig(flags, version), errOut)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			tel.Logger.Error().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	if _, err := tel.StartMetricsServer(); err != nil {
		return err
	}

	w, err := config.NewWatcher(ctx, path, config.Options{
		Timeout: flags.Timeout,
		Logger:  tel.Logger,
		Metrics: tel.Metrics,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	logger := telemetry.ComponentLogger(tel.Logger, "watch")
	p := printer.New(out, format)
	show := func() {
		err := w.Do(func(h *config.Handle) error {
			return p.PrintTable(h)
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to print configuration")
		}
	}

	tel.Metrics.SetEntries(w.Path(), entryCount(w))
	show()

	// The watcher logs each reload; the callback keeps metrics and stdout current.
	return w.Run(ctx, func(ev config.ReloadEvent) {
		switch {
		case config.IsStructuralViolation(ev.Err):
			tel.Metrics.RecordReload("violation")
		case ev.Err != nil:
			tel.Metrics.RecordReload("failure")
			return
		default:
			tel.Metrics.RecordReload("success")
		}
		tel.Metrics.SetEntries(ev.Path, ev.Entries)
		show()
	})
}

// entryCount returns the number of entries before any structural violation.
func entryCount(w *config.Watcher) int {
	var n int
	_ = w.Do(func(h *config.Handle) error {
		entries, err := h.Snapshot()
		n = len(entries)
		return err
	})
	return n
}
