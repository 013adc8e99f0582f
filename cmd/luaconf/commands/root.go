package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/luaconf/luaconf/pkg/config"
	"github.com/luaconf/luaconf/pkg/printer"
)

// Execute runs the root command.
func Execute(ctx context.Context, out io.Writer, logger zerolog.Logger, version, commit, buildDate string) error {
	rootCmd := newRootCommand(out, logger, version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(out io.Writer, logger zerolog.Logger, version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "luaconf <config-file> [key ...]",
		Short: "Print values from a sandboxed Lua configuration script",
		Long: `luaconf runs a configuration script in a sandboxed interpreter and prints
the string-keyed table it returns.

With no keys every entry is printed in iteration order. With keys, each
matching entry is printed in argument order; keys that are not present
are reported on stderr and produce no output.

Files ending in .star are evaluated as Starlark instead of Lua.`,
		Example: `  # Print every entry
  luaconf app.lua

  # Print selected entries
  luaconf app.lua name count`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		Args:          requireConfigFile,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), logger, args[0], args[1:])
		},
	}

	rootCmd.SetOut(out)
	// Everything after the config file is a key, even when it looks like a flag.
	rootCmd.Flags().SetInterspersed(false)

	return rootCmd
}

func requireConfigFile(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <config-file> [key ...]", cmd.Root().Name())
	}
	return nil
}

func run(ctx context.Context, out io.Writer, logger zerolog.Logger, path string, keys []string) error {
	logger = logger.With().Str("path", path).Logger()

	h, err := config.Load(ctx, path, config.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer h.Close()

	p := printer.New(out, printer.FormatNone)

	if len(keys) == 0 {
		if err := p.PrintTable(h); err != nil {
			return reportQueryError(logger, "", err)
		}
		return nil
	}

	for _, key := range keys {
		if err := p.PrintKey(h, key); err != nil {
			if err := reportQueryError(logger, key, err); err != nil {
				return err
			}
		}
	}
	return nil
}

// reportQueryError logs classified query errors and returns anything else,
// such as a failed write to stdout.
func reportQueryError(logger zerolog.Logger, key string, err error) error {
	switch {
	case config.IsNotFound(err):
		logger.Warn().Str("key", key).Msg("Key not found in configuration")
	case config.IsStructuralViolation(err):
		logger.Warn().Err(err).Str("key", key).Msg("Configuration table is malformed")
	case config.KindOf(err) == config.KindInvalidArgument:
		logger.Warn().Err(err).Str("key", key).Msg("Invalid key")
	default:
		return err
	}
	return nil
}
