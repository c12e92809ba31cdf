// Package cli implements the cobra command tree for kdlgen.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/kdlgen/internal/config"
	"github.com/hupe1980/kdlgen/internal/logging"
	"github.com/hupe1980/kdlgen/internal/version"
)

// Exit codes returned by Execute.
const (
	exitGeneric     = 1
	exitUsage       = 2
	exitDifferences = 3
	exitWrite       = 6
	exitParse       = 7
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Code != exitDifferences {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}

			return exitErr.Code
		}

		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		return exitGeneric
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "kdlgen",
		Short: "Convert YAML, JSON, TOML and MessagePack documents to KDL",
		Long: `kdlgen converts structured documents into the KDL document language.

It decodes YAML, JSON, TOML and MessagePack inputs (optionally gzip or
zstd compressed) and renders them either as indented, human-friendly KDL
or as a compact single-line stream. Encoding policies such as how maps,
options and enum variants are represented can be set with flags, the
KDLGEN_* environment, a .kdlgen.yaml config file, or named profiles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			if err := cfg.CheckVersion(version.GetInfo().Version); err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("configFile", cfg.ConfigFile),
				slog.String("profile", cfg.Profile),
			)

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .kdlgen.yaml)")
	registerGlobalFlags(pf)
	registerEncodingFlags(pf)
	registerFlagCompletions(cmd, "log-level", "log-format", "map-format", "field-naming")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: exitUsage, Err: err}
	})

	cmd.AddCommand(
		newVersionCommand(),
		newConvertCommand(),
		newDiffCommand(),
		newWatchCommand(),
		newCompletionCommand(),
	)

	return cmd
}
