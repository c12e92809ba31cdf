package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/kdlgen/internal/logging"
	"github.com/hupe1980/kdlgen/internal/output"
	"github.com/hupe1980/kdlgen/internal/watch"
)

type watchOptions struct {
	inputOptions

	output   string
	dryRun   bool
	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Regenerate KDL whenever the input changes",
		Long: `Watch monitors an input document and re-runs the conversion whenever
it is saved.

File changes are debounced to avoid rapid re-runs. The output file is only
rewritten when the generated KDL actually changed, and each regeneration
reports how many lines were added or removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerInputFlags(cmd, &opts.inputOptions)

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file path (required)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "convert without writing")
	f.DurationVar(&opts.debounce, "debounce", watch.DefaultOptions().Debounce, "debounce interval for file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string, opts *watchOptions) error {
	if opts.output == "" && !opts.dryRun {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("--output (-o) is required for watch mode")}
	}

	if path == "-" {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("standard input cannot be watched")}
	}

	conv, err := newConverter(ctx, cmd, &opts.inputOptions)
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx)

	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		data, convErr := conv.convert(fnCtx, path)
		if convErr != nil {
			return nil, convErr
		}

		if opts.dryRun {
			return &watch.RunResult{Output: data}, nil
		}

		w := output.NewFileWriter(opts.output, output.WithLogger(logger), output.WithSkipUnchanged())
		if writeErr := w.Write(data); writeErr != nil {
			return nil, fmt.Errorf("writing output: %w", writeErr)
		}

		return &watch.RunResult{OutputPath: opts.output, Output: data}, nil
	}

	watchOpts := watch.DefaultOptions()
	watchOpts.Files = []string{path}
	watchOpts.Debounce = opts.debounce
	watchOpts.Logger = logger
	watchOpts.Out = cmd.ErrOrStderr()

	if err := watch.Run(ctx, watchOpts, runFn); err != nil {
		return &ExitError{Code: exitGeneric, Err: err}
	}

	return nil
}
