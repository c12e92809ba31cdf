package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/kdlgen/internal/diff"
)

type diffOptions struct {
	inputOptions

	// Existing KDL file to diff against.
	existing string

	// Lines of context around each change.
	context int
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Compare generated KDL against a file on disk",
		Long: `Diff converts the input document with the current settings and prints
a unified diff against an existing KDL file.

Exit codes:
  0  No differences
  1  Error
  2  Invalid arguments
  3  Differences found
  7  Input could not be read`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerInputFlags(cmd, &opts.inputOptions)

	f := cmd.Flags()
	f.StringVar(&opts.existing, "existing", "", "path to the existing KDL file to diff against")
	f.IntVarP(&opts.context, "context", "U", diff.DefaultOptions().Context, "lines of context")

	return cmd
}

func runDiff(ctx context.Context, cmd *cobra.Command, path string, opts *diffOptions) error {
	if opts.existing == "" {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("--existing flag is required: specify the KDL file to compare against")}
	}

	if opts.context < 0 {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("--context must not be negative, got %d", opts.context)}
	}

	existing, err := os.ReadFile(opts.existing)
	if err != nil {
		return &ExitError{Code: exitParse, Err: fmt.Errorf("reading existing KDL: %w", err)}
	}

	conv, err := newConverter(ctx, cmd, &opts.inputOptions)
	if err != nil {
		return err
	}

	generated, err := conv.convert(ctx, path)
	if err != nil {
		return err
	}

	diffOpts := diff.DefaultOptions()
	diffOpts.OldLabel = opts.existing
	diffOpts.NewLabel = path + " (generated)"
	diffOpts.Context = opts.context

	result, err := diff.Compute(string(existing), string(generated), diffOpts)
	if err != nil {
		return &ExitError{Code: exitGeneric, Err: err}
	}

	diff.Write(cmd.OutOrStdout(), result, !conv.cfg.NoColor && !color.NoColor)

	if result.HasDifferences {
		return &ExitError{Code: exitDifferences, Err: fmt.Errorf("%s differs: %s", opts.existing, result.Summary())}
	}

	return nil
}
