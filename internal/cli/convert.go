package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/kdlgen/internal/config"
	"github.com/hupe1980/kdlgen/internal/document"
	"github.com/hupe1980/kdlgen/internal/input"
	"github.com/hupe1980/kdlgen/internal/logging"
	"github.com/hupe1980/kdlgen/internal/output"
)

type convertOptions struct {
	inputOptions

	output    string
	outputDir string
	jobs      int
	dryRun    bool
}

func newConvertCommand() *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert documents to KDL",
		Long: `Convert decodes one or more YAML, JSON, TOML or MessagePack documents
and renders them as KDL.

The input format is detected from the file extension; compressed inputs
ending in .gz or .zst are decompressed transparently. Use "-" to read
standard input together with --from.

By default the result is written to stdout. Use --output (-o) to write a
single input to a file, or --output-dir to convert many inputs
concurrently into <dir>/<name>.kdl.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), cmd, args, opts)
		},
	}

	registerInputFlags(cmd, &opts.inputOptions)

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file path (default: stdout)")
	f.StringVar(&opts.outputDir, "output-dir", "", "write one .kdl file per input into this directory")
	f.IntVarP(&opts.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of inputs converted concurrently")
	f.BoolVar(&opts.dryRun, "dry-run", false, "convert but only report what would be written")

	return cmd
}

func (o *convertOptions) validate(args []string) error {
	switch {
	case o.output != "" && o.outputDir != "":
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("--output and --output-dir are mutually exclusive")}
	case o.output != "" && len(args) > 1:
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("--output accepts a single input; use --output-dir for %d inputs", len(args))}
	case o.jobs < 1:
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("--jobs must be at least 1, got %d", o.jobs)}
	}

	if slices.Contains(args, "-") {
		if o.outputDir != "" {
			return &ExitError{Code: exitUsage, Err: fmt.Errorf("standard input cannot be combined with --output-dir")}
		}

		if slices.Index(args, "-") != slices.LastIndex(args, "-") {
			return &ExitError{Code: exitUsage, Err: fmt.Errorf("standard input can only be read once")}
		}
	}

	if o.outputDir != "" {
		targets := make(map[string]string, len(args))

		for _, a := range args {
			dst := output.PathFor(o.outputDir, a)
			if prev, ok := targets[dst]; ok {
				return &ExitError{Code: exitUsage, Err: fmt.Errorf("inputs %s and %s would both be written to %s", prev, a, dst)}
			}

			targets[dst] = a
		}
	}

	return nil
}

func runConvert(ctx context.Context, cmd *cobra.Command, args []string, opts *convertOptions) error {
	if err := opts.validate(args); err != nil {
		return err
	}

	conv, err := newConverter(ctx, cmd, &opts.inputOptions)
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx)
	results := make([][]byte, len(args))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.jobs, len(args)))

	for i, path := range args {
		g.Go(func() error {
			data, convErr := conv.convert(gctx, path)
			results[i] = data

			return convErr
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	switch {
	case opts.outputDir != "":
		for i, path := range args {
			if err := opts.writeFile(cmd, logger, output.PathFor(opts.outputDir, path), results[i]); err != nil {
				return err
			}
		}
	case opts.output != "":
		if err := opts.writeFile(cmd, logger, opts.output, results[0]); err != nil {
			return err
		}
	default:
		w := output.NewStdoutWriter(cmd.OutOrStdout())

		for _, data := range results {
			if err := w.Write(data); err != nil {
				return &ExitError{Code: exitWrite, Err: err}
			}
		}

		return nil
	}

	if !conv.cfg.Quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Converted %d file(s)\n", len(args))
	}

	return nil
}

func (o *convertOptions) writeFile(cmd *cobra.Command, logger *slog.Logger, path string, data []byte) error {
	if o.dryRun {
		fmt.Fprintf(cmd.ErrOrStderr(), "would write %s (%d bytes)\n", path, len(data))
		return nil
	}

	if err := output.NewFileWriter(path, output.WithLogger(logger)).Write(data); err != nil {
		return &ExitError{Code: exitWrite, Err: err}
	}

	return nil
}

// converter turns input documents into KDL using the loaded configuration.
type converter struct {
	cfg    *config.Config
	render output.Renderer
	format input.Format
	stdin  io.Reader
}

func newConverter(ctx context.Context, cmd *cobra.Command, in *inputOptions) (*converter, error) {
	format, err := in.format()
	if err != nil {
		return nil, err
	}

	cfg := config.FromContext(ctx)

	render, err := output.DefaultRegistry().Renderer(output.LayoutName(cfg.Compact))
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	return &converter{cfg: cfg, render: render, format: format, stdin: cmd.InOrStdin()}, nil
}

func (c *converter) convert(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := logging.ForInput(ctx, path, c.format.String())
	start := time.Now()

	var (
		doc document.Value
		err error
	)

	if path == "-" {
		doc, err = input.ReadStream(c.stdin, "<stdin>", c.format)
	} else {
		doc, err = input.ReadFile(path, c.format)
	}

	if err != nil {
		return nil, &ExitError{Code: exitParse, Err: err}
	}

	data, err := c.render(doc, c.cfg.EncodeOptions()...)
	if err != nil {
		return nil, &ExitError{Code: exitGeneric, Err: fmt.Errorf("encoding %s: %w", path, err)}
	}

	logger.Debug("converted",
		slog.String("kind", doc.Kind().String()),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return data, nil
}
