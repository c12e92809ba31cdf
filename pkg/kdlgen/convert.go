// Package kdlgen provides a public Go API for converting YAML, JSON, TOML
// and MessagePack documents into KDL.
//
// This package exposes the kdlgen conversion pipeline as a library,
// allowing programmatic use without the CLI.
//
// Basic usage:
//
//	result, err := kdlgen.Convert(ctx, "Cargo.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(string(result.KDL))
//
// With options:
//
//	result, err := kdlgen.ConvertReader(ctx, os.Stdin,
//	    kdlgen.WithFormat("yaml"),
//	    kdlgen.WithCompact(),
//	    kdlgen.WithEncoding(kdl.WithMapFormat(kdl.MapStruct)),
//	)
package kdlgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/kdlgen/internal/document"
	"github.com/hupe1980/kdlgen/internal/input"
	"github.com/hupe1980/kdlgen/internal/output"
	"github.com/hupe1980/kdlgen/pkg/kdl"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Option configures a conversion.
type Option func(*options)

type options struct {
	format   string
	compact  bool
	encoding []kdl.Option
	logger   *slog.Logger
}

// WithFormat sets the input format: auto, yaml, json, toml or msgpack.
// Auto detection needs a file name, so readers require an explicit format.
func WithFormat(f string) Option { return func(o *options) { o.format = f } }

// WithCompact selects the single-line layout.
func WithCompact() Option { return func(o *options) { o.compact = true } }

// WithEncoding appends KDL encoder options.
func WithEncoding(opts ...kdl.Option) Option {
	return func(o *options) { o.encoding = append(o.encoding, opts...) }
}

// WithLogger sets a logger for debug output. Conversions are silent by default.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = discardLogger()
	}

	return o
}

// Result holds the output of a conversion.
type Result struct {
	// KDL is the rendered document.
	KDL []byte

	// Format is the input format that was decoded.
	Format string

	// Kind is the shape of the root value, e.g. "mapping" or "sequence".
	Kind string

	// Elapsed is the time spent decoding and rendering.
	Elapsed time.Duration
}

// Convert decodes the document at path and renders it as KDL. Compressed
// files ending in .gz or .zst are decompressed transparently.
func Convert(ctx context.Context, path string, opts ...Option) (*Result, error) {
	if path == "" {
		return nil, errors.New("input path must not be empty")
	}

	o := buildOptions(opts)

	format, err := resolveFormat(o.format, path)
	if err != nil {
		return nil, err
	}

	return run(ctx, o, path, format, func() (document.Value, error) {
		return input.ReadFile(path, format)
	})
}

// ConvertReader decodes one uncompressed document from r and renders it as
// KDL. WithFormat is required.
func ConvertReader(ctx context.Context, r io.Reader, opts ...Option) (*Result, error) {
	o := buildOptions(opts)

	format, err := input.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}

	return run(ctx, o, "reader", format, func() (document.Value, error) {
		return input.ReadStream(r, "reader", format)
	})
}

func resolveFormat(name, path string) (input.Format, error) {
	format, err := input.ParseFormat(name)
	if err != nil || format != input.FormatAuto {
		return format, err
	}

	detected, _, err := input.Detect(path)

	return detected, err
}

func run(ctx context.Context, o *options, name string, format input.Format, read func() (document.Value, error)) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	doc, err := read()
	if err != nil {
		return nil, err
	}

	render, err := output.DefaultRegistry().Renderer(output.LayoutName(o.compact))
	if err != nil {
		return nil, err
	}

	data, err := render(doc, o.encoding...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}

	res := &Result{
		KDL:     data,
		Format:  format.String(),
		Kind:    doc.Kind().String(),
		Elapsed: time.Since(start),
	}

	o.logger.Debug("converted",
		slog.String("input", name),
		slog.String("format", res.Format),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", res.Elapsed),
	)

	return res, nil
}
