// Package input decodes YAML, JSON, TOML and MessagePack files, optionally
// gzip or zstd compressed, into document trees.
package input

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/kdlgen/internal/document"
)

// Format identifies the encoding of an input document.
type Format int

const (
	// FormatAuto selects the format from the file extension.
	FormatAuto Format = iota
	FormatYAML
	FormatJSON
	FormatTOML
	FormatMsgpack
)

// String returns the name of the format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatTOML:
		return "toml"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name as accepted by the --from flag.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	case "msgpack", "mpk":
		return FormatMsgpack, nil
	default:
		return FormatAuto, fmt.Errorf("unknown input format %q: must be one of auto, yaml, json, toml, msgpack", s)
	}
}

var extensions = map[string]Format{
	".yaml":    FormatYAML,
	".yml":     FormatYAML,
	".json":    FormatJSON,
	".toml":    FormatTOML,
	".msgpack": FormatMsgpack,
	".mpk":     FormatMsgpack,
}

// Detect returns the format and compression of path from its extensions,
// e.g. "values.yaml.gz" is gzip compressed YAML.
func Detect(path string) (Format, Compression, error) {
	c := detectCompression(path)
	if c != CompressionNone {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, c, nil
	}

	return FormatAuto, c, fmt.Errorf("cannot determine input format of %q: use --from", path)
}

// ParseError reports an input document that could not be decoded.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrEmpty is returned for inputs that contain no document.
var ErrEmpty = errors.New("input is empty")

// Decode reads one document of format f from r.
func Decode(r io.Reader, f Format) (document.Value, error) {
	switch f {
	case FormatYAML:
		return decodeYAML(r)
	case FormatJSON:
		return decodeJSON(r)
	case FormatTOML:
		return decodeTOML(r)
	case FormatMsgpack:
		return decodeMsgpack(r)
	default:
		return nil, fmt.Errorf("cannot decode format %s", f)
	}
}

// ReadFile decodes the document at path. The path "-" reads standard input
// and requires an explicit format. With FormatAuto the format and
// compression come from the file name.
func ReadFile(path string, f Format) (document.Value, error) {
	if path == "-" {
		return ReadStream(os.Stdin, path, f)
	}

	detected, c, err := Detect(path)
	if f == FormatAuto {
		if err != nil {
			return nil, err
		}

		f = detected
	}

	file, err := os.Open(path) //nolint:gosec // path is user-provided CLI arg
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer func() { _ = file.Close() }()

	return decodeStream(file, path, f, c)
}

// ReadStream decodes an uncompressed document from r, naming it name in
// errors. Streams carry no file name to detect from, so f must be set.
func ReadStream(r io.Reader, name string, f Format) (document.Value, error) {
	if f == FormatAuto {
		return nil, fmt.Errorf("reading %s requires --from", name)
	}

	return decodeStream(r, name, f, CompressionNone)
}

func decodeStream(r io.Reader, path string, f Format, c Compression) (document.Value, error) {
	rc, err := decompress(r, c)
	if err != nil {
		return nil, &ParseError{Path: path, Format: f, Err: err}
	}
	defer func() { _ = rc.Close() }()

	v, err := Decode(rc, f)
	if err != nil {
		return nil, &ParseError{Path: path, Format: f, Err: err}
	}

	return v, nil
}
