package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hupe1980/kdlgen/internal/input"
	"github.com/hupe1980/kdlgen/pkg/kdl"
)

// registerGlobalFlags adds logging and version pinning flags. Defaults live
// in the config package; flags only override when set.
func registerGlobalFlags(pf *pflag.FlagSet) {
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.String("required-version", "", "semver constraint the running kdlgen must satisfy")
	pf.String("profile", "", "apply a named encoding profile from the config file")
}

// registerEncodingFlags adds the KDL representation policies.
func registerEncodingFlags(pf *pflag.FlagSet) {
	pf.Bool("option-as-enum", false, "encode optional values as (Some)/(None) variants")
	pf.Bool("unit-as-tuple", false, "encode unit values as empty groups instead of null")
	pf.Bool("newtype-as-tuple", false, "wrap newtype values in a one-element group")
	pf.String("map-format", kdl.MapInfer.String(), "map layout: infer, tuple, struct")
	pf.Bool("wrap-root", false, "always emit the root value as a node")
	pf.Bool("type-annotations", false, "annotate values with their type names")
	pf.String("field-naming", kdl.NamingAsIs.String(), "field naming for untagged fields: as-is, kebab, snake, camel, lower-camel")
	pf.Bool("compact", false, "emit single-line compact KDL")
}

type inputOptions struct {
	from string
}

// registerInputFlags adds the input format override.
func registerInputFlags(cmd *cobra.Command, opts *inputOptions) {
	cmd.Flags().StringVar(&opts.from, "from", input.FormatAuto.String(),
		"input format: auto, yaml, json, toml, msgpack (required for stdin)")
	registerFlagCompletions(cmd, "from")
}

func (o *inputOptions) format() (input.Format, error) {
	f, err := input.ParseFormat(o.from)
	if err != nil {
		return input.FormatAuto, &ExitError{Code: exitUsage, Err: err}
	}

	return f, nil
}
