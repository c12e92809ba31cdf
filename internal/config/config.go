// Package config provides configuration management for kdlgen.
//
// Configuration is loaded from three sources with the following precedence
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (KDLGEN_ prefix)
//  3. Config file (.kdlgen.yaml)
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/kdlgen/pkg/kdl"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the global configuration for kdlgen.
type Config struct {
	// LogLevel controls the verbosity of log output.
	// Valid values: debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" json:"logLevel"`

	// LogFormat controls the format of log output.
	// Valid values: text, json.
	LogFormat string `mapstructure:"log-format" json:"logFormat"`

	// NoColor disables colored output.
	NoColor bool `mapstructure:"no-color" json:"noColor"`

	// Quiet suppresses all log output below error level.
	Quiet bool `mapstructure:"quiet" json:"quiet"`

	// RequiredVersion is a SemVer constraint the running kdlgen must satisfy,
	// e.g. ">= 1.2, < 2". Development builds skip the check.
	RequiredVersion string `mapstructure:"required-version" json:"requiredVersion,omitempty"`

	// Profile names a profile from the config file whose encoding settings
	// are applied on top of the ones below.
	Profile string `mapstructure:"profile" json:"profile,omitempty"`

	Encoding `mapstructure:",squash"`

	// ConfigFile is the resolved path to the config file used.
	// Set after Load(); not read from config itself.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// Encoding holds the KDL representation policies.
type Encoding struct {
	OptionAsEnum    bool   `mapstructure:"option-as-enum" json:"optionAsEnum"`
	UnitAsTuple     bool   `mapstructure:"unit-as-tuple" json:"unitAsTuple"`
	NewtypeAsTuple  bool   `mapstructure:"newtype-as-tuple" json:"newtypeAsTuple"`
	MapFormat       string `mapstructure:"map-format" json:"mapFormat"`
	WrapRoot        bool   `mapstructure:"wrap-root" json:"wrapRoot"`
	TypeAnnotations bool   `mapstructure:"type-annotations" json:"typeAnnotations"`
	FieldNaming     string `mapstructure:"field-naming" json:"fieldNaming"`
	// Compact selects the single-line layout instead of the indented one.
	Compact bool `mapstructure:"compact" json:"compact"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:  LogLevelInfo,
		LogFormat: LogFormatText,
		Encoding: Encoding{
			MapFormat:   kdl.MapInfer.String(),
			FieldNaming: kdl.NamingAsIs.String(),
		},
	}
}

// Validate checks that all config values are valid and reports every
// problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		// valid
	default:
		result = multierror.Append(result,
			fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel))
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
		// valid
	default:
		result = multierror.Append(result,
			fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat))
	}

	if c.RequiredVersion != "" {
		if _, err := semver.NewConstraint(c.RequiredVersion); err != nil {
			result = multierror.Append(result,
				fmt.Errorf("invalid required-version %q: %w", c.RequiredVersion, err))
		}
	}

	if err := c.Encoding.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// Validate checks the encoding policy names.
func (e *Encoding) Validate() error {
	var result *multierror.Error

	if _, err := kdl.ParseMapFormat(e.MapFormat); err != nil {
		result = multierror.Append(result, err)
	}

	if _, err := kdl.ParseNaming(e.FieldNaming); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// EncodeOptions converts the encoding policies into encoder options.
// Call it on a validated Config.
func (e *Encoding) EncodeOptions() []kdl.Option {
	mapFormat, _ := kdl.ParseMapFormat(e.MapFormat)
	naming, _ := kdl.ParseNaming(e.FieldNaming)

	opts := []kdl.Option{kdl.WithMapFormat(mapFormat), kdl.WithFieldNaming(naming)}

	if e.OptionAsEnum {
		opts = append(opts, kdl.WithOptionAsEnum())
	}

	if e.UnitAsTuple {
		opts = append(opts, kdl.WithUnitAsTuple())
	}

	if e.NewtypeAsTuple {
		opts = append(opts, kdl.WithNewtypeAsTuple())
	}

	if e.WrapRoot {
		opts = append(opts, kdl.WithWrapRoot())
	}

	if e.TypeAnnotations {
		opts = append(opts, kdl.WithTypeAnnotations())
	}

	return opts
}

// ErrVersionMismatch is returned when the running version does not satisfy
// required-version.
var ErrVersionMismatch = errors.New("kdlgen version does not satisfy required-version")

// CheckVersion verifies that current satisfies RequiredVersion. Development
// builds ("dev") and an empty constraint always pass.
func (c *Config) CheckVersion(current string) error {
	if c.RequiredVersion == "" || current == "dev" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.RequiredVersion)
	if err != nil {
		return fmt.Errorf("invalid required-version %q: %w", c.RequiredVersion, err)
	}

	v, err := semver.NewVersion(current)
	if err != nil {
		return fmt.Errorf("parsing version %q: %w", current, err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s does not match %q", ErrVersionMismatch, v, c.RequiredVersion)
	}

	return nil
}

// EffectiveLogLevel returns the log level to use. When Quiet is true the log
// level is overridden to "error" regardless of the configured LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// Load initialises configuration from flags, environment variables, and an
// optional config file. A fresh viper instance is used on every call so that
// Load is safe for concurrent tests.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ConfigFile = v.ConfigFileUsed()

	if cfg.Profile != "" {
		if err := cfg.applyProfile(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("no-color", false)
	v.SetDefault("quiet", false)
	v.SetDefault("required-version", "")
	v.SetDefault("profile", "")
	v.SetDefault("option-as-enum", false)
	v.SetDefault("unit-as-tuple", false)
	v.SetDefault("newtype-as-tuple", false)
	v.SetDefault("map-format", d.MapFormat)
	v.SetDefault("wrap-root", false)
	v.SetDefault("type-annotations", false)
	v.SetDefault("field-naming", d.FieldNaming)
	v.SetDefault("compact", false)
}

// configureEnv sets up environment variable support.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("KDLGEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

// configureFile sets up the config file source.
func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	v.SetConfigName(".kdlgen")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "kdlgen"))
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file found → perfectly fine in auto-discovery.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}

		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags walks from cmd up to the root and binds all PersistentFlags.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
