package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kdlgen/pkg/kdl"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newTestRootCmd creates a cobra.Command with the same persistent flags as the
// real root command so that Load can bind them during tests.
func newTestRootCmd() *cobra.Command {
	cmd := &cobra.Command{}
	pf := cmd.PersistentFlags()
	pf.String("config", "", "")
	pf.String("log-level", "info", "")
	pf.String("log-format", "text", "")
	pf.Bool("no-color", false, "")
	pf.BoolP("quiet", "q", false, "")
	pf.String("map-format", "infer", "")
	pf.Bool("compact", false, "")

	return cmd
}

// writeTempConfig writes a YAML string to a temporary file and returns the path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

// ---------------------------------------------------------------------------
// Default
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.Quiet)
	assert.Equal(t, "infer", cfg.MapFormat)
	assert.Equal(t, "as-is", cfg.FieldNaming)
	assert.NoError(t, cfg.Validate())
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate_ValidValues(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		cfg := Default()
		cfg.LogLevel = lvl
		assert.NoError(t, cfg.Validate(), "level=%s", lvl)
	}

	for _, mf := range []string{"infer", "tuple", "struct"} {
		cfg := Default()
		cfg.MapFormat = mf
		assert.NoError(t, cfg.Validate(), "map-format=%s", mf)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	cfg.LogFormat = "xml"
	cfg.MapFormat = "list"
	cfg.FieldNaming = "screaming"
	cfg.RequiredVersion = "not a constraint"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid log level")
	assert.ErrorContains(t, err, "invalid log format")
	assert.ErrorContains(t, err, "invalid map format")
	assert.ErrorContains(t, err, "invalid field naming")
	assert.ErrorContains(t, err, "invalid required-version")
}

// ---------------------------------------------------------------------------
// CheckVersion
// ---------------------------------------------------------------------------

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name     string
		required string
		current  string
		wantErr  bool
	}{
		{"no constraint", "", "0.1.0", false},
		{"dev build", ">= 9.0", "dev", false},
		{"satisfied", ">= 1.2, < 2", "1.4.0", false},
		{"too old", ">= 1.2", "1.1.9", true},
		{"unparsable version", ">= 1.2", "nightly", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.RequiredVersion = tt.required

			err := cfg.CheckVersion(tt.current)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	cfg := Default()
	cfg.RequiredVersion = "^2"
	assert.ErrorIs(t, cfg.CheckVersion("1.0.0"), ErrVersionMismatch)
}

// ---------------------------------------------------------------------------
// EncodeOptions
// ---------------------------------------------------------------------------

func TestEncodeOptions(t *testing.T) {
	cfg := Default()
	cfg.MapFormat = "tuple"
	cfg.FieldNaming = "kebab"
	cfg.OptionAsEnum = true
	cfg.WrapRoot = true

	out, err := kdl.Marshal(map[string]*int{"a": nil}, cfg.EncodeOptions()...)
	require.NoError(t, err)
	assert.Equal(t, "- {\n    - r\"a\" (None)null\n}\n", string(out))
}

// ---------------------------------------------------------------------------
// EffectiveLogLevel
// ---------------------------------------------------------------------------

func TestEffectiveLogLevel_Normal(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, "debug", cfg.EffectiveLogLevel())
}

func TestEffectiveLogLevel_QuietOverride(t *testing.T) {
	cfg := &Config{LogLevel: "debug", Quiet: true}
	assert.Equal(t, "error", cfg.EffectiveLogLevel())
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("KDLGEN_LOG_LEVEL", "debug")
	t.Setenv("KDLGEN_MAP_FORMAT", "struct")
	t.Setenv("KDLGEN_TYPE_ANNOTATIONS", "true")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "struct", cfg.MapFormat)
	assert.True(t, cfg.TypeAnnotations)
}

func TestLoad_ConfigFile(t *testing.T) {
	p := writeTempConfig(t, "log-format: json\nunit-as-tuple: true\nfield-naming: snake\n")

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.UnitAsTuple)
	assert.Equal(t, "snake", cfg.FieldNaming)
	assert.Equal(t, p, cfg.ConfigFile)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	p := writeTempConfig(t, ": invalid yaml :")

	_, err := Load(nil, p)
	require.Error(t, err)
}

func TestLoad_FlagOverridesAll(t *testing.T) {
	t.Setenv("KDLGEN_MAP_FORMAT", "struct")
	p := writeTempConfig(t, "map-format: infer\n")

	cmd := newTestRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("map-format", "tuple"))

	cfg, err := Load(cmd, p)
	require.NoError(t, err)
	assert.Equal(t, "tuple", cfg.MapFormat)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("KDLGEN_COMPACT", "true")
	p := writeTempConfig(t, "compact: false\n")

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.True(t, cfg.Compact)
}

func TestLoad_InvalidValueFromFile(t *testing.T) {
	p := writeTempConfig(t, "map-format: list\n")

	_, err := Load(nil, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid map format")
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

const profileConfig = `compact: true
profiles:
  cargo:
    map-format: struct
    compact: false
    field-naming: kebab
  strict:
    option-as-enum: true
`

func TestParseProfiles(t *testing.T) {
	profiles, err := ParseProfiles([]byte(profileConfig))
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	require.NotNil(t, profiles["cargo"].MapFormat)
	assert.Equal(t, "struct", *profiles["cargo"].MapFormat)
	assert.Nil(t, profiles["strict"].MapFormat)
}

func TestParseProfiles_Invalid(t *testing.T) {
	_, err := ParseProfiles([]byte("profiles:\n  bad:\n    map-format: list\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profiles[bad]")
}

func TestLoad_Profile(t *testing.T) {
	t.Setenv("KDLGEN_PROFILE", "cargo")
	p := writeTempConfig(t, profileConfig)

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "struct", cfg.MapFormat)
	assert.Equal(t, "kebab", cfg.FieldNaming)
	assert.False(t, cfg.Compact)
	assert.False(t, cfg.OptionAsEnum)
}

func TestLoad_UnknownProfile(t *testing.T) {
	t.Setenv("KDLGEN_PROFILE", "nope")
	p := writeTempConfig(t, profileConfig)

	_, err := Load(nil, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: cargo, strict")
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func TestContext_RoundTrip(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	ctx := NewContext(context.Background(), cfg)
	assert.Equal(t, cfg, FromContext(ctx))
}

func TestFromContext_FallbackToDefault(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))
}
