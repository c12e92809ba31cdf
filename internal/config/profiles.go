package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/kdlgen/pkg/kdl"
)

// Profile is a named set of encoding overrides declared in the config file
// under `profiles`. Unset fields keep the base setting.
type Profile struct {
	OptionAsEnum    *bool   `json:"option-as-enum,omitempty"`
	UnitAsTuple     *bool   `json:"unit-as-tuple,omitempty"`
	NewtypeAsTuple  *bool   `json:"newtype-as-tuple,omitempty"`
	MapFormat       *string `json:"map-format,omitempty"`
	WrapRoot        *bool   `json:"wrap-root,omitempty"`
	TypeAnnotations *bool   `json:"type-annotations,omitempty"`
	FieldNaming     *string `json:"field-naming,omitempty"`
	Compact         *bool   `json:"compact,omitempty"`
}

// ParseProfiles parses the profiles section from raw config file bytes.
func ParseProfiles(data []byte) (map[string]Profile, error) {
	var raw struct {
		Profiles map[string]Profile `json:"profiles,omitempty"`
	}

	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}

	var result *multierror.Error

	names := make([]string, 0, len(raw.Profiles))
	for name := range raw.Profiles {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		if err := raw.Profiles[name].Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("profiles[%s]: %w", name, err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return raw.Profiles, nil
}

// Validate checks the policy names set by the profile.
func (p Profile) Validate() error {
	var result *multierror.Error

	if p.MapFormat != nil {
		if _, err := kdl.ParseMapFormat(*p.MapFormat); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if p.FieldNaming != nil {
		if _, err := kdl.ParseNaming(*p.FieldNaming); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// Apply overwrites the settings of e that p sets.
func (p Profile) Apply(e *Encoding) {
	setIf(&e.OptionAsEnum, p.OptionAsEnum)
	setIf(&e.UnitAsTuple, p.UnitAsTuple)
	setIf(&e.NewtypeAsTuple, p.NewtypeAsTuple)
	setIf(&e.MapFormat, p.MapFormat)
	setIf(&e.WrapRoot, p.WrapRoot)
	setIf(&e.TypeAnnotations, p.TypeAnnotations)
	setIf(&e.FieldNaming, p.FieldNaming)
	setIf(&e.Compact, p.Compact)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// applyProfile applies the profile named by c.Profile from c.ConfigFile.
func (c *Config) applyProfile() error {
	if c.ConfigFile == "" {
		return fmt.Errorf("profile %q requested but no config file was found", c.Profile)
	}

	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	profiles, err := ParseProfiles(data)
	if err != nil {
		return err
	}

	p, ok := profiles[c.Profile]
	if !ok {
		names := make([]string, 0, len(profiles))
		for name := range profiles {
			names = append(names, name)
		}

		slices.Sort(names)

		return fmt.Errorf("unknown profile %q (available: %s)", c.Profile, strings.Join(names, ", "))
	}

	p.Apply(&c.Encoding)

	return nil
}
