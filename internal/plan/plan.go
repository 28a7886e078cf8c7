// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package plan defines the YAML benchmark plan: which image to boot, how
// many times, under which instrumentation profiles, and how the boot wait
// behaves. A plan is the unit of comparison; one run of a plan produces one
// output tree that the report command aggregates.
package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/bootperf/internal/instance"
	"github.com/matt-FFFFFF/bootperf/internal/overrides"
)

const (
	// DefaultTarget is the boot milestone measured when the plan does not
	// name one.
	DefaultTarget = "graphical.target"
	// DefaultOutputDir is where the output tree lands by default.
	DefaultOutputDir = "out"

	defaultRuns     = 1
	defaultInterval = time.Second
)

var (
	// ErrInvalidYaml is returned when the plan cannot be parsed.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrNoImage is returned when the plan names no image.
	ErrNoImage = errors.New("no image specified")
	// ErrNoProfiles is returned when the plan names no profiles.
	ErrNoProfiles = errors.New("no profiles specified")
	// ErrInvalidKind is returned for an instance kind that is neither
	// container nor vm.
	ErrInvalidKind = errors.New("invalid instance kind")
	// ErrInvalidRuns is returned for a non-positive run count.
	ErrInvalidRuns = errors.New("runs must be positive")
	// ErrInvalidInterval is returned when the wait interval cannot be parsed.
	ErrInvalidInterval = errors.New("invalid wait interval")
	// ErrUnknownProfile is returned for a profile with no overrides and no
	// matching built-in.
	ErrUnknownProfile = errors.New("unknown built-in profile")
	// ErrDuplicateProfile is returned when two profiles share a name.
	ErrDuplicateProfile = errors.New("duplicate profile name")
	// ErrInvalidOverride is returned for an override with a missing unit
	// or an unknown action.
	ErrInvalidOverride = errors.New("invalid override")
)

// WaitSettings tunes the boot wait.
type WaitSettings struct {
	// Interval is the pause between status queries, in Go duration
	// syntax. Defaults to 1s.
	Interval string `yaml:"interval,omitempty"`
	// EscalateAfter is the iteration threshold for the pending-job dump.
	// Defaults to 150.
	EscalateAfter int `yaml:"escalate_after,omitempty"`
	// EscalateEveryPoll repeats the dump every iteration beyond the
	// threshold instead of firing once.
	EscalateEveryPoll bool `yaml:"escalate_every_poll,omitempty"`

	interval time.Duration
}

// IntervalDuration returns the parsed interval.
func (w WaitSettings) IntervalDuration() time.Duration {
	return w.interval
}

// ProfileRef names one instrumentation profile to measure. Without
// overrides the name must match a built-in; with overrides it defines a
// custom profile.
type ProfileRef struct {
	Name      string                   `yaml:"name"`
	Overrides []overrides.UnitOverride `yaml:"overrides,omitempty"`
}

// Plan is the root benchmark definition.
type Plan struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Image       string        `yaml:"image"`
	Kind        instance.Kind `yaml:"kind,omitempty"`
	Target      string        `yaml:"target,omitempty"`
	Runs        int           `yaml:"runs,omitempty"`
	OutputDir   string        `yaml:"output_dir,omitempty"`
	Wait        WaitSettings  `yaml:"wait,omitempty"`
	Profiles    []ProfileRef  `yaml:"profiles"`
}

// BuildFromYAML parses and validates a plan, applying defaults.
func BuildFromYAML(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYaml, err)
	}

	if err := p.applyDefaults(); err != nil {
		return nil, err
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (p *Plan) applyDefaults() error {
	if p.Kind == "" {
		p.Kind = instance.KindContainer
	}

	if p.Target == "" {
		p.Target = DefaultTarget
	}

	if p.Runs == 0 {
		p.Runs = defaultRuns
	}

	if p.OutputDir == "" {
		p.OutputDir = DefaultOutputDir
	}

	if p.Wait.Interval == "" {
		p.Wait.interval = defaultInterval
	} else {
		d, err := time.ParseDuration(p.Wait.Interval)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidInterval, p.Wait.Interval)
		}

		p.Wait.interval = d
	}

	return nil
}

func (p *Plan) validate() error {
	if p.Image == "" {
		return ErrNoImage
	}

	if !p.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, p.Kind)
	}

	if p.Runs < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRuns, p.Runs)
	}

	if len(p.Profiles) == 0 {
		return ErrNoProfiles
	}

	seen := make(map[string]struct{}, len(p.Profiles))

	for _, ref := range p.Profiles {
		if _, ok := seen[ref.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateProfile, ref.Name)
		}

		seen[ref.Name] = struct{}{}

		if _, err := resolve(ref); err != nil {
			return err
		}
	}

	return nil
}

// ResolveProfiles materialises the plan's profile references, in plan
// order.
func (p *Plan) ResolveProfiles() ([]overrides.Profile, error) {
	profiles := make([]overrides.Profile, 0, len(p.Profiles))

	for _, ref := range p.Profiles {
		profile, err := resolve(ref)
		if err != nil {
			return nil, err
		}

		profiles = append(profiles, profile)
	}

	return profiles, nil
}

func resolve(ref ProfileRef) (overrides.Profile, error) {
	if len(ref.Overrides) == 0 {
		profile, ok := overrides.BuiltIn(ref.Name)
		if !ok {
			return overrides.Profile{}, fmt.Errorf("%w: %q (built-ins: %v)",
				ErrUnknownProfile, ref.Name, overrides.BuiltInNames())
		}

		return profile, nil
	}

	for _, ov := range ref.Overrides {
		if ov.Unit == "" {
			return overrides.Profile{}, fmt.Errorf("%w: profile %q has an override without a unit",
				ErrInvalidOverride, ref.Name)
		}

		if ov.Action != overrides.ActionMask && ov.Action != overrides.ActionNoop {
			return overrides.Profile{}, fmt.Errorf("%w: profile %q unit %q action %q",
				ErrInvalidOverride, ref.Name, ov.Unit, ov.Action)
		}
	}

	return overrides.Profile{Name: ref.Name, Overrides: ref.Overrides}, nil
}
