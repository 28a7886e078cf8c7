// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package overrides applies boot-instrumentation profiles to an instance
// before a measured boot. A profile is a named set of systemd unit
// overrides: masking a unit removes it from the boot entirely, a no-op
// override keeps the unit's ordering edges but replaces its work with
// /bin/true. Comparing boots across profiles is what the harness exists
// for.
package overrides

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
	"github.com/matt-FFFFFF/bootperf/internal/instance"
)

const (
	dropInName = "zz-bootperf.conf"

	// noopDropIn clears the unit's ExecStart and replaces it with
	// /bin/true, preserving the unit's position in the dependency graph.
	noopDropIn = "[Service]\nExecStart=\nExecStart=/bin/true\n"
)

var (
	// ErrUnknownAction is returned for an override action the harness
	// does not implement.
	ErrUnknownAction = errors.New("unknown override action")
	// ErrApply is returned when pushing an override into the guest fails.
	ErrApply = errors.New("failed to apply override")
	// ErrDaemonReload is returned when the post-override daemon-reload fails.
	ErrDaemonReload = errors.New("daemon-reload failed")
)

// Action is what an override does to its unit.
type Action string

const (
	// ActionMask masks the unit so it never runs.
	ActionMask Action = "mask"
	// ActionNoop replaces the unit's ExecStart with /bin/true.
	ActionNoop Action = "noop"
)

// UnitOverride is one instrumented unit.
type UnitOverride struct {
	Unit   string `yaml:"unit"`
	Action Action `yaml:"action"`
}

// Profile is a named set of unit overrides.
type Profile struct {
	Name      string         `yaml:"name"`
	Overrides []UnitOverride `yaml:"overrides"`
}

// cloudInitServices are the service units cloud-init contributes to boot.
// The target itself is never overridden: it is the milestone being waited
// on.
var cloudInitServices = []string{
	"cloud-init-local.service",
	"cloud-init-network.service",
	"cloud-config.service",
	"cloud-final.service",
	"cloud-init-main.service",
}

// BuiltIn returns the named built-in profile. The built-ins mirror the
// configurations the original measurement runs compared: an untouched first
// boot, all cloud-init services masked, and all of them replaced with
// no-ops.
func BuiltIn(name string) (Profile, bool) {
	switch name {
	case "first-boot":
		return Profile{Name: name}, true
	case "disabled":
		return Profile{Name: name, Overrides: forAll(ActionMask)}, true
	case "no-op":
		return Profile{Name: name, Overrides: forAll(ActionNoop)}, true
	}

	return Profile{}, false
}

// BuiltInNames lists the built-in profile names.
func BuiltInNames() []string {
	return []string{"first-boot", "disabled", "no-op"}
}

func forAll(action Action) []UnitOverride {
	ovs := make([]UnitOverride, 0, len(cloudInitServices))
	for _, unit := range cloudInitServices {
		ovs = append(ovs, UnitOverride{Unit: unit, Action: action})
	}

	return ovs
}

// Apply pushes the profile's overrides into the instance and reloads the
// service manager. It returns the timed daemon-reload output (POSIX time -p
// format on stderr) so the caller can store it alongside the other
// diagnostics. An empty profile applies nothing and skips the reload.
func Apply(ctx context.Context, d instance.Driver, name string, p Profile) ([]byte, error) {
	if len(p.Overrides) == 0 {
		ctxlog.Debug(ctx, "profile has no overrides, nothing to apply", "profile", p.Name)
		return nil, nil
	}

	for _, ov := range p.Overrides {
		if err := applyOne(ctx, d, name, ov); err != nil {
			return nil, err
		}
	}

	start := time.Now()

	res, err := d.Exec(ctx, name, "sh", "-c", "time -p systemctl daemon-reload")
	if err != nil {
		return nil, errors.Join(ErrDaemonReload, err)
	}

	if res.ExitCode != 0 {
		return nil, fmt.Errorf("%w: exit code %d: %s",
			ErrDaemonReload, res.ExitCode, bytes.TrimSpace(res.Stderr))
	}

	ctxlog.Info(ctx, "profile applied",
		"profile", p.Name,
		"instance", name,
		"overrides", len(p.Overrides),
		"reloadDuration", time.Since(start).Round(time.Millisecond).String(),
	)

	// time -p reports on stderr.
	return res.Stderr, nil
}

func applyOne(ctx context.Context, d instance.Driver, name string, ov UnitOverride) error {
	ctxlog.Debug(ctx, "applying override",
		"instance", name, "unit", ov.Unit, "action", string(ov.Action))

	switch ov.Action {
	case ActionMask:
		res, err := d.Exec(ctx, name, "systemctl", "mask", ov.Unit)
		if err != nil {
			return errors.Join(ErrApply, err)
		}

		if res.ExitCode != 0 {
			return fmt.Errorf("%w: mask %s: exit code %d: %s",
				ErrApply, ov.Unit, res.ExitCode, bytes.TrimSpace(res.Stderr))
		}

		return nil
	case ActionNoop:
		dest := fmt.Sprintf("/etc/systemd/system/%s.d/%s", ov.Unit, dropInName)
		if err := d.Push(ctx, name, dest, []byte(noopDropIn), 0o644); err != nil {
			return errors.Join(ErrApply, err)
		}

		return nil
	}

	return fmt.Errorf("%w: %q on %s", ErrUnknownAction, ov.Action, ov.Unit)
}
