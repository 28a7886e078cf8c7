// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sysdreport

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
	"github.com/matt-FFFFFF/bootperf/internal/instance"
	"github.com/spf13/afero"
)

const (
	// AnalyzeFile is the capture the statistics are parsed from.
	AnalyzeFile = "analyze.txt"
	// BlameFile is the per-unit initialisation time capture.
	BlameFile = "blame.txt"
	// ReloadFile stores the timed daemon-reload output when a profile was
	// applied before the measured boot.
	ReloadFile = "reload.txt"

	captureMode = 0o644
)

// ErrCapture is returned when one diagnostic capture fails.
var ErrCapture = errors.New("diagnostic capture failed")

// capture is one remote command whose output lands in one file.
type capture struct {
	file    string
	command func(target string) []string
}

var captures = []capture{
	{
		file: AnalyzeFile,
		command: func(string) []string {
			return []string{"systemd-analyze", "time"}
		},
	},
	{
		file: BlameFile,
		command: func(string) []string {
			return []string{"systemd-analyze", "blame", "--no-pager"}
		},
	},
	{
		file: "chain.txt",
		command: func(target string) []string {
			return []string{"systemd-analyze", "critical-chain", "--no-pager", target}
		},
	},
	{
		file: "chain-fuzz.txt",
		command: func(target string) []string {
			return []string{"systemd-analyze", "critical-chain", "--no-pager", "--fuzz", "1s", target}
		},
	},
	{
		file: "dot.txt",
		command: func(string) []string {
			return []string{"systemd-analyze", "dot"}
		},
	},
	{
		file: "jobs.txt",
		command: func(string) []string {
			return []string{"systemctl", "list-jobs"}
		},
	},
}

// Collector harvests diagnostics from booted instances into a filesystem.
type Collector struct {
	Driver instance.Driver
	Fs     afero.Fs
}

// Collect runs every capture against the instance and writes the results
// under dir. Captures are independent: one failing does not stop the rest,
// and whatever output a failing capture produced is still written. The
// returned error aggregates every capture that exited non-zero or could not
// be written.
func (c *Collector) Collect(ctx context.Context, name, target, dir string) error {
	if err := c.Fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Join(ErrCapture, err)
	}

	var errs *multierror.Error

	for _, cpt := range captures {
		cmd := cpt.command(target)

		res, err := c.Driver.Exec(ctx, name, cmd...)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s: %w", ErrCapture, cpt.file, err))
			continue
		}

		if res.ExitCode != 0 {
			errs = multierror.Append(errs,
				fmt.Errorf("%w: %s: exit code %d", ErrCapture, cpt.file, res.ExitCode))
		}

		if err := afero.WriteFile(c.Fs, path.Join(dir, cpt.file), res.Stdout, captureMode); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s: %w", ErrCapture, cpt.file, err))
			continue
		}

		ctxlog.Debug(ctx, "capture written",
			"instance", name, "file", cpt.file, "bytes", len(res.Stdout))
	}

	return errs.ErrorOrNil()
}

// WriteReloadTiming stores a timed daemon-reload capture next to the other
// diagnostics.
func (c *Collector) WriteReloadTiming(dir string, timing []byte) error {
	if len(timing) == 0 {
		return nil
	}

	if err := c.Fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Join(ErrCapture, err)
	}

	return afero.WriteFile(c.Fs, path.Join(dir, ReloadFile), timing, captureMode)
}
