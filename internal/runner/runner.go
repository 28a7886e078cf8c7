// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runner executes a benchmark plan end to end: for every run and
// every profile it launches an instance, waits out the first boot, applies
// the profile's overrides, reboots into the instrumented configuration,
// harvests diagnostics into the output tree and tears the instance down.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/bootperf/internal/bootwait"
	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
	"github.com/matt-FFFFFF/bootperf/internal/instance"
	"github.com/matt-FFFFFF/bootperf/internal/overrides"
	"github.com/matt-FFFFFF/bootperf/internal/plan"
	"github.com/matt-FFFFFF/bootperf/internal/progress"
	"github.com/matt-FFFFFF/bootperf/internal/sysdreport"
	"github.com/spf13/afero"
)

// Runner drives a plan against an instance driver.
type Runner struct {
	driver   instance.Driver
	fs       afero.Fs
	reporter progress.Reporter
}

// New creates a Runner. A nil reporter is replaced with a NullReporter.
func New(driver instance.Driver, fsys afero.Fs, reporter progress.Reporter) *Runner {
	if reporter == nil {
		reporter = progress.NewNullReporter()
	}

	return &Runner{
		driver:   driver,
		fs:       fsys,
		reporter: reporter,
	}
}

// Run executes every run/profile combination of the plan sequentially, in
// plan order. Combinations are independent: a failure tears down that
// combination's instance and execution moves on to the next one. The
// returned error aggregates every failed combination.
func (r *Runner) Run(ctx context.Context, p *plan.Plan) error {
	profiles, err := p.ResolveProfiles()
	if err != nil {
		return err
	}

	waiter := r.waiterFor(p)

	var errs *multierror.Error

	for run := range p.Runs {
		for _, profile := range profiles {
			if ctx.Err() != nil {
				return errs.ErrorOrNil()
			}

			if err := r.runOne(ctx, p, waiter, run, profile); err != nil {
				errs = multierror.Append(errs,
					fmt.Errorf("run %d profile %s: %w", run, profile.Name, err))
			}
		}
	}

	return errs.ErrorOrNil()
}

func (r *Runner) runOne(
	ctx context.Context,
	p *plan.Plan,
	waiter *bootwait.Waiter,
	run int,
	profile overrides.Profile,
) error {
	name := InstanceName(profile.Name, run)
	report := func(phase progress.Phase, polls int, err error) {
		r.reporter.Report(progress.Event{
			Run:       run,
			Profile:   profile.Name,
			Instance:  name,
			Phase:     phase,
			Timestamp: time.Now(),
			Polls:     polls,
			Err:       err,
		})
	}

	fail := func(err error) error {
		report(progress.PhaseFailed, 0, err)
		r.teardown(ctx, name)

		return err
	}

	report(progress.PhaseLaunch, 0, nil)

	if err := r.driver.Launch(ctx, p.Image, name, p.Kind); err != nil {
		return fail(err)
	}

	report(progress.PhaseFirstBootWait, 0, nil)

	outcome, err := waiter.Wait(ctx, name, p.Target)
	if err != nil {
		return fail(err)
	}

	var reload []byte

	if len(profile.Overrides) > 0 {
		report(progress.PhaseInstrument, 0, nil)

		reload, err = overrides.Apply(ctx, r.driver, name, profile)
		if err != nil {
			return fail(err)
		}

		if err := r.driver.Restart(ctx, name); err != nil {
			return fail(err)
		}

		report(progress.PhaseRestartWait, 0, nil)

		outcome, err = waiter.Wait(ctx, name, p.Target)
		if err != nil {
			return fail(err)
		}
	}

	report(progress.PhaseCollect, 0, nil)

	dir := sysdreport.RunDir(p.OutputDir, run, profile.Name)
	collector := &sysdreport.Collector{Driver: r.driver, Fs: r.fs}

	if err := collector.Collect(ctx, name, p.Target, dir); err != nil {
		return fail(err)
	}

	if err := collector.WriteReloadTiming(dir, reload); err != nil {
		return fail(err)
	}

	report(progress.PhaseTeardown, 0, nil)

	if err := r.driver.Delete(ctx, name); err != nil {
		return fail(err)
	}

	report(progress.PhaseDone, outcome.Polls, nil)

	return nil
}

func (r *Runner) waiterFor(p *plan.Plan) *bootwait.Waiter {
	opts := []bootwait.Option{
		bootwait.WithInterval(p.Wait.IntervalDuration()),
		bootwait.WithEscalator(&instance.JobDumper{Driver: r.driver}),
	}

	if p.Wait.EscalateAfter > 0 {
		opts = append(opts, bootwait.WithEscalateAfter(p.Wait.EscalateAfter))
	}

	if p.Wait.EscalateEveryPoll {
		opts = append(opts, bootwait.WithEscalationPolicy(bootwait.EscalateEveryPoll))
	}

	return bootwait.New(&instance.StatusQuerier{Driver: r.driver}, opts...)
}

// teardown is best effort: a combination that already failed should not
// leave its instance behind, but a failing delete must not mask the original
// error either.
func (r *Runner) teardown(ctx context.Context, name string) {
	if err := r.driver.Delete(ctx, name); err != nil {
		ctxlog.Warn(ctx, "failed to delete instance", "instance", name, "error", err)
	}
}

// InstanceName derives the instance name for a run/profile combination.
// Profile names may contain characters the instance server rejects, so
// everything outside [a-z0-9] becomes a hyphen.
func InstanceName(profile string, run int) string {
	var b strings.Builder

	for _, r := range strings.ToLower(profile) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}

	return fmt.Sprintf("bootperf-%s-%d", b.String(), run)
}
