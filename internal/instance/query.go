// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package instance

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matt-FFFFFF/bootperf/internal/bootwait"
	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
)

// statusScript prints the system-wide state on the first line and the
// target state on the second. Both systemctl calls are forced to succeed so
// that a non-zero exit code can only come from the transport itself: lxc
// exec exits 1 or 3 before the guest's service manager accepts sessions,
// and 255 when the guest is not reachable at all. That is exactly the
// exit-code contract bootwait classifies.
const statusScript = "systemctl is-system-running 2>/dev/null || true; " +
	"systemctl is-active %s 2>/dev/null || true"

var _ bootwait.Querier = (*StatusQuerier)(nil)

// StatusQuerier implements bootwait.Querier over a Driver.
type StatusQuerier struct {
	Driver Driver
}

// QueryTarget implements bootwait.Querier.
func (q *StatusQuerier) QueryTarget(ctx context.Context, name, target string) (bootwait.Status, error) {
	script := fmt.Sprintf(statusScript, target)

	res, err := q.Driver.Exec(ctx, name, "sh", "-c", script)
	if err != nil {
		return bootwait.Status{}, err
	}

	return bootwait.Status{
		ExitCode: res.ExitCode,
		Output:   string(res.Stdout),
	}, nil
}

var _ bootwait.Escalator = (*JobDumper)(nil)

// JobDumper implements bootwait.Escalator by logging the instance's pending
// systemd job queue. It is purely observational; its own failures are
// logged and swallowed.
type JobDumper struct {
	Driver Driver
}

// DumpPendingJobs implements bootwait.Escalator.
func (d *JobDumper) DumpPendingJobs(ctx context.Context, name string) {
	res, err := d.Driver.Exec(ctx, name, "systemctl", "list-jobs")
	if err != nil {
		ctxlog.Warn(ctx, "pending job dump failed", "instance", name, "error", err)
		return
	}

	ctxlog.Warn(ctx, "pending systemd jobs",
		"instance", name,
		"exitCode", res.ExitCode,
		"jobs", string(bytes.TrimSpace(res.Stdout)),
	)
}
