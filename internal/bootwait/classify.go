// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package bootwait

import "strings"

// PollResult is the classification of a single status query.
type PollResult int

const (
	// PollOther means the target is inactive or still activating.
	PollOther PollResult = iota
	// PollDbusUnavailable means the guest's service manager is not yet
	// reachable over D-Bus (status command exited 1 or 3).
	PollDbusUnavailable
	// PollTargetNotReachable means the instance does not accept exec
	// sessions at all yet (status command exited 255).
	PollTargetNotReachable
	// PollSystemRunning means the system-wide state is fully running.
	PollSystemRunning
	// PollTargetActive means the named target reports active.
	PollTargetActive
)

// String implements fmt.Stringer.
func (p PollResult) String() string {
	switch p {
	case PollDbusUnavailable:
		return "dbus-unavailable"
	case PollTargetNotReachable:
		return "target-not-reachable"
	case PollSystemRunning:
		return "system-running"
	case PollTargetActive:
		return "target-active"
	default:
		return "other"
	}
}

// Terminal reports whether the classification ends a wait.
func (p PollResult) Terminal() bool {
	return p == PollSystemRunning || p == PollTargetActive
}

// Status is the raw outcome of one status query: the exit code of the
// external command and whatever it printed. A non-zero exit code is data,
// not an error.
type Status struct {
	ExitCode int
	Output   string
}

// Classify maps one status query outcome onto a PollResult. The mapping is
// total: every (exit code, output) pair lands on exactly one variant.
//
// Exit codes win over output. Codes 1 and 3 are the transport telling us the
// service manager is not up; 255 is the instance not accepting sessions.
// With the transport healthy, the output is scanned line by line: a line
// reading exactly "running" is the system-wide state, a line reading exactly
// "active" is the target state. Exact matching is deliberate so that
// "inactive" and "activating" fall through to PollOther.
func Classify(s Status) PollResult {
	switch s.ExitCode {
	case 1, 3:
		return PollDbusUnavailable
	case 255:
		return PollTargetNotReachable
	}

	for line := range strings.Lines(s.Output) {
		switch strings.TrimSpace(line) {
		case "running":
			return PollSystemRunning
		case "active":
			return PollTargetActive
		}
	}

	return PollOther
}
