// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Phase is where a run/profile combination currently is in its lifecycle.
type Phase int

const (
	// PhaseLaunch covers instance creation and initial start.
	PhaseLaunch Phase = iota
	// PhaseFirstBootWait is the wait for the unmodified first boot.
	PhaseFirstBootWait
	// PhaseInstrument covers pushing unit overrides and reloading.
	PhaseInstrument
	// PhaseRestartWait is the wait for the instrumented boot after restart.
	PhaseRestartWait
	// PhaseCollect covers diagnostics harvesting.
	PhaseCollect
	// PhaseTeardown covers instance deletion.
	PhaseTeardown
	// PhaseDone is terminal success.
	PhaseDone
	// PhaseFailed is terminal failure.
	PhaseFailed
)

// String implements the Stringer interface for Phase.
func (p Phase) String() string {
	switch p {
	case PhaseLaunch:
		return "launching"
	case PhaseFirstBootWait:
		return "waiting for first boot"
	case PhaseInstrument:
		return "applying overrides"
	case PhaseRestartWait:
		return "waiting for instrumented boot"
	case PhaseCollect:
		return "collecting diagnostics"
	case PhaseTeardown:
		return "tearing down"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends a run/profile combination.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// Event is one phase transition of one run/profile combination.
type Event struct {
	Run       int       // Run index, 0-based
	Profile   string    // Profile name
	Instance  string    // Instance name, once known
	Phase     Phase     // The phase just entered
	Timestamp time.Time // When the transition happened
	Polls     int       // For terminal events: status queries the waits used
	Err       error     // For PhaseFailed: what went wrong
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends a progress event. Implementations must be
	// non-blocking and tolerate nobody listening.
	Report(event Event)
	// Close signals that no more events will be sent and cleans up resources.
	Close()
}

// Listener receives progress events.
type Listener interface {
	// OnEvent is called for each event. Implementations should return
	// quickly to avoid backing up the reporting channel.
	OnEvent(event Event)
}

// NullReporter is a no-op implementation of Reporter.
type NullReporter struct{}

// Report implements Reporter.Report by doing nothing.
func (nr *NullReporter) Report(_ Event) {
	// No-op
}

// Close implements Reporter.Close by doing nothing.
func (nr *NullReporter) Close() {
	// No-op
}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return &NullReporter{}
}
