// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package bootwait

import (
	"context"
	"time"

	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
)

const (
	// DefaultInterval is the pause between status queries.
	DefaultInterval = time.Second
	// DefaultEscalateAfter is the number of completed iterations after
	// which the diagnostic escalation fires.
	DefaultEscalateAfter = 150
)

// Querier performs one status query for target against an instance.
// Implementations must report the external command's exit code and output in
// the Status; an error is reserved for failures of the query mechanism
// itself (e.g. the CLI binary is missing), not for non-zero exit codes.
type Querier interface {
	QueryTarget(ctx context.Context, instance, target string) (Status, error)
}

// Escalator is invoked for side effect only when the soft threshold is
// crossed. Implementations typically dump the instance's pending job queue.
type Escalator interface {
	DumpPendingJobs(ctx context.Context, instance string)
}

// EscalationPolicy decides how often the escalator fires once the elapsed
// counter has reached the threshold.
type EscalationPolicy int

const (
	// EscalateOnce fires the escalation on the iteration that reaches the
	// threshold and never again. This is the default.
	EscalateOnce EscalationPolicy = iota
	// EscalateEveryPoll fires the escalation on every iteration from the
	// threshold onward.
	EscalateEveryPoll
)

// Outcome describes a completed wait.
type Outcome struct {
	// Result is the terminal classification, PollSystemRunning or
	// PollTargetActive.
	Result PollResult
	// Polls is the number of status queries performed, including the one
	// that returned the terminal classification.
	Polls int
	// Escalations is the number of diagnostic escalations issued.
	Escalations int
}

// Waiter polls a Querier until a boot milestone is reached.
type Waiter struct {
	querier       Querier
	escalator     Escalator
	interval      time.Duration
	escalateAfter int
	policy        EscalationPolicy
	sleep         func(ctx context.Context, d time.Duration) error
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithInterval sets the pause between status queries.
func WithInterval(d time.Duration) Option {
	return func(w *Waiter) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithEscalateAfter sets the iteration threshold for diagnostic escalation.
func WithEscalateAfter(iterations int) Option {
	return func(w *Waiter) {
		if iterations > 0 {
			w.escalateAfter = iterations
		}
	}
}

// WithEscalator sets the diagnostic escalation collaborator.
func WithEscalator(e Escalator) Option {
	return func(w *Waiter) {
		w.escalator = e
	}
}

// WithEscalationPolicy sets how often the escalation fires beyond the
// threshold.
func WithEscalationPolicy(p EscalationPolicy) Option {
	return func(w *Waiter) {
		w.policy = p
	}
}

// withSleeper replaces the interval sleep, so tests can step the loop
// without real time passing.
func withSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Waiter) {
		w.sleep = fn
	}
}

// New creates a Waiter polling the given querier.
func New(querier Querier, opts ...Option) *Waiter {
	w := &Waiter{
		querier:       querier,
		interval:      DefaultInterval,
		escalateAfter: DefaultEscalateAfter,
		sleep:         sleepCtx,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Wait blocks until the named target inside the instance is confirmed active
// or the system as a whole reports running. Every other classification is a
// transient state that is logged and retried after the interval; no
// classification is an error and there is no timeout. Crossing the
// escalation threshold dumps the instance's pending jobs (per the configured
// policy) and polling continues.
//
// The only way out without a terminal classification is context
// cancellation, in which case the context's error is returned.
func (w *Waiter) Wait(ctx context.Context, instance, target string) (Outcome, error) {
	logger := ctxlog.Logger(ctx).With("instance", instance, "target", target)

	elapsed := 0
	escalations := 0

	for polls := 1; ; polls++ {
		status, err := w.querier.QueryTarget(ctx, instance, target)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{Polls: polls, Escalations: escalations}, ctx.Err()
			}

			// The query mechanism itself failed. Treated like any
			// other transient state: logged and retried.
			logger.Warn("status query failed, retrying", "error", err)
		}

		result := Classify(status)

		switch result {
		case PollSystemRunning, PollTargetActive:
			logger.Info("boot milestone reached",
				"state", result.String(), "polls", polls)

			return Outcome{Result: result, Polls: polls, Escalations: escalations}, nil
		case PollDbusUnavailable:
			logger.Info("waiting for dbus in the guest",
				"exitCode", status.ExitCode)
		case PollTargetNotReachable:
			logger.Info("instance not yet bootable")
		default:
			logger.Info("target not active yet")
		}

		if err := w.sleep(ctx, w.interval); err != nil {
			return Outcome{Polls: polls, Escalations: escalations}, err
		}

		elapsed++

		if elapsed >= w.escalateAfter && w.escalator != nil {
			if w.policy == EscalateEveryPoll || escalations == 0 {
				escalations++

				logger.Warn("boot milestone still not reached, dumping pending jobs",
					"elapsed", elapsed)
				w.escalator.DumpPendingJobs(ctx, instance)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
