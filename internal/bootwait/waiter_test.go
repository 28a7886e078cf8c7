// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package bootwait

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// scriptedQuerier replays a fixed sequence of statuses, then repeats the
// last one forever.
type scriptedQuerier struct {
	script []Status
	calls  int
}

func (q *scriptedQuerier) QueryTarget(_ context.Context, _, _ string) (Status, error) {
	i := q.calls
	if i >= len(q.script) {
		i = len(q.script) - 1
	}

	q.calls++

	return q.script[i], nil
}

type recordingEscalator struct {
	calls   int
	atPolls []int
	querier *scriptedQuerier
}

func (e *recordingEscalator) DumpPendingJobs(_ context.Context, _ string) {
	e.calls++
	if e.querier != nil {
		e.atPolls = append(e.atPolls, e.querier.calls)
	}
}

// fakeSleep counts sleeps and never passes real time.
func fakeSleep(counter *int) func(context.Context, time.Duration) error {
	return func(ctx context.Context, _ time.Duration) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		*counter++

		return nil
	}
}

func nonTerminal(n int) []Status {
	s := make([]Status, 0, n)
	for range n {
		s = append(s, Status{ExitCode: 0, Output: "starting\ninactive\n"})
	}

	return s
}

func TestWaitReturnsAfterKthQuery(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name     string
		terminal Status
		want     PollResult
		k        int
	}{
		{
			name:     "target active at first poll",
			terminal: Status{ExitCode: 0, Output: "degraded\nactive\n"},
			want:     PollTargetActive,
			k:        1,
		},
		{
			name:     "target active after transients",
			terminal: Status{ExitCode: 0, Output: "running\nactive\n"},
			want:     PollSystemRunning,
			k:        7,
		},
		{
			name:     "system running without target ever active",
			terminal: Status{ExitCode: 0, Output: "running\ninactive\n"},
			want:     PollSystemRunning,
			k:        4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := append(nonTerminal(tt.k-1), tt.terminal)
			q := &scriptedQuerier{script: script}

			sleeps := 0
			w := New(q, withSleeper(fakeSleep(&sleeps)))

			outcome, err := w.Wait(context.Background(), "inst", "graphical.target")
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome.Result)
			assert.Equal(t, tt.k, outcome.Polls)
			assert.Equal(t, tt.k, q.calls, "exactly k status queries")
			assert.Equal(t, tt.k-1, sleeps, "one sleep per non-terminal iteration")
		})
	}
}

func TestWaitNeverReturnsWithoutTerminalState(t *testing.T) {
	defer goleak.VerifyNone(t)

	const pollCap = 500

	q := &scriptedQuerier{script: nonTerminal(1)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The loop has no exit of its own: cancel the context after cap
	// sleeps and verify the wait was still going.
	sleeps := 0
	w := New(q, withSleeper(func(ctx context.Context, _ time.Duration) error {
		sleeps++
		if sleeps >= pollCap {
			cancel()
		}

		return ctx.Err()
	}))

	_, err := w.Wait(ctx, "inst", "graphical.target")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, pollCap, q.calls)
}

func TestWaitElapsedCounterIncrementsPerIteration(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Mixed transient classifications must all advance the counter by
	// exactly one; the escalator fires at a known elapsed value, which
	// pins the counter arithmetic.
	script := []Status{
		{ExitCode: 1},
		{ExitCode: 255},
		{ExitCode: 0, Output: "starting\ninactive\n"},
		{ExitCode: 3},
		{ExitCode: 0, Output: "degraded\nactive\n"},
	}
	q := &scriptedQuerier{script: script}
	esc := &recordingEscalator{querier: q}

	sleeps := 0
	w := New(q,
		withSleeper(fakeSleep(&sleeps)),
		WithEscalator(esc),
		WithEscalateAfter(3),
	)

	outcome, err := w.Wait(context.Background(), "inst", "graphical.target")
	require.NoError(t, err)
	assert.Equal(t, 5, outcome.Polls)
	assert.Equal(t, 4, sleeps)
	// Threshold 3 is reached after the third non-terminal iteration, i.e.
	// after the third query completed.
	assert.Equal(t, []int{3}, esc.atPolls)
}

func TestWaitEscalationThreshold(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name            string
		polls           int // position of the terminal classification
		policy          EscalationPolicy
		wantEscalations int
	}{
		{
			name:            "one short of threshold does not escalate",
			polls:           150, // 149 completed iterations
			policy:          EscalateOnce,
			wantEscalations: 0,
		},
		{
			name:            "threshold reached escalates exactly once",
			polls:           151, // 150 completed iterations
			policy:          EscalateOnce,
			wantEscalations: 1,
		},
		{
			name:            "once policy does not repeat beyond threshold",
			polls:           161,
			policy:          EscalateOnce,
			wantEscalations: 1,
		},
		{
			name:            "every-poll policy fires each iteration from threshold",
			polls:           161, // elapsed runs 150..160 inclusive
			policy:          EscalateEveryPoll,
			wantEscalations: 11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := append(nonTerminal(tt.polls-1), Status{ExitCode: 0, Output: "running\n"})
			q := &scriptedQuerier{script: script}
			esc := &recordingEscalator{}

			sleeps := 0
			w := New(q,
				withSleeper(fakeSleep(&sleeps)),
				WithEscalator(esc),
				WithEscalationPolicy(tt.policy),
			)

			outcome, err := w.Wait(context.Background(), "inst", "graphical.target")
			require.NoError(t, err)
			assert.Equal(t, tt.polls, outcome.Polls)
			assert.Equal(t, tt.wantEscalations, esc.calls)
			assert.Equal(t, tt.wantEscalations, outcome.Escalations)
		})
	}
}

func TestWaitScenarioEarlyBootSequence(t *testing.T) {
	defer goleak.VerifyNone(t)

	// The canonical early-boot sequence for a VM: dbus twice, instance
	// not bootable, target inactive, then active on the fifth query.
	script := []Status{
		{ExitCode: 1},
		{ExitCode: 1},
		{ExitCode: 255},
		{ExitCode: 0, Output: "starting\ninactive\n"},
		{ExitCode: 0, Output: "starting\nactive\n"},
	}
	q := &scriptedQuerier{script: script}
	esc := &recordingEscalator{}

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := ctxlog.New(context.Background(), logger)

	sleeps := 0
	w := New(q, withSleeper(fakeSleep(&sleeps)), WithEscalator(esc))

	outcome, err := w.Wait(ctx, "perf-0", "cloud-init.target")
	require.NoError(t, err)
	assert.Equal(t, PollTargetActive, outcome.Result)
	assert.Equal(t, 5, outcome.Polls)
	assert.Zero(t, esc.calls, "no escalation below the threshold")

	wantOrder := []string{
		"waiting for dbus in the guest",
		"waiting for dbus in the guest",
		"instance not yet bootable",
		"target not active yet",
		"boot milestone reached",
	}

	rest := buf.String()
	for _, msg := range wantOrder {
		i := strings.Index(rest, msg)
		require.GreaterOrEqual(t, i, 0, "expected log message %q in order, remaining output: %s", msg, rest)
		rest = rest[i+len(msg):]
	}
}

func TestWaitQuerierErrorIsRetried(t *testing.T) {
	defer goleak.VerifyNone(t)

	calls := 0
	q := querierFunc(func(_ context.Context, _, _ string) (Status, error) {
		calls++
		if calls == 1 {
			return Status{}, assert.AnError
		}

		return Status{ExitCode: 0, Output: "running\n"}, nil
	})

	sleeps := 0
	w := New(q, withSleeper(fakeSleep(&sleeps)))

	outcome, err := w.Wait(context.Background(), "inst", "graphical.target")
	require.NoError(t, err)
	assert.Equal(t, PollSystemRunning, outcome.Result)
	assert.Equal(t, 2, outcome.Polls)
}

type querierFunc func(ctx context.Context, instance, target string) (Status, error)

func (f querierFunc) QueryTarget(ctx context.Context, instance, target string) (Status, error) {
	return f(ctx, instance, target)
}
