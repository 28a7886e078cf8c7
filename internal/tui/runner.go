// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/bootperf/internal/progress"
)

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *Reporter
	mutex    sync.Mutex
}

// Reporter implements progress.Reporter and forwards events to the TUI.
type Reporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

// NewReporter creates a new TUI progress reporter.
func NewReporter(program *tea.Program) *Reporter {
	return &Reporter{
		program: program,
	}
}

// Report implements progress.Reporter.Report.
func (tr *Reporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(EventMsg{Event: event})
}

// Close implements progress.Reporter.Close.
func (tr *Reporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	tr.closed = true
}

// NewRunner creates a new TUI runner.
func NewRunner() *Runner {
	model := NewModel()
	program := tea.NewProgram(model, tea.WithAltScreen())
	reporter := NewReporter(program)

	return &Runner{
		model:    model,
		program:  program,
		reporter: reporter,
	}
}

// GetReporter returns the progress reporter for this TUI runner.
func (r *Runner) GetReporter() progress.Reporter {
	return r.reporter
}

// Run starts the TUI and executes fn with progress reporting. It returns
// fn's error once both fn and the TUI have finished; after fn completes the
// TUI stays up until the user quits, so the final state can be inspected.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context, reporter progress.Reporter) error) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	errChan := make(chan error, 1)

	go func() {
		defer close(errChan)
		errChan <- fn(ctx, r.reporter)
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var runErr error

	select {
	case runErr = <-errChan:
		// Plan finished, notify the TUI but keep it up until the user quits.
		r.program.Send(RunCompletedMsg{Err: runErr})

		tuiErr := <-tuiDone

		r.reporter.Close()

		if runErr == nil {
			runErr = tuiErr
		}

	case tuiErr := <-tuiDone:
		// TUI exited first (user pressed 'q' or it errored).
		r.reporter.Close()

		select {
		case runErr = <-errChan:
			// Plan completed just as the TUI went down.
		case <-ctx.Done():
			runErr = ctx.Err()
		}

		if runErr == nil {
			runErr = tuiErr
		}

	case <-ctx.Done():
		r.reporter.Close()
		r.program.Quit()

		select {
		case runErr = <-errChan:
		default:
			runErr = ctx.Err()
		}

		<-tuiDone // Wait for TUI cleanup
	}

	return runErr
}
