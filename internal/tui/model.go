// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/bootperf/internal/progress"
)

// RowStatus represents the current state of one run/profile combination.
type RowStatus int

const (
	StatusPending RowStatus = iota
	StatusActive
	StatusDone
	StatusFailed
)

// String returns a string representation of the row status.
func (s RowStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Row is one run/profile combination in the display.
type Row struct {
	Run       int
	Profile   string
	Instance  string
	Phase     progress.Phase
	Status    RowStatus
	StartTime *time.Time
	EndTime   *time.Time
	Polls     int
	ErrorMsg  string
	mutex     sync.RWMutex
}

// NewRow creates a pending row for a run/profile combination.
func NewRow(run int, profile string) *Row {
	return &Row{
		Run:     run,
		Profile: profile,
	}
}

// Apply safely folds a progress event into the row.
func (r *Row) Apply(event progress.Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if event.Instance != "" {
		r.Instance = event.Instance
	}

	r.Phase = event.Phase
	now := time.Now()

	switch {
	case event.Phase == progress.PhaseDone:
		r.Status = StatusDone
		r.Polls = event.Polls

		if r.EndTime == nil {
			r.EndTime = &now
		}
	case event.Phase == progress.PhaseFailed:
		r.Status = StatusFailed

		if event.Err != nil {
			r.ErrorMsg = event.Err.Error()
		}

		if r.EndTime == nil {
			r.EndTime = &now
		}
	default:
		r.Status = StatusActive

		if r.StartTime == nil {
			r.StartTime = &now
		}
	}
}

// DisplayInfo safely retrieves the fields the view renders.
func (r *Row) DisplayInfo() (RowStatus, progress.Phase, string, int, *time.Time, *time.Time) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.Status, r.Phase, r.ErrorMsg, r.Polls, r.StartTime, r.EndTime
}

// Model represents the TUI application state.
type Model struct {
	rows      []*Row
	index     map[string]*Row // Maps run/profile keys to rows for quick lookup
	spinner   spinner.Model
	width     int
	height    int
	quitting  bool
	completed bool
	runErr    error
	mutex     sync.RWMutex

	styles *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Active  lipgloss.Style
	Done    lipgloss.Style
	Failed  lipgloss.Style
	Detail  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Active: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Done: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Detail: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
	}
}

// NewModel creates a new TUI model.
func NewModel() *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		index:   make(map[string]*Row),
		spinner: sp,
		styles:  NewStyles(),
	}
}

// rowKey identifies a run/profile combination.
func rowKey(run int, profile string) string {
	return fmt.Sprintf("%d/%s", run, profile)
}

// getOrCreateRow safely gets or creates the row for a run/profile combination.
func (m *Model) getOrCreateRow(run int, profile string) *Row {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := rowKey(run, profile)
	if row, exists := m.index[key]; exists {
		return row
	}

	row := NewRow(run, profile)
	m.index[key] = row
	m.rows = append(m.rows, row)

	return row
}

// processEvent folds an incoming progress event into the display state.
func (m *Model) processEvent(event progress.Event) {
	row := m.getOrCreateRow(event.Run, event.Profile)
	row.Apply(event)
}
