// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"testing"
	"time"

	"github.com/matt-FFFFFF/bootperf/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRow(t *testing.T) {
	row := NewRow(2, "no-op")

	require.NotNil(t, row)
	assert.Equal(t, 2, row.Run)
	assert.Equal(t, "no-op", row.Profile)
	assert.Equal(t, StatusPending, row.Status)
	assert.Nil(t, row.StartTime)
	assert.Nil(t, row.EndTime)
	assert.Empty(t, row.ErrorMsg)
}

func TestRow_Apply(t *testing.T) {
	row := NewRow(0, "first-boot")

	row.Apply(progress.Event{
		Run:       0,
		Profile:   "first-boot",
		Instance:  "bootperf-first-boot-0",
		Phase:     progress.PhaseLaunch,
		Timestamp: time.Now(),
	})

	status, phase, _, polls, startTime, endTime := row.DisplayInfo()
	assert.Equal(t, StatusActive, status)
	assert.Equal(t, progress.PhaseLaunch, phase)
	assert.Zero(t, polls)
	assert.NotNil(t, startTime)
	assert.Nil(t, endTime)
	assert.Equal(t, "bootperf-first-boot-0", row.Instance)

	row.Apply(progress.Event{
		Phase: progress.PhaseDone,
		Polls: 42,
	})

	status, phase, _, polls, startTime, endTime = row.DisplayInfo()
	assert.Equal(t, StatusDone, status)
	assert.Equal(t, progress.PhaseDone, phase)
	assert.Equal(t, 42, polls)
	assert.NotNil(t, startTime)
	assert.NotNil(t, endTime)
}

func TestRow_ApplyFailure(t *testing.T) {
	row := NewRow(0, "disabled")

	row.Apply(progress.Event{
		Phase: progress.PhaseFailed,
		Err:   assert.AnError,
	})

	status, _, errMsg, _, _, _ := row.DisplayInfo()
	assert.Equal(t, StatusFailed, status)
	assert.Contains(t, errMsg, "assert.AnError")
}

func TestModel_GetOrCreateRow(t *testing.T) {
	model := NewModel()

	row := model.getOrCreateRow(1, "no-op")
	require.NotNil(t, row)

	existing := model.getOrCreateRow(1, "no-op")
	assert.Same(t, row, existing)

	other := model.getOrCreateRow(2, "no-op")
	assert.NotSame(t, row, other)

	assert.Len(t, model.rows, 2)
}

func TestModel_ProcessEvent(t *testing.T) {
	model := NewModel()

	model.processEvent(progress.Event{
		Run:     0,
		Profile: "first-boot",
		Phase:   progress.PhaseFirstBootWait,
	})

	row, exists := model.index[rowKey(0, "first-boot")]
	require.True(t, exists)

	status, phase, _, _, _, _ := row.DisplayInfo()
	assert.Equal(t, StatusActive, status)
	assert.Equal(t, progress.PhaseFirstBootWait, phase)
}

func TestModel_ViewShowsRows(t *testing.T) {
	model := NewModel()
	model.height = 40

	model.processEvent(progress.Event{
		Run:     0,
		Profile: "first-boot",
		Phase:   progress.PhaseRestartWait,
	})
	model.processEvent(progress.Event{
		Run:     0,
		Profile: "no-op",
		Phase:   progress.PhaseDone,
		Polls:   7,
	})

	view := model.View()
	assert.Contains(t, view, "first-boot")
	assert.Contains(t, view, "waiting for instrumented boot")
	assert.Contains(t, view, "no-op")
	assert.Contains(t, view, "7 polls")
}

func TestReporter(t *testing.T) {
	// This is a basic test since we can't easily test the full bubbletea
	// integration.
	reporter := &Reporter{}

	event := progress.Event{
		Run:     0,
		Profile: "first-boot",
		Phase:   progress.PhaseLaunch,
	}

	assert.NotPanics(t, func() {
		reporter.Report(event)
	})

	assert.NotPanics(t, func() {
		reporter.Close()
	})

	assert.NotPanics(t, func() {
		reporter.Report(event)
	})
}

func TestRowKey(t *testing.T) {
	assert.Equal(t, "3/no-op", rowKey(3, "no-op"))
	assert.NotEqual(t, rowKey(1, "x"), rowKey(2, "x"))
}
