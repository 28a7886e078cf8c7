// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/bootperf/internal/progress"
)

const (
	minHelpAvailableHeight = 6
	durationRounding       = time.Second // Boots take minutes; sub-second noise is not interesting
)

// EventMsg wraps a progress event for the tea framework.
type EventMsg struct {
	Event progress.Event
}

// RunCompletedMsg indicates that the whole plan has finished executing.
type RunCompletedMsg struct {
	Err error
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.spinner.Tick,
	)
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.mutex.Unlock()

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case EventMsg:
		m.processEvent(msg.Event)
		return m, nil

	case RunCompletedMsg:
		m.mutex.Lock()
		m.completed = true
		m.runErr = msg.Err
		m.mutex.Unlock()

		return m, nil

	case tea.QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("bootperf"))
	view.WriteString("\n")

	for _, row := range m.rows {
		m.renderRow(&view, row)
	}

	if m.completed {
		view.WriteString("\n")

		if m.runErr != nil {
			view.WriteString(m.styles.Failed.Render("completed with errors"))
		} else {
			view.WriteString(m.styles.Done.Render("all boots measured"))
		}

		view.WriteString("\n")
	}

	if m.height > minHelpAvailableHeight {
		helpText := "'q' to quit"
		if m.completed {
			helpText = "'q' to quit and return to terminal"
		}

		view.WriteString(m.styles.Help.Render(helpText))
	}

	return view.String()
}

// renderRow renders one run/profile combination.
func (m *Model) renderRow(b *strings.Builder, row *Row) {
	status, phase, errorMsg, polls, startTime, endTime := row.DisplayInfo()

	var icon, label string

	switch status {
	case StatusPending:
		icon = " "
		label = m.styles.Pending.Render(rowLabel(row))
	case StatusActive:
		icon = m.spinner.View()
		label = m.styles.Active.Render(rowLabel(row))
	case StatusDone:
		icon = m.styles.Done.Render("✓")
		label = m.styles.Done.Render(rowLabel(row))
	case StatusFailed:
		icon = m.styles.Failed.Render("✗")
		label = m.styles.Failed.Render(rowLabel(row))
	}

	b.WriteString(fmt.Sprintf("%s %s", icon, label))

	detail := phase.String()

	if startTime != nil {
		elapsed := time.Since(*startTime)
		if endTime != nil {
			elapsed = endTime.Sub(*startTime)
		}

		detail += fmt.Sprintf(" (%v)", elapsed.Round(durationRounding))
	}

	if status == StatusDone && polls > 0 {
		detail += fmt.Sprintf(", %d polls", polls)
	}

	b.WriteString("  ")
	b.WriteString(m.styles.Detail.Render(detail))

	if errorMsg != "" && status == StatusFailed {
		b.WriteString("  ")
		b.WriteString(m.styles.Error.Render(errorMsg))
	}

	b.WriteString("\n")
}

func rowLabel(row *Row) string {
	return fmt.Sprintf("run %d  %s", row.Run, row.Profile)
}
