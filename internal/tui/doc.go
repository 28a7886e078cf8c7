// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a real-time Terminal User Interface (TUI) for
// monitoring benchmark execution. It displays one row per run/profile
// combination with a live phase indicator, so long measurement campaigns
// (dozens of boots, each taking minutes) can be watched at a glance.
//
// The TUI consumes the same progress events the log listener does; the
// runner never knows which one is attached.
package tui
