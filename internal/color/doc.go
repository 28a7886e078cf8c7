// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color decides whether terminal output should be coloured and
// applies ANSI foreground codes when it should. The pretty log handler
// colours its level and message fields with it, and the report and plan
// commands consult Enabled to pick between coloured and plain JSON.
//
// The decision is made once at startup: NO_COLOR disables colour,
// FORCE_COLOR enables it, and otherwise colour is on only when stdout is a
// terminal.
package color
