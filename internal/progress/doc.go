// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress provides real-time progress reporting for benchmark
// execution. The runner emits one event per phase transition of each
// run/profile combination; listeners (the log listener or the TUI) render
// them without the runner knowing who is watching.
package progress
