// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sysdreport harvests boot-performance diagnostics from a booted
// instance and turns the harvested text into numbers.
//
// One collection writes the systemd-analyze captures (time, blame,
// critical-chain with and without fuzz, the dependency graph in dot form)
// plus the pending-job listing into a flat directory, one file per capture.
// The analyze capture is the one the comparative statistics are built from;
// the rest exist for manual inspection of a surprising run.
package sysdreport
