// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"os"

	"github.com/matt-FFFFFF/bootperf/cmd/collect"
	plancmd "github.com/matt-FFFFFF/bootperf/cmd/plan"
	"github.com/matt-FFFFFF/bootperf/cmd/report"
	"github.com/matt-FFFFFF/bootperf/cmd/run"
	"github.com/matt-FFFFFF/bootperf/cmd/wait"
	"github.com/urfave/cli/v3"
)

// RootCmd is the root command for the CLI.
var RootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		wait.WaitCmd,
		collect.CollectCmd,
		report.ReportCmd,
		plancmd.PlanCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "bootperf",
	Description: `Bootperf is a boot-performance measurement harness for LXD guests.
It launches containers or virtual machines, instruments their boot with
systemd unit overrides, waits for a boot milestone to be reached, and
harvests systemd-analyze diagnostics into a per-run output tree for
comparative analysis across instrumentation profiles.`,
	Usage:     "bootperf run -f myplan.yaml",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}
