// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run subcommand, which executes a whole
// benchmark plan.
package run

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
	"github.com/matt-FFFFFF/bootperf/internal/fetch"
	"github.com/matt-FFFFFF/bootperf/internal/instance"
	"github.com/matt-FFFFFF/bootperf/internal/plan"
	"github.com/matt-FFFFFF/bootperf/internal/progress"
	"github.com/matt-FFFFFF/bootperf/internal/runner"
	"github.com/matt-FFFFFF/bootperf/internal/tui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag      = "file"
	outputDirFlag = "output-dir"
	runsFlag      = "runs"
	tuiFlag       = "tui"

	reporterBuffer = 64
	cliExitStr     = ""
)

// RunCmd is the command that executes a benchmark plan.
var RunCmd = &cli.Command{
	Name: "run",
	Description: `Execute a benchmark plan defined in a YAML file.
For every run and every profile in the plan this launches an instance,
waits out the first boot, applies the profile's unit overrides, reboots
into the instrumented configuration, harvests diagnostics into the output
tree and deletes the instance.

Plan file URLs use Hashicorp's go-getter syntax, which allows for fetching
files from various sources. See https://github.com/hashicorp/go-getter.
`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    fileFlag,
			Aliases: []string{"f"},
			Usage: "Specify the URL of the YAML plan file to run. " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources.",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     outputDirFlag,
			Aliases:  []string{"o"},
			Usage:    "Override the plan's output directory",
			Value:    "",
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:     runsFlag,
			Usage:    "Override the plan's run count",
			Value:    0,
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:        tuiFlag,
			Aliases:     []string{"t", "interactive"},
			Usage:       "Run with interactive Terminal User Interface (TUI) showing real-time progress",
			Value:       false,
			DefaultText: "false",
			TakesFile:   false,
			OnlyOnce:    true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	url := cmd.String(fileFlag)
	if url == "" {
		logger.Error("Please specify the URL of the plan file using the --file or -f flag.")
		return cli.Exit(cliExitStr, 1)
	}

	data, err := fetch.Get(ctx, url)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	p, err := plan.BuildFromYAML(data)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to build plan from file %s: %s", url, err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	if dir := cmd.String(outputDirFlag); dir != "" {
		p.OutputDir = dir
	}

	if runs := cmd.Int(runsFlag); runs > 0 {
		p.Runs = int(runs)
	}

	driver := instance.NewLXD()
	fsys := afero.NewOsFs()

	var execErr error

	switch cmd.Bool(tuiFlag) {
	case true:
		logger.Info("Starting interactive TUI mode...")

		buf := new(bytes.Buffer)
		// Suppress direct log output so it cannot corrupt the display.
		tuiCtx := ctxlog.NewForTUI(ctx, buf)

		tr := tui.NewRunner()

		execErr = tr.Run(tuiCtx, func(ctx context.Context, reporter progress.Reporter) error {
			return runner.New(driver, fsys, reporter).Run(ctx, p)
		})

		buf.WriteTo(cmd.Writer) //nolint:errcheck // Flush buffered log output once the TUI is down
	default:
		reporter := progress.NewChannelReporter(ctx, reporterBuffer)
		reporter.Listen(progress.NewLogListener(ctx))

		execErr = runner.New(driver, fsys, reporter).Run(ctx, p)

		reporter.Close()
	}

	if execErr != nil {
		logger.Error("Some boots failed. See above for details.", "error", execErr.Error())
		return cli.Exit(cliExitStr, 1)
	}

	logger.Info(fmt.Sprintf("Plan complete. Results are under %s", p.OutputDir))

	return nil
}
