// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package collect implements the collect subcommand, which harvests boot
// diagnostics from one running instance.
package collect

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
	"github.com/matt-FFFFFF/bootperf/internal/instance"
	"github.com/matt-FFFFFF/bootperf/internal/plan"
	"github.com/matt-FFFFFF/bootperf/internal/sysdreport"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	instanceArg = "instance"
	targetFlag  = "target"
	dirFlag     = "dir"

	cliExitStr = ""
)

// CollectCmd is the command that harvests diagnostics from an instance.
var CollectCmd = &cli.Command{
	Name: "collect",
	Description: `Harvest boot diagnostics from a running instance.
Runs systemd-analyze time, blame, critical-chain (plain and fuzzed), dot
and systemctl list-jobs inside the guest and writes each capture to its own
file in the output directory. Captures are independent: one failing does
not stop the rest, and partial output is still written.`,
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      instanceArg,
			UsageText: "INSTANCE",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     targetFlag,
			Usage:    "The systemd target for the critical-chain captures",
			Value:    plan.DefaultTarget,
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     dirFlag,
			Aliases:  []string{"d"},
			Usage:    "The directory to write the captures to",
			Value:    ".",
			OnlyOnce: true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	name := cmd.StringArg(instanceArg)
	if name == "" {
		logger.Error("Please provide the name of the instance to collect from.")
		return cli.Exit(cliExitStr, 1)
	}

	collector := &sysdreport.Collector{
		Driver: instance.NewLXD(),
		Fs:     afero.NewOsFs(),
	}

	dir := cmd.String(dirFlag)

	if err := collector.Collect(ctx, name, cmd.String(targetFlag), dir); err != nil {
		logger.Error("collection incomplete", "error", err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	fmt.Fprintf(cmd.Writer, "diagnostics written to %s\n", dir)

	return nil
}
