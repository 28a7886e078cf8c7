// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package wait implements the wait subcommand, which blocks until an
// existing instance reaches a boot milestone.
package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/matt-FFFFFF/bootperf/internal/bootwait"
	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
	"github.com/matt-FFFFFF/bootperf/internal/instance"
	"github.com/matt-FFFFFF/bootperf/internal/plan"
	"github.com/urfave/cli/v3"
)

const (
	instanceArg           = "instance"
	targetFlag            = "target"
	intervalFlag          = "interval"
	escalateAfterFlag     = "escalate-after"
	escalateEveryPollFlag = "escalate-every-poll"

	cliExitStr = ""
)

// WaitCmd is the command that waits for a boot milestone on one instance.
var WaitCmd = &cli.Command{
	Name: "wait",
	Description: `Wait until the instance's boot milestone is reached.
The command polls the guest's service manager once per interval and returns
when the system as a whole reports running or the target unit is active.
There is no timeout: a guest that never finishes booting blocks forever
(interrupt with Ctrl-C). After the escalation threshold the guest's pending
systemd jobs are dumped to the log to aid diagnosis, and polling continues.`,
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
			Usage:    "The systemd target to wait for",
			Value:    plan.DefaultTarget,
			OnlyOnce: true,
		},
		&cli.DurationFlag{
			Name:     intervalFlag,
			Usage:    "The pause between status queries",
			Value:    bootwait.DefaultInterval,
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:     escalateAfterFlag,
			Usage:    "Iterations before the pending-job dump fires",
			Value:    bootwait.DefaultEscalateAfter,
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:        escalateEveryPollFlag,
			Usage:       "Repeat the pending-job dump on every poll beyond the threshold",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	name := cmd.StringArg(instanceArg)
	if name == "" {
		logger.Error("Please provide the name of the instance to wait for.")
		return cli.Exit(cliExitStr, 1)
	}

	driver := instance.NewLXD()

	opts := []bootwait.Option{
		bootwait.WithInterval(cmd.Duration(intervalFlag)),
		bootwait.WithEscalateAfter(int(cmd.Int(escalateAfterFlag))),
		bootwait.WithEscalator(&instance.JobDumper{Driver: driver}),
	}

	if cmd.Bool(escalateEveryPollFlag) {
		opts = append(opts, bootwait.WithEscalationPolicy(bootwait.EscalateEveryPoll))
	}

	waiter := bootwait.New(&instance.StatusQuerier{Driver: driver}, opts...)

	start := time.Now()

	outcome, err := waiter.Wait(ctx, name, cmd.String(targetFlag))
	if err != nil {
		logger.Error("wait aborted", "error", err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	fmt.Fprintf(cmd.Writer, "%s: %s after %d polls (%v)\n",
		name, outcome.Result, outcome.Polls, time.Since(start).Round(time.Second))

	return nil
}
