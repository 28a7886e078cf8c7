// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package plan implements the plan subcommand, which validates a plan file
// and prints its fully resolved form.
package plan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TylerBrock/colorjson"
	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/bootperf/internal/color"
	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
	"github.com/matt-FFFFFF/bootperf/internal/fetch"
	planfile "github.com/matt-FFFFFF/bootperf/internal/plan"
	"github.com/urfave/cli/v3"
)

const (
	fileArg = "file"

	jsonIndent = 2
	cliExitStr = ""
)

// PlanCmd is the command that validates and pretty-prints a plan file.
var PlanCmd = &cli.Command{
	Name: "plan",
	Description: `Validate a benchmark plan file and print the parsed form
with all defaults applied. Plan file URLs use Hashicorp's go-getter syntax.`,
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      fileArg,
			UsageText: "PLANFILE",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	url := cmd.StringArg(fileArg)
	if url == "" {
		logger.Error("Please provide a plan file to validate.")
		return cli.Exit(cliExitStr, 1)
	}

	data, err := fetch.Get(ctx, url)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	p, err := planfile.BuildFromYAML(data)
	if err != nil {
		logger.Error(fmt.Sprintf("Plan %s is invalid: %s", url, err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	resolved, err := yaml.Marshal(p)
	if err != nil {
		logger.Error("failed to render plan", "error", err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	jsonBytes, err := yaml.YAMLToJSON(resolved)
	if err != nil {
		logger.Error("failed to render plan", "error", err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	out := jsonBytes

	if color.Enabled() {
		var obj any
		if err := json.Unmarshal(jsonBytes, &obj); err != nil {
			logger.Error("failed to render plan", "error", err.Error())
			return cli.Exit(cliExitStr, 1)
		}

		f := colorjson.NewFormatter()
		f.Indent = jsonIndent

		if out, err = f.Marshal(obj); err != nil {
			logger.Error("failed to render plan", "error", err.Error())
			return cli.Exit(cliExitStr, 1)
		}
	}

	fmt.Fprintln(cmd.Writer, string(out))

	profiles, _ := p.ResolveProfiles() // Validated by BuildFromYAML

	logger.Info("plan is valid",
		"profiles", len(profiles),
		"runs", p.Runs,
		"boots", len(profiles)*p.Runs,
	)

	return nil
}
