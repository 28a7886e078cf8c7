// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package report implements the report subcommand, which aggregates
// statistics across a completed output tree.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/TylerBrock/colorjson"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/bootperf/internal/color"
	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
	"github.com/matt-FFFFFF/bootperf/internal/plan"
	"github.com/matt-FFFFFF/bootperf/internal/sysdreport"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	dirArg     = "dir"
	targetFlag = "target"
	jsonFlag   = "json"
	blameFlag  = "blame"

	jsonIndent = 2
	cliExitStr = ""
)

// ReportCmd is the command that summarises a completed output tree.
var ReportCmd = &cli.Command{
	Name: "report",
	Description: `Aggregate boot statistics across a completed output tree.
For every profile found in the tree this reports the number of samples and
the mean, median, range and sample standard deviation of the target-reached
time, parsed from each run's systemd-analyze capture.`,
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      dirArg,
			UsageText: "DIR",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     targetFlag,
			Usage:    "The systemd target the boots were measured against",
			Value:    plan.DefaultTarget,
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:        jsonFlag,
			Aliases:     []string{"j"},
			Usage:       "Emit the summary as JSON",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.IntFlag{
			Name:     blameFlag,
			Aliases:  []string{"b"},
			Usage:    "Also list the N slowest units per profile, averaged across runs",
			Value:    0,
			OnlyOnce: true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	dir := cmd.StringArg(dirArg)
	if dir == "" {
		dir = plan.DefaultOutputDir
	}

	times, err := sysdreport.LoadTree(afero.NewOsFs(), dir, cmd.String(targetFlag))
	if err != nil {
		if len(times) == 0 {
			logger.Error(fmt.Sprintf("No usable runs under %s: %s", dir, err.Error()))
			return cli.Exit(cliExitStr, 1)
		}

		// Partial trees still get a report; an aborted campaign is
		// exactly when one is wanted.
		logger.Warn("some runs could not be parsed", "error", err.Error())
	}

	summaries, err := summarize(times)
	if err != nil {
		logger.Error("failed to summarise", "error", err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	topN := int(cmd.Int(blameFlag))

	var blame map[string][]sysdreport.UnitMean

	if topN > 0 {
		blame, err = sysdreport.LoadBlame(afero.NewOsFs(), dir)
		if err != nil {
			if len(blame) == 0 {
				logger.Error("no usable blame captures", "error", err.Error())
				return cli.Exit(cliExitStr, 1)
			}

			logger.Warn("some blame captures could not be parsed", "error", err.Error())
		}
	}

	if cmd.Bool(jsonFlag) {
		if err := writeJSON(cmd.Writer, summaries, blame, topN); err != nil {
			logger.Error("failed to write summary", "error", err.Error())
			return cli.Exit(cliExitStr, 1)
		}

		return nil
	}

	writeTable(cmd.Writer, summaries)

	if topN > 0 {
		writeBlame(cmd.Writer, summaries, blame, topN)
	}

	return nil
}

func topBlame(blame map[string][]sysdreport.UnitMean, profile string, n int) []sysdreport.UnitMean {
	units := blame[profile]
	if len(units) > n {
		units = units[:n]
	}

	return units
}

func summarize(times map[string][]float64) ([]sysdreport.Stats, error) {
	profiles := make([]string, 0, len(times))
	for name := range times {
		profiles = append(profiles, name)
	}

	sort.Strings(profiles)

	summaries := make([]sysdreport.Stats, 0, len(profiles))

	for _, name := range profiles {
		s, err := sysdreport.Summarize(name, times[name])
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, s)
	}

	return summaries, nil
}

// profileReport is the JSON shape: the stats plus, when requested, the
// slowest units.
type profileReport struct {
	sysdreport.Stats
	SlowestUnits []sysdreport.UnitMean `json:"slowest_units,omitempty"`
}

func writeJSON(w io.Writer, summaries []sysdreport.Stats, blame map[string][]sysdreport.UnitMean, topN int) error {
	reports := make([]profileReport, 0, len(summaries))

	for _, s := range summaries {
		r := profileReport{Stats: s}
		if topN > 0 {
			r.SlowestUnits = topBlame(blame, s.Name, topN)
		}

		reports = append(reports, r)
	}

	data, err := json.Marshal(reports)
	if err != nil {
		return err
	}

	if !color.Enabled() {
		var out []byte
		if out, err = json.MarshalIndent(reports, "", "  "); err != nil {
			return err
		}

		_, err = fmt.Fprintln(w, string(out))

		return err
	}

	var obj any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	f := colorjson.NewFormatter()
	f.Indent = jsonIndent

	out, err := f.Marshal(obj)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(out))

	return err
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
)

func writeTable(w io.Writer, summaries []sysdreport.Stats) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-20s %7s %9s %9s %9s %9s",
		"profile", "samples", "mean", "median", "range", "stdev")))

	for _, s := range summaries {
		fmt.Fprintf(w, "%s %7d %8.3fs %8.3fs %8.3fs %8.3fs\n",
			nameStyle.Render(fmt.Sprintf("%-20s", s.Name)),
			s.Samples, s.Mean, s.Median, s.Range, s.Stdev)
	}
}

// writeBlame prints the slowest units per profile, in profile order.
func writeBlame(w io.Writer, summaries []sysdreport.Stats, blame map[string][]sysdreport.UnitMean, topN int) {
	for _, s := range summaries {
		units := topBlame(blame, s.Name, topN)
		if len(units) == 0 {
			continue
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("slowest units: %s", s.Name)))

		for _, u := range units {
			fmt.Fprintf(w, "%10.0fms  %s\n", u.MeanMs, u.Unit)
		}
	}
}
