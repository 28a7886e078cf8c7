// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sysdreport

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrParseAnalyze is returned when systemd-analyze output cannot be parsed.
	ErrParseAnalyze = errors.New("could not parse systemd-analyze output")
	// ErrParseReload is returned when timed daemon-reload output cannot be parsed.
	ErrParseReload = errors.New("could not parse daemon-reload timing")
	// ErrParseBlame is returned when systemd-analyze blame output cannot be parsed.
	ErrParseBlame = errors.New("could not parse systemd-analyze blame output")
	// ErrParseChain is returned when systemd-analyze critical-chain output cannot be parsed.
	ErrParseChain = errors.New("could not parse critical-chain output")
)

// BootTimes are the two figures parsed from systemd-analyze time.
type BootTimes struct {
	// Startup is the "Startup finished in" figure in seconds. For VMs
	// this is the first (kernel) component; containers report only
	// userspace.
	Startup float64
	// TargetReached is the "<target> reached after ...s in userspace"
	// figure in seconds.
	TargetReached float64
}

var startupRe = regexp.MustCompile(`Startup finished in ([\d.]+)s`)

// ParseBootTimes extracts boot timings from systemd-analyze time output,
// for example:
//
//	Startup finished in 2.420s (userspace)
//	graphical.target reached after 2.389s in userspace.
func ParseBootTimes(data, target string) (BootTimes, error) {
	targetRe, err := regexp.Compile(regexp.QuoteMeta(target) + ` reached after ([\d.]+)s`)
	if err != nil {
		return BootTimes{}, errors.Join(ErrParseAnalyze, err)
	}

	startup := startupRe.FindStringSubmatch(data)
	reached := targetRe.FindStringSubmatch(data)

	if startup == nil || reached == nil {
		return BootTimes{}, fmt.Errorf("%w: target %q: %q", ErrParseAnalyze, target, data)
	}

	t := BootTimes{}

	if t.Startup, err = strconv.ParseFloat(startup[1], 64); err != nil {
		return BootTimes{}, errors.Join(ErrParseAnalyze, err)
	}

	if t.TargetReached, err = strconv.ParseFloat(reached[1], 64); err != nil {
		return BootTimes{}, errors.Join(ErrParseAnalyze, err)
	}

	return t, nil
}

// BlameEntry is one unit's initialisation time from systemd-analyze blame.
type BlameEntry struct {
	Unit string `json:"unit"`
	Ms   int    `json:"ms"`
}

// ParseBlame parses systemd-analyze blame output: one unit per line, slowest
// first, for example:
//
//	1.134s systemd-networkd-wait-online.service
//	 459ms systemd-udev-trigger.service
//
// Entries are returned in capture order, so the slice is already sorted by
// descending initialisation time.
func ParseBlame(data string) ([]BlameEntry, error) {
	var entries []BlameEntry

	for line := range strings.Lines(data) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: %q", ErrParseBlame, strings.TrimSpace(line))
		}

		// Everything before the unit name is the duration, which spans
		// two fields for slow units ("1min 1.044s").
		ms, err := parseMs(fields[:len(fields)-1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrParseBlame, strings.TrimSpace(line), err)
		}

		entries = append(entries, BlameEntry{Unit: fields[len(fields)-1], Ms: ms})
	}

	return entries, nil
}

// ChainEntry is one unit on the boot critical chain: when it became active
// and, for units that perform startup work of their own, how long that work
// took. Targets and other units without a startup figure report HasStart
// false.
type ChainEntry struct {
	Unit     string `json:"unit"`
	ActiveMs int    `json:"active_ms"`
	StartMs  int    `json:"start_ms"`
	HasStart bool   `json:"has_start"`
}

// chainTreeChars are the tree-drawing characters framing each critical-chain
// line.
const chainTreeChars = " │└─"

// ParseCriticalChain parses systemd-analyze critical-chain output, for
// example:
//
//	graphical.target @1.989s
//	└─multi-user.target @1.989s
//	  └─systemd-user-sessions.service @1.988s +1ms
//
// Entries are returned in chain order, target first.
func ParseCriticalChain(data string) ([]ChainEntry, error) {
	var entries []ChainEntry

	for line := range strings.Lines(data) {
		trimmed := strings.Trim(line, chainTreeChars+"\n")
		if strings.Trim(trimmed, ".") == "" {
			// Blank, or the "..." marker for an elided subtree.
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("%w: %q", ErrParseChain, strings.TrimSpace(line))
		}

		active, ok := strings.CutPrefix(fields[1], "@")
		if !ok {
			return nil, fmt.Errorf("%w: expected @-prefixed active time: %q",
				ErrParseChain, strings.TrimSpace(line))
		}

		e := ChainEntry{Unit: fields[0]}

		var err error
		if e.ActiveMs, err = parseMs([]string{active}); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrParseChain, strings.TrimSpace(line), err)
		}

		if len(fields) == 3 {
			start, ok := strings.CutPrefix(fields[2], "+")
			if !ok {
				return nil, fmt.Errorf("%w: expected +-prefixed start time: %q",
					ErrParseChain, strings.TrimSpace(line))
			}

			if e.StartMs, err = parseMs([]string{start}); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrParseChain, strings.TrimSpace(line), err)
			}

			e.HasStart = true
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// parseMs converts a systemd duration rendering such as "1.134s", "459ms"
// or "1min 1.044s" into whole milliseconds.
func parseMs(fields []string) (int, error) {
	// systemd prints "min" where Go's duration syntax wants "m".
	d, err := time.ParseDuration(strings.ReplaceAll(strings.Join(fields, ""), "min", "m"))
	if err != nil {
		return 0, err
	}

	return int(d.Milliseconds()), nil
}

// ReloadTiming is one timed systemctl daemon-reload, POSIX time -p format.
type ReloadTiming struct {
	Real float64
	User float64
	Sys  float64
}

// ParseReloadTimings parses concatenated time -p output: repeated
// real/user/sys line triplets.
func ParseReloadTimings(data string) ([]ReloadTiming, error) {
	lines := strings.Fields(strings.TrimSpace(data))
	if len(lines) == 0 {
		return nil, nil
	}

	// Fields alternate label and value: real 0.75 user 0.00 sys 0.02 ...
	const fieldsPerTiming = 6

	if len(lines)%fieldsPerTiming != 0 {
		return nil, fmt.Errorf("%w: %q", ErrParseReload, data)
	}

	timings := make([]ReloadTiming, 0, len(lines)/fieldsPerTiming)

	for i := 0; i < len(lines); i += fieldsPerTiming {
		var t ReloadTiming

		for _, pair := range []struct {
			label string
			dst   *float64
			at    int
		}{
			{"real", &t.Real, i},
			{"user", &t.User, i + 2},
			{"sys", &t.Sys, i + 4},
		} {
			if lines[pair.at] != pair.label {
				return nil, fmt.Errorf("%w: expected %q, got %q", ErrParseReload, pair.label, lines[pair.at])
			}

			v, err := strconv.ParseFloat(lines[pair.at+1], 64)
			if err != nil {
				return nil, errors.Join(ErrParseReload, err)
			}

			*pair.dst = v
		}

		timings = append(timings, t)
	}

	return timings, nil
}
