// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sysdreport

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// ErrNoRuns is returned when an output tree contains no parsable runs.
var ErrNoRuns = errors.New("no runs found in output tree")

// RunDir returns the directory one run/profile combination is collected
// into: <root>/<run>/<profile>.
func RunDir(root string, run int, profile string) string {
	return path.Join(root, strconv.Itoa(run), profile)
}

// LoadTree walks a completed output tree and returns the target-reached
// seconds per profile, ordered by run index. The layout is the one the
// runner produces: <root>/<run>/<profile>/analyze.txt with numeric run
// directories. Unparsable or missing captures are reported but do not stop
// the load; the error aggregates them alongside whatever data was read.
func LoadTree(fsys afero.Fs, root, target string) (map[string][]float64, error) {
	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		return nil, errors.Join(ErrNoRuns, err)
	}

	runs := make([]int, 0, len(entries))

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		n, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}

		runs = append(runs, n)
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRuns, root)
	}

	sort.Ints(runs)

	times := make(map[string][]float64)

	var errs *multierror.Error

	for _, run := range runs {
		runRoot := path.Join(root, strconv.Itoa(run))

		profiles, err := afero.ReadDir(fsys, runRoot)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		for _, p := range profiles {
			if !p.IsDir() {
				continue
			}

			file := path.Join(runRoot, p.Name(), AnalyzeFile)

			data, err := afero.ReadFile(fsys, file)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}

			bt, err := ParseBootTimes(string(data), target)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", file, err))
				continue
			}

			times[p.Name()] = append(times[p.Name()], bt.TargetReached)
		}
	}

	if len(times) == 0 {
		return nil, errors.Join(ErrNoRuns, errs.ErrorOrNil())
	}

	return times, errs.ErrorOrNil()
}

// UnitMean is one unit's blame figure averaged across runs.
type UnitMean struct {
	Unit   string  `json:"unit"`
	MeanMs float64 `json:"mean_ms"`
}

// LoadBlame walks a completed output tree and returns, per profile, the
// units' initialisation times averaged across the runs that captured them,
// slowest first. Unparsable or missing captures are aggregated into the
// returned error alongside whatever data was read, as with LoadTree.
func LoadBlame(fsys afero.Fs, root string) (map[string][]UnitMean, error) {
	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		return nil, errors.Join(ErrNoRuns, err)
	}

	type sums struct {
		totalMs float64
		samples int
	}

	perProfile := make(map[string]map[string]*sums)

	var errs *multierror.Error

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		if _, err := strconv.Atoi(e.Name()); err != nil {
			continue
		}

		runRoot := path.Join(root, e.Name())

		profiles, err := afero.ReadDir(fsys, runRoot)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		for _, p := range profiles {
			if !p.IsDir() {
				continue
			}

			file := path.Join(runRoot, p.Name(), BlameFile)

			data, err := afero.ReadFile(fsys, file)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}

			blame, err := ParseBlame(string(data))
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", file, err))
				continue
			}

			units := perProfile[p.Name()]
			if units == nil {
				units = make(map[string]*sums)
				perProfile[p.Name()] = units
			}

			for _, b := range blame {
				s := units[b.Unit]
				if s == nil {
					s = &sums{}
					units[b.Unit] = s
				}

				s.totalMs += float64(b.Ms)
				s.samples++
			}
		}
	}

	if len(perProfile) == 0 {
		return nil, errors.Join(ErrNoRuns, errs.ErrorOrNil())
	}

	blame := make(map[string][]UnitMean, len(perProfile))

	for profile, units := range perProfile {
		means := make([]UnitMean, 0, len(units))
		for unit, s := range units {
			means = append(means, UnitMean{Unit: unit, MeanMs: s.totalMs / float64(s.samples)})
		}

		// Slowest first; name breaks ties so the order is stable.
		sort.Slice(means, func(i, j int) bool {
			if means[i].MeanMs != means[j].MeanMs {
				return means[i].MeanMs > means[j].MeanMs
			}

			return means[i].Unit < means[j].Unit
		})

		blame[profile] = means
	}

	return blame, errs.ErrorOrNil()
}
