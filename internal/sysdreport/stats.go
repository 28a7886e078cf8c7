// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sysdreport

import (
	"errors"
	"math"
	"slices"
)

// ErrNoSamples is returned when a summary is requested over no data.
var ErrNoSamples = errors.New("no samples")

// Stats summarises one profile's target-reached times across runs.
type Stats struct {
	Name    string  `json:"name"`
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Range   float64 `json:"range"`
	Stdev   float64 `json:"stdev"`
}

// Summarize computes mean, median, range and sample standard deviation over
// values. Stdev is zero for a single sample.
func Summarize(name string, values []float64) (Stats, error) {
	if len(values) == 0 {
		return Stats{}, ErrNoSamples
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s := Stats{
		Name:    name,
		Samples: len(sorted),
		Range:   sorted[len(sorted)-1] - sorted[0],
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	s.Mean = sum / float64(len(sorted))

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		s.Median = sorted[mid]
	}

	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - s.Mean
			sq += d * d
		}

		s.Stdev = math.Sqrt(sq / float64(len(sorted)-1))
	}

	return s, nil
}
