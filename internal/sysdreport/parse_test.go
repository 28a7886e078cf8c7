// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sysdreport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBootTimes(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		target  string
		want    BootTimes
		wantErr bool
	}{
		{
			name:   "container userspace only",
			data:   "Startup finished in 2.420s (userspace)\ngraphical.target reached after 2.389s in userspace.\n",
			target: "graphical.target",
			want:   BootTimes{Startup: 2.420, TargetReached: 2.389},
		},
		{
			name: "vm with kernel component",
			data: "Startup finished in 4.510s (kernel) + 11.921s (userspace) = 16.432s\n" +
				"graphical.target reached after 11.902s in userspace.\n",
			target: "graphical.target",
			want:   BootTimes{Startup: 4.510, TargetReached: 11.902},
		},
		{
			name:   "custom target",
			data:   "Startup finished in 3.001s (userspace)\ncloud-init.target reached after 2.500s in userspace.\n",
			target: "cloud-init.target",
			want:   BootTimes{Startup: 3.001, TargetReached: 2.5},
		},
		{
			name:    "wrong target",
			data:    "Startup finished in 2.420s (userspace)\ngraphical.target reached after 2.389s in userspace.\n",
			target:  "cloud-init.target",
			wantErr: true,
		},
		{
			name:    "garbage",
			data:    "systemd-analyze: bootup is not yet finished\n",
			target:  "graphical.target",
			wantErr: true,
		},
		{
			name:    "empty",
			data:    "",
			target:  "graphical.target",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBootTimes(tt.data, tt.target)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParseAnalyze)
				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.want.Startup, got.Startup, 1e-9)
			assert.InDelta(t, tt.want.TargetReached, got.TargetReached, 1e-9)
		})
	}
}

func TestParseBlame(t *testing.T) {
	data := "1.134s systemd-networkd-wait-online.service\n" +
		" 459ms systemd-udev-trigger.service\n" +
		" 383ms snapd.seeded.service\n" +
		" 249ms snapd.service\n"

	entries, err := ParseBlame(data)
	require.NoError(t, err)

	assert.Equal(t, []BlameEntry{
		{Unit: "systemd-networkd-wait-online.service", Ms: 1134},
		{Unit: "systemd-udev-trigger.service", Ms: 459},
		{Unit: "snapd.seeded.service", Ms: 383},
		{Unit: "snapd.service", Ms: 249},
	}, entries)
}

func TestParseBlameMinuteDurations(t *testing.T) {
	// Units slower than a minute render the duration over two fields.
	entries, err := ParseBlame("1min 1.044s apt-daily.service\n")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, BlameEntry{Unit: "apt-daily.service", Ms: 61044}, entries[0])
}

func TestParseBlameEmpty(t *testing.T) {
	entries, err := ParseBlame("\n")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseBlameMalformed(t *testing.T) {
	tests := []string{
		"systemd-udev-trigger.service\n", // no duration
		"fast systemd-udev-trigger.service\n",
	}

	for _, data := range tests {
		_, err := ParseBlame(data)
		assert.ErrorIs(t, err, ErrParseBlame, "input: %q", data)
	}
}

func TestParseCriticalChain(t *testing.T) {
	data := "graphical.target @1.989s\n" +
		"└─multi-user.target @1.989s\n" +
		"  └─systemd-user-sessions.service @1.988s +1ms\n" +
		"    └─local-fs.target @1.988s\n" +
		"      └─run-user-1000-gvfs.mount @2.249s\n" +
		"        └─gvfs-daemon.service @2.249s +2ms\n"

	entries, err := ParseCriticalChain(data)
	require.NoError(t, err)

	assert.Equal(t, []ChainEntry{
		{Unit: "graphical.target", ActiveMs: 1989},
		{Unit: "multi-user.target", ActiveMs: 1989},
		{Unit: "systemd-user-sessions.service", ActiveMs: 1988, StartMs: 1, HasStart: true},
		{Unit: "local-fs.target", ActiveMs: 1988},
		{Unit: "run-user-1000-gvfs.mount", ActiveMs: 2249},
		{Unit: "gvfs-daemon.service", ActiveMs: 2249, StartMs: 2, HasStart: true},
	}, entries)
}

func TestParseCriticalChainSkipsElisionMarkers(t *testing.T) {
	data := "cloud-init.target @11.902s\n" +
		"...\n" +
		"  └─cloud-final.service @10.001s +1.803s\n"

	entries, err := ParseCriticalChain(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ChainEntry{Unit: "cloud-final.service", ActiveMs: 10001, StartMs: 1803, HasStart: true}, entries[1])
}

func TestParseCriticalChainMalformed(t *testing.T) {
	tests := []string{
		"graphical.target 1.989s\n",          // active time without @
		"└─foo.service @1.988s 1ms\n",        // start time without +
		"└─foo.service @1.988s +1ms extra\n", // too many fields
		"└─foo.service @abc\n",               // not a duration
	}

	for _, data := range tests {
		_, err := ParseCriticalChain(data)
		assert.ErrorIs(t, err, ErrParseChain, "input: %q", data)
	}
}

func TestParseReloadTimings(t *testing.T) {
	data := "real 0.75\nuser 0.00\nsys 0.02\nreal 0.74\nuser 0.00\nsys 0.03\n"

	timings, err := ParseReloadTimings(data)
	require.NoError(t, err)
	require.Len(t, timings, 2)
	assert.InDelta(t, 0.75, timings[0].Real, 1e-9)
	assert.InDelta(t, 0.02, timings[0].Sys, 1e-9)
	assert.InDelta(t, 0.74, timings[1].Real, 1e-9)
}

func TestParseReloadTimingsEmpty(t *testing.T) {
	timings, err := ParseReloadTimings("\n")
	require.NoError(t, err)
	assert.Empty(t, timings)
}

func TestParseReloadTimingsMalformed(t *testing.T) {
	tests := []string{
		"real 0.75\nuser 0.00\n",           // truncated triplet
		"sys 0.02\nuser 0.00\nreal 0.75\n", // labels out of order
		"real abc\nuser 0.00\nsys 0.02\n",  // not a number
	}

	for _, data := range tests {
		_, err := ParseReloadTimings(data)
		assert.ErrorIs(t, err, ErrParseReload, "input: %q", data)
	}
}
