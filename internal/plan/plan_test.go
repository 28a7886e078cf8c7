// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package plan

import (
	"testing"
	"time"

	"github.com/matt-FFFFFF/bootperf/internal/instance"
	"github.com/matt-FFFFFF/bootperf/internal/overrides"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullPlan = `
name: oracular-comparison
description: compare instrumented boots on the oracular image
image: ubuntu:24.10
kind: vm
target: cloud-init.target
runs: 30
output_dir: ./out/oracular-vm
wait:
  interval: 2s
  escalate_after: 75
  escalate_every_poll: true
profiles:
  - name: first-boot
  - name: no-op
  - name: final-masked
    overrides:
      - unit: cloud-final.service
        action: mask
`

func TestBuildFromYAMLFull(t *testing.T) {
	p, err := BuildFromYAML([]byte(fullPlan))
	require.NoError(t, err)

	assert.Equal(t, "oracular-comparison", p.Name)
	assert.Equal(t, "ubuntu:24.10", p.Image)
	assert.Equal(t, instance.KindVM, p.Kind)
	assert.Equal(t, "cloud-init.target", p.Target)
	assert.Equal(t, 30, p.Runs)
	assert.Equal(t, "./out/oracular-vm", p.OutputDir)
	assert.Equal(t, 2*time.Second, p.Wait.IntervalDuration())
	assert.Equal(t, 75, p.Wait.EscalateAfter)
	assert.True(t, p.Wait.EscalateEveryPoll)

	profiles, err := p.ResolveProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Empty(t, profiles[0].Overrides, "first-boot is the untouched baseline")
	assert.Len(t, profiles[1].Overrides, 5, "no-op built-in covers the cloud-init services")
	assert.Equal(t, []overrides.UnitOverride{
		{Unit: "cloud-final.service", Action: overrides.ActionMask},
	}, profiles[2].Overrides)
}

func TestBuildFromYAMLDefaults(t *testing.T) {
	p, err := BuildFromYAML([]byte("image: ubuntu:24.10\nprofiles:\n  - name: first-boot\n"))
	require.NoError(t, err)

	assert.Equal(t, instance.KindContainer, p.Kind)
	assert.Equal(t, DefaultTarget, p.Target)
	assert.Equal(t, 1, p.Runs)
	assert.Equal(t, DefaultOutputDir, p.OutputDir)
	assert.Equal(t, time.Second, p.Wait.IntervalDuration())
	assert.Zero(t, p.Wait.EscalateAfter, "zero means use the waiter default")
}

func TestBuildFromYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "not yaml",
			yaml:    "image: [unterminated",
			wantErr: ErrInvalidYaml,
		},
		{
			name:    "no image",
			yaml:    "profiles:\n  - name: first-boot\n",
			wantErr: ErrNoImage,
		},
		{
			name:    "no profiles",
			yaml:    "image: ubuntu:24.10\n",
			wantErr: ErrNoProfiles,
		},
		{
			name:    "bad kind",
			yaml:    "image: u\nkind: microvm\nprofiles:\n  - name: first-boot\n",
			wantErr: ErrInvalidKind,
		},
		{
			name:    "negative runs",
			yaml:    "image: u\nruns: -2\nprofiles:\n  - name: first-boot\n",
			wantErr: ErrInvalidRuns,
		},
		{
			name:    "bad interval",
			yaml:    "image: u\nwait:\n  interval: soonish\nprofiles:\n  - name: first-boot\n",
			wantErr: ErrInvalidInterval,
		},
		{
			name:    "zero interval",
			yaml:    "image: u\nwait:\n  interval: 0s\nprofiles:\n  - name: first-boot\n",
			wantErr: ErrInvalidInterval,
		},
		{
			name:    "unknown builtin",
			yaml:    "image: u\nprofiles:\n  - name: divide-conquer\n",
			wantErr: ErrUnknownProfile,
		},
		{
			name:    "duplicate profile",
			yaml:    "image: u\nprofiles:\n  - name: first-boot\n  - name: first-boot\n",
			wantErr: ErrDuplicateProfile,
		},
		{
			name:    "override without unit",
			yaml:    "image: u\nprofiles:\n  - name: x\n    overrides:\n      - action: mask\n",
			wantErr: ErrInvalidOverride,
		},
		{
			name:    "override with unknown action",
			yaml:    "image: u\nprofiles:\n  - name: x\n    overrides:\n      - unit: cloud-final.service\n        action: remove\n",
			wantErr: ErrInvalidOverride,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildFromYAML([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
