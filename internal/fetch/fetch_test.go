// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		url       string
		wantErr   error
		wantBytes []byte
	}{
		{
			name:    "empty url returns error",
			url:     "",
			wantErr: ErrFetch,
		},
		{
			name:    "unreachable remote fails",
			url:     "git::http://notexist//plan.yaml",
			wantErr: ErrFetch,
		},
		{
			name:      "local file succeeds",
			url:       "./testdata/plan.yaml",
			wantErr:   nil,
			wantBytes: []byte("image: ubuntu:24.10\nprofiles:\n  - name: first-boot\n"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			data, err := Get(ctx, tc.url)
			if tc.wantErr != nil {
				assert.Error(t, err)
				assert.Nil(t, data)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.wantBytes, data)
			}
		})
	}
}

func TestSplitFileNameFromGetterURL(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		url      string
		wantURL  string
		wantFile string
	}{
		{
			name:     "too few parts",
			url:      "plan.yaml",
			wantURL:  "",
			wantFile: "",
		},
		{
			name:     "repo subdirectory file",
			url:      "git::https://example.com/repo//plans/plan.yaml",
			wantURL:  "git::https://example.com/repo//plans",
			wantFile: "plan.yaml",
		},
		{
			name:     "file at repo root",
			url:      "git::https://example.com/repo//plan.yaml",
			wantURL:  "git::https://example.com/repo",
			wantFile: "plan.yaml",
		},
		{
			name:     "ref is preserved",
			url:      "git::https://example.com/repo//plans/plan.yaml?ref=v1",
			wantURL:  "git::https://example.com/repo//plans?ref=v1",
			wantFile: "plan.yaml",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotURL, gotFile := splitFileNameFromGetterURL(tc.url)
			assert.Equal(t, tc.wantURL, gotURL)
			assert.Equal(t, tc.wantFile, gotFile)
		})
	}
}
