// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pairs          []string
		expectedParams map[string]any
		expectedErr    error
	}{
		"string values are kept as strings": {
			pairs:          []string{"model=gpt-4o", "dataset=eval-v2"},
			expectedParams: map[string]any{"model": "gpt-4o", "dataset": "eval-v2"},
		},
		"numeric values are carried as numbers": {
			pairs:          []string{"temperature=0.2", "epochs=3"},
			expectedParams: map[string]any{"temperature": 0.2, "epochs": float64(3)},
		},
		"empty values are allowed": {
			pairs:          []string{"note="},
			expectedParams: map[string]any{"note": ""},
		},
		"missing separator": {
			pairs:       []string{"model"},
			expectedErr: errInvalidParam,
		},
		"empty key": {
			pairs:       []string{"=value"},
			expectedErr: errInvalidKeyPair,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			params, err := parseParams(test.pairs)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expectedParams, params)
		})
	}
}

func TestCollectPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("notes"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "skipped.txt"), []byte("skipped"), 0o600))

	t.Run("directories contribute their direct files", func(t *testing.T) {
		t.Parallel()
		paths, err := collectPaths([]string{dir})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			filepath.Join(dir, "results.json"),
			filepath.Join(dir, "notes.txt"),
		}, paths)
	})

	t.Run("files are collected as they are", func(t *testing.T) {
		t.Parallel()
		paths, err := collectPaths([]string{filepath.Join(dir, "notes.txt")})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, paths)
	})

	t.Run("missing paths fail", func(t *testing.T) {
		t.Parallel()
		_, err := collectPaths([]string{filepath.Join(dir, "missing")})
		assert.Error(t, err)
	})
}
