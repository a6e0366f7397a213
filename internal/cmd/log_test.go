// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/mlbridge/internal/config"
)

// testProvider mimics the provider function the root command hands down.
func testProvider() *config.Provider {
	return config.NewProvider()
}

func TestLogCmd(t *testing.T) {
	t.Parallel()

	t.Run("without anything to log the usage is printed", func(t *testing.T) {
		t.Parallel()
		out := new(bytes.Buffer)
		cmd := LogCmd(testProvider)
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs([]string{})

		require.NoError(t, cmd.ExecuteContext(t.Context()))
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("an invalid parameter fails", func(t *testing.T) {
		t.Parallel()
		out := new(bytes.Buffer)
		cmd := LogCmd(testProvider)
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs([]string{"--param", "model"})

		err := cmd.ExecuteContext(t.Context())
		assert.ErrorIs(t, err, errInvalidParam)
	})

	t.Run("a missing data path fails", func(t *testing.T) {
		t.Parallel()
		out := new(bytes.Buffer)
		cmd := LogCmd(testProvider)
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs([]string{"--data", "/not/a/real/path"})

		assert.Error(t, cmd.ExecuteContext(t.Context()))
	})
}
