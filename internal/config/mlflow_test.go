// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	return parsed
}

func TestTrackingEndpoint(t *testing.T) {
	t.Parallel()

	local := mustParseURL(t, "http://localhost:5000")
	remote := mustParseURL(t, "https://mlflow.example.com")

	t.Run("local endpoint selected without remote flag", func(t *testing.T) {
		t.Parallel()
		settings := &MlflowLoggerConfig{TrackingURI: local, RemoteTrackingURI: remote}
		endpoint, err := settings.TrackingEndpoint()
		require.NoError(t, err)
		assert.Equal(t, local, endpoint)
	})

	t.Run("remote endpoint selected with remote flag", func(t *testing.T) {
		t.Parallel()
		settings := &MlflowLoggerConfig{TrackingURI: local, RemoteTrackingURI: remote, RemoteFlag: true}
		endpoint, err := settings.TrackingEndpoint()
		require.NoError(t, err)
		assert.Equal(t, remote, endpoint)
	})

	t.Run("missing local endpoint", func(t *testing.T) {
		t.Parallel()
		settings := &MlflowLoggerConfig{RemoteTrackingURI: remote}
		endpoint, err := settings.TrackingEndpoint()
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Nil(t, endpoint)
	})

	t.Run("missing remote endpoint", func(t *testing.T) {
		t.Parallel()
		settings := &MlflowLoggerConfig{TrackingURI: local, RemoteFlag: true}
		endpoint, err := settings.TrackingEndpoint()
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Nil(t, endpoint)
	})
}
