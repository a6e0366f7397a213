// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"fmt"
	"net/url"
)

// MlflowLoggerConfig holds the settings for the MLflow experiment logger.
// Exactly one of TrackingURI and RemoteTrackingURI is meaningful at a time,
// selected by RemoteFlag.
type MlflowLoggerConfig struct {
	TrackingURI       *url.URL `env:"TRACKING_URI"`
	RemoteTrackingURI *url.URL `env:"REMOTE_TRACKING_URI"`
	Instance          string   `env:"INSTANCE,required"`
	RemoteFlag        bool     `env:"REMOTE_FLAG,required"`
	Trace             bool     `env:"TRACE,required"`
	TemplatesPath     string   `env:"TEMPLATES_PATH,required"`
	ArtifactPath      string   `env:"ARTIFACT_PATH,required"`
	RunName           string   `env:"RUN_NAME"`
	ProjectName       string   `env:"PROJECT_NAME"`
}

// TrackingEndpoint returns the tracking server URL selected by RemoteFlag.
// A missing selected URL is a configuration error.
func (c *MlflowLoggerConfig) TrackingEndpoint() (*url.URL, error) {
	if c.RemoteFlag {
		if c.RemoteTrackingURI == nil {
			return nil, fmt.Errorf("%w: remote_tracking_uri is required when remote_flag is set", ErrConfiguration)
		}
		return c.RemoteTrackingURI, nil
	}

	if c.TrackingURI == nil {
		return nil, fmt.Errorf("%w: tracking_uri is required when remote_flag is not set", ErrConfiguration)
	}
	return c.TrackingURI, nil
}
