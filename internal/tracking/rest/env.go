// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package rest

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
)

var (
	errParsingConfig       = errors.New("error parsing tracking configuration from environment variables")
	errMultipleAuthMethods = errors.New("MLFLOW_TOKEN and MLFLOW_CLIENT_ID are mutually exclusive")
	errMissingClientID     = errors.New("MLFLOW_CLIENT_ID is required when MLFLOW_CLIENT_SECRET is set")
	errMissingClientSecret = errors.New("MLFLOW_CLIENT_SECRET is required when MLFLOW_CLIENT_ID is set")
)

// authConfig holds the environment-driven credentials for the tracking server.
type authConfig struct {
	Token        string `env:"MLFLOW_TOKEN"`
	ClientID     string `env:"MLFLOW_CLIENT_ID"`
	ClientSecret string `env:"MLFLOW_CLIENT_SECRET"`
	AuthEndpoint string `env:"MLFLOW_AUTH_ENDPOINT"`
}

func loadAuthFromEnv(endpoint *url.URL) (*authConfig, error) {
	config, err := env.ParseAs[authConfig]()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errParsingConfig, err.Error())
	}
	if err := config.validate(endpoint); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *authConfig) validate(endpoint *url.URL) error {
	switch {
	case len(c.Token) > 0 && len(c.ClientID) > 0:
		return errMultipleAuthMethods
	case len(c.ClientID) > 0 && len(c.ClientSecret) == 0:
		return errMissingClientSecret
	case len(c.ClientSecret) > 0 && len(c.ClientID) == 0:
		return errMissingClientID
	}

	if len(c.AuthEndpoint) == 0 {
		authURL := *endpoint
		authURL.Path = "/oauth/token"
		c.AuthEndpoint = authURL.String()
	} else {
		if _, err := url.Parse(c.AuthEndpoint); err != nil {
			return fmt.Errorf("invalid MLFLOW_AUTH_ENDPOINT: %w", err)
		}
	}
	return nil
}
