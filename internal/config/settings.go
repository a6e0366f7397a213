// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	// GlobalConfigPath is the default YAML file for the global settings.
	GlobalConfigPath = "configs/global.yaml"
	// MlflowLoggerConfigPath is the default YAML file for the experiment
	// logger settings.
	MlflowLoggerConfigPath = "configs/mlflow_logger.yaml"

	defaultDotenvPath = ".env"
	defaultSecretsDir = "/run/secrets"
)

var (
	// ErrConfiguration reports a missing or invalid configuration value.
	ErrConfiguration = errors.New("invalid configuration")
)

// loadOptions tunes where every settings source reads its values from.
type loadOptions struct {
	overrides  map[string]string
	dotenvPath string
	secretsDir string
	yamlPath   string
}

// sourcesFor returns the ordered sources for the given options, from the
// highest to the lowest precedence: init, environment, dotenv, file secrets
// and, when a path is declared, YAML.
func sourcesFor(opts loadOptions) []Source {
	sources := []Source{
		initSource{overrides: opts.overrides},
		envSource{},
		dotenvSource{path: opts.dotenvPath},
		secretsSource{dir: opts.secretsDir},
	}

	if opts.yamlPath != "" {
		sources = append(sources, yamlSource{path: opts.yamlPath})
	}
	return sources
}

// resolveValues merges the sources into a single map. The first source
// defining a key wins.
func resolveValues(sources []Source) (map[string]string, error) {
	merged := map[string]string{}
	for _, source := range sources {
		values, err := source.Values()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s settings: %w", ErrConfiguration, source.Name(), err)
		}

		for key, value := range values {
			if _, defined := merged[key]; !defined {
				merged[key] = value
			}
		}
	}
	return merged, nil
}

// loadSettings resolves the layered sources and decodes the merged values
// into a typed settings struct. Keys without a matching field are ignored.
func loadSettings[T any](opts loadOptions) (*T, error) {
	merged, err := resolveValues(sourcesFor(opts))
	if err != nil {
		return nil, err
	}

	settings := new(T)
	if err := env.ParseWithOptions(settings, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("%w: %T: %w", ErrConfiguration, *settings, err)
	}
	return settings, nil
}
