// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source provides configuration values from a single origin. Keys are
// normalized to SCREAMING_SNAKE_CASE so that every source can define or
// override the same field regardless of its native casing.
type Source interface {
	// Name returns the source name used in error messages.
	Name() string

	// Values returns every key/value pair defined by the source.
	Values() (map[string]string, error)
}

// normalizeKey maps a source-native key to the canonical lookup form.
func normalizeKey(key string) string {
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, ".", "_")
	return strings.ToUpper(key)
}

// initSource exposes values passed explicitly at construction time. It ranks
// above every other source.
type initSource struct {
	overrides map[string]string
}

func (s initSource) Name() string { return "init" }

func (s initSource) Values() (map[string]string, error) {
	values := make(map[string]string, len(s.overrides))
	for key, value := range s.overrides {
		values[normalizeKey(key)] = value
	}
	return values, nil
}

// envSource exposes the process environment variables.
type envSource struct{}

func (s envSource) Name() string { return "environment" }

func (s envSource) Values() (map[string]string, error) {
	environ := os.Environ()
	values := make(map[string]string, len(environ))
	for _, pair := range environ {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		values[normalizeKey(key)] = value
	}
	return values, nil
}

// dotenvSource exposes the values of a dotenv file. The file is only read,
// never exported into the process environment, so externally set variables
// keep ranking above it. A missing file yields no values.
type dotenvSource struct {
	path string
}

func (s dotenvSource) Name() string { return "dotenv" }

func (s dotenvSource) Values() (map[string]string, error) {
	parsed, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	values := make(map[string]string, len(parsed))
	for key, value := range parsed {
		values[normalizeKey(key)] = value
	}
	return values, nil
}

// secretsSource exposes the content of files inside a directory, keyed by
// file name. It is commonly used for sensitive values mounted by the
// orchestrator. A missing directory yields no values.
type secretsSource struct {
	dir string
}

func (s secretsSource) Name() string { return "file secrets" }

func (s secretsSource) Values() (map[string]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	values := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		content, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		values[normalizeKey(entry.Name())] = strings.TrimSpace(string(content))
	}
	return values, nil
}

// yamlSource exposes the top level keys of a YAML file. It is always the
// lowest ranked source. A missing file yields no values so that settings can
// be provided entirely through the environment.
type yamlSource struct {
	path string
}

func (s yamlSource) Name() string { return "yaml" }

func (s yamlSource) Values() (map[string]string, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	parsed := map[string]any{}
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", s.path, err)
	}

	values := make(map[string]string, len(parsed))
	for key, value := range parsed {
		stringValue, err := stringifyValue(value)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: key %q: %w", s.path, key, err)
		}
		values[normalizeKey(key)] = stringValue
	}
	return values, nil
}

// stringifyValue renders a decoded YAML value in the textual form expected by
// the settings decoder. Composite values are carried as JSON.
func stringifyValue(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case bool:
		return strconv.FormatBool(typed), nil
	case int:
		return strconv.Itoa(typed), nil
	case int64:
		return strconv.FormatInt(typed, 10), nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}
