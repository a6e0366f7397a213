// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "LOG_LEVEL", normalizeKey("log_level"))
	assert.Equal(t, "LOG_LEVEL", normalizeKey("Log-Level"))
	assert.Equal(t, "TRACKING_URI", normalizeKey("tracking.uri"))
}

func TestDotenvSource(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields no values", func(t *testing.T) {
		source := dotenvSource{path: filepath.Join(dir, "missing.env")}
		values, err := source.Values()
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("values are read without touching the process environment", func(t *testing.T) {
		path := filepath.Join(dir, ".env")
		writeFile(t, path, "run_name=from-dotenv\n")

		source := dotenvSource{path: path}
		values, err := source.Values()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"RUN_NAME": "from-dotenv"}, values)

		_, exported := os.LookupEnv("run_name")
		assert.False(t, exported)
	})
}

func TestSecretsSource(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing directory yields no values", func(t *testing.T) {
		source := secretsSource{dir: filepath.Join(dir, "missing")}
		values, err := source.Values()
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("files are read and trimmed", func(t *testing.T) {
		secretsDir := filepath.Join(dir, "secrets")
		require.NoError(t, os.MkdirAll(filepath.Join(secretsDir, "nested"), 0o700))
		writeFile(t, filepath.Join(secretsDir, "instance"), "from-secret\n")

		source := secretsSource{dir: secretsDir}
		values, err := source.Values()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"INSTANCE": "from-secret"}, values)
	})
}

func TestYamlSource(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields no values", func(t *testing.T) {
		source := yamlSource{path: filepath.Join(dir, "missing.yaml")}
		values, err := source.Values()
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("scalar values are stringified", func(t *testing.T) {
		path := filepath.Join(dir, "values.yaml")
		writeFile(t, path, `
name: test
enabled: true
count: 3
ratio: 0.5
extra:
  nested: value
`)

		source := yamlSource{path: path}
		values, err := source.Values()
		require.NoError(t, err)
		assert.Equal(t, "test", values["NAME"])
		assert.Equal(t, "true", values["ENABLED"])
		assert.Equal(t, "3", values["COUNT"])
		assert.Equal(t, "0.5", values["RATIO"])
		assert.JSONEq(t, `{"nested":"value"}`, values["EXTRA"])
	})
}
