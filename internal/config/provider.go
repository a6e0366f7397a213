// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"path/filepath"
	"sync"
	"sync/atomic"
)

// Provider owns the settings objects for the process lifetime. Every settings
// type is constructed at most once, lazily, on first access; the same
// instance is returned afterwards. A failed construction is not cached, so a
// later call attempts it again.
type Provider struct {
	configDir  string
	dotenvPath string
	secretsDir string
	overrides  map[string]string

	initLock sync.Mutex
	global   atomic.Pointer[GlobalConfig]
	mlflow   atomic.Pointer[MlflowLoggerConfig]
}

// ProviderOption customizes a Provider.
type ProviderOption func(*Provider)

// WithConfigDir changes the directory holding the YAML settings files.
func WithConfigDir(dir string) ProviderOption {
	return func(p *Provider) {
		p.configDir = dir
	}
}

// WithDotenvPath changes the dotenv file read by the dotenv source.
func WithDotenvPath(path string) ProviderOption {
	return func(p *Provider) {
		p.dotenvPath = path
	}
}

// WithSecretsDir changes the directory read by the file secrets source.
func WithSecretsDir(dir string) ProviderOption {
	return func(p *Provider) {
		p.secretsDir = dir
	}
}

// WithOverride adds an init-time value, ranking above every other source.
func WithOverride(key, value string) ProviderOption {
	return func(p *Provider) {
		p.overrides[normalizeKey(key)] = value
	}
}

// NewProvider returns a Provider reading from the default source locations,
// adjusted by the given options.
func NewProvider(opts ...ProviderOption) *Provider {
	provider := &Provider{
		dotenvPath: defaultDotenvPath,
		secretsDir: defaultSecretsDir,
		overrides:  map[string]string{},
	}

	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

// GlobalConfig returns the process GlobalConfig, constructing it on first
// call. Readers after a successful construction never block on the init lock.
func (p *Provider) GlobalConfig() (*GlobalConfig, error) {
	if cached := p.global.Load(); cached != nil {
		return cached, nil
	}

	p.initLock.Lock()
	defer p.initLock.Unlock()
	if cached := p.global.Load(); cached != nil {
		return cached, nil
	}

	settings, err := loadSettings[GlobalConfig](p.loadOptions(GlobalConfigPath))
	if err != nil {
		return nil, err
	}

	p.global.Store(settings)
	return settings, nil
}

// MlflowLoggerConfig returns the process MlflowLoggerConfig, constructing it
// on first call.
func (p *Provider) MlflowLoggerConfig() (*MlflowLoggerConfig, error) {
	if cached := p.mlflow.Load(); cached != nil {
		return cached, nil
	}

	p.initLock.Lock()
	defer p.initLock.Unlock()
	if cached := p.mlflow.Load(); cached != nil {
		return cached, nil
	}

	settings, err := loadSettings[MlflowLoggerConfig](p.loadOptions(MlflowLoggerConfigPath))
	if err != nil {
		return nil, err
	}

	p.mlflow.Store(settings)
	return settings, nil
}

// loadOptions assembles the source locations for one settings load. The YAML
// paths keep their configs/ segment, resolved relative to the configured
// directory.
func (p *Provider) loadOptions(yamlPath string) loadOptions {
	if p.configDir != "" {
		yamlPath = filepath.Join(p.configDir, yamlPath)
	}

	return loadOptions{
		overrides:  p.overrides,
		dotenvPath: p.dotenvPath,
		secretsDir: p.secretsDir,
		yamlPath:   yamlPath,
	}
}
