// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"sync"

	"github.com/mia-platform/mlbridge/internal/config"
	"github.com/mia-platform/mlbridge/internal/experiment"
	"github.com/mia-platform/mlbridge/internal/tracking"
	"github.com/mia-platform/mlbridge/internal/tracking/rest"
)

// clientBuilder builds a tracking client from the resolved configuration,
// returning a cleanup function to release it.
type clientBuilder func(cfg *config.MlflowLoggerConfig) (tracking.Client, func(), error)

// options holds the options set for the current log function.
type options struct {
	dataPaths []string
	inputPath string
	params    map[string]any
	runName   string

	provider      *config.Provider
	clientBuilder clientBuilder

	lock sync.Mutex
}

// validate validates the log options and returns an error if something is wrong.
func (o *options) validate() error {
	if len(o.dataPaths) == 0 && o.inputPath == "" && len(o.params) == 0 {
		return errNothingToLog
	}

	return nil
}

// execute records a single experiment run with the configured data.
func (o *options) execute(ctx context.Context) error {
	if !o.lock.TryLock() {
		return nil
	}
	defer o.lock.Unlock()

	cfg, err := o.provider.MlflowLoggerConfig()
	if err != nil {
		return err
	}

	if o.runName != "" {
		// the flag ranks above every configured run name; the shared settings
		// instance stays untouched
		named := *cfg
		named.RunName = o.runName
		cfg = &named
	}

	client, cleanup, err := o.clientBuilder(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runLogger := experiment.NewMlflowLogger(cfg, client)
	return experiment.Run(ctx, runLogger, func(ctx context.Context) error {
		if o.inputPath != "" {
			if err := runLogger.LogInput(ctx, o.inputPath); err != nil {
				return err
			}
		}

		if len(o.params) > 0 {
			if err := runLogger.LogDict(ctx, o.params); err != nil {
				return err
			}
		}

		if len(o.dataPaths) > 0 {
			if err := runLogger.LogExperimentData(ctx, o.dataPaths); err != nil {
				return err
			}
		}

		return nil
	})
}

// trackingClientBuilder builds the REST tracking client for the configured
// endpoint, with asynchronous logging always on and autologging when tracing
// is enabled.
func trackingClientBuilder(cfg *config.MlflowLoggerConfig) (tracking.Client, func(), error) {
	endpoint, err := cfg.TrackingEndpoint()
	if err != nil {
		return nil, nil, err
	}

	clientOptions := []rest.Option{rest.WithAsyncLogging()}
	if cfg.Trace {
		clientOptions = append(clientOptions, rest.WithAutolog("openai"))
	}

	client, err := rest.NewClient(endpoint, clientOptions...)
	if err != nil {
		return nil, nil, err
	}

	return client, client.Close, nil
}
