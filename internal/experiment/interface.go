// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package experiment records parameters, metrics, artifacts and input
// datasets for a single tracked experiment run.
package experiment

import "context"

// Logger is the capability interface implemented by experiment logging
// backends. Logging operations must be called between Start and Close.
type Logger interface {
	// Start opens a new run, generating a name when none is configured, and
	// records the root metadata tags.
	Start(ctx context.Context) error

	// Close finalizes the active run. It must be called exactly once for
	// every successful Start, on every exit path.
	Close(ctx context.Context) error

	// LogDict records the entries of data against the active run: numeric
	// values as metrics, strings as parameters, anything else as a JSON
	// encoded parameter.
	LogDict(ctx context.Context, data map[string]any) error

	// LogExperimentData logs the given files as run artifacts, with special
	// handling for record oriented JSON and template files.
	LogExperimentData(ctx context.Context, dataPaths []string) error

	// LogInput parses the file at inputPath and records it as the run input
	// dataset.
	LogInput(ctx context.Context, inputPath string) error
}

// Run executes fn inside a run scope: the run is started before fn and
// finalized on every exit path, normal or not. A close failure never masks
// the error returned by fn.
func Run(ctx context.Context, logger Logger, fn func(context.Context) error) (err error) {
	if startErr := logger.Start(ctx); startErr != nil {
		return startErr
	}

	defer func() {
		closeErr := logger.Close(context.WithoutCancel(ctx))
		if err == nil {
			err = closeErr
		}
	}()

	return fn(ctx)
}
