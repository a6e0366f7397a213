// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package tracking

import (
	"context"

	"github.com/mia-platform/mlbridge/internal/tabular"
)

// Run identifies a run opened on the tracking backend.
type Run struct {
	// ID is the backend assigned run identifier.
	ID string
	// Name is the resolved run name.
	Name string
	// ExperimentID is the identifier of the experiment containing the run.
	ExperimentID string
}

// Dataset describes an input dataset recorded against a run.
type Dataset struct {
	Name       string `json:"name"`
	Digest     string `json:"digest"`
	SourceType string `json:"source_type"`
	Source     string `json:"source"`
	Schema     string `json:"schema,omitempty"`
	Profile    string `json:"profile,omitempty"`
}

// Client exposes the tracking backend operations used during a run. At most
// one run is active per client at a time; logging operations outside an
// active run fail.
type Client interface {
	// StartRun selects or creates the named experiment and opens a new run
	// under it with the given name.
	StartRun(ctx context.Context, experimentName, runName string) (*Run, error)

	// ActiveRun returns the currently open run, or nil.
	ActiveRun() *Run

	// EndRun flushes every pending submission and closes the active run.
	EndRun(ctx context.Context) error

	// LogMetric records a numeric value against the active run.
	LogMetric(ctx context.Context, key string, value float64) error

	// LogParam records a string parameter against the active run.
	LogParam(ctx context.Context, key, value string) error

	// SetTag records a tag against the active run.
	SetTag(ctx context.Context, key, value string) error

	// LogArtifact uploads the local file as a run artifact under artifactPath.
	LogArtifact(ctx context.Context, localPath, artifactPath string) error

	// LogTable uploads a table as an artifact renderable by the backend
	// table viewer.
	LogTable(ctx context.Context, artifactFile string, table *tabular.Table) error

	// LogInputs records the datasets used as run inputs.
	LogInputs(ctx context.Context, datasets []Dataset) error

	// Flush waits for queued submissions and reports any delivery failure.
	Flush(ctx context.Context) error
}
