// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"testing"

	"github.com/mia-platform/mlbridge/internal/tabular"
	"github.com/mia-platform/mlbridge/internal/tracking"
)

var _ tracking.Client = &Client{}

// Artifact records one uploaded artifact.
type Artifact struct {
	LocalPath    string
	ArtifactPath string
}

// Client is a recording tracking.Client for tests.
type Client struct {
	tb testing.TB

	StartedRuns []string
	Experiments []string
	EndedRuns   int
	Flushes     int

	Metrics   map[string]float64
	Params    map[string]string
	Tags      map[string]string
	Artifacts []Artifact
	Tables    map[string]*tabular.Table
	Inputs    []tracking.Dataset

	// StartErr, when set, is returned by StartRun.
	StartErr error
	// EndErr, when set, is returned by EndRun.
	EndErr error

	activeRun *tracking.Run
}

func NewFakeClient(tb testing.TB) *Client {
	tb.Helper()
	return &Client{
		tb:      tb,
		Metrics: map[string]float64{},
		Params:  map[string]string{},
		Tags:    map[string]string{},
		Tables:  map[string]*tabular.Table{},
	}
}

func (c *Client) StartRun(_ context.Context, experimentName, runName string) (*tracking.Run, error) {
	c.tb.Helper()
	if c.StartErr != nil {
		return nil, c.StartErr
	}

	c.Experiments = append(c.Experiments, experimentName)
	c.StartedRuns = append(c.StartedRuns, runName)
	c.activeRun = &tracking.Run{
		ID:           "fake-run-id",
		Name:         runName,
		ExperimentID: "fake-experiment-id",
	}
	return c.activeRun, nil
}

func (c *Client) ActiveRun() *tracking.Run {
	c.tb.Helper()
	return c.activeRun
}

func (c *Client) EndRun(_ context.Context) error {
	c.tb.Helper()
	c.EndedRuns++
	c.activeRun = nil
	return c.EndErr
}

func (c *Client) LogMetric(_ context.Context, key string, value float64) error {
	c.tb.Helper()
	c.Metrics[key] = value
	return nil
}

func (c *Client) LogParam(_ context.Context, key, value string) error {
	c.tb.Helper()
	c.Params[key] = value
	return nil
}

func (c *Client) SetTag(_ context.Context, key, value string) error {
	c.tb.Helper()
	c.Tags[key] = value
	return nil
}

func (c *Client) LogArtifact(_ context.Context, localPath, artifactPath string) error {
	c.tb.Helper()
	c.Artifacts = append(c.Artifacts, Artifact{
		LocalPath:    localPath,
		ArtifactPath: artifactPath,
	})
	return nil
}

func (c *Client) LogTable(_ context.Context, artifactFile string, table *tabular.Table) error {
	c.tb.Helper()
	c.Tables[artifactFile] = table
	return nil
}

func (c *Client) LogInputs(_ context.Context, datasets []tracking.Dataset) error {
	c.tb.Helper()
	c.Inputs = append(c.Inputs, datasets...)
	return nil
}

func (c *Client) Flush(_ context.Context) error {
	c.tb.Helper()
	c.Flushes++
	return nil
}
