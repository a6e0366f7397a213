// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/mia-platform/mlbridge/internal/info"
	"github.com/mia-platform/mlbridge/internal/tabular"
	"github.com/mia-platform/mlbridge/internal/tracking"
)

const (
	apiPrefix      = "api/2.0/mlflow"
	artifactPrefix = "api/2.0/mlflow-artifacts/artifacts"

	runStatusFinished = "FINISHED"

	runNameTagKey   = "mlflow.runName"
	autologTagKey   = "mlflow.autologging"
	octetStreamMIME = "application/octet-stream"
)

var _ tracking.Client = &Client{}

// Client implements tracking.Client against the MLflow REST API.
type Client struct {
	endpoint *url.URL
	auth     *authConfig
	autolog  string
	queue    *submitQueue

	client    atomic.Pointer[http.Client]
	activeRun atomic.Pointer[tracking.Run]
}

// Option customizes a Client.
type Option func(*Client)

// WithAsyncLogging enables the background submission queue: logging calls
// return before network confirmation and failures surface on the next flush.
func WithAsyncLogging() Option {
	return func(c *Client) {
		c.queue = newSubmitQueue(defaultQueueSize)
	}
}

// WithAutolog tags every started run with the named auto-instrumented
// integration. The REST surface exposes no richer instrumentation hook.
func WithAutolog(integration string) Option {
	return func(c *Client) {
		c.autolog = integration
	}
}

// NewClient returns a Client talking to the tracking server at endpoint.
// Credentials are read from the environment.
func NewClient(endpoint *url.URL, opts ...Option) (*Client, error) {
	auth, err := loadAuthFromEnv(endpoint)
	if err != nil {
		return nil, handleError(err)
	}

	client := &Client{
		endpoint: endpoint,
		auth:     auth,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Close stops the background submission queue, if any. Pending submissions
// must be flushed first.
func (c *Client) Close() {
	if c.queue != nil {
		c.queue.stop()
	}
}

// StartRun implements tracking.Client.
func (c *Client) StartRun(ctx context.Context, experimentName, runName string) (*tracking.Run, error) {
	if c.activeRun.Load() != nil {
		return nil, handleError(errors.New("a run is already active"))
	}

	experimentID, err := c.getOrCreateExperiment(ctx, experimentName)
	if err != nil {
		return nil, err
	}

	request := createRunRequest{
		ExperimentID: experimentID,
		RunName:      runName,
		StartTime:    time.Now().UnixMilli(),
		Tags:         []runTag{{Key: runNameTagKey, Value: runName}},
	}
	var response createRunResponse
	if err := c.post(ctx, "runs/create", request, &response); err != nil {
		return nil, err
	}

	run := &tracking.Run{
		ID:           response.Run.Info.RunID,
		Name:         runName,
		ExperimentID: experimentID,
	}
	c.activeRun.Store(run)

	if c.autolog != "" {
		if err := c.SetTag(ctx, autologTagKey, c.autolog); err != nil {
			return nil, err
		}
	}
	return run, nil
}

// ActiveRun implements tracking.Client.
func (c *Client) ActiveRun() *tracking.Run {
	return c.activeRun.Load()
}

// EndRun implements tracking.Client. The run is closed even when flushing the
// submission queue reported failures.
func (c *Client) EndRun(ctx context.Context) error {
	run := c.activeRun.Load()
	if run == nil {
		return handleError(tracking.ErrNoActiveRun)
	}

	flushErr := c.Flush(ctx)
	updateErr := c.post(ctx, "runs/update", updateRunRequest{
		RunID:   run.ID,
		Status:  runStatusFinished,
		EndTime: time.Now().UnixMilli(),
	}, nil)

	c.activeRun.Store(nil)
	return errors.Join(flushErr, updateErr)
}

// LogMetric implements tracking.Client.
func (c *Client) LogMetric(ctx context.Context, key string, value float64) error {
	run := c.activeRun.Load()
	if run == nil {
		return handleError(tracking.ErrNoActiveRun)
	}

	timestamp := time.Now().UnixMilli()
	return c.submit(ctx, func(ctx context.Context) error {
		return c.post(ctx, "runs/log-metric", logMetricRequest{
			RunID:     run.ID,
			Key:       key,
			Value:     value,
			Timestamp: timestamp,
		}, nil)
	})
}

// LogParam implements tracking.Client.
func (c *Client) LogParam(ctx context.Context, key, value string) error {
	run := c.activeRun.Load()
	if run == nil {
		return handleError(tracking.ErrNoActiveRun)
	}

	return c.submit(ctx, func(ctx context.Context) error {
		return c.post(ctx, "runs/log-parameter", logParamRequest{
			RunID: run.ID,
			Key:   key,
			Value: value,
		}, nil)
	})
}

// SetTag implements tracking.Client.
func (c *Client) SetTag(ctx context.Context, key, value string) error {
	run := c.activeRun.Load()
	if run == nil {
		return handleError(tracking.ErrNoActiveRun)
	}

	return c.submit(ctx, func(ctx context.Context) error {
		return c.post(ctx, "runs/set-tag", setTagRequest{
			RunID: run.ID,
			Key:   key,
			Value: value,
		}, nil)
	})
}

// LogArtifact implements tracking.Client.
func (c *Client) LogArtifact(ctx context.Context, localPath, artifactPath string) error {
	run := c.activeRun.Load()
	if run == nil {
		return handleError(tracking.ErrNoActiveRun)
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return handleError(err)
	}

	return c.submit(ctx, func(ctx context.Context) error {
		return c.putArtifact(ctx, run, artifactPath, content)
	})
}

// LogTable implements tracking.Client. The table is uploaded as a JSON
// artifact in the layout expected by the backend table viewer.
func (c *Client) LogTable(ctx context.Context, artifactFile string, table *tabular.Table) error {
	run := c.activeRun.Load()
	if run == nil {
		return handleError(tracking.ErrNoActiveRun)
	}

	rows := make([][]any, 0, len(table.Records))
	for _, record := range table.Records {
		row := make([]any, 0, len(table.Columns))
		for _, column := range table.Columns {
			row = append(row, record[column])
		}
		rows = append(rows, row)
	}

	content, err := json.Marshal(tableArtifact{
		Columns: table.Columns,
		Data:    rows,
	})
	if err != nil {
		return handleError(err)
	}

	return c.submit(ctx, func(ctx context.Context) error {
		return c.putArtifact(ctx, run, artifactFile, content)
	})
}

// LogInputs implements tracking.Client.
func (c *Client) LogInputs(ctx context.Context, datasets []tracking.Dataset) error {
	run := c.activeRun.Load()
	if run == nil {
		return handleError(tracking.ErrNoActiveRun)
	}

	request := logInputsRequest{RunID: run.ID}
	for _, dataset := range datasets {
		request.Datasets = append(request.Datasets, datasetInput{Dataset: dataset})
	}

	return c.submit(ctx, func(ctx context.Context) error {
		return c.post(ctx, "runs/log-inputs", request, nil)
	})
}

// Flush implements tracking.Client.
func (c *Client) Flush(_ context.Context) error {
	if c.queue == nil {
		return nil
	}
	return c.queue.flush()
}

// submit runs the call inline in synchronous mode, otherwise it enqueues it
// onto the submission queue detached from the caller cancellation.
func (c *Client) submit(ctx context.Context, call func(context.Context) error) error {
	if c.queue == nil {
		return call(ctx)
	}

	detached := context.WithoutCancel(ctx)
	c.queue.enqueue(func() error {
		return call(detached)
	})
	return nil
}

// getOrCreateExperiment returns the ID of the named experiment, creating it
// when the backend does not know it yet.
func (c *Client) getOrCreateExperiment(ctx context.Context, name string) (string, error) {
	query := url.Values{"experiment_name": []string{name}}
	var response getExperimentResponse
	err := c.get(ctx, "experiments/get-by-name", query, &response)
	if err == nil {
		return response.Experiment.ExperimentID, nil
	}

	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		return "", err
	}

	var created createExperimentResponse
	if err := c.post(ctx, "experiments/create", createExperimentRequest{Name: name}, &created); err != nil {
		return "", err
	}
	return created.ExperimentID, nil
}

// post issues a JSON POST to the given API path, decoding the response into
// out when provided.
func (c *Client) post(ctx context.Context, apiPath string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return handleError(err)
	}

	target := c.endpoint.JoinPath(apiPrefix, apiPath).String()
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return handleError(err)
	}
	request.Header.Set("Content-Type", "application/json")

	return c.doRequest(request, out)
}

// get issues a GET to the given API path with the provided query values.
func (c *Client) get(ctx context.Context, apiPath string, query url.Values, out any) error {
	target := c.endpoint.JoinPath(apiPrefix, apiPath)
	target.RawQuery = query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return handleError(err)
	}

	return c.doRequest(request, out)
}

// putArtifact uploads raw bytes to the proxied artifact store of the run.
func (c *Client) putArtifact(ctx context.Context, run *tracking.Run, artifactPath string, content []byte) error {
	target := c.endpoint.JoinPath(artifactPrefix, run.ExperimentID, run.ID, "artifacts", artifactPath).String()
	request, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(content))
	if err != nil {
		return handleError(err)
	}
	request.Header.Set("Content-Type", octetStreamMIME)

	return c.doRequest(request, nil)
}

func (c *Client) doRequest(request *http.Request, out any) error {
	request.Header.Set("User-Agent", userAgentString())
	request.Header.Set("Accept", "application/json")

	//nolint:contextcheck // need a new context because it will be used in token requests
	response, err := c.getClient(context.Background()).Do(request)
	if err != nil {
		return handleError(err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return handleError(decodeAPIError(response))
	}

	if out != nil {
		if err := json.NewDecoder(response.Body).Decode(out); err != nil {
			return handleError(err)
		}
	}
	return nil
}

func (c *Client) getClient(ctx context.Context) *http.Client {
	client := c.client.Load()
	if client != nil {
		return client
	}

	client = &http.Client{}
	client.Transport = newTransport(ctx, c.auth)
	c.client.Store(client)
	return client
}

// apiError carries the status code and message reported by the API.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

func decodeAPIError(response *http.Response) *apiError {
	decoded := &apiError{StatusCode: response.StatusCode}

	var body map[string]any
	if err := json.NewDecoder(response.Body).Decode(&body); err == nil {
		if message, ok := body["message"].(string); ok {
			decoded.Message = message
		}
	}
	return decoded
}

// userAgentString builds the User-Agent header sent to the tracking server.
func userAgentString() string {
	return info.AppName + "/" + info.Version
}

func handleError(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return tracking.NewError(err)
}

type runTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type createRunRequest struct {
	ExperimentID string   `json:"experiment_id"`
	RunName      string   `json:"run_name"`
	StartTime    int64    `json:"start_time"`
	Tags         []runTag `json:"tags,omitempty"`
}

type createRunResponse struct {
	Run struct {
		Info struct {
			RunID string `json:"run_id"`
		} `json:"info"`
	} `json:"run"`
}

type updateRunRequest struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	EndTime int64  `json:"end_time"`
}

type logMetricRequest struct {
	RunID     string  `json:"run_id"`
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

type logParamRequest struct {
	RunID string `json:"run_id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type setTagRequest struct {
	RunID string `json:"run_id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type getExperimentResponse struct {
	Experiment struct {
		ExperimentID string `json:"experiment_id"`
	} `json:"experiment"`
}

type createExperimentRequest struct {
	Name string `json:"name"`
}

type createExperimentResponse struct {
	ExperimentID string `json:"experiment_id"`
}

type datasetInput struct {
	Dataset tracking.Dataset `json:"dataset"`
}

type logInputsRequest struct {
	RunID    string         `json:"run_id"`
	Datasets []datasetInput `json:"datasets"`
}

type tableArtifact struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}
