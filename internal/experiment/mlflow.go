// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package experiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mia-platform/mlbridge/internal/config"
	"github.com/mia-platform/mlbridge/internal/info"
	"github.com/mia-platform/mlbridge/internal/logger"
	"github.com/mia-platform/mlbridge/internal/tabular"
	"github.com/mia-platform/mlbridge/internal/tracking"
)

const (
	loggerName = "experiment"

	localSourceType = "local"
	digestLength    = 8
)

// templateExtensions lists the file extensions logged as verbatim text
// artifacts instead of raw files.
var templateExtensions = map[string]bool{
	".jinja2": true,
	".tmpl":   true,
}

// MlflowLogger records experiment runs against an MLflow tracking server
// through a tracking.Client. The experiment name is the configured instance.
type MlflowLogger struct {
	config *config.MlflowLoggerConfig
	client tracking.Client
	run    *tracking.Run
}

// Make sure that MlflowLogger is a Logger.
var _ Logger = &MlflowLogger{}

// NewMlflowLogger returns a logger recording runs for the instance configured
// in cfg through client.
func NewMlflowLogger(cfg *config.MlflowLoggerConfig, client tracking.Client) *MlflowLogger {
	return &MlflowLogger{
		config: cfg,
		client: client,
	}
}

// Start opens a new run named after the configured run name, or a generated
// one, and records the run metadata tags on a best effort basis.
func (l *MlflowLogger) Start(ctx context.Context) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	if l.run != nil || l.client.ActiveRun() != nil {
		return ErrRunActive
	}

	runName := l.config.RunName
	if runName == "" {
		runName = generateRunName()
	}

	run, err := l.client.StartRun(ctx, l.config.Instance, runName)
	if err != nil {
		return err
	}

	l.run = run
	log.Info("experiment run started", "experiment", l.config.Instance, "run", run.Name, "id", run.ID)
	l.logMetadata(ctx)
	return nil
}

// Close finalizes the active run, waiting for any pending submission.
func (l *MlflowLogger) Close(ctx context.Context) error {
	if l.run == nil {
		return ErrRunNotActive
	}

	logger.FromContext(ctx).WithName(loggerName).Info("finalizing experiment run", "id", l.run.ID)
	err := l.client.EndRun(ctx)
	l.run = nil
	return err
}

// LogDict records every entry of data against the active run. Numbers become
// metrics, strings become parameters, any other value is recorded as a JSON
// encoded parameter.
func (l *MlflowLogger) LogDict(ctx context.Context, data map[string]any) error {
	if l.run == nil {
		return ErrRunNotActive
	}

	for key, value := range data {
		if number, ok := numericValue(value); ok {
			if err := l.client.LogMetric(ctx, key, number); err != nil {
				return err
			}
			continue
		}

		if text, ok := value.(string); ok {
			if err := l.client.LogParam(ctx, key, text); err != nil {
				return err
			}
			continue
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding value for %q: %w", key, err)
		}
		if err := l.client.LogParam(ctx, key, string(encoded)); err != nil {
			return err
		}
	}

	return nil
}

// LogExperimentData logs every existing path in dataPaths as a run artifact.
// JSON files are also recorded as tables; when a JSON file holds a single
// record its entries are recorded with LogDict and the batch stops there.
// Template files are logged as verbatim text artifacts.
func (l *MlflowLogger) LogExperimentData(ctx context.Context, dataPaths []string) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	if l.run == nil {
		return ErrRunNotActive
	}

	for _, dataPath := range dataPaths {
		if _, err := os.Stat(dataPath); err != nil {
			log.Warn("data path does not exist, skipping it", "path", dataPath)
			continue
		}

		extension := strings.ToLower(filepath.Ext(dataPath))
		switch {
		case extension == ".json":
			stop, err := l.logJSONData(ctx, dataPath)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		case templateExtensions[extension]:
			if err := l.logTemplate(ctx, dataPath); err != nil {
				return err
			}
		default:
			if err := l.logRawArtifact(ctx, dataPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// LogInput parses the tabular file at inputPath and records it as the run
// input dataset, named after the file and fingerprinted with a content digest.
func (l *MlflowLogger) LogInput(ctx context.Context, inputPath string) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	if l.run == nil {
		return ErrRunNotActive
	}

	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input path %q: %w", inputPath, err)
	}

	log.Info("loading input dataset", "path", inputPath)
	table, err := tabular.ReadFile(inputPath)
	if err != nil {
		return err
	}

	digest, err := fileDigest(inputPath)
	if err != nil {
		return err
	}

	baseName := filepath.Base(inputPath)
	dataset := tracking.Dataset{
		Name:       strings.TrimSuffix(baseName, filepath.Ext(baseName)),
		Digest:     digest,
		SourceType: localSourceType,
		Source:     inputPath,
		Schema:     tableSchema(table),
		Profile:    tableProfile(table),
	}

	return l.client.LogInputs(ctx, []tracking.Dataset{dataset})
}

// logJSONData records dataPath as a table artifact. A parsing failure
// downgrades the file to a raw artifact. The returned stop flag is set when
// the file holds a single record, after recording its entries with LogDict.
func (l *MlflowLogger) logJSONData(ctx context.Context, dataPath string) (bool, error) {
	log := logger.FromContext(ctx).WithName(loggerName)

	table, err := tabular.ReadJSON(dataPath)
	if err != nil {
		log.Error("error parsing JSON data, logging it as a raw artifact", "path", dataPath, "error", err)
		return false, l.logRawArtifact(ctx, dataPath)
	}

	artifactFile := path.Join(l.artifactFolder(dataPath), filepath.Base(dataPath))
	if err := l.client.LogTable(ctx, artifactFile, table); err != nil {
		return false, err
	}
	log.Info("logged table", "path", dataPath, "rows", table.NumRows())

	if record, single := table.SingleRecord(); single {
		return true, l.LogDict(ctx, record)
	}

	return false, l.logRawArtifact(ctx, dataPath)
}

// logTemplate copies the template to a temporary .txt file and logs the copy,
// so the tracking UI renders it as plain text.
func (l *MlflowLogger) logTemplate(ctx context.Context, templatePath string) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	content, err := os.ReadFile(templatePath)
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", info.AppName+"-templates")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	textName := filepath.Base(templatePath) + ".txt"
	textPath := filepath.Join(tempDir, textName)
	if err := os.WriteFile(textPath, content, 0o600); err != nil {
		return err
	}

	artifactPath := path.Join(l.artifactFolder(templatePath), textName)
	if err := l.client.LogArtifact(ctx, textPath, artifactPath); err != nil {
		return err
	}

	log.Info("logged template", "path", templatePath, "artifact", artifactPath)
	return nil
}

func (l *MlflowLogger) logRawArtifact(ctx context.Context, dataPath string) error {
	artifactPath := path.Join(l.artifactFolder(dataPath), filepath.Base(dataPath))
	if err := l.client.LogArtifact(ctx, dataPath, artifactPath); err != nil {
		return err
	}

	logger.FromContext(ctx).WithName(loggerName).Info("logged artifact", "path", dataPath, "artifact", artifactPath)
	return nil
}

// artifactFolder returns the artifact folder for dataPath, namespaced with
// the name of its parent directory to keep sibling batches apart.
func (l *MlflowLogger) artifactFolder(dataPath string) string {
	return path.Join(l.config.ArtifactPath, filepath.Base(filepath.Dir(dataPath)))
}

// logMetadata records the run metadata tags. Metadata is best effort: probe
// or submission failures are logged and never fail the run.
func (l *MlflowLogger) logMetadata(ctx context.Context) {
	log := logger.FromContext(ctx).WithName(loggerName)
	setTag := func(key, value string) {
		if err := l.client.SetTag(ctx, key, value); err != nil {
			log.Error("error setting metadata tag", "key", key, "error", err)
		}
	}

	projectName := l.config.ProjectName
	if projectName == "" {
		projectName = info.AppName
	}
	setTag("project_name", projectName)

	if version, found := projectVersion(); found {
		setTag("project_version", version)
	}

	if vcs, found := vcsMetadata(); found {
		if vcs.Commit != "" {
			setTag("git_commit", vcs.Commit)
		}
		if vcs.Branch != "" {
			setTag("git_branch", vcs.Branch)
		}
	}

	if host, err := os.Hostname(); err == nil {
		setTag("run_host", host)
	}

	setTag("run_datetime", time.Now().Format(time.RFC3339))
}

// generateRunName returns a unique run name carrying the current timestamp.
func generateRunName() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("run_%s_%s", time.Now().Format("20060102_150405"), suffix)
}

// numericValue reports value as a float64 when it holds any numeric type,
// including the ones produced by JSON decoding.
func numericValue(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case json.Number:
		number, err := typed.Float64()
		return number, err == nil
	}

	return 0, false
}

// fileDigest returns the first characters of the hex encoded SHA-256 digest
// of the file content.
func fileDigest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil))[:digestLength], nil
}

func tableSchema(table *tabular.Table) string {
	encoded, err := json.Marshal(map[string]any{"columns": table.Columns})
	if err != nil {
		return ""
	}
	return string(encoded)
}

func tableProfile(table *tabular.Table) string {
	encoded, err := json.Marshal(map[string]any{
		"num_rows":     table.NumRows(),
		"num_elements": table.NumRows() * len(table.Columns),
	})
	if err != nil {
		return ""
	}
	return string(encoded)
}
