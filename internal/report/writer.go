package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codesectools/sastbench/internal/app/aggregate"
	"github.com/codesectools/sastbench/internal/app/benchmark"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

// Metadata records the provenance of a persisted run.
type Metadata struct {
	RunID      shared.ID `json:"run_id" yaml:"run_id"`
	Tool       string    `json:"tool,omitempty" yaml:"tool,omitempty"`
	Tools      []string  `json:"tools,omitempty" yaml:"tools,omitempty"`
	Dataset    string    `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Language   string    `json:"language,omitempty" yaml:"language,omitempty"`
	Target     string    `json:"target,omitempty" yaml:"target,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Writer persists run artifacts under a per-run directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a writer rooted at baseDir.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// WriteBenchmark persists a benchmark report and its metadata under
// <base>/<run-id>/ and returns the run directory.
func (w *Writer) WriteBenchmark(meta Metadata, rep *benchmark.Report) (string, error) {
	dir, err := w.runDir(meta.RunID)
	if err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "report.json"), rep); err != nil {
		return "", err
	}
	if err := writeYAML(filepath.Join(dir, "report.yaml"), rep); err != nil {
		return "", err
	}
	if err := writeYAML(filepath.Join(dir, "metadata.yaml"), meta); err != nil {
		return "", err
	}
	return dir, nil
}

// WriteAnalysis persists an aggregated cross-tool ranking and its
// metadata under <base>/<run-id>/ and returns the run directory.
func (w *Writer) WriteAnalysis(meta Metadata, ranking []aggregate.FileReport) (string, error) {
	dir, err := w.runDir(meta.RunID)
	if err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "ranking.json"), ranking); err != nil {
		return "", err
	}
	if err := writeYAML(filepath.Join(dir, "metadata.yaml"), meta); err != nil {
		return "", err
	}
	return dir, nil
}

func (w *Writer) runDir(id shared.ID) (string, error) {
	dir := filepath.Join(w.baseDir, id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
