package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codesectools/sastbench/internal/infra/execx"
	"github.com/codesectools/sastbench/pkg/domain/cwe"
	"github.com/codesectools/sastbench/pkg/domain/finding"
)

// Bearer runs the bearer CLI and consumes its native JSON report,
// which groups findings under severity buckets.
type Bearer struct{}

// NewBearer creates the bearer adapter.
func NewBearer() *Bearer { return &Bearer{} }

// Name implements Adapter.
func (b *Bearer) Name() string { return "bearer" }

// SupportedLanguages implements Adapter.
func (b *Bearer) SupportedLanguages() []string {
	return []string{"java", "python", "go", "javascript", "ruby"}
}

// Requirements implements Adapter.
func (b *Bearer) Requirements() []Requirement {
	return []Requirement{{Binary: "bearer", MinVersion: "1.40.0", VersionArgs: []string{"version"}}}
}

// Invoke implements Adapter.
func (b *Bearer) Invoke(ctx context.Context, target Target) (Raw, error) {
	if err := os.MkdirAll(target.OutputDir, 0o755); err != nil {
		return Raw{}, fmt.Errorf("create output dir: %w", err)
	}
	report := filepath.Join(target.OutputDir, "bearer.json")

	res, err := execx.Run(ctx, execx.Spec{
		Name: "bearer",
		Args: []string{
			"scan", ".",
			"--format", "json",
			"--output", report,
			"--quiet",
			"--disable-version-check",
		},
		Dir: target.Dir,
	})
	// Exit code 1 means rule failures were found.
	if err != nil && !errors.Is(err, execx.ErrNonZeroExit) {
		return Raw{Duration: res.Duration}, err
	}
	if _, statErr := os.Stat(report); statErr != nil {
		return Raw{Duration: res.Duration}, fmt.Errorf("bearer: %w: %v", ErrMissingArtifact, statErr)
	}
	return Raw{ReportPath: report, Duration: res.Duration}, nil
}

// bearerFinding is one entry in a severity bucket of the JSON report.
type bearerFinding struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Filename    string   `json:"filename"`
	LineNumber  int      `json:"line_number"`
	CWEIDs      []string `json:"cwe_ids"`
	Description string   `json:"description"`
}

// Normalize implements Adapter.
func (b *Bearer) Normalize(raw Raw) (finding.BatchResult, error) {
	data, err := os.ReadFile(raw.ReportPath)
	if err != nil {
		return finding.BatchResult{}, fmt.Errorf("read bearer report: %w", err)
	}

	var report map[string][]bearerFinding
	if err := json.Unmarshal(data, &report); err != nil {
		return finding.BatchResult{}, fmt.Errorf("parse bearer report: %w", err)
	}

	var rawFindings []finding.Finding
	for severity, bucket := range report {
		for _, f := range bucket {
			entry := finding.Finding{
				FilePath:  f.Filename,
				CheckerID: f.ID,
				Severity:  severityFromBearer(severity),
				Message:   f.Title,
				Line:      f.LineNumber,
			}
			if len(f.CWEIDs) > 0 {
				entry.CWE = cwe.ID(f.CWEIDs[0])
			}
			rawFindings = append(rawFindings, entry)
		}
	}
	return finding.NormalizeBatch(b.Name(), rawFindings), nil
}

func severityFromBearer(s string) finding.Severity {
	switch s {
	case "critical":
		return finding.SeverityCritical
	case "high":
		return finding.SeverityHigh
	case "medium":
		return finding.SeverityMedium
	case "low":
		return finding.SeverityLow
	case "warning":
		return finding.SeverityInfo
	default:
		return finding.SeverityUnknown
	}
}
