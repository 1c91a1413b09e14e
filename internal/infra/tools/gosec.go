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

// Gosec runs the gosec scanner and consumes its native JSON report.
type Gosec struct{}

// NewGosec creates the gosec adapter.
func NewGosec() *Gosec { return &Gosec{} }

// Name implements Adapter.
func (g *Gosec) Name() string { return "gosec" }

// SupportedLanguages implements Adapter.
func (g *Gosec) SupportedLanguages() []string { return []string{"go"} }

// Requirements implements Adapter.
func (g *Gosec) Requirements() []Requirement {
	return []Requirement{{Binary: "gosec", MinVersion: "2.15.0", VersionArgs: []string{"version"}}}
}

// Invoke implements Adapter.
func (g *Gosec) Invoke(ctx context.Context, target Target) (Raw, error) {
	if err := os.MkdirAll(target.OutputDir, 0o755); err != nil {
		return Raw{}, fmt.Errorf("create output dir: %w", err)
	}
	report := filepath.Join(target.OutputDir, "gosec.json")

	res, err := execx.Run(ctx, execx.Spec{
		Name: "gosec",
		Args: []string{"-quiet", "-fmt=json", "-out=" + report, "./..."},
		Dir:  target.Dir,
	})
	// gosec exits non-zero when issues are found; that is a
	// successful analysis, not a failure.
	if err != nil && !errors.Is(err, execx.ErrNonZeroExit) {
		return Raw{Duration: res.Duration}, err
	}
	if _, statErr := os.Stat(report); statErr != nil {
		return Raw{Duration: res.Duration}, fmt.Errorf("gosec: %w: %v", ErrMissingArtifact, statErr)
	}
	return Raw{ReportPath: report, Duration: res.Duration}, nil
}

// gosec JSON report shape (subset).
type gosecReport struct {
	Issues []gosecIssue `json:"Issues"`
}

type gosecIssue struct {
	RuleID   string   `json:"rule_id"`
	Details  string   `json:"details"`
	File     string   `json:"file"`
	Line     string   `json:"line"`
	Severity string   `json:"severity"`
	CWE      gosecCWE `json:"cwe"`
}

type gosecCWE struct {
	ID string `json:"id"`
}

// Normalize implements Adapter.
func (g *Gosec) Normalize(raw Raw) (finding.BatchResult, error) {
	data, err := os.ReadFile(raw.ReportPath)
	if err != nil {
		return finding.BatchResult{}, fmt.Errorf("read gosec report: %w", err)
	}

	var report gosecReport
	if err := json.Unmarshal(data, &report); err != nil {
		return finding.BatchResult{}, fmt.Errorf("parse gosec report: %w", err)
	}

	rawFindings := make([]finding.Finding, 0, len(report.Issues))
	for _, issue := range report.Issues {
		rawFindings = append(rawFindings, finding.Finding{
			CWE:       cwe.ID(issue.CWE.ID),
			FilePath:  issue.File,
			CheckerID: issue.RuleID,
			Severity:  severityFromGosec(issue.Severity),
			Message:   issue.Details,
			Line:      parseLine(issue.Line),
		})
	}
	return finding.NormalizeBatch(g.Name(), rawFindings), nil
}

func severityFromGosec(s string) finding.Severity {
	switch s {
	case "HIGH":
		return finding.SeverityHigh
	case "MEDIUM":
		return finding.SeverityMedium
	case "LOW":
		return finding.SeverityLow
	default:
		return finding.SeverityUnknown
	}
}

// parseLine handles gosec's line field, which is a string and may be a
// range like "12-14".
func parseLine(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
