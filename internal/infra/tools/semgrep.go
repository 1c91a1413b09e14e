package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codesectools/sastbench/internal/infra/execx"
	"github.com/codesectools/sastbench/pkg/domain/cwe"
	"github.com/codesectools/sastbench/pkg/domain/finding"
	"github.com/codesectools/sastbench/pkg/parsers/sarif"
)

// Semgrep runs the semgrep CLI with its default security rules and
// consumes its SARIF report.
type Semgrep struct {
	parser *sarif.Parser
}

// NewSemgrep creates the semgrep adapter.
func NewSemgrep() *Semgrep {
	return &Semgrep{parser: sarif.NewParser(nil)}
}

// Name implements Adapter.
func (s *Semgrep) Name() string { return "semgrep" }

// SupportedLanguages implements Adapter.
func (s *Semgrep) SupportedLanguages() []string {
	return []string{"java", "python", "go", "javascript", "c"}
}

// Requirements implements Adapter.
func (s *Semgrep) Requirements() []Requirement {
	return []Requirement{{Binary: "semgrep", MinVersion: "1.50.0"}}
}

// Invoke implements Adapter.
func (s *Semgrep) Invoke(ctx context.Context, target Target) (Raw, error) {
	if err := os.MkdirAll(target.OutputDir, 0o755); err != nil {
		return Raw{}, fmt.Errorf("create output dir: %w", err)
	}
	report := filepath.Join(target.OutputDir, "semgrep.sarif")

	res, err := execx.Run(ctx, execx.Spec{
		Name: "semgrep",
		Args: []string{
			"scan",
			"--config", "p/security-audit",
			"--sarif",
			"--output", report,
			"--metrics", "off",
			".",
		},
		Dir: target.Dir,
	})
	if err != nil {
		return Raw{Duration: res.Duration}, err
	}
	if _, statErr := os.Stat(report); statErr != nil {
		return Raw{Duration: res.Duration}, fmt.Errorf("semgrep: %w: %v", ErrMissingArtifact, statErr)
	}
	return Raw{ReportPath: report, Duration: res.Duration}, nil
}

// Normalize implements Adapter.
func (s *Semgrep) Normalize(raw Raw) (finding.BatchResult, error) {
	log, err := s.parser.ParseFile(raw.ReportPath)
	if err != nil {
		return finding.BatchResult{}, fmt.Errorf("parse semgrep SARIF: %w", err)
	}
	return s.fromSARIF(log), nil
}

// fromSARIF flattens a SARIF log into raw findings and runs them
// through batch normalization.
func (s *Semgrep) fromSARIF(log *sarif.Log) finding.BatchResult {
	var raw []finding.Finding
	for i := range log.Runs {
		run := &log.Runs[i]
		for j := range run.Results {
			result := &run.Results[j]
			raw = append(raw, finding.Finding{
				CWE:       cwe.ID(sarif.ResultCWE(run, result)),
				FilePath:  sarif.ResultLocation(result),
				CheckerID: result.RuleID,
				Severity:  severityFromLevel(result.Level),
				Message:   result.Message.Text,
				Line:      sarif.ResultStartLine(result),
			})
		}
	}
	return finding.NormalizeBatch(s.Name(), raw)
}

func severityFromLevel(level sarif.Level) finding.Severity {
	switch level {
	case sarif.LevelError:
		return finding.SeverityHigh
	case sarif.LevelWarning:
		return finding.SeverityMedium
	case sarif.LevelNote:
		return finding.SeverityLow
	default:
		return finding.SeverityUnknown
	}
}
