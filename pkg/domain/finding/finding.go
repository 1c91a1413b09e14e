// Package finding defines the common representation of a reported
// weakness shared by every tool adapter, the benchmark validator and
// the multi-tool aggregator.
package finding

import (
	"path"
	"strings"

	"github.com/codesectools/sastbench/pkg/domain/cwe"
)

// Severity is a tool-defined severity label. It is diagnostic only and
// never participates in ground-truth matching.
type Severity string

// Severity labels shared across adapters.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
	SeverityUnknown  Severity = "unknown"
)

// Finding is one reported (or expected) weakness. CWE and FilePath
// together form the matching key; the remaining fields are diagnostic.
type Finding struct {
	CWE        cwe.ID   `json:"cwe_id,omitempty"`
	FilePath   string   `json:"file_path"`
	CheckerID  string   `json:"checker_id,omitempty"`
	Severity   Severity `json:"severity,omitempty"`
	Message    string   `json:"message,omitempty"`
	SourceTool string   `json:"source_tool,omitempty"`
	Line       int      `json:"line,omitempty"`
}

// Key identifies a finding for matching purposes.
type Key struct {
	CWE      cwe.ID
	FilePath string
}

// Key returns the matching key for the finding.
func (f Finding) Key() Key {
	return Key{CWE: f.CWE, FilePath: f.FilePath}
}

// NormalizePath rewrites a reported location into the canonical form
// used for matching: forward slashes, cleaned, no leading "./".
// Backslash separators are rewritten unconditionally so reports
// produced on Windows match on any platform.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	if p == "" {
		return ""
	}
	p = strings.TrimPrefix(p, "./")
	cleaned := path.Clean(p)
	if cleaned == "." {
		return ""
	}
	return cleaned
}
