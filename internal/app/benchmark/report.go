// Package benchmark matches a tool's normalized findings against a
// dataset's ground truth and produces confusion metrics.
package benchmark

import (
	"github.com/codesectools/sastbench/pkg/domain/cwe"
	"github.com/codesectools/sastbench/pkg/domain/finding"
)

// Metric is a ratio that may be undefined when its denominator is
// zero. An undefined metric is reported as such, never as zero.
type Metric struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// ratio builds a Metric from numerator and denominator.
func ratio(num, den int) Metric {
	if den == 0 {
		return Metric{}
	}
	return Metric{Value: float64(num) / float64(den), Defined: true}
}

// UnitVerdict is the confusion classification of one dataset unit.
// Counts are per (unit, cwe) pair for the positive classes and per
// unit for the true-negative class.
type UnitVerdict struct {
	Unit           string   `json:"unit"`
	TruePositives  int      `json:"true_positives"`
	FalseNegatives int      `json:"false_negatives"`
	FalsePositives int      `json:"false_positives"`
	TrueNegatives  int      `json:"true_negatives"`
	MatchedCWEs    []cwe.ID `json:"matched_cwes,omitempty"`
	MissedCWEs     []cwe.ID `json:"missed_cwes,omitempty"`

	// Findings are this unit's findings, kept for drill-down.
	Findings []finding.Finding `json:"findings,omitempty"`
}

// UnresolvedUnit names a unit excluded from metrics together with the
// reason its analysis output could not be resolved.
type UnresolvedUnit struct {
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

// Report is the validation result for one (tool, dataset) pair.
type Report struct {
	Dataset  string `json:"dataset"`
	Language string `json:"language"`
	Tool     string `json:"tool"`

	TruePositives  int `json:"true_positives"`
	FalseNegatives int `json:"false_negatives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`

	Precision Metric `json:"precision"`
	Recall    Metric `json:"recall"`

	Verdicts   []UnitVerdict    `json:"verdicts"`
	Unresolved []UnresolvedUnit `json:"unresolved,omitempty"`

	// DroppedFindings counts raw tool records that could not be
	// normalized into findings.
	DroppedFindings int `json:"dropped_findings,omitempty"`
}
