package benchmark

import (
	"github.com/codesectools/sastbench/pkg/domain/cwe"
	"github.com/codesectools/sastbench/pkg/domain/dataset"
	"github.com/codesectools/sastbench/pkg/domain/finding"
)

// Input carries one tool's findings attributed to dataset units.
type Input struct {
	// FindingsByUnit maps unit name to the findings attributed to
	// that unit. A unit absent from the map was analyzed and yielded
	// nothing.
	FindingsByUnit map[string][]finding.Finding

	// Unresolved maps unit name to the reason its analysis output
	// could not be resolved (clone failure, analysis root mismatch).
	// These units are excluded from metrics entirely.
	Unresolved map[string]string
}

// Validate classifies a tool's findings against the dataset's ground
// truth, unit by unit. It is a pure function of its inputs and holds
// no state across calls.
//
// Classification is per (unit, cwe) pair: a vulnerable unit yields one
// true positive for each expected CWE some finding matched and one
// false negative for each expected CWE nothing matched. Findings on a
// unit that match no expected CWE (wrong CWE, or wrong file for repo
// units) each count as a false positive. A non-vulnerable unit counts
// one false positive per finding and one true negative when there are
// none. Unclassified findings (empty CWE) never participate.
func Validate(ds *dataset.Dataset, tool string, in Input) *Report {
	report := &Report{
		Dataset:  ds.Name,
		Language: ds.Language,
		Tool:     tool,
		Verdicts: make([]UnitVerdict, 0, len(ds.Units)),
	}

	for _, unit := range ds.Units {
		name := unit.Name()

		if reason, skip := in.Unresolved[name]; skip {
			report.Unresolved = append(report.Unresolved, UnresolvedUnit{Unit: name, Reason: reason})
			continue
		}

		verdict := classifyUnit(unit, in.FindingsByUnit[name])
		report.TruePositives += verdict.TruePositives
		report.FalseNegatives += verdict.FalseNegatives
		report.FalsePositives += verdict.FalsePositives
		report.TrueNegatives += verdict.TrueNegatives
		report.Verdicts = append(report.Verdicts, verdict)
	}

	report.Precision = ratio(report.TruePositives, report.TruePositives+report.FalsePositives)
	report.Recall = ratio(report.TruePositives, report.TruePositives+report.FalseNegatives)
	return report
}

// classifyUnit computes the confusion counts for one unit.
func classifyUnit(unit dataset.Unit, findings []finding.Finding) UnitVerdict {
	verdict := UnitVerdict{Unit: unit.Name(), Findings: findings}

	classified := make([]finding.Finding, 0, len(findings))
	for _, f := range findings {
		if f.CWE != cwe.None {
			classified = append(classified, f)
		}
	}

	if !unit.HasVuln() {
		verdict.FalsePositives = len(classified)
		if len(classified) == 0 {
			verdict.TrueNegatives = 1
		}
		return verdict
	}

	expected := unit.CWEs()
	matched := cwe.NewSet()

	for _, f := range classified {
		if locationMatches(unit, f) && expected.Contains(f.CWE) {
			matched[f.CWE] = struct{}{}
		} else {
			verdict.FalsePositives++
		}
	}

	for _, id := range expected.Sorted() {
		if matched.Contains(id) {
			verdict.TruePositives++
			verdict.MatchedCWEs = append(verdict.MatchedCWEs, id)
		} else {
			verdict.FalseNegatives++
			verdict.MissedCWEs = append(verdict.MissedCWEs, id)
		}
	}

	return verdict
}

// locationMatches reports whether the finding's location resolves to
// the unit. For file units the analysis root is the file itself, so
// attribution already established the location. For repo units the
// finding must point at one of the labeled files.
func locationMatches(unit dataset.Unit, f finding.Finding) bool {
	switch unit.Kind {
	case dataset.KindFile:
		return true
	case dataset.KindRepo:
		_, ok := unit.Repo.Files[f.FilePath]
		return ok
	}
	return false
}
