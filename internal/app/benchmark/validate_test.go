package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesectools/sastbench/pkg/domain/cwe"
	"github.com/codesectools/sastbench/pkg/domain/dataset"
	"github.com/codesectools/sastbench/pkg/domain/finding"
)

func vulnFile(name string, cwes ...cwe.ID) dataset.Unit {
	return dataset.Unit{Kind: dataset.KindFile, File: &dataset.FileUnit{
		Name:    name,
		Content: []byte("x"),
		CWEs:    cwe.NewSet(cwes...),
		HasVuln: true,
	}}
}

func safeFile(name string) dataset.Unit {
	return dataset.Unit{Kind: dataset.KindFile, File: &dataset.FileUnit{
		Name:    name,
		Content: []byte("x"),
	}}
}

func mustDataset(t *testing.T, kind dataset.Kind, units ...dataset.Unit) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New("testset", "java", kind, units)
	require.NoError(t, err)
	return ds
}

func TestValidate_MatchingCWEAndFileIsTruePositive(t *testing.T) {
	ds := mustDataset(t, dataset.KindFile, vulnFile("A.java", "CWE-89"))

	rep := Validate(ds, "semgrep", Input{FindingsByUnit: map[string][]finding.Finding{
		"A.java": {{CWE: "CWE-89", FilePath: "A.java"}},
	}})

	assert.Equal(t, 1, rep.TruePositives)
	assert.Zero(t, rep.FalseNegatives)
	assert.Zero(t, rep.FalsePositives)
	assert.Zero(t, rep.TrueNegatives)
}

func TestValidate_WrongCWEIsFalseNegativePlusFalsePositive(t *testing.T) {
	// The expected weakness goes unreported and the reported one is
	// unexpected, so the single finding costs the tool twice.
	ds := mustDataset(t, dataset.KindFile, vulnFile("A.java", "CWE-89"))

	rep := Validate(ds, "semgrep", Input{FindingsByUnit: map[string][]finding.Finding{
		"A.java": {{CWE: "CWE-79", FilePath: "A.java"}},
	}})

	assert.Zero(t, rep.TruePositives)
	assert.Equal(t, 1, rep.FalseNegatives)
	assert.Equal(t, 1, rep.FalsePositives)
}

func TestValidate_SilenceOnVulnerableUnitIsFalseNegativePerCWE(t *testing.T) {
	ds := mustDataset(t, dataset.KindFile, vulnFile("A.java", "CWE-89", "CWE-79"))

	rep := Validate(ds, "gosec", Input{})

	assert.Zero(t, rep.TruePositives)
	assert.Equal(t, 2, rep.FalseNegatives)
	require.True(t, rep.Recall.Defined)
	assert.Zero(t, rep.Recall.Value)
	assert.False(t, rep.Precision.Defined)
}

func TestValidate_SafeUnit(t *testing.T) {
	t.Run("silence is a true negative", func(t *testing.T) {
		ds := mustDataset(t, dataset.KindFile, safeFile("B.java"))

		rep := Validate(ds, "semgrep", Input{})

		assert.Equal(t, 1, rep.TrueNegatives)
		assert.Zero(t, rep.FalsePositives)
	})

	t.Run("every finding is a false positive", func(t *testing.T) {
		ds := mustDataset(t, dataset.KindFile, safeFile("B.java"))

		rep := Validate(ds, "semgrep", Input{FindingsByUnit: map[string][]finding.Finding{
			"B.java": {
				{CWE: "CWE-89", FilePath: "B.java"},
				{CWE: "CWE-79", FilePath: "B.java"},
			},
		}})

		assert.Equal(t, 2, rep.FalsePositives)
		assert.Zero(t, rep.TrueNegatives)
	})
}

func TestValidate_DuplicateFindingsCountOnce(t *testing.T) {
	// Classification is per (unit, cwe) pair, so reporting the same
	// weakness five times earns exactly one true positive.
	ds := mustDataset(t, dataset.KindFile, vulnFile("A.java", "CWE-89"))

	findings := make([]finding.Finding, 5)
	for i := range findings {
		findings[i] = finding.Finding{CWE: "CWE-89", FilePath: "A.java", Line: 10 + i}
	}

	rep := Validate(ds, "semgrep", Input{FindingsByUnit: map[string][]finding.Finding{
		"A.java": findings,
	}})

	assert.Equal(t, 1, rep.TruePositives)
	assert.Zero(t, rep.FalsePositives)
}

func TestValidate_UnclassifiedFindingsAreIgnored(t *testing.T) {
	ds := mustDataset(t, dataset.KindFile, vulnFile("A.java", "CWE-89"))

	rep := Validate(ds, "bearer", Input{FindingsByUnit: map[string][]finding.Finding{
		"A.java": {{FilePath: "A.java"}},
	}})

	assert.Zero(t, rep.TruePositives)
	assert.Equal(t, 1, rep.FalseNegatives)
	assert.Zero(t, rep.FalsePositives)
}

func TestValidate_PerfectTool(t *testing.T) {
	ds := mustDataset(t, dataset.KindFile,
		vulnFile("A.java", "CWE-89"),
		vulnFile("B.java", "CWE-79"),
		safeFile("C.java"),
	)

	rep := Validate(ds, "semgrep", Input{FindingsByUnit: map[string][]finding.Finding{
		"A.java": {{CWE: "CWE-89", FilePath: "A.java"}},
		"B.java": {{CWE: "CWE-79", FilePath: "B.java"}},
	}})

	require.True(t, rep.Precision.Defined)
	require.True(t, rep.Recall.Defined)
	assert.Equal(t, 1.0, rep.Precision.Value)
	assert.Equal(t, 1.0, rep.Recall.Value)
	assert.Equal(t, 1, rep.TrueNegatives)
}

func TestValidate_UndefinedMetrics(t *testing.T) {
	// No findings and no vulnerable units: both denominators are zero.
	ds := mustDataset(t, dataset.KindFile, safeFile("A.java"))

	rep := Validate(ds, "semgrep", Input{})

	assert.False(t, rep.Precision.Defined)
	assert.False(t, rep.Recall.Defined)
}

func TestValidate_UnresolvedUnitsExcludedFromMetrics(t *testing.T) {
	ds := mustDataset(t, dataset.KindFile,
		vulnFile("A.java", "CWE-89"),
		vulnFile("B.java", "CWE-79"),
	)

	rep := Validate(ds, "semgrep", Input{
		FindingsByUnit: map[string][]finding.Finding{
			"A.java": {{CWE: "CWE-89", FilePath: "A.java"}},
		},
		Unresolved: map[string]string{"B.java": "checkout failed"},
	})

	assert.Equal(t, 1, rep.TruePositives)
	assert.Zero(t, rep.FalseNegatives)
	require.Len(t, rep.Unresolved, 1)
	assert.Equal(t, "B.java", rep.Unresolved[0].Unit)
	assert.Len(t, rep.Verdicts, 1)
}

func TestValidate_AccountingBudget(t *testing.T) {
	// TP+FN over resolved vulnerable units equals the ground-truth
	// (unit, cwe) pair count; no pair is counted twice or dropped.
	ds := mustDataset(t, dataset.KindFile,
		vulnFile("A.java", "CWE-89", "CWE-79"),
		vulnFile("B.java", "CWE-22"),
		safeFile("C.java"),
	)

	rep := Validate(ds, "semgrep", Input{FindingsByUnit: map[string][]finding.Finding{
		"A.java": {
			{CWE: "CWE-89", FilePath: "A.java"},
			{CWE: "CWE-400", FilePath: "A.java"},
		},
		"C.java": {{CWE: "CWE-89", FilePath: "C.java"}},
	}})

	assert.Equal(t, ds.LabeledCWEs(), rep.TruePositives+rep.FalseNegatives)
	assert.Equal(t, 1, rep.TruePositives)
	assert.Equal(t, 2, rep.FalseNegatives)
	assert.Equal(t, 2, rep.FalsePositives)
}

func TestValidate_RepoUnitRequiresLabeledFileMatch(t *testing.T) {
	unit := dataset.Unit{Kind: dataset.KindRepo, Repo: &dataset.RepoUnit{
		Name:    "proj",
		URL:     "https://github.com/example/proj",
		Commit:  "0123456789abcdef0123456789abcdef01234567",
		CWEs:    cwe.NewSet("CWE-89"),
		Files:   map[string]struct{}{"src/db/Query.java": {}},
		HasVuln: true,
	}}
	ds := mustDataset(t, dataset.KindRepo, unit)

	t.Run("finding on labeled file matches", func(t *testing.T) {
		rep := Validate(ds, "semgrep", Input{FindingsByUnit: map[string][]finding.Finding{
			"proj": {{CWE: "CWE-89", FilePath: "src/db/Query.java"}},
		}})

		assert.Equal(t, 1, rep.TruePositives)
		assert.Zero(t, rep.FalsePositives)
	})

	t.Run("right cwe on wrong file is a false positive", func(t *testing.T) {
		rep := Validate(ds, "semgrep", Input{FindingsByUnit: map[string][]finding.Finding{
			"proj": {{CWE: "CWE-89", FilePath: "src/other/File.java"}},
		}})

		assert.Zero(t, rep.TruePositives)
		assert.Equal(t, 1, rep.FalseNegatives)
		assert.Equal(t, 1, rep.FalsePositives)
	})
}

func TestValidate_VerdictDetail(t *testing.T) {
	ds := mustDataset(t, dataset.KindFile, vulnFile("A.java", "CWE-89", "CWE-79"))

	rep := Validate(ds, "semgrep", Input{FindingsByUnit: map[string][]finding.Finding{
		"A.java": {{CWE: "CWE-79", FilePath: "A.java"}},
	}})

	require.Len(t, rep.Verdicts, 1)
	v := rep.Verdicts[0]
	assert.Equal(t, []cwe.ID{"CWE-79"}, v.MatchedCWEs)
	assert.Equal(t, []cwe.ID{"CWE-89"}, v.MissedCWEs)
}
