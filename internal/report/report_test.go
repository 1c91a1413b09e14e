package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesectools/sastbench/internal/app/aggregate"
	"github.com/codesectools/sastbench/internal/app/benchmark"
	"github.com/codesectools/sastbench/internal/app/orchestrate"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

func sampleReport() *benchmark.Report {
	return &benchmark.Report{
		Dataset:        "testset",
		Language:       "java",
		Tool:           "semgrep",
		TruePositives:  3,
		FalseNegatives: 1,
		FalsePositives: 2,
		TrueNegatives:  4,
		Precision:      benchmark.Metric{Value: 0.6, Defined: true},
		Recall:         benchmark.Metric{Value: 0.75, Defined: true},
	}
}

func TestWriter_WriteBenchmark(t *testing.T) {
	base := t.TempDir()
	meta := Metadata{
		RunID:      shared.NewID(),
		Tool:       "semgrep",
		Dataset:    "testset",
		Language:   "java",
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
	}

	dir, err := NewWriter(base).WriteBenchmark(meta, sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, meta.RunID.String()), dir)

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)

	var decoded benchmark.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 3, decoded.TruePositives)
	assert.Equal(t, "semgrep", decoded.Tool)

	for _, name := range []string{"report.yaml", "metadata.yaml"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestWriter_WriteAnalysis(t *testing.T) {
	base := t.TempDir()
	ranking := []aggregate.FileReport{
		{FilePath: "a.java", ConsensusScore: 3, ContributingTools: []string{"bearer", "semgrep"}},
	}

	dir, err := NewWriter(base).WriteAnalysis(Metadata{RunID: shared.NewID()}, ranking)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "ranking.json"))
	require.NoError(t, err)

	var decoded []aggregate.FileReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "a.java", decoded[0].FilePath)
}

func TestPrintBenchmarkSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintBenchmarkSummary(&buf, sampleReport())

	out := buf.String()
	assert.Contains(t, out, "semgrep on testset (java)")
	assert.Contains(t, out, "True positives")
	assert.Contains(t, out, "0.600")
	assert.Contains(t, out, "0.750")
}

func TestPrintBenchmarkSummary_UndefinedMetric(t *testing.T) {
	rep := sampleReport()
	rep.Precision = benchmark.Metric{}

	var buf bytes.Buffer
	PrintBenchmarkSummary(&buf, rep)
	assert.Contains(t, buf.String(), "n/a")
}

func TestPrintRanking(t *testing.T) {
	ranking := []aggregate.FileReport{
		{FilePath: "a.java", ConsensusScore: 3, ContributingTools: []string{"bearer", "semgrep"}},
		{FilePath: "b.java", ConsensusScore: 1, ContributingTools: []string{"semgrep"}},
	}

	var buf bytes.Buffer
	PrintRanking(&buf, ranking, 1)

	out := buf.String()
	assert.Contains(t, out, "a.java")
	assert.NotContains(t, out, "b.java\n")
	assert.Contains(t, out, "1 more file(s)")
}

func TestPrintOutcomes(t *testing.T) {
	outcomes := map[string]orchestrate.Outcome{
		"semgrep": {Tool: "semgrep", Duration: 120 * time.Millisecond},
		"bearer":  {Tool: "bearer", Failure: &orchestrate.Failure{Kind: orchestrate.FailureTimeout}},
	}

	var buf bytes.Buffer
	PrintOutcomes(&buf, outcomes)

	out := buf.String()
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "failed (timeout)")
}
