package finding

import "github.com/codesectools/sastbench/pkg/domain/cwe"

// BatchResult reports the outcome of normalizing one adapter batch.
type BatchResult struct {
	Findings []Finding
	Dropped  int
}

// NormalizeBatch validates and canonicalizes raw adapter output.
// Malformed entries (empty file path, unparseable CWE reference) are
// dropped and counted, never merged into the valid findings and never
// fatal for the batch.
func NormalizeBatch(sourceTool string, raw []Finding) BatchResult {
	res := BatchResult{Findings: make([]Finding, 0, len(raw))}

	for _, f := range raw {
		f.FilePath = NormalizePath(f.FilePath)
		if f.FilePath == "" {
			res.Dropped++
			continue
		}

		id, err := cwe.Parse(string(f.CWE))
		if err != nil {
			res.Dropped++
			continue
		}
		f.CWE = id

		if f.SourceTool == "" {
			f.SourceTool = sourceTool
		}
		if f.Severity == "" {
			f.Severity = SeverityUnknown
		}
		res.Findings = append(res.Findings, f)
	}

	return res
}

// ByFile groups findings by their normalized file path, preserving the
// input order within each file.
func ByFile(findings []Finding) map[string][]Finding {
	grouped := make(map[string][]Finding)
	for _, f := range findings {
		grouped[f.FilePath] = append(grouped[f.FilePath], f)
	}
	return grouped
}

// DistinctCWEs returns the number of distinct classified CWEs in the
// given findings. Unclassified findings do not contribute.
func DistinctCWEs(findings []Finding) int {
	seen := cwe.NewSet()
	for _, f := range findings {
		if f.CWE != cwe.None {
			seen[f.CWE] = struct{}{}
		}
	}
	return seen.Len()
}
