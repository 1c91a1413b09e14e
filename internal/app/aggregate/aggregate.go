package aggregate

import (
	"sort"

	"github.com/codesectools/sastbench/pkg/domain/cwe"
	"github.com/codesectools/sastbench/pkg/domain/finding"
)

// FileReport ranks one file by cross-tool consensus.
type FileReport struct {
	FilePath string `json:"file_path"`
	// ConsensusScore sums, over every tool that flagged the file, the
	// tool's weight times the number of distinct CWEs it reported
	// there. More independent tools and more distinct weaknesses both
	// push a file up the ranking.
	ConsensusScore    float64                      `json:"consensus_score"`
	ContributingTools []string                     `json:"contributing_tools"`
	FindingsByTool    map[string][]finding.Finding `json:"findings_by_tool"`
}

// Option customizes ranking.
type Option func(*options)

type options struct {
	weights map[string]float64
}

// WithWeights assigns per-tool weights. Tools absent from the map keep
// the default weight of one.
func WithWeights(weights map[string]float64) Option {
	return func(o *options) {
		o.weights = weights
	}
}

// Rank folds the findings of several tools into a per-file ranking.
// The output order is deterministic: consensus score descending, then
// distinct contributing tool count descending, then file path
// ascending.
func Rank(findingsByTool map[string][]finding.Finding, opts ...Option) []FileReport {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	type fileAccum struct {
		byTool map[string][]finding.Finding
		cwes   map[string]cwe.Set
	}
	files := make(map[string]*fileAccum)

	for tool, findings := range findingsByTool {
		for _, f := range findings {
			path := finding.NormalizePath(f.FilePath)
			if path == "" {
				continue
			}
			acc, ok := files[path]
			if !ok {
				acc = &fileAccum{
					byTool: make(map[string][]finding.Finding),
					cwes:   make(map[string]cwe.Set),
				}
				files[path] = acc
			}
			acc.byTool[tool] = append(acc.byTool[tool], f)
			if acc.cwes[tool] == nil {
				acc.cwes[tool] = cwe.NewSet()
			}
			// Unclassified findings stay visible in the drill-down but
			// contribute nothing to the score.
			if f.CWE != cwe.None {
				acc.cwes[tool][f.CWE] = struct{}{}
			}
		}
	}

	reports := make([]FileReport, 0, len(files))
	for path, acc := range files {
		score := 0.0
		toolNames := make([]string, 0, len(acc.byTool))
		for tool := range acc.byTool {
			score += weightOf(o.weights, tool) * float64(acc.cwes[tool].Len())
			toolNames = append(toolNames, tool)
		}
		sort.Strings(toolNames)
		reports = append(reports, FileReport{
			FilePath:          path,
			ConsensusScore:    score,
			ContributingTools: toolNames,
			FindingsByTool:    acc.byTool,
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.ConsensusScore != b.ConsensusScore {
			return a.ConsensusScore > b.ConsensusScore
		}
		if len(a.ContributingTools) != len(b.ContributingTools) {
			return len(a.ContributingTools) > len(b.ContributingTools)
		}
		return a.FilePath < b.FilePath
	})
	return reports
}

func weightOf(weights map[string]float64, tool string) float64 {
	if w, ok := weights[tool]; ok {
		return w
	}
	return 1.0
}
