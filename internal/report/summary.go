package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/codesectools/sastbench/internal/app/aggregate"
	"github.com/codesectools/sastbench/internal/app/benchmark"
	"github.com/codesectools/sastbench/internal/app/orchestrate"
)

var (
	headerColor = color.New(color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	failColor   = color.New(color.FgRed)
)

// PrintBenchmarkSummary renders a benchmark report as a terminal
// table.
func PrintBenchmarkSummary(out io.Writer, rep *benchmark.Report) {
	headerColor.Fprintf(out, "%s on %s (%s)\n\n", rep.Tool, rep.Dataset, rep.Language)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "True positives\t%d\n", rep.TruePositives)
	fmt.Fprintf(tw, "False negatives\t%d\n", rep.FalseNegatives)
	fmt.Fprintf(tw, "False positives\t%d\n", rep.FalsePositives)
	fmt.Fprintf(tw, "True negatives\t%d\n", rep.TrueNegatives)
	fmt.Fprintf(tw, "Precision\t%s\n", formatMetric(rep.Precision))
	fmt.Fprintf(tw, "Recall\t%s\n", formatMetric(rep.Recall))
	if rep.DroppedFindings > 0 {
		fmt.Fprintf(tw, "Dropped findings\t%d\n", rep.DroppedFindings)
	}
	tw.Flush()

	if len(rep.Unresolved) > 0 {
		fmt.Fprintln(out)
		warnColor.Fprintf(out, "%d unit(s) could not be analyzed:\n", len(rep.Unresolved))
		for _, u := range rep.Unresolved {
			fmt.Fprintf(out, "  %s: %s\n", u.Unit, u.Reason)
		}
	}
}

// PrintRanking renders a cross-tool consensus ranking, highest score
// first.
func PrintRanking(out io.Writer, ranking []aggregate.FileReport, limit int) {
	if len(ranking) == 0 {
		fmt.Fprintln(out, "No findings to aggregate.")
		return
	}
	if limit <= 0 || limit > len(ranking) {
		limit = len(ranking)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	headerColor.Fprintln(tw, "SCORE\tTOOLS\tFILE")
	for _, fr := range ranking[:limit] {
		fmt.Fprintf(tw, "%.1f\t%s\t%s\n", fr.ConsensusScore, strings.Join(fr.ContributingTools, ","), fr.FilePath)
	}
	tw.Flush()
	if limit < len(ranking) {
		fmt.Fprintf(out, "... and %d more file(s)\n", len(ranking)-limit)
	}
}

// PrintOutcomes renders the status of an orchestrated multi-tool run.
func PrintOutcomes(out io.Writer, outcomes map[string]orchestrate.Outcome) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	headerColor.Fprintln(tw, "TOOL\tSTATUS\tFINDINGS\tDURATION")
	for _, name := range sortedKeys(outcomes) {
		o := outcomes[name]
		if o.Failed() {
			failColor.Fprintf(tw, "%s\tfailed (%s)\t-\t%s\n", name, o.Failure.Kind, o.Duration.Round(time.Millisecond))
			continue
		}
		okColor.Fprintf(tw, "%s\tok\t%d\t%s\n", name, len(o.Findings), o.Duration.Round(time.Millisecond))
	}
	tw.Flush()
}

func formatMetric(m benchmark.Metric) string {
	if !m.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", m.Value)
}

func sortedKeys(outcomes map[string]orchestrate.Outcome) []string {
	keys := make([]string, 0, len(outcomes))
	for k := range outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
