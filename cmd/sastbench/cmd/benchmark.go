package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codesectools/sastbench/internal/app/benchmark"
	"github.com/codesectools/sastbench/internal/report"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark TOOL",
	Short: "Benchmark a tool against a labeled dataset",
	Long: `Benchmark runs one SAST tool over every unit of a cached
dataset, compares the findings against the dataset's ground truth, and
reports true/false positive and negative counts with precision and
recall.`,
	Args: cobra.ExactArgs(1),
	RunE: runBenchmark,
}

func init() {
	benchmarkCmd.Flags().String("dataset", "", "Dataset name (required)")
	benchmarkCmd.Flags().String("language", "", "Dataset language (required)")
	benchmarkCmd.Flags().Bool("no-save", false, "Skip persisting the report to the results directory")
	benchmarkCmd.MarkFlagRequired("dataset")
	benchmarkCmd.MarkFlagRequired("language")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	if err := validateOutputFlag(); err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}

	toolName := args[0]
	datasetName, _ := cmd.Flags().GetString("dataset")
	language, _ := cmd.Flags().GetString("language")
	noSave, _ := cmd.Flags().GetBool("no-save")

	runner := benchmark.NewRunner(a.tools, a.datasets, a.git, benchmark.RunnerConfig{
		ResultsDir:   a.cfg.Storage.ResultsDir,
		ToolTimeout:  a.cfg.Tools.Timeout,
		CloneTimeout: a.cfg.Git.CloneTimeout,
	}, a.log)

	started := time.Now()
	rep, err := runner.Run(cmd.Context(), toolName, datasetName, language)
	if err != nil {
		return err
	}

	if !noSave {
		writer := report.NewWriter(a.cfg.Storage.ResultsDir)
		dir, err := writer.WriteBenchmark(report.Metadata{
			RunID:      shared.NewID(),
			Tool:       toolName,
			Dataset:    datasetName,
			Language:   language,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}, rep)
		if err != nil {
			return fmt.Errorf("persist report: %w", err)
		}
		a.log.Info("report saved", "dir", dir)
	}

	switch flagOutput {
	case outputJSON:
		return printJSON(rep)
	case outputYAML:
		return printYAML(rep)
	default:
		report.PrintBenchmarkSummary(os.Stdout, rep)
		return nil
	}
}
