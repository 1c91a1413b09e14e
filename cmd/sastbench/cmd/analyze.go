package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/codesectools/sastbench/internal/app/aggregate"
	"github.com/codesectools/sastbench/internal/app/orchestrate"
	"github.com/codesectools/sastbench/internal/infra/tools"
	"github.com/codesectools/sastbench/internal/report"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze DIR",
	Short: "Run all available tools against a directory and rank files by consensus",
	Long: `Analyze fans a source directory out to every available SAST
tool, then merges their findings into a per-file ranking. A file's
consensus score grows with each tool that flags it and each distinct
weakness class reported there, so files many independent tools agree
on rise to the top.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("language", "", "Target language (required)")
	analyzeCmd.Flags().StringSlice("tools", nil, "Restrict to specific tools (default: all available)")
	analyzeCmd.Flags().Int("top", 20, "Number of ranked files to display")
	analyzeCmd.Flags().Bool("no-save", false, "Skip persisting the ranking to the results directory")
	analyzeCmd.MarkFlagRequired("language")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := validateOutputFlag(); err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("target %s is not a directory", dir)
	}

	language, _ := cmd.Flags().GetString("language")
	toolNames, _ := cmd.Flags().GetStringSlice("tools")
	top, _ := cmd.Flags().GetInt("top")
	noSave, _ := cmd.Flags().GetBool("no-save")

	if len(toolNames) == 0 {
		toolNames = a.cfg.Tools.Enabled
	}
	if len(toolNames) == 0 {
		for _, adapter := range a.tools.Available(language) {
			toolNames = append(toolNames, adapter.Name())
		}
	}
	if len(toolNames) == 0 {
		return fmt.Errorf("no tools available for language %q", language)
	}

	outputDir, err := os.MkdirTemp("", "sastbench-analyze-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(outputDir)

	concurrency := a.cfg.Tools.Concurrency
	if concurrency == 0 {
		concurrency = len(toolNames)
	}
	orch := orchestrate.New(a.tools, orchestrate.Config{
		Concurrency: concurrency,
		ToolTimeout: a.cfg.Tools.Timeout,
	}, a.log)

	started := time.Now()
	outcomes, err := orch.RunAll(cmd.Context(), tools.Target{
		Dir:       dir,
		Language:  language,
		OutputDir: outputDir,
	}, toolNames)
	if err != nil {
		return err
	}

	succeeded := orchestrate.Succeeded(outcomes)
	if len(succeeded) == 0 {
		report.PrintOutcomes(os.Stdout, outcomes)
		return fmt.Errorf("%w: no tool completed against %s", shared.ErrNoFindings, dir)
	}
	ranking := aggregate.Rank(succeeded)

	if !noSave {
		writer := report.NewWriter(a.cfg.Storage.ResultsDir)
		runDir, err := writer.WriteAnalysis(report.Metadata{
			RunID:      shared.NewID(),
			Tools:      toolNames,
			Language:   language,
			Target:     dir,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}, ranking)
		if err != nil {
			return fmt.Errorf("persist ranking: %w", err)
		}
		a.log.Info("ranking saved", "dir", runDir)
	}

	switch flagOutput {
	case outputJSON:
		return printJSON(ranking)
	case outputYAML:
		return printYAML(ranking)
	default:
		report.PrintOutcomes(os.Stdout, outcomes)
		fmt.Println()
		report.PrintRanking(os.Stdout, ranking, top)
		return nil
	}
}
