package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/codesectools/sastbench/internal/config"
	"github.com/codesectools/sastbench/internal/infra/datasets"
	"github.com/codesectools/sastbench/internal/infra/gitrepo"
	"github.com/codesectools/sastbench/internal/infra/tools"
	"github.com/codesectools/sastbench/pkg/logger"
)

var (
	version string

	// Global flags
	flagOutput  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sastbench",
	Short: "Benchmark static analysis tools against labeled datasets",
	Long: `sastbench runs SAST tools against datasets with known
vulnerabilities, scores each tool's precision and recall against the
ground truth, and aggregates findings across tools into a per-file
consensus ranking.

Datasets must be present in the local cache before a benchmark run;
use "sastbench datasets list" to see what is available.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(toolsCmd)
}

// app bundles the wired dependencies every command needs.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	tools    *tools.Registry
	datasets *datasets.Registry
	git      *gitrepo.Client
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: cfg.Log.Format})

	return &app{
		cfg:      cfg,
		log:      log,
		tools:    tools.DefaultRegistry(),
		datasets: datasets.DefaultRegistry(cfg.Storage.CacheDir, cfg.Git.MaxRepoSize),
		git:      gitrepo.NewClient(gitrepo.Config{Token: cfg.Git.Token}),
	}, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sastbench version %s\n", version)
		fmt.Printf("  Go:       %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:  %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
