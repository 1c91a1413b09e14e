package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codesectools/sastbench/internal/infra/datasets"
	"github.com/codesectools/sastbench/internal/infra/execx"
	"github.com/codesectools/sastbench/internal/infra/gitrepo"
	"github.com/codesectools/sastbench/internal/infra/tools"
	"github.com/codesectools/sastbench/pkg/domain/dataset"
	"github.com/codesectools/sastbench/pkg/domain/finding"
	"github.com/codesectools/sastbench/pkg/domain/shared"
	"github.com/codesectools/sastbench/pkg/logger"
)

// RunnerConfig configures a benchmark runner.
type RunnerConfig struct {
	ResultsDir   string
	ToolTimeout  time.Duration
	CloneTimeout time.Duration
}

// Runner drives one tool over one dataset and validates the outcome.
type Runner struct {
	tools    *tools.Registry
	datasets *datasets.Registry
	git      *gitrepo.Client
	cfg      RunnerConfig
	log      *logger.Logger
}

// NewRunner creates a benchmark runner.
func NewRunner(toolReg *tools.Registry, dsReg *datasets.Registry, git *gitrepo.Client, cfg RunnerConfig, log *logger.Logger) *Runner {
	return &Runner{tools: toolReg, datasets: dsReg, git: git, cfg: cfg, log: log}
}

// Run benchmarks toolName against the named dataset. The dataset must
// be cached locally; its absence is a hard precondition failure raised
// before any tool invocation.
func (r *Runner) Run(ctx context.Context, toolName, datasetName, language string) (*Report, error) {
	loader, err := r.datasets.Require(datasetName)
	if err != nil {
		return nil, err
	}

	adapter, ok := r.tools.Get(toolName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown tool %q", shared.ErrToolUnavailable, toolName)
	}
	if err := tools.CheckRequirements(adapter.Requirements()); err != nil {
		return nil, err
	}

	ds, err := loader.Load(ctx, language)
	if err != nil {
		return nil, err
	}

	r.log.Info("starting benchmark",
		"tool", toolName, "dataset", ds.FullName(), "units", len(ds.Units))

	outputDir := filepath.Join(r.cfg.ResultsDir, toolName, ds.FullName())
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}

	var in Input
	var dropped int
	switch ds.Kind {
	case dataset.KindFile:
		in, dropped, err = r.runFileDataset(ctx, adapter, ds, outputDir)
	case dataset.KindRepo:
		in, dropped, err = r.runRepoDataset(ctx, adapter, ds, outputDir)
	default:
		err = fmt.Errorf("unknown dataset kind %q", ds.Kind)
	}
	if err != nil {
		return nil, err
	}

	report := Validate(ds, toolName, in)
	report.DroppedFindings = dropped

	r.log.Info("benchmark complete",
		"tool", toolName, "dataset", ds.FullName(),
		"tp", report.TruePositives, "fn", report.FalseNegatives,
		"fp", report.FalsePositives, "tn", report.TrueNegatives,
		"unresolved", len(report.Unresolved), "dropped", dropped)

	return report, nil
}

// runFileDataset stages the whole dataset into one tree, runs the tool
// once, and attributes findings back to units by path.
func (r *Runner) runFileDataset(ctx context.Context, adapter tools.Adapter, ds *dataset.Dataset, outputDir string) (Input, int, error) {
	stageDir, err := os.MkdirTemp("", "sastbench-stage-*")
	if err != nil {
		return Input{}, 0, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stageDir)

	for _, u := range ds.Units {
		path := filepath.Join(stageDir, filepath.FromSlash(u.File.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Input{}, 0, err
		}
		if err := os.WriteFile(path, u.File.Content, 0o644); err != nil {
			return Input{}, 0, fmt.Errorf("stage %s: %w", u.File.Name, err)
		}
	}

	batch, err := r.invoke(ctx, adapter, tools.Target{
		Dir:       stageDir,
		Language:  ds.Language,
		OutputDir: outputDir,
	})
	if err != nil {
		return Input{}, 0, err
	}

	return Input{FindingsByUnit: attributeToUnits(ds, batch.Findings)}, batch.Dropped, nil
}

// runRepoDataset materializes each repository unit at its pinned
// commit and runs the tool against the checkout. A unit whose checkout
// or analysis fails is reported unresolved, not counted as negative.
func (r *Runner) runRepoDataset(ctx context.Context, adapter tools.Adapter, ds *dataset.Dataset, outputDir string) (Input, int, error) {
	in := Input{
		FindingsByUnit: make(map[string][]finding.Finding, len(ds.Units)),
		Unresolved:     make(map[string]string),
	}
	dropped := 0

	for _, u := range ds.Units {
		if err := ctx.Err(); err != nil {
			return Input{}, 0, err
		}
		repo := u.Repo

		cloneCtx, cancel := context.WithTimeout(ctx, r.cfg.CloneTimeout)
		checkout, err := r.git.Materialize(cloneCtx, repo.URL, repo.Commit)
		cancel()
		if err != nil {
			r.log.Warn("skipping unresolvable unit", "unit", repo.Name, "error", err)
			in.Unresolved[repo.Name] = fmt.Sprintf("checkout failed: %v", err)
			continue
		}

		batch, err := r.invoke(ctx, adapter, tools.Target{
			Dir:       checkout.Dir,
			Language:  ds.Language,
			OutputDir: filepath.Join(outputDir, repo.Name),
		})
		checkout.Cleanup()
		if err != nil {
			r.log.Warn("skipping unresolvable unit", "unit", repo.Name, "error", err)
			in.Unresolved[repo.Name] = fmt.Sprintf("analysis failed: %v", err)
			continue
		}

		in.FindingsByUnit[repo.Name] = batch.Findings
		dropped += batch.Dropped
	}

	return in, dropped, nil
}

// invoke runs the adapter under the per-tool timeout and normalizes
// its raw output.
func (r *Runner) invoke(ctx context.Context, adapter tools.Adapter, target tools.Target) (finding.BatchResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.ToolTimeout)
	defer cancel()

	raw, err := adapter.Invoke(runCtx, target)
	if err != nil {
		if errors.Is(err, execx.ErrTimeout) {
			return finding.BatchResult{}, fmt.Errorf("%s timed out after %s: %w", adapter.Name(), r.cfg.ToolTimeout, err)
		}
		return finding.BatchResult{}, fmt.Errorf("%s invocation failed: %w", adapter.Name(), err)
	}

	batch, err := adapter.Normalize(raw)
	if err != nil {
		return finding.BatchResult{}, fmt.Errorf("%s output parse failed: %w", adapter.Name(), err)
	}
	return batch, nil
}

// attributeToUnits maps findings from a staged file-dataset run back
// to their units. Paths are compared after normalization; a finding
// whose full path matches no unit falls back to basename matching,
// which tolerates tools that report absolute or re-rooted paths.
func attributeToUnits(ds *dataset.Dataset, findings []finding.Finding) map[string][]finding.Finding {
	byName := make(map[string]string, len(ds.Units))
	byBase := make(map[string]string, len(ds.Units))
	for _, u := range ds.Units {
		name := finding.NormalizePath(u.File.Name)
		byName[name] = u.File.Name
		byBase[filepath.Base(name)] = u.File.Name
	}

	out := make(map[string][]finding.Finding)
	for _, f := range findings {
		unit, ok := byName[f.FilePath]
		if !ok {
			unit, ok = byBase[filepath.Base(f.FilePath)]
		}
		if !ok {
			// Findings on files outside the dataset (tool noise)
			// cannot be attributed to any unit and are dropped from
			// validation.
			continue
		}
		out[unit] = append(out[unit], f)
	}
	return out
}
