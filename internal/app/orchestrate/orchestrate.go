package orchestrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codesectools/sastbench/internal/infra/execx"
	"github.com/codesectools/sastbench/internal/infra/tools"
	"github.com/codesectools/sastbench/pkg/domain/finding"
	"github.com/codesectools/sastbench/pkg/logger"
)

// FailureKind classifies why a tool run produced no findings.
type FailureKind string

const (
	FailureTimeout         FailureKind = "timeout"
	FailureExec            FailureKind = "exec"
	FailureMissingArtifact FailureKind = "missing-artifact"
	FailureParse           FailureKind = "parse"
)

// Failure describes a failed tool run.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Outcome is the result of one tool run against a target. Exactly one
// of Findings or Failure is meaningful; Failure is nil on success.
type Outcome struct {
	Tool     string            `json:"tool"`
	Findings []finding.Finding `json:"findings,omitempty"`
	Dropped  int               `json:"dropped,omitempty"`
	Duration time.Duration     `json:"duration"`
	Failure  *Failure          `json:"failure,omitempty"`
}

// Failed reports whether the run did not complete.
func (o Outcome) Failed() bool { return o.Failure != nil }

// Config configures the orchestrator.
type Config struct {
	// Concurrency bounds how many tools run at once. Values below one
	// are treated as one.
	Concurrency int
	// ToolTimeout bounds each individual tool run.
	ToolTimeout time.Duration
}

// Orchestrator fans a single analysis target out to several tools and
// collects per-tool outcomes. One tool failing never cancels the
// others; failures are recorded in the tool's outcome instead.
type Orchestrator struct {
	registry *tools.Registry
	cfg      Config
	log      *logger.Logger
}

// New creates an orchestrator over the given adapter registry.
func New(registry *tools.Registry, cfg Config, log *logger.Logger) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{registry: registry, cfg: cfg, log: log}
}

// RunAll runs every named tool against the target and returns the
// outcome of each, keyed by tool name. Tools whose requirements are
// not met fail their own outcome up front without consuming a worker
// slot. Only a cancelled parent context aborts the whole run.
func (o *Orchestrator) RunAll(ctx context.Context, target tools.Target, toolNames []string) (map[string]Outcome, error) {
	outcomes := make(map[string]Outcome, len(toolNames))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)

	for _, name := range sortedNames(toolNames) {
		adapter, ok := o.registry.Get(name)
		if !ok {
			o.record(&mu, outcomes, Outcome{
				Tool:    name,
				Failure: &Failure{Kind: FailureExec, Message: "unknown tool"},
			})
			continue
		}
		if err := tools.CheckRequirements(adapter.Requirements()); err != nil {
			o.record(&mu, outcomes, Outcome{
				Tool:    name,
				Failure: &Failure{Kind: FailureExec, Message: err.Error()},
			})
			continue
		}

		g.Go(func() error {
			o.record(&mu, outcomes, o.runOne(gctx, adapter, target))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (o *Orchestrator) record(mu *sync.Mutex, outcomes map[string]Outcome, out Outcome) {
	mu.Lock()
	outcomes[out.Tool] = out
	mu.Unlock()
}

func (o *Orchestrator) runOne(ctx context.Context, adapter tools.Adapter, target tools.Target) Outcome {
	name := adapter.Name()
	o.log.Info("running tool", "tool", name, "dir", target.Dir)

	// Each adapter writes into its own scratch subdirectory so report
	// files from concurrent runs never collide.
	if target.OutputDir != "" {
		target.OutputDir = filepath.Join(target.OutputDir, name)
		if err := os.MkdirAll(target.OutputDir, 0o755); err != nil {
			return Outcome{Tool: name, Failure: &Failure{Kind: FailureExec, Message: err.Error()}}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.ToolTimeout)
	defer cancel()

	start := time.Now()
	raw, err := adapter.Invoke(runCtx, target)
	elapsed := time.Since(start)
	if err != nil {
		kind := FailureExec
		switch {
		case errors.Is(err, execx.ErrTimeout) || errors.Is(runCtx.Err(), context.DeadlineExceeded):
			kind = FailureTimeout
		case errors.Is(err, tools.ErrMissingArtifact):
			kind = FailureMissingArtifact
		}
		o.log.Warn("tool run failed", "tool", name, "kind", string(kind), "error", err)
		return Outcome{Tool: name, Duration: elapsed, Failure: &Failure{Kind: kind, Message: err.Error()}}
	}

	batch, err := adapter.Normalize(raw)
	if err != nil {
		o.log.Warn("tool output unreadable", "tool", name, "error", err)
		return Outcome{Tool: name, Duration: elapsed, Failure: &Failure{Kind: FailureParse, Message: err.Error()}}
	}

	o.log.Info("tool run complete",
		"tool", name, "findings", len(batch.Findings), "dropped", batch.Dropped, "duration", elapsed)
	return Outcome{Tool: name, Findings: batch.Findings, Dropped: batch.Dropped, Duration: elapsed}
}

func sortedNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}

// Succeeded filters outcomes down to the per-tool findings of runs
// that completed, in the shape the aggregator consumes.
func Succeeded(outcomes map[string]Outcome) map[string][]finding.Finding {
	byTool := make(map[string][]finding.Finding)
	for name, o := range outcomes {
		if !o.Failed() {
			byTool[name] = o.Findings
		}
	}
	return byTool
}
