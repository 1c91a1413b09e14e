package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesectools/sastbench/internal/infra/tools"
	"github.com/codesectools/sastbench/pkg/domain/finding"
	"github.com/codesectools/sastbench/pkg/logger"
)

// fakeAdapter is a scriptable adapter for orchestrator tests.
type fakeAdapter struct {
	name      string
	invokeErr error
	parseErr  error
	findings  []finding.Finding
	calls     atomic.Int32
	delay     time.Duration
}

func (f *fakeAdapter) Name() string                 { return f.name }
func (f *fakeAdapter) SupportedLanguages() []string { return []string{"java"} }
func (f *fakeAdapter) Requirements() []tools.Requirement {
	return nil
}

func (f *fakeAdapter) Invoke(ctx context.Context, target tools.Target) (tools.Raw, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return tools.Raw{}, ctx.Err()
		}
	}
	return tools.Raw{}, f.invokeErr
}

func (f *fakeAdapter) Normalize(raw tools.Raw) (finding.BatchResult, error) {
	if f.parseErr != nil {
		return finding.BatchResult{}, f.parseErr
	}
	return finding.BatchResult{Findings: f.findings}, nil
}

func newTestOrchestrator(t *testing.T, adapters ...tools.Adapter) *Orchestrator {
	t.Helper()
	reg := tools.NewRegistry()
	for _, a := range adapters {
		require.NoError(t, reg.Register(a))
	}
	return New(reg, Config{Concurrency: 2, ToolTimeout: 5 * time.Second}, logger.NewNop())
}

func TestRunAll_CollectsOutcomesPerTool(t *testing.T) {
	ok := &fakeAdapter{name: "semgrep", findings: []finding.Finding{{CWE: "CWE-89", FilePath: "a.java"}}}
	broken := &fakeAdapter{name: "bearer", invokeErr: errors.New("exec format error")}
	o := newTestOrchestrator(t, ok, broken)

	outcomes, err := o.RunAll(context.Background(), tools.Target{Dir: t.TempDir(), Language: "java"}, []string{"semgrep", "bearer"})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.False(t, outcomes["semgrep"].Failed())
	assert.Len(t, outcomes["semgrep"].Findings, 1)

	require.True(t, outcomes["bearer"].Failed())
	assert.Equal(t, FailureExec, outcomes["bearer"].Failure.Kind)
}

func TestRunAll_OneFailureDoesNotCancelOthers(t *testing.T) {
	slow := &fakeAdapter{name: "semgrep", delay: 50 * time.Millisecond}
	failing := &fakeAdapter{name: "bearer", invokeErr: errors.New("boom")}
	o := newTestOrchestrator(t, slow, failing)

	outcomes, err := o.RunAll(context.Background(), tools.Target{Dir: t.TempDir()}, []string{"semgrep", "bearer"})
	require.NoError(t, err)

	assert.False(t, outcomes["semgrep"].Failed())
	assert.True(t, outcomes["bearer"].Failed())
	assert.Equal(t, int32(1), slow.calls.Load())
}

func TestRunAll_UnknownToolFailsItsOwnOutcome(t *testing.T) {
	o := newTestOrchestrator(t, &fakeAdapter{name: "semgrep"})

	outcomes, err := o.RunAll(context.Background(), tools.Target{Dir: t.TempDir()}, []string{"semgrep", "ghost"})
	require.NoError(t, err)

	require.True(t, outcomes["ghost"].Failed())
	assert.Equal(t, FailureExec, outcomes["ghost"].Failure.Kind)
	assert.False(t, outcomes["semgrep"].Failed())
}

func TestRunAll_ParseFailure(t *testing.T) {
	o := newTestOrchestrator(t, &fakeAdapter{name: "semgrep", parseErr: errors.New("truncated report")})

	outcomes, err := o.RunAll(context.Background(), tools.Target{Dir: t.TempDir()}, []string{"semgrep"})
	require.NoError(t, err)

	require.True(t, outcomes["semgrep"].Failed())
	assert.Equal(t, FailureParse, outcomes["semgrep"].Failure.Kind)
}

func TestRunAll_MissingArtifact(t *testing.T) {
	missing := &fakeAdapter{name: "semgrep", invokeErr: fmt.Errorf("semgrep: %w: no such file", tools.ErrMissingArtifact)}
	o := newTestOrchestrator(t, missing)

	outcomes, err := o.RunAll(context.Background(), tools.Target{Dir: t.TempDir()}, []string{"semgrep"})
	require.NoError(t, err)

	require.True(t, outcomes["semgrep"].Failed())
	assert.Equal(t, FailureMissingArtifact, outcomes["semgrep"].Failure.Kind)
}

func TestRunAll_PerToolScratchDirs(t *testing.T) {
	a := &fakeAdapter{name: "semgrep"}
	b := &fakeAdapter{name: "bearer"}
	o := newTestOrchestrator(t, a, b)

	outDir := t.TempDir()
	_, err := o.RunAll(context.Background(), tools.Target{Dir: t.TempDir(), OutputDir: outDir}, []string{"semgrep", "bearer"})
	require.NoError(t, err)

	for _, name := range []string{"semgrep", "bearer"} {
		info, statErr := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	}
}

func TestRunAll_Timeout(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(&fakeAdapter{name: "semgrep", delay: time.Second}))
	o := New(reg, Config{Concurrency: 1, ToolTimeout: 50 * time.Millisecond}, logger.NewNop())

	outcomes, err := o.RunAll(context.Background(), tools.Target{Dir: t.TempDir()}, []string{"semgrep"})
	require.NoError(t, err)

	require.True(t, outcomes["semgrep"].Failed())
	assert.Equal(t, FailureTimeout, outcomes["semgrep"].Failure.Kind)
}

func TestRunAll_CancelledParentContext(t *testing.T) {
	o := newTestOrchestrator(t, &fakeAdapter{name: "semgrep"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.RunAll(ctx, tools.Target{Dir: t.TempDir()}, []string{"semgrep"})
	assert.Error(t, err)
}

func TestSucceeded(t *testing.T) {
	outcomes := map[string]Outcome{
		"semgrep": {Tool: "semgrep", Findings: []finding.Finding{{CWE: "CWE-89", FilePath: "a.java"}}},
		"bearer":  {Tool: "bearer", Failure: &Failure{Kind: FailureExec, Message: "boom"}},
	}

	byTool := Succeeded(outcomes)
	require.Len(t, byTool, 1)
	assert.Len(t, byTool["semgrep"], 1)
}
