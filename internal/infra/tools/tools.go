// Package tools implements SAST tool adapters behind a single
// capability interface and an explicit registration table. An adapter
// owns the tool's command line and raw output format; everything
// downstream consumes normalized findings only.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codesectools/sastbench/pkg/domain/finding"
)

// ErrMissingArtifact marks an invocation whose process finished but
// left no report file behind.
var ErrMissingArtifact = errors.New("tool produced no report artifact")

// Target describes one analysis subject handed to an adapter.
type Target struct {
	// Dir is the analysis root (a checkout or a staged file tree).
	Dir string
	// Language of the target source.
	Language string
	// OutputDir is the adapter's private scratch directory. Each
	// adapter gets its own; no two adapters share one.
	OutputDir string
}

// Raw is the unparsed product of one tool invocation.
type Raw struct {
	// ReportPath is the primary machine-readable report file.
	ReportPath string
	// Duration of the external process.
	Duration time.Duration
}

// Adapter is the capability surface every SAST tool integration
// implements. New tools register via Register without touching the
// orchestrator, validator or aggregator.
type Adapter interface {
	Name() string
	SupportedLanguages() []string
	// Requirements lists the binaries (and minimum versions) the
	// adapter needs on PATH.
	Requirements() []Requirement
	// Invoke runs the tool against the target and returns the raw
	// report reference.
	Invoke(ctx context.Context, target Target) (Raw, error)
	// Normalize parses the raw report into findings. Malformed
	// records are dropped and counted, never fatal.
	Normalize(raw Raw) (finding.BatchResult, error)
}

// Registry is an explicit adapter registration table.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Registering the same name twice is a
// programming error.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[a.Name()]; exists {
		return fmt.Errorf("adapter %q already registered", a.Name())
	}
	r.adapters[a.Name()] = a
	return nil
}

// Get returns the named adapter.
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns all registered adapter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Available returns the adapters that support the given language and
// whose requirements are satisfied on this host. Adapters are returned
// in name order for reproducible runs.
func (r *Registry) Available(language string) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Adapter
	for _, a := range r.adapters {
		if !supportsLanguage(a, language) {
			continue
		}
		if err := CheckRequirements(a.Requirements()); err != nil {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func supportsLanguage(a Adapter, language string) bool {
	for _, l := range a.SupportedLanguages() {
		if l == language {
			return true
		}
	}
	return false
}

// DefaultRegistry builds the registry of built-in adapters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []Adapter{
		NewSemgrep(),
		NewGosec(),
		NewBearer(),
	} {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}
