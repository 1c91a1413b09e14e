// Package datasets loads ground-truth datasets from the local cache.
// A dataset is acquired out of band (downloaded or synced by tooling
// outside this package) and marked complete; loaders only ever read
// the cache and never touch the network.
package datasets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/codesectools/sastbench/pkg/domain/dataset"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

// completeMarker is written by the acquisition tooling once a dataset
// cache directory is fully populated. Its absence means the download
// was never run or did not finish.
const completeMarker = ".complete"

// Descriptor describes a dataset's capability surface.
type Descriptor struct {
	Name       string
	Languages  []string
	License    string
	LicenseURL string
	Kind       dataset.Kind
}

// Loader loads one dataset variant from the on-disk cache.
type Loader interface {
	Descriptor() Descriptor
	// IsAvailable reports whether the cache holds the dataset,
	// without attempting any network access.
	IsAvailable() bool
	// Load reads the dataset. The result is deterministic across
	// runs for the same cache contents.
	Load(ctx context.Context, language string) (*dataset.Dataset, error)
}

// Registry is an explicit dataset registration table.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]Loader)}
}

// Register adds a loader keyed by its descriptor name.
func (r *Registry) Register(l Loader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := l.Descriptor().Name
	if _, exists := r.loaders[name]; exists {
		return fmt.Errorf("dataset %q already registered", name)
	}
	r.loaders[name] = l
	return nil
}

// Get returns the named loader.
func (r *Registry) Get(name string) (Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[name]
	return l, ok
}

// Names returns all registered dataset names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Require returns the named loader, failing fast with
// shared.ErrDatasetUnavailable when it is unknown or its cache is
// missing. Benchmarking without ground truth is meaningless, so this
// is checked before any tool invocation.
func (r *Registry) Require(name string) (Loader, error) {
	l, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown dataset %q", shared.ErrDatasetUnavailable, name)
	}
	if !l.IsAvailable() {
		return nil, fmt.Errorf("%w: dataset %q is not cached locally", shared.ErrDatasetUnavailable, name)
	}
	return l, nil
}

// isCached reports whether dir carries the completion marker.
func isCached(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, completeMarker))
	return err == nil && !info.IsDir()
}

func supportsLanguage(d Descriptor, language string) bool {
	for _, l := range d.Languages {
		if l == language {
			return true
		}
	}
	return false
}
