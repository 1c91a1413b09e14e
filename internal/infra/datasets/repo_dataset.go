package datasets

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/codesectools/sastbench/pkg/domain/dataset"
	"github.com/codesectools/sastbench/pkg/domain/finding"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

// RepoLoader loads a dataset of labeled Git repository checkouts.
// Layout under the cache directory:
//
//	<cache>/<name>/.complete
//	<cache>/<name>/manifest.yaml[.gz]
//
// The repositories themselves are cloned on demand at analysis time;
// only the manifest is cached.
type RepoLoader struct {
	desc     Descriptor
	cacheDir string
	// maxRepoSize filters out repositories larger than this many
	// bytes. Zero disables the filter.
	maxRepoSize int64
}

// NewRepoLoader creates a loader for the named repository dataset.
func NewRepoLoader(desc Descriptor, cacheDir string, maxRepoSize int64) *RepoLoader {
	desc.Kind = dataset.KindRepo
	return &RepoLoader{desc: desc, cacheDir: cacheDir, maxRepoSize: maxRepoSize}
}

// Descriptor implements Loader.
func (l *RepoLoader) Descriptor() Descriptor { return l.desc }

func (l *RepoLoader) dir() string {
	return filepath.Join(l.cacheDir, l.desc.Name)
}

// IsAvailable implements Loader.
func (l *RepoLoader) IsAvailable() bool {
	if !isCached(l.dir()) {
		return false
	}
	_, err := findManifest(l.dir())
	return err == nil
}

// Load implements Loader. Units are ordered by repo name so that the
// same cache always yields the same dataset. Repositories above the
// size limit are skipped.
func (l *RepoLoader) Load(ctx context.Context, language string) (*dataset.Dataset, error) {
	if !supportsLanguage(l.desc, language) {
		return nil, fmt.Errorf("%w: dataset %s does not support language %q",
			shared.ErrDatasetUnavailable, l.desc.Name, language)
	}
	if !l.IsAvailable() {
		return nil, fmt.Errorf("%w: %s", shared.ErrDatasetUnavailable, l.desc.Name)
	}

	manifestPath, err := findManifest(l.dir())
	if err != nil {
		return nil, err
	}
	var manifest repoManifest
	if err := readManifest(manifestPath, &manifest); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(manifest.Repos))
	for name := range manifest.Repos {
		names = append(names, name)
	}
	sort.Strings(names)

	units := make([]dataset.Unit, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := manifest.Repos[name]

		if l.maxRepoSize > 0 && entry.Size > l.maxRepoSize {
			continue
		}

		cwes, err := parseCWEs(entry.CWEIDs)
		if err != nil {
			return nil, fmt.Errorf("repo %s: %w", name, err)
		}

		files := make(map[string]struct{}, len(entry.Files))
		for _, f := range entry.Files {
			if p := finding.NormalizePath(f); p != "" {
				files[p] = struct{}{}
			}
		}

		units = append(units, dataset.Unit{
			Kind: dataset.KindRepo,
			Repo: &dataset.RepoUnit{
				Name:    name,
				URL:     entry.URL,
				Commit:  entry.Commit,
				Size:    entry.Size,
				CWEs:    cwes,
				Files:   files,
				HasVuln: entry.HasVuln,
			},
		})
	}

	ds, err := dataset.New(l.desc.Name, language, dataset.KindRepo, units)
	if err != nil {
		return nil, err
	}
	ds.License = l.desc.License
	ds.LicenseURL = l.desc.LicenseURL
	return ds, nil
}
