package datasets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/codesectools/sastbench/pkg/domain/cwe"
	"github.com/codesectools/sastbench/pkg/domain/dataset"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

// FileLoader loads a dataset of individually labeled source files.
// Layout under the cache directory:
//
//	<cache>/<name>/.complete
//	<cache>/<name>/manifest.yaml[.gz]
//	<cache>/<name>/files/<filename>
type FileLoader struct {
	desc     Descriptor
	cacheDir string
}

// NewFileLoader creates a loader for the named file dataset.
func NewFileLoader(desc Descriptor, cacheDir string) *FileLoader {
	desc.Kind = dataset.KindFile
	return &FileLoader{desc: desc, cacheDir: cacheDir}
}

// Descriptor implements Loader.
func (l *FileLoader) Descriptor() Descriptor { return l.desc }

// dir is the dataset's cache directory.
func (l *FileLoader) dir() string {
	return filepath.Join(l.cacheDir, l.desc.Name)
}

// IsAvailable implements Loader.
func (l *FileLoader) IsAvailable() bool {
	if !isCached(l.dir()) {
		return false
	}
	_, err := findManifest(l.dir())
	return err == nil
}

// Load implements Loader. Units are ordered by filename so that the
// same cache always yields the same dataset.
func (l *FileLoader) Load(ctx context.Context, language string) (*dataset.Dataset, error) {
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
	var manifest fileManifest
	if err := readManifest(manifestPath, &manifest); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(manifest.Files))
	for name := range manifest.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	units := make([]dataset.Unit, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := manifest.Files[name]

		content, err := os.ReadFile(filepath.Join(l.dir(), "files", name))
		if err != nil {
			return nil, fmt.Errorf("read dataset file %s: %w", name, err)
		}

		cwes, err := parseCWEs(entry.CWEIDs)
		if err != nil {
			return nil, fmt.Errorf("file %s: %w", name, err)
		}

		units = append(units, dataset.Unit{
			Kind: dataset.KindFile,
			File: &dataset.FileUnit{
				Name:    name,
				Content: content,
				CWEs:    cwes,
				HasVuln: entry.HasVuln,
			},
		})
	}

	ds, err := dataset.New(l.desc.Name, language, dataset.KindFile, units)
	if err != nil {
		return nil, err
	}
	ds.License = l.desc.License
	ds.LicenseURL = l.desc.LicenseURL
	return ds, nil
}

func parseCWEs(raw []string) (cwe.Set, error) {
	set := cwe.NewSet()
	for _, r := range raw {
		id, err := cwe.Parse(r)
		if err != nil {
			return nil, err
		}
		if id != cwe.None {
			set[id] = struct{}{}
		}
	}
	return set, nil
}
