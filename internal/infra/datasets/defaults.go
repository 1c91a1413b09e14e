package datasets

import "github.com/codesectools/sastbench/pkg/domain/dataset"

// DefaultRegistry builds the registry of built-in datasets rooted at
// cacheDir.
func DefaultRegistry(cacheDir string, maxRepoSize int64) *Registry {
	r := NewRegistry()

	loaders := []Loader{
		NewFileLoader(Descriptor{
			Name:       "BenchmarkJava",
			Languages:  []string{"java"},
			License:    "GPL-2.0",
			LicenseURL: "https://github.com/OWASP-Benchmark/BenchmarkJava/blob/master/LICENSE",
			Kind:       dataset.KindFile,
		}, cacheDir),
		NewRepoLoader(Descriptor{
			Name:       "CVEfixes",
			Languages:  []string{"java", "python", "go", "c"},
			License:    "CC-BY-4.0",
			LicenseURL: "https://github.com/secureIT-project/CVEfixes/blob/main/LICENSE.md",
			Kind:       dataset.KindRepo,
		}, cacheDir, maxRepoSize),
	}

	for _, l := range loaders {
		if err := r.Register(l); err != nil {
			panic(err)
		}
	}
	return r
}
