package datasets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesectools/sastbench/pkg/domain/cwe"
	"github.com/codesectools/sastbench/pkg/domain/dataset"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

const fileManifestYAML = `name: testset
language: java
files:
  BenchmarkTest00001.java:
    cwe_ids: ["CWE-89"]
    has_vuln: true
  BenchmarkTest00002.java:
    cwe_ids: []
    has_vuln: false
  BenchmarkTest00003.java:
    cwe_ids: ["79", "cwe-022"]
    has_vuln: true
`

// stageFileDataset lays out a cached file dataset under dir.
func stageFileDataset(t *testing.T, dir string, manifest string, gzipped bool) {
	t.Helper()

	filesDir := filepath.Join(dir, "files")
	require.NoError(t, os.MkdirAll(filesDir, 0o755))
	for _, name := range []string{"BenchmarkTest00001.java", "BenchmarkTest00002.java", "BenchmarkTest00003.java"} {
		require.NoError(t, os.WriteFile(filepath.Join(filesDir, name), []byte("class T {}"), 0o644))
	}

	if gzipped {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, err := gz.Write([]byte(manifest))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml.gz"), buf.Bytes(), 0o644))
	} else {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(manifest), 0o644))
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, completeMarker), nil, 0o644))
}

func newTestFileLoader(cacheDir string) *FileLoader {
	return NewFileLoader(Descriptor{
		Name:      "testset",
		Languages: []string{"java"},
		License:   "MIT",
	}, cacheDir)
}

func TestFileLoader_Load(t *testing.T) {
	cacheDir := t.TempDir()
	stageFileDataset(t, filepath.Join(cacheDir, "testset"), fileManifestYAML, false)

	loader := newTestFileLoader(cacheDir)
	require.True(t, loader.IsAvailable())

	ds, err := loader.Load(context.Background(), "java")
	require.NoError(t, err)

	assert.Equal(t, "testset_java", ds.FullName())
	assert.Equal(t, dataset.KindFile, ds.Kind)
	assert.Equal(t, "MIT", ds.License)
	require.Len(t, ds.Units, 3)

	// Units come back in filename order regardless of map iteration.
	assert.Equal(t, "BenchmarkTest00001.java", ds.Units[0].Name())
	assert.Equal(t, "BenchmarkTest00002.java", ds.Units[1].Name())
	assert.Equal(t, "BenchmarkTest00003.java", ds.Units[2].Name())

	assert.True(t, ds.Units[0].HasVuln())
	assert.True(t, ds.Units[0].CWEs().Contains("CWE-89"))
	assert.False(t, ds.Units[1].HasVuln())

	// Manifest spellings are canonicalized on load.
	third := ds.Units[2].CWEs()
	assert.True(t, third.Contains("CWE-79"))
	assert.True(t, third.Contains("CWE-22"))
	assert.Equal(t, []byte("class T {}"), ds.Units[2].File.Content)
}

func TestFileLoader_LoadGzippedManifest(t *testing.T) {
	cacheDir := t.TempDir()
	stageFileDataset(t, filepath.Join(cacheDir, "testset"), fileManifestYAML, true)

	loader := newTestFileLoader(cacheDir)
	ds, err := loader.Load(context.Background(), "java")
	require.NoError(t, err)
	assert.Len(t, ds.Units, 3)
}

func TestFileLoader_Determinism(t *testing.T) {
	cacheDir := t.TempDir()
	stageFileDataset(t, filepath.Join(cacheDir, "testset"), fileManifestYAML, false)
	loader := newTestFileLoader(cacheDir)

	first, err := loader.Load(context.Background(), "java")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := loader.Load(context.Background(), "java")
		require.NoError(t, err)
		require.Len(t, again.Units, len(first.Units))
		for j := range first.Units {
			assert.Equal(t, first.Units[j].Name(), again.Units[j].Name())
		}
	}
}

func TestFileLoader_UnsupportedLanguage(t *testing.T) {
	cacheDir := t.TempDir()
	stageFileDataset(t, filepath.Join(cacheDir, "testset"), fileManifestYAML, false)

	_, err := newTestFileLoader(cacheDir).Load(context.Background(), "rust")
	require.Error(t, err)
	assert.True(t, shared.IsDatasetUnavailable(err))
}

func TestFileLoader_MissingCompleteMarker(t *testing.T) {
	cacheDir := t.TempDir()
	dir := filepath.Join(cacheDir, "testset")
	stageFileDataset(t, dir, fileManifestYAML, false)
	require.NoError(t, os.Remove(filepath.Join(dir, completeMarker)))

	loader := newTestFileLoader(cacheDir)
	assert.False(t, loader.IsAvailable())

	_, err := loader.Load(context.Background(), "java")
	require.Error(t, err)
	assert.True(t, shared.IsDatasetUnavailable(err))
}

func TestFileLoader_RejectsInvalidManifest(t *testing.T) {
	manifest := `name: testset
language: java
files:
  BenchmarkTest00001.java:
    cwe_ids: ["not-a-cwe"]
    has_vuln: true
`
	cacheDir := t.TempDir()
	stageFileDataset(t, filepath.Join(cacheDir, "testset"), manifest, false)

	_, err := newTestFileLoader(cacheDir).Load(context.Background(), "java")
	assert.Error(t, err)
}

func TestRegistry_Require(t *testing.T) {
	cacheDir := t.TempDir()
	stageFileDataset(t, filepath.Join(cacheDir, "testset"), fileManifestYAML, false)

	r := NewRegistry()
	require.NoError(t, r.Register(newTestFileLoader(cacheDir)))

	t.Run("cached dataset resolves", func(t *testing.T) {
		_, err := r.Require("testset")
		assert.NoError(t, err)
	})

	t.Run("unknown dataset fails fast", func(t *testing.T) {
		_, err := r.Require("nonexistent")
		require.Error(t, err)
		assert.True(t, shared.IsDatasetUnavailable(err))
	})
}

func TestRegistry_RequireUncached(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newTestFileLoader(t.TempDir())))

	_, err := r.Require("testset")
	require.Error(t, err)
	assert.True(t, shared.IsDatasetUnavailable(err))
}

func TestParseCWEs(t *testing.T) {
	set, err := parseCWEs([]string{"CWE-89", "79", "cwe-022"})
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains(cwe.ID("CWE-22")))

	_, err = parseCWEs([]string{"bogus"})
	assert.Error(t, err)
}
