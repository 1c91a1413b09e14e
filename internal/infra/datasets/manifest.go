package datasets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"

	"github.com/codesectools/sastbench/pkg/validator"
)

// fileManifest is the on-disk ground truth for a file dataset: a
// mapping from filename to its labeling.
type fileManifest struct {
	Name     string                       `yaml:"name" validate:"required"`
	Language string                       `yaml:"language" validate:"required"`
	Files    map[string]fileManifestEntry `yaml:"files" validate:"required,min=1,dive"`
}

type fileManifestEntry struct {
	CWEIDs  []string `yaml:"cwe_ids" validate:"dive,cwe_id"`
	HasVuln bool     `yaml:"has_vuln"`
}

// repoManifest is the on-disk ground truth for a repository dataset.
type repoManifest struct {
	Name     string                       `yaml:"name" validate:"required"`
	Language string                       `yaml:"language" validate:"required"`
	Repos    map[string]repoManifestEntry `yaml:"repos" validate:"required,min=1,dive"`
}

type repoManifestEntry struct {
	URL     string   `yaml:"url" validate:"required,url"`
	Commit  string   `yaml:"commit" validate:"required,commit_hash"`
	Size    int64    `yaml:"size" validate:"min=0"`
	CWEIDs  []string `yaml:"cwe_ids" validate:"dive,cwe_id"`
	Files   []string `yaml:"files"`
	HasVuln bool     `yaml:"has_vuln"`
}

var manifestValidator = validator.New()

// readManifest decodes a YAML manifest into out, transparently
// decompressing ".gz" manifests, then validates the struct.
func readManifest(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip manifest: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	if err := yaml.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if err := manifestValidator.Struct(out); err != nil {
		return fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return nil
}

// findManifest returns the first existing candidate among
// <dir>/manifest.yaml and <dir>/manifest.yaml.gz.
func findManifest(dir string) (string, error) {
	for _, name := range []string{"manifest.yaml", "manifest.yaml.gz"} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("no manifest found in %s", dir)
}
