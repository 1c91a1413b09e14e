// Package dataset defines the ground-truth data model used to
// benchmark SAST tools: a named, immutable, ordered collection of
// labeled units. A dataset holds either file units or repository
// units, never a mix; consumers dispatch on Kind.
package dataset

import (
	"fmt"

	"github.com/codesectools/sastbench/pkg/domain/cwe"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

// Kind discriminates the two unit variants.
type Kind string

// Dataset unit kinds.
const (
	KindFile Kind = "file"
	KindRepo Kind = "repo"
)

// Unit is one ground-truth record. Exactly one of File or Repo is set,
// according to Kind.
type Unit struct {
	Kind Kind
	File *FileUnit
	Repo *RepoUnit
}

// FileUnit is a single labeled source file. The file itself is the
// analysis root, so every finding attributed to the unit resolves to
// it by construction.
type FileUnit struct {
	Name    string
	Content []byte
	CWEs    cwe.Set
	HasVuln bool
}

// RepoUnit is a labeled Git repository checkout. Files lists the paths
// known to carry the labeled weakness; a location match on any one of
// them counts as a hit.
type RepoUnit struct {
	Name    string
	URL     string
	Commit  string
	Size    int64
	CWEs    cwe.Set
	Files   map[string]struct{}
	HasVuln bool
}

// Name returns the unit's identifier regardless of variant.
func (u Unit) Name() string {
	switch u.Kind {
	case KindFile:
		return u.File.Name
	case KindRepo:
		return u.Repo.Name
	}
	return ""
}

// CWEs returns the unit's labeled weaknesses regardless of variant.
func (u Unit) CWEs() cwe.Set {
	switch u.Kind {
	case KindFile:
		return u.File.CWEs
	case KindRepo:
		return u.Repo.CWEs
	}
	return nil
}

// HasVuln reports whether the unit's ground truth labels it vulnerable.
func (u Unit) HasVuln() bool {
	switch u.Kind {
	case KindFile:
		return u.File.HasVuln
	case KindRepo:
		return u.Repo.HasVuln
	}
	return false
}

// Validate enforces the unit invariants: the variant matching Kind is
// populated and a vulnerable unit carries at least one CWE.
func (u Unit) Validate() error {
	switch u.Kind {
	case KindFile:
		if u.File == nil || u.Repo != nil {
			return shared.NewDomainError("DATASET", "file unit shape mismatch", shared.ErrValidation)
		}
	case KindRepo:
		if u.Repo == nil || u.File != nil {
			return shared.NewDomainError("DATASET", "repo unit shape mismatch", shared.ErrValidation)
		}
		if u.Repo.URL == "" || u.Repo.Commit == "" {
			return shared.NewDomainError("DATASET", fmt.Sprintf("repo unit %s missing url or commit", u.Repo.Name), shared.ErrValidation)
		}
	default:
		return shared.NewDomainError("DATASET", fmt.Sprintf("unknown unit kind %q", u.Kind), shared.ErrValidation)
	}

	if u.Name() == "" {
		return shared.NewDomainError("DATASET", "unit name is required", shared.ErrValidation)
	}
	if u.HasVuln() && u.CWEs().Len() == 0 {
		return shared.NewDomainError("DATASET", fmt.Sprintf("vulnerable unit %s has no labeled CWEs", u.Name()), shared.ErrValidation)
	}
	return nil
}

// Dataset is a named, ordered collection of one unit variant. It is
// immutable once constructed.
type Dataset struct {
	Name       string
	Language   string
	License    string
	LicenseURL string
	Kind       Kind
	Units      []Unit
}

// New constructs a Dataset, validating each unit and rejecting mixed
// unit kinds. Unit order is preserved.
func New(name, language string, kind Kind, units []Unit) (*Dataset, error) {
	if name == "" {
		return nil, shared.NewDomainError("DATASET", "dataset name is required", shared.ErrValidation)
	}
	for i, u := range units {
		if err := u.Validate(); err != nil {
			return nil, fmt.Errorf("unit %d: %w", i, err)
		}
		if u.Kind != kind {
			return nil, shared.NewDomainError("DATASET",
				fmt.Sprintf("unit %s has kind %q, dataset is %q", u.Name(), u.Kind, kind), shared.ErrValidation)
		}
	}
	return &Dataset{Name: name, Language: language, Kind: kind, Units: units}, nil
}

// FullName returns the language-qualified dataset name, e.g.
// "BenchmarkJava_java".
func (d *Dataset) FullName() string {
	return d.Name + "_" + d.Language
}

// VulnerableCount returns the number of units labeled vulnerable.
func (d *Dataset) VulnerableCount() int {
	n := 0
	for _, u := range d.Units {
		if u.HasVuln() {
			n++
		}
	}
	return n
}

// LabeledCWEs returns the total ground-truth (unit, cwe) pair count.
// This is the denominator budget the validator must account for.
func (d *Dataset) LabeledCWEs() int {
	n := 0
	for _, u := range d.Units {
		n += u.CWEs().Len()
	}
	return n
}
