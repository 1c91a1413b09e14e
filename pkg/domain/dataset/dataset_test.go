package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesectools/sastbench/pkg/domain/cwe"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

func fileUnit(name string, hasVuln bool, cwes ...cwe.ID) Unit {
	return Unit{Kind: KindFile, File: &FileUnit{
		Name:    name,
		Content: []byte("class A {}"),
		CWEs:    cwe.NewSet(cwes...),
		HasVuln: hasVuln,
	}}
}

func repoUnit(name string, hasVuln bool, cwes ...cwe.ID) Unit {
	return Unit{Kind: KindRepo, Repo: &RepoUnit{
		Name:    name,
		URL:     "https://github.com/example/" + name,
		Commit:  "0123456789abcdef0123456789abcdef01234567",
		CWEs:    cwe.NewSet(cwes...),
		Files:   map[string]struct{}{"src/App.java": {}},
		HasVuln: hasVuln,
	}}
}

func TestNew_PreservesUnitOrder(t *testing.T) {
	units := []Unit{
		fileUnit("b.java", true, "CWE-89"),
		fileUnit("a.java", false),
		fileUnit("c.java", true, "CWE-79"),
	}

	ds, err := New("BenchmarkJava", "java", KindFile, units)
	require.NoError(t, err)

	require.Len(t, ds.Units, 3)
	assert.Equal(t, "b.java", ds.Units[0].Name())
	assert.Equal(t, "a.java", ds.Units[1].Name())
	assert.Equal(t, "c.java", ds.Units[2].Name())
}

func TestNew_RejectsMixedKinds(t *testing.T) {
	units := []Unit{
		fileUnit("a.java", true, "CWE-89"),
		repoUnit("repo-1", true, "CWE-79"),
	}

	_, err := New("Mixed", "java", KindFile, units)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestUnitValidate(t *testing.T) {
	tests := []struct {
		name    string
		unit    Unit
		wantErr bool
	}{
		{"valid vulnerable file", fileUnit("a.java", true, "CWE-89"), false},
		{"valid safe file without cwes", fileUnit("a.java", false), false},
		{"safe file with cwes is allowed", fileUnit("a.java", false, "CWE-89"), false},
		{"vulnerable file without cwes", fileUnit("a.java", true), true},
		{"vulnerable repo without cwes", repoUnit("r", true), true},
		{"file unit with repo payload", Unit{Kind: KindFile, Repo: &RepoUnit{Name: "r"}}, true},
		{"unnamed file unit", fileUnit("", false), true},
		{"unknown kind", Unit{Kind: "archive"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.unit.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUnitValidate_RepoNeedsURLAndCommit(t *testing.T) {
	u := repoUnit("r", true, "CWE-89")
	u.Repo.Commit = ""

	err := u.Validate()
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestFullName(t *testing.T) {
	ds, err := New("BenchmarkJava", "java", KindFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "BenchmarkJava_java", ds.FullName())
}

func TestCounts(t *testing.T) {
	ds, err := New("d", "go", KindFile, []Unit{
		fileUnit("a.go", true, "CWE-89", "CWE-79"),
		fileUnit("b.go", true, "CWE-22"),
		fileUnit("c.go", false),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, ds.VulnerableCount())
	assert.Equal(t, 3, ds.LabeledCWEs())
}
