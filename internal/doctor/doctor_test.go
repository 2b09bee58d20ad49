package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorebox-project/scorebox/internal/store"
	"github.com/scorebox-project/scorebox/pkg/model"
)

func findingCategories(r *Result) []string {
	var cats []string
	for _, f := range r.Findings {
		cats = append(cats, f.Category)
	}
	return cats
}

func TestCheckMissingStateDir(t *testing.T) {
	d := NewDoctor(filepath.Join(t.TempDir(), "nope"))
	result, err := d.Check(false)
	require.NoError(t, err)
	assert.False(t, result.Healthy)
	assert.Contains(t, findingCategories(result), "state")
}

func TestCheckConfiguredStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o700))

	st, err := store.Open(dir)
	require.NoError(t, err)
	require.NoError(t, st.Save(&model.Rubric{Points: &model.PointTable{}}))

	result, err := NewDoctor(dir).Check(false)
	require.NoError(t, err)
	for _, f := range result.Findings {
		assert.NotEqual(t, "critical", f.Severity, "finding: %+v", f)
		assert.NotEqual(t, "error", f.Severity, "finding: %+v", f)
	}
	assert.True(t, result.Healthy)
}

func TestCheckTamperedBlob(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(dir)
	require.NoError(t, err)
	require.NoError(t, st.Save(&model.Rubric{Points: &model.PointTable{}}))

	path := filepath.Join(dir, "rubric.enc")
	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	result, err := NewDoctor(dir).Check(false)
	require.NoError(t, err)
	assert.False(t, result.Healthy)
	assert.Contains(t, findingCategories(result), "rubric")
}

func TestCheckKeyFilePermissions(t *testing.T) {
	dir := t.TempDir()
	_, err := store.Open(dir)
	require.NoError(t, err)
	require.NoError(t, os.Chmod(filepath.Join(dir, "rubric.key"), 0o644))

	result, err := NewDoctor(dir).Check(false)
	require.NoError(t, err)
	assert.False(t, result.Healthy)

	var found bool
	for _, f := range result.Findings {
		if f.Category == "key" && f.Severity == "error" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckUnconfiguredIsInfoOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o700))

	result, err := NewDoctor(dir).Check(false)
	require.NoError(t, err)
	assert.True(t, result.Healthy)

	var rubricSeverity string
	for _, f := range result.Findings {
		if f.Category == "rubric" {
			rubricSeverity = f.Severity
		}
	}
	assert.Equal(t, "info", rubricSeverity)
}

func TestCheckOrphanTmp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scorebox-tmp-123"), nil, 0o600))

	result, err := NewDoctor(dir).Check(false)
	require.NoError(t, err)

	var found bool
	for _, f := range result.Findings {
		if f.Description == "orphan temp file from an interrupted write" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckStrictVerifiesHistory(t *testing.T) {
	dir := t.TempDir()
	// A malformed history file only fails under --strict.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.jsonl"), []byte("not json\n"), 0o644))

	result, err := NewDoctor(dir).Check(false)
	require.NoError(t, err)
	assert.NotContains(t, findingCategories(result), "history")

	result, err = NewDoctor(dir).Check(true)
	require.NoError(t, err)
	assert.Contains(t, findingCategories(result), "history")
}
