package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestDiscoverRuns(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "run_b", ProfileMarker))
	touch(t, filepath.Join(root, "run_a", ProfileMarker))
	// markers anywhere under root count, not just at depth one
	touch(t, filepath.Join(root, "batch", "run_c", ProfileMarker))
	// directories without the marker are not runs
	touch(t, filepath.Join(root, "stray", "notes.txt"))

	runs, err := DiscoverRuns(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "batch", "run_c"),
		filepath.Join(root, "run_a"),
		filepath.Join(root, "run_b"),
	}, runs)
}

func TestDiscoverRunsEmpty(t *testing.T) {
	runs, err := DiscoverRuns(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDiscoverCases(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "run_b", "case_1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "run_a", "case_2"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "run_a", "case_1"), 0o755))
	// loose files at either level are skipped
	touch(t, filepath.Join(root, "summary.csv"))
	touch(t, filepath.Join(root, "run_a", "README"))

	cases, err := DiscoverCases(root)
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, CaseDir{RunID: "run_a", CaseID: "case_1", Path: filepath.Join(root, "run_a", "case_1")}, cases[0])
	assert.Equal(t, "case_2", cases[1].CaseID)
	assert.Equal(t, "run_b", cases[2].RunID)
}

func TestDiscoverCasesMissingRoot(t *testing.T) {
	_, err := DiscoverCases(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
