// Package pipeline discovers experiment runs under a results tree, drives
// the extractors over each run's artifacts and assembles the flat report
// tables. It implements the two results layouts the experiment runners
// produced: flat per-run directories marked by a profile.env file, and
// nested run/case directories.
package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// ProfileMarker is the file whose presence identifies a flat-layout run
// directory.
const ProfileMarker = "profile.env"

// DiscoverRuns walks root and returns the directories containing a
// profile.env marker, sorted by path. An empty tree yields an empty slice,
// not an error.
func DiscoverRuns(root string) ([]string, error) {
	var runs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == ProfileMarker {
			runs = append(runs, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", root)
	}
	sort.Strings(runs)
	return runs, nil
}

// CaseDir is one discovered case in the nested results layout
// results/<run_id>/<case_id>/.
type CaseDir struct {
	RunID  string
	CaseID string
	Path   string
}

// DiscoverCases lists the two-level run/case directories under root in
// sorted order, skipping non-directory entries at both levels.
func DiscoverCases(root string) ([]CaseDir, error) {
	runEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", root)
	}
	var cases []CaseDir
	for _, run := range sortedDirs(runEntries) {
		runPath := filepath.Join(root, run)
		caseEntries, err := os.ReadDir(runPath)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", runPath)
		}
		for _, c := range sortedDirs(caseEntries) {
			cases = append(cases, CaseDir{
				RunID:  run,
				CaseID: c,
				Path:   filepath.Join(runPath, c),
			})
		}
	}
	return cases, nil
}

func sortedDirs(entries []os.DirEntry) []string {
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
