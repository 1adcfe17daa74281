package pipeline

import (
	"archive/tar"
	"compress/gzip"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(body)),
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

// tarUpDir archives dir's files under prefix/ into a tar.gz at archive.
func tarUpDir(t *testing.T, dir, prefix, archive string) {
	t.Helper()
	f, err := os.Create(archive)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		hdr := &tar.Header{
			Name:     prefix + "/" + filepath.ToSlash(rel),
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(data)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		_, err = tw.Write(data)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

func TestResolveInputDirectory(t *testing.T) {
	dir := t.TempDir()
	root, cleanup, err := ResolveInput(dir)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, dir, root)
}

func TestResolveInputPrefersResultsSubdir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "results", "run_a"), 0o755))

	root, cleanup, err := ResolveInput(dir)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, filepath.Join(dir, "results"), root)
}

func TestResolveInputArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bundle.tar.gz")
	writeTarGz(t, archive, map[string]string{
		"results/run_a/profile.env": "DELAY=20ms\n",
	})

	root, cleanup, err := ResolveInput(archive)
	require.NoError(t, err)

	assert.Equal(t, "results", filepath.Base(root))
	data, err := os.ReadFile(filepath.Join(root, "run_a", ProfileMarker))
	require.NoError(t, err)
	assert.Equal(t, "DELAY=20ms\n", string(data))

	require.NoError(t, cleanup())
	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestResolveInputArchiveWithoutResultsDir(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bundle.tgz")
	writeTarGz(t, archive, map[string]string{
		"run_a/profile.env": "DELAY=0ms\n",
	})

	root, cleanup, err := ResolveInput(archive)
	require.NoError(t, err)
	defer cleanup()

	_, err = os.Stat(filepath.Join(root, "run_a", ProfileMarker))
	assert.NoError(t, err)
}

func TestResolveInputArchiveSkipsTraversalEntries(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.tar.gz")
	writeTarGz(t, archive, map[string]string{
		"../escape.txt":  "nope",
		"run_a/safe.txt": "ok",
	})

	root, cleanup, err := ResolveInput(archive)
	require.NoError(t, err)
	defer cleanup()

	_, err = os.Stat(filepath.Join(root, "run_a", "safe.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestResolveInputMissingPath(t *testing.T) {
	_, _, err := ResolveInput(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestResolveInputPlainFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, _, err := ResolveInput(path)
	assert.Error(t, err)
}
