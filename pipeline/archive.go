package pipeline

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ResolveInput turns the user-supplied input path into the results root the
// discovery stage walks. A *.tar.gz / *.tgz file is unpacked into a
// temporary directory which cleanup removes; a directory is accepted either
// as the results root itself or as a parent containing a results/
// subdirectory. A path that is neither is a fatal input error.
func ResolveInput(input string) (root string, cleanup func() error, err error) {
	cleanup = func() error { return nil }

	info, err := os.Stat(input)
	if err != nil {
		return "", cleanup, errors.Wrapf(err, "input path not found: %s", input)
	}

	if !info.IsDir() {
		if !strings.HasSuffix(input, ".tar.gz") && !strings.HasSuffix(input, ".tgz") {
			return "", cleanup, errors.Errorf("input %s is neither a directory nor a .tar.gz archive", input)
		}
		tmp, err := os.MkdirTemp("", "usbip-results-")
		if err != nil {
			return "", cleanup, errors.Wrap(err, "create extraction directory")
		}
		cleanup = func() error { return os.RemoveAll(tmp) }
		if err := extractTarGz(input, tmp); err != nil {
			os.RemoveAll(tmp)
			return "", func() error { return nil }, err
		}
		if nested := filepath.Join(tmp, "results"); isDir(nested) {
			return nested, cleanup, nil
		}
		return tmp, cleanup, nil
	}

	if nested := filepath.Join(input, "results"); isDir(nested) {
		return nested, cleanup, nil
	}
	return input, cleanup, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func extractTarGz(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return errors.Wrapf(err, "open %s", archive)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gunzip %s", archive)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read tar %s", archive)
		}
		name := filepath.Clean(hdr.Name)
		if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			continue
		}
		target := filepath.Join(dest, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "create %s", target)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "create directory for %s", target)
			}
			out, err := os.Create(target)
			if err != nil {
				return errors.Wrapf(err, "create %s", target)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return errors.Wrapf(err, "extract %s", target)
			}
			if err := out.Close(); err != nil {
				return errors.Wrapf(err, "close %s", target)
			}
		default:
			// symlinks and the rest are not expected in results archives
		}
	}
}
