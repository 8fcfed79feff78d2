package archive

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NewExtractionDir creates a fresh, uniquely-named temp directory
// under the OS temp root to extract one program archive into,
// avoiding collisions between concurrent invocations.
func NewExtractionDir() (string, error) {
	dir := filepath.Join(os.TempDir(), "actl-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create extraction dir")
	}
	return dir, nil
}

// Extract expands archivePath (a .cpz/.clz/.lpz, which are all plain
// zip files) into destDir, preserving each entry's last-modified time
// on the extracted file (spec.md §4.3).
func Extract(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrapf(err, "open archive %q", archivePath)
	}
	defer r.Close()

	for _, entry := range r.File {
		if err := extractEntry(entry, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(entry *zip.File, destDir string) error {
	cleanName := path.Clean("/" + filepath.ToSlash(entry.Name))[1:]
	target := filepath.Join(destDir, filepath.FromSlash(cleanName))

	if strings.HasSuffix(entry.Name, "/") || entry.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "mkdir parent of %q", target)
	}

	rc, err := entry.Open()
	if err != nil {
		return errors.Wrapf(err, "open entry %q", entry.Name)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode().Perm()|0o200)
	if err != nil {
		return errors.Wrapf(err, "create %q", target)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return errors.Wrapf(err, "write %q", target)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "close %q", target)
	}

	modTime := entry.Modified
	if modTime.IsZero() {
		modTime = entry.FileInfo().ModTime()
	}
	if err := os.Chtimes(target, modTime, modTime); err != nil {
		return errors.Wrapf(err, "set mtime on %q", target)
	}
	return nil
}

// WalkFiles returns every regular file under root as a slash-normalized
// path relative to root.
func WalkFiles(root string) ([]string, error) {
	return walkFiles(root)
}

// walkFiles returns every regular file under root as a slash-normalized
// path relative to root.
func walkFiles(root string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %q", root)
	}
	return out, nil
}
