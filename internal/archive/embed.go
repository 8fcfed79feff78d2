package archive

import (
	"archive/zip"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

// EmbedManifest hashes every non-manifest entry of archivePath
// (streamed, without extraction) and rewrites the archive with a
// fresh .act.hash entry at optimal compression, replacing any
// existing one outright. Earlier tooling used an update mode that
// only added an entry when absent, so a second full upload of a
// mutated archive kept a stale manifest; this always replaces it
// (spec.md §9 open question (c)).
func EmbedManifest(archivePath string) error {
	manifest, err := HashArchiveEntries(archivePath)
	if err != nil {
		return err
	}
	delete(manifest, ManifestFileName)

	tmp, err := os.CreateTemp("", "act-manifest-*.zip")
	if err != nil {
		return errors.Wrap(err, "create temp archive")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := rewriteWithManifest(archivePath, tmp, manifest); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp archive")
	}

	if err := replaceFile(tmpPath, archivePath); err != nil {
		return err
	}
	return nil
}

func rewriteWithManifest(archivePath string, dest *os.File, manifest Manifest) error {
	src, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrapf(err, "open archive %q", archivePath)
	}
	defer src.Close()

	zw := zip.NewWriter(dest)

	for _, entry := range src.File {
		if entry.Name == ManifestFileName {
			continue
		}
		if err := copyEntry(zw, entry); err != nil {
			_ = zw.Close()
			return err
		}
	}

	now := time.Now().UTC()
	header := &zip.FileHeader{
		Name:     ManifestFileName,
		Method:   zip.Deflate,
		Modified: now,
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		_ = zw.Close()
		return errors.Wrap(err, "create manifest entry")
	}
	if _, err := w.Write(manifest.Serialize()); err != nil {
		_ = zw.Close()
		return errors.Wrap(err, "write manifest entry")
	}

	return zw.Close()
}

func copyEntry(zw *zip.Writer, entry *zip.File) error {
	rc, err := entry.Open()
	if err != nil {
		return errors.Wrapf(err, "open entry %q", entry.Name)
	}
	defer rc.Close()

	w, err := zw.CreateHeader(&entry.FileHeader)
	if err != nil {
		return errors.Wrapf(err, "recreate entry %q", entry.Name)
	}
	if _, err := io.Copy(w, rc); err != nil {
		return errors.Wrapf(err, "copy entry %q", entry.Name)
	}
	return nil
}

// replaceFile overwrites dst with the content of src, falling back to
// a copy when they live on different filesystems (os.Rename fails
// across devices; the temp archive and final archive are both
// caller-controlled paths but may not share a volume).
func replaceFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "reopen temp archive")
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %q for replace", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrap(err, "copy into destination archive")
	}
	return out.Close()
}
