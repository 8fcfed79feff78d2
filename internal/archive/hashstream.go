package archive

import (
	"archive/zip"

	"github.com/pkg/errors"
)

// HashArchiveEntries hashes every non-directory entry of archivePath
// by streaming its bytes straight from the zip, without extracting to
// disk, keyed by the entry's slash-normalized name. Used both to
// satisfy the "hash agreement" property against ComputeHashOfFile and
// to build the manifest embedded into a full package prior to upload
// (spec.md §4.3, §8).
func HashArchiveEntries(archivePath string) (Manifest, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %q", archivePath)
	}
	defer r.Close()

	m := Manifest{}
	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "open entry %q", entry.Name)
		}
		digest, err := hashReader(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "hash entry %q", entry.Name)
		}
		if closeErr != nil {
			return nil, errors.Wrapf(closeErr, "close entry %q", entry.Name)
		}
		m[entry.Name] = digest
	}
	return m, nil
}
