// Package archive implements the program-archive and hash-manifest
// engine: extracting .cpz/.clz/.lpz packages, computing and comparing
// SHA-256 content manifests, embedding a manifest back into an
// archive, and parsing the auxiliary .dip IP-table definition.
package archive

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Manifest maps a slash-normalized relative path to the lowercase hex
// SHA-256 digest of that file's content (spec.md §3 HashManifest).
type Manifest map[string]string

// ManifestFileName is the well-known remote and embedded manifest entry name.
const ManifestFileName = ".act.hash"

// ParseManifest reads "relPath=hex" lines, one per line, UTF-8.
// Blank lines are ignored; a line without '=' is a format error.
func ParseManifest(r io.Reader) (Manifest, error) {
	m := Manifest{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			return nil, errors.Errorf("malformed manifest line: %q", line)
		}
		m[line[:idx]] = strings.ToLower(line[idx+1:])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan manifest")
	}
	return m, nil
}

// ParseManifestFile reads a manifest from disk. A missing file is not
// an error; it returns a nil Manifest per spec.md §4.3.
func ParseManifestFile(localPath string) (Manifest, error) {
	f, err := os.Open(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "open manifest %q", localPath)
	}
	defer f.Close()
	return ParseManifest(f)
}

// Serialize renders the manifest as sorted "relPath=hex\n" lines, so
// the same tree always produces byte-identical output regardless of
// filesystem enumeration order (spec.md §8 "Deterministic manifest").
func (m Manifest) Serialize() []byte {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	for _, p := range paths {
		fmt.Fprintf(&buf, "%s=%s\n", p, strings.ToLower(m[p]))
	}
	return buf.Bytes()
}

// hashOf returns the hash recorded for rp and whether one exists
// (hashes are already lowercased on parse).
func (m Manifest) hashOf(rp string) (string, bool) {
	h, ok := m[rp]
	return h, ok
}

// ComputeHashOfFile returns the lowercase hex SHA-256 digest of a local file.
func ComputeHashOfFile(localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrapf(err, "open %q", localPath)
	}
	defer f.Close()
	return hashReader(f)
}

func hashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", errors.Wrap(err, "hash")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ComputeManifestForTree walks root and hashes every regular file,
// keying each by its slash-normalized path relative to root.
func ComputeManifestForTree(root string) (Manifest, error) {
	m := Manifest{}
	entries, err := walkFiles(root)
	if err != nil {
		return nil, err
	}
	for _, rel := range entries {
		digest, err := ComputeHashOfFile(path.Join(root, rel))
		if err != nil {
			return nil, err
		}
		m[rel] = digest
	}
	return m, nil
}
