package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractManifestEntry(archivePath string) ([]byte, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	for _, entry := range r.File {
		if entry.Name == ManifestFileName {
			rc, err := entry.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, os.ErrNotExist
}

func TestManifestSerializeIsSortedAndRoundTrips(t *testing.T) {
	m := Manifest{
		"b/two.txt": "BBBB",
		"a/one.txt": "AAAA",
	}
	serialized := m.Serialize()
	lines := strings.Split(strings.TrimRight(string(serialized), "\n"), "\n")
	require.Equal(t, []string{"a/one.txt=aaaa", "b/two.txt=bbbb"}, lines)

	parsed, err := ParseManifest(strings.NewReader(string(serialized)))
	require.NoError(t, err)
	assert.Equal(t, Manifest{"a/one.txt": "aaaa", "b/two.txt": "bbbb"}, parsed)
}

func TestParseManifestFileMissingIsNotError(t *testing.T) {
	m, err := ParseManifestFile(filepath.Join(t.TempDir(), "nope.hash"))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestParseManifestRejectsMalformedLine(t *testing.T) {
	_, err := ParseManifest(strings.NewReader("no-equals-sign\n"))
	assert.Error(t, err)
}

func TestComputeHashOfFileIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello world"), 0o644))

	h1, err := ComputeHashOfFile(p)
	require.NoError(t, err)
	h2, err := ComputeHashOfFile(p)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestComputeManifestForTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("A"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("B"), 0o644))

	m, err := ComputeManifestForTree(dir)
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Contains(t, m, "a.txt")
	assert.Contains(t, m, "sub/b.txt")
}

// buildTestZip writes a minimal zip archive with the given name=content
// entries and returns its path.
func buildTestZip(t *testing.T, dir string, entries map[string]string) string {
	t.Helper()
	archivePath := filepath.Join(dir, "prog.lpz")
	f, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Unix(1704067200, 0).UTC()})
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return archivePath
}

func TestHashArchiveEntriesAgreesWithComputeHashOfFile(t *testing.T) {
	dir := t.TempDir()
	archivePath := buildTestZip(t, dir, map[string]string{"readme.txt": "same bytes"})

	extracted := filepath.Join(dir, "extracted", "readme.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(extracted), 0o755))
	require.NoError(t, os.WriteFile(extracted, []byte("same bytes"), 0o644))

	fromFile, err := ComputeHashOfFile(extracted)
	require.NoError(t, err)

	fromArchive, err := HashArchiveEntries(archivePath)
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromArchive["readme.txt"])
}

func TestExtractPreservesModTime(t *testing.T) {
	dir := t.TempDir()
	archivePath := buildTestZip(t, dir, map[string]string{"a.txt": "content"})
	destDir := filepath.Join(dir, "out")

	require.NoError(t, Extract(archivePath, destDir))

	info, err := os.Stat(filepath.Join(destDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, int64(1704067200), info.ModTime().UTC().Unix())
}

func TestEmbedManifestReplacesExistingEntry(t *testing.T) {
	dir := t.TempDir()
	archivePath := buildTestZip(t, dir, map[string]string{
		"a.txt":         "content",
		ManifestFileName: "stale=deadbeef\n",
	})

	require.NoError(t, EmbedManifest(archivePath))

	m, err := HashArchiveEntries(archivePath)
	require.NoError(t, err)
	assert.Contains(t, m, "a.txt")

	embedded, err := extractManifestEntry(archivePath)
	require.NoError(t, err)
	assert.NotContains(t, string(embedded), "stale=deadbeef")
	assert.Contains(t, string(embedded), "a.txt=")
}
