package addressbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXadr = `[lobby-panel]
Host=10.0.0.5
Port=22
Username=crestron
Password=hunter2

[rack-processor]
Host=10.0.0.6
Username=crestron
`

func TestParseLocationsSplitsOnSemicolonAndComma(t *testing.T) {
	locs := ParseLocations("a.xadr; b.xadr,  c.xadr ")
	assert.Equal(t, []string{"a.xadr", "b.xadr", "c.xadr"}, locs)
}

func TestLoadReadsEntriesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.xadr")
	require.NoError(t, os.WriteFile(path, []byte(sampleXadr), 0o644))

	book, err := Load([]string{path})
	require.NoError(t, err)

	entry, ok := book.Lookup("lobby-panel")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.5", entry.Host)
	assert.Equal(t, 22, entry.Port)
	assert.True(t, entry.HasCredentials())

	noCreds, ok := book.Lookup("rack-processor")
	require.True(t, ok)
	assert.False(t, noCreds.HasCredentials(), "entry without password or key lacks credentials")
}

func TestLoadFromDirectoryGlobsXadrFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "book.xadr"), []byte(sampleXadr), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not an xadr file"), 0o644))

	book, err := Load([]string{dir})
	require.NoError(t, err)
	assert.Len(t, book.All(), 2)
}

func TestLookupByHostCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.xadr")
	require.NoError(t, os.WriteFile(path, []byte(sampleXadr), 0o644))

	book, err := Load([]string{path})
	require.NoError(t, err)

	entry, ok := book.LookupByHost("10.0.0.5")
	require.True(t, ok)
	assert.Equal(t, "lobby-panel", entry.Name)
}
