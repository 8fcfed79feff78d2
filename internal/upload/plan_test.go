package upload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/archive"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLocalFile(t *testing.T, root, rel, content string, modTime time.Time) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(p, modTime, modTime))
}

func TestPlanDeltaEmptyWhenTreesMatch(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeLocalFile(t, root, "a.txt", "hello", base)

	hash, err := archive.ComputeHashOfFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)

	remote := map[string]session.DirEntry{
		"a.txt": {Path: "a.txt", ModTime: base},
	}
	manifest := archive.Manifest{"a.txt": hash}

	changes, err := planDelta(root, remote, manifest)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestPlanDeltaNewFile(t *testing.T) {
	root := t.TempDir()
	base := time.Now().UTC()
	writeLocalFile(t, root, "new.txt", "x", base)

	changes, err := planDelta(root, map[string]session.DirEntry{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"new.txt"}, changes)
}

func TestPlanDeltaHashOverridesMtime(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeLocalFile(t, root, "a.txt", "same bytes", base)

	hash, err := archive.ComputeHashOfFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)

	remote := map[string]session.DirEntry{
		"a.txt": {Path: "a.txt", ModTime: base.Add(10 * time.Second)},
	}
	manifest := archive.Manifest{"a.txt": hash}

	changes, err := planDelta(root, remote, manifest)
	require.NoError(t, err)
	assert.Empty(t, changes, "matching hash overrides a 10s mtime gap")
}

func TestPlanDeltaTimestampToleranceWithoutManifest(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeLocalFile(t, root, "a.txt", "content", base)

	remote := map[string]session.DirEntry{
		"a.txt": {Path: "a.txt", ModTime: base.Add(1 * time.Second)},
	}

	changes, err := planDelta(root, remote, nil)
	require.NoError(t, err)
	assert.Empty(t, changes, "1s drift is within the 2s tolerance")
}

func TestPlanDeltaTimestampBeyondTolerance(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeLocalFile(t, root, "a.txt", "content", base)

	remote := map[string]session.DirEntry{
		"a.txt": {Path: "a.txt", ModTime: base.Add(3 * time.Second)},
	}

	changes, err := planDelta(root, remote, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, changes)
}
