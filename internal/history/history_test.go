package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnbackedHistory(maxSize int) *History {
	return &History{maxSize: maxSize, cursor: cursorEnd}
}

func TestSafeHostNameReplacesInvalidChars(t *testing.T) {
	assert.Equal(t, "10.0.0.1", SafeHostName("10.0.0.1"))
	assert.Equal(t, "host_name_with_slash", SafeHostName("host/name with/slash"))
}

func TestAddIgnoresBlank(t *testing.T) {
	h := newUnbackedHistory(10)
	h.Add("")
	h.Add("   ")
	assert.Equal(t, 0, h.Len())
}

func TestAddNoOpsOnImmediateRepeat(t *testing.T) {
	h := newUnbackedHistory(10)
	h.Add("status")
	h.Add("status")
	assert.Equal(t, []string{"status"}, h.All())
}

func TestAddEvictsOldestWhenOverMaxSize(t *testing.T) {
	h := newUnbackedHistory(2)
	h.Add("a")
	h.Add("b")
	h.Add("c")
	assert.Equal(t, []string{"b", "c"}, h.All())
}

func TestPreviousNextNavigation(t *testing.T) {
	h := newUnbackedHistory(10)
	h.Add("one")
	h.Add("two")
	h.Add("three")

	cmd, ok := h.Previous()
	require.True(t, ok)
	assert.Equal(t, "three", cmd)

	cmd, ok = h.Previous()
	require.True(t, ok)
	assert.Equal(t, "two", cmd)

	cmd, ok = h.Next()
	require.True(t, ok)
	assert.Equal(t, "three", cmd)

	cmd, ok = h.Next()
	require.True(t, ok)
	assert.Equal(t, "", cmd, "advancing past the newest entry returns the empty sentinel")
}

func TestPreviousAtOldestReturnsFalse(t *testing.T) {
	h := newUnbackedHistory(10)
	h.Add("only")
	_, _ = h.Previous()
	_, ok := h.Previous()
	assert.False(t, ok)
}

func TestRemoveCommand(t *testing.T) {
	h := newUnbackedHistory(10)
	h.Add("one")
	h.Add("two")
	h.Add("three")

	assert.True(t, h.RemoveCommand("two"))
	assert.Equal(t, []string{"one", "three"}, h.All())
	assert.False(t, h.RemoveCommand("missing"))
}

func TestSearchByPrefixCaseInsensitiveNewestFirst(t *testing.T) {
	h := newUnbackedHistory(10)
	h.Add("progload -p:1")
	h.Add("stopprog -p:1")
	h.Add("PROGLOAD -p:2")

	matches := h.SearchByPrefix("progload", 5)
	require.Len(t, matches, 2)
	assert.Equal(t, "PROGLOAD -p:2", matches[0].Command)
	assert.Equal(t, "progload -p:1", matches[1].Command)
	assert.Equal(t, 0, matches[0].Offset)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/host.history"

	h := &History{maxSize: DefaultMaxSize, cursor: cursorEnd, path: path}
	h.Add("first")
	h.Add("second")
	h.Save()

	reloaded := &History{maxSize: DefaultMaxSize, cursor: cursorEnd, path: path}
	reloaded.load()
	assert.Equal(t, []string{"first", "second"}, reloaded.All())
}

func TestLoadTrimsToMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/host.history"

	h := &History{maxSize: 5, cursor: cursorEnd, path: path}
	for _, c := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		h.Add(c)
	}
	h.Save()

	reloaded := &History{maxSize: 3, cursor: cursorEnd, path: path}
	reloaded.load()
	assert.Equal(t, []string{"e", "f", "g"}, reloaded.All())
}
