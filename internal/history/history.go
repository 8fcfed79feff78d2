// Package history implements the per-host persisted command history
// used by the interactive REPL: a deduplicated, size-bounded,
// cursor-navigable list of previously submitted commands (spec.md §4.5).
package history

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// DefaultMaxSize is the default history depth per host.
const DefaultMaxSize = 50

// cursorEnd is the sentinel cursor position representing "empty
// current input" — one past the last stored command.
const cursorEnd = -1

// History is one host's command history.
type History struct {
	host    string
	maxSize int
	path    string

	commands []string
	cursor   int
}

var unsafeHostChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SafeHostName replaces filesystem-invalid characters in host with '_'.
func SafeHostName(host string) string {
	return unsafeHostChars.ReplaceAllString(host, "_")
}

// Dir returns the directory all per-host history files live under.
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "locate home directory")
	}
	return filepath.Join(home, ".local", "share", "AvConsoleToolkit", "History"), nil
}

// PathFor returns the history file path for host.
func PathFor(host string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SafeHostName(host)+".history"), nil
}

// New loads (or initializes) the history for host from disk.
// Load failures are swallowed per spec.md §4.5 — history is best-effort.
func New(host string, maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	h := &History{host: host, maxSize: maxSize, cursor: cursorEnd}
	if p, err := PathFor(host); err == nil {
		h.path = p
		h.load()
	}
	return h
}

func (h *History) load() {
	f, err := os.Open(h.path)
	if err != nil {
		return
	}
	defer f.Close()

	var commands []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		commands = append(commands, line)
	}
	if len(commands) > h.maxSize {
		commands = commands[len(commands)-h.maxSize:]
	}
	h.commands = commands
	h.cursor = cursorEnd
}

// Save persists the history to disk. Errors are swallowed.
func (h *History) Save() {
	if h.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return
	}
	tmp := h.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return
	}
	w := bufio.NewWriter(f)
	for _, c := range h.commands {
		_, _ = w.WriteString(c)
		_, _ = w.WriteString("\n")
	}
	if w.Flush() != nil {
		f.Close()
		return
	}
	if f.Close() != nil {
		return
	}
	_ = os.Rename(tmp, h.path)
}

// Add records cmd, ignoring blanks and no-op-ing (but resetting the
// cursor) on an immediate repeat of the last entry (spec.md §4.5).
func (h *History) Add(cmd string) {
	if strings.TrimSpace(cmd) == "" {
		return
	}
	if len(h.commands) > 0 && h.commands[len(h.commands)-1] == cmd {
		h.cursor = cursorEnd
		return
	}
	h.commands = append(h.commands, cmd)
	for len(h.commands) > h.maxSize {
		h.commands = h.commands[1:]
	}
	h.cursor = cursorEnd
}

// Len reports the number of stored commands.
func (h *History) Len() int { return len(h.commands) }

// All returns a copy of the stored commands, oldest first.
func (h *History) All() []string {
	out := make([]string, len(h.commands))
	copy(out, h.commands)
	return out
}

// Previous moves the cursor one step toward older entries and returns
// the command there, or ("", false) if already at the oldest.
func (h *History) Previous() (string, bool) {
	if len(h.commands) == 0 {
		return "", false
	}
	if h.cursor == cursorEnd {
		h.cursor = len(h.commands) - 1
		return h.commands[h.cursor], true
	}
	if h.cursor == 0 {
		return "", false
	}
	h.cursor--
	return h.commands[h.cursor], true
}

// Next moves the cursor one step toward newer entries. Advancing past
// the newest entry returns ("", true) representing the empty
// current-input sentinel.
func (h *History) Next() (string, bool) {
	if h.cursor == cursorEnd {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.commands) {
		h.cursor = cursorEnd
		return "", true
	}
	return h.commands[h.cursor], true
}

// ResetCursor returns the cursor to the end-of-input sentinel.
func (h *History) ResetCursor() { h.cursor = cursorEnd }

// RemoveCommand removes the first entry equal to cmd, adjusting the
// cursor so it still points at the same logical position where possible.
func (h *History) RemoveCommand(cmd string) bool {
	for i, c := range h.commands {
		if c == cmd {
			h.commands = append(h.commands[:i], h.commands[i+1:]...)
			if h.cursor != cursorEnd && h.cursor >= i {
				h.cursor--
				if h.cursor < 0 {
					h.cursor = cursorEnd
				}
			}
			return true
		}
	}
	return false
}

// Match is one search hit from SearchByPrefix, carrying the offset of
// the match within Command for caller-side highlighting.
type Match struct {
	Command string
	Offset  int
}

// SearchByPrefix returns up to k entries (newest first) whose command
// contains query as a case-insensitive substring.
func (h *History) SearchByPrefix(query string, k int) []Match {
	if query == "" || k <= 0 {
		return nil
	}
	lowerQuery := strings.ToLower(query)
	var out []Match
	for i := len(h.commands) - 1; i >= 0 && len(out) < k; i-- {
		cmd := h.commands[i]
		offset := strings.Index(strings.ToLower(cmd), lowerQuery)
		if offset >= 0 {
			out = append(out, Match{Command: cmd, Offset: offset})
		}
	}
	return out
}
