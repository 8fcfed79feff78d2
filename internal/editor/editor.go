// Package editor implements a minimal modal-free text editor: a line
// buffer with cursor movement and in-place editing, backing
// `actl edit <file>`. It operates on a local path directly, or (via
// LoadRemote) downloads a remote file through a
// session.HostSession, edits the local copy, and uploads it back on
// Save.
package editor

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Buffer is an in-memory, line-oriented text document with a single
// cursor position.
type Buffer struct {
	lines []string
	row   int
	col   int
}

// New returns an empty one-line buffer.
func New() *Buffer {
	return &Buffer{lines: []string{""}}
}

// Load reads path into a fresh buffer. A missing file yields an empty
// buffer rather than an error, matching editor semantics for "create
// on save."
func Load(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, errors.Wrapf(err, "read %q", path)
	}
	return FromString(string(data)), nil
}

// FromString splits s into a buffer, cursor at the start.
func FromString(s string) *Buffer {
	lines := strings.Split(s, "\n")
	if len(lines) == 0 {
		lines = []string{""}
	}
	return &Buffer{lines: lines}
}

// String renders the buffer back to a newline-joined document.
func (b *Buffer) String() string {
	return strings.Join(b.lines, "\n")
}

// Save writes the buffer to path, creating it if absent.
func (b *Buffer) Save(path string) error {
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, "write %q", path)
	}
	return nil
}

// Cursor returns the current (row, col), both zero-based.
func (b *Buffer) Cursor() (row, col int) { return b.row, b.col }

// LineCount returns the number of lines in the buffer.
func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns the text of line i.
func (b *Buffer) Line(i int) string { return b.lines[i] }

func (b *Buffer) currentLine() string { return b.lines[b.row] }

func (b *Buffer) clampCol() {
	if b.col > len(b.currentLine()) {
		b.col = len(b.currentLine())
	}
	if b.col < 0 {
		b.col = 0
	}
}

// InsertRune inserts r at the cursor and advances the cursor past it.
func (b *Buffer) InsertRune(r rune) {
	line := b.currentLine()
	b.lines[b.row] = line[:b.col] + string(r) + line[b.col:]
	b.col++
}

// InsertNewline splits the current line at the cursor into two lines.
func (b *Buffer) InsertNewline() {
	line := b.currentLine()
	before, after := line[:b.col], line[b.col:]
	b.lines[b.row] = before
	tail := append([]string{after}, b.lines[b.row+1:]...)
	b.lines = append(b.lines[:b.row+1], tail...)
	b.row++
	b.col = 0
}

// DeleteBackward removes the rune before the cursor (Backspace),
// joining with the previous line at column 0.
func (b *Buffer) DeleteBackward() {
	if b.col > 0 {
		line := b.currentLine()
		b.lines[b.row] = line[:b.col-1] + line[b.col:]
		b.col--
		return
	}
	if b.row == 0 {
		return
	}
	prevLen := len(b.lines[b.row-1])
	b.lines[b.row-1] += b.lines[b.row]
	b.lines = append(b.lines[:b.row], b.lines[b.row+1:]...)
	b.row--
	b.col = prevLen
}

// DeleteForward removes the rune at the cursor (Delete), joining with
// the next line when at end-of-line.
func (b *Buffer) DeleteForward() {
	line := b.currentLine()
	if b.col < len(line) {
		b.lines[b.row] = line[:b.col] + line[b.col+1:]
		return
	}
	if b.row == len(b.lines)-1 {
		return
	}
	b.lines[b.row] += b.lines[b.row+1]
	b.lines = append(b.lines[:b.row+1], b.lines[b.row+2:]...)
}

// MoveLeft moves the cursor one rune left, wrapping to the previous
// line's end.
func (b *Buffer) MoveLeft() {
	if b.col > 0 {
		b.col--
		return
	}
	if b.row > 0 {
		b.row--
		b.col = len(b.currentLine())
	}
}

// MoveRight moves the cursor one rune right, wrapping to the next
// line's start.
func (b *Buffer) MoveRight() {
	if b.col < len(b.currentLine()) {
		b.col++
		return
	}
	if b.row < len(b.lines)-1 {
		b.row++
		b.col = 0
	}
}

// MoveUp moves the cursor to the same column on the previous line.
func (b *Buffer) MoveUp() {
	if b.row == 0 {
		return
	}
	b.row--
	b.clampCol()
}

// MoveDown moves the cursor to the same column on the next line.
func (b *Buffer) MoveDown() {
	if b.row == len(b.lines)-1 {
		return
	}
	b.row++
	b.clampCol()
}

// Home moves the cursor to the start of the current line.
func (b *Buffer) Home() { b.col = 0 }

// End moves the cursor to the end of the current line.
func (b *Buffer) End() { b.col = len(b.currentLine()) }
