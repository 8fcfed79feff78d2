// Package repl implements the interactive pass-through REPL (C6): a
// live line editor driving a background shell reader, with history
// navigation, command aliasing, and out-of-band ":command" dispatch.
package repl

import "unicode/utf8"

// Line is the in-progress input line, with a cursor position and an
// optional selection range. The selection invariant (spec.md §8) is
// maintained by every mutator: cursorPos always stays within
// [0, len(text)], and a non-empty selection always has distinct,
// in-range endpoints.
type Line struct {
	text   string
	cursor int

	hasSelection bool
	selStart     int
	selEnd       int
}

// Text returns the current line content.
func (l *Line) Text() string { return l.text }

// Cursor returns the current cursor position.
func (l *Line) Cursor() int { return l.cursor }

// Selection returns the selection range (start < end) and whether one
// exists.
func (l *Line) Selection() (start, end int, ok bool) {
	if !l.hasSelection {
		return 0, 0, false
	}
	return l.selStart, l.selEnd, true
}

// Set replaces the line content wholesale (used by history navigation
// and aliasing), placing the cursor at the end and clearing any
// selection.
func (l *Line) Set(text string) {
	l.text = text
	l.cursor = len(text)
	l.clearSelection()
}

// Reset clears the line back to empty.
func (l *Line) Reset() { l.Set("") }

func (l *Line) clearSelection() {
	l.hasSelection = false
	l.selStart, l.selEnd = 0, 0
}

func (l *Line) extendSelectionTo(newCursor int) {
	anchor := l.cursor
	if l.hasSelection {
		// Preserve the fixed end of the existing selection furthest
		// from the direction we're extending.
		if l.selStart == l.cursor {
			anchor = l.selEnd
		} else {
			anchor = l.selStart
		}
	}
	start, end := anchor, newCursor
	if start > end {
		start, end = end, start
	}
	if start == end {
		l.clearSelection()
		return
	}
	l.hasSelection, l.selStart, l.selEnd = true, start, end
}

// deleteSelection removes the selected range, if any, and places the
// cursor at its start. Reports whether a selection was deleted.
func (l *Line) deleteSelection() bool {
	if !l.hasSelection {
		return false
	}
	start, end := l.selStart, l.selEnd
	l.text = l.text[:start] + l.text[end:]
	l.cursor = start
	l.clearSelection()
	return true
}

// InsertRune inserts r at the cursor, first removing any selection.
func (l *Line) InsertRune(r rune) {
	l.deleteSelection()
	l.text = l.text[:l.cursor] + string(r) + l.text[l.cursor:]
	l.cursor++
}

// Backspace deletes the selection if any, else the rune before the cursor.
func (l *Line) Backspace() {
	if l.deleteSelection() {
		return
	}
	if l.cursor == 0 {
		return
	}
	_, size := utf8.DecodeLastRuneInString(l.text[:l.cursor])
	l.text = l.text[:l.cursor-size] + l.text[l.cursor:]
	l.cursor -= size
}

// Delete deletes the selection if any, else the rune at the cursor.
func (l *Line) Delete() {
	if l.deleteSelection() {
		return
	}
	if l.cursor >= len(l.text) {
		return
	}
	_, size := utf8.DecodeRuneInString(l.text[l.cursor:])
	l.text = l.text[:l.cursor] + l.text[l.cursor+size:]
}

// MoveLeft moves the cursor left by one rune. If shift is set, the
// selection extends; otherwise any selection is cleared.
func (l *Line) MoveLeft(shift bool) {
	if l.cursor == 0 {
		if !shift {
			l.clearSelection()
		}
		return
	}
	_, size := utf8.DecodeLastRuneInString(l.text[:l.cursor])
	target := l.cursor - size
	if shift {
		l.extendSelectionTo(target)
	} else {
		l.clearSelection()
	}
	l.cursor = target
}

// MoveRight moves the cursor right by one rune, mirroring MoveLeft.
func (l *Line) MoveRight(shift bool) {
	if l.cursor >= len(l.text) {
		if !shift {
			l.clearSelection()
		}
		return
	}
	_, size := utf8.DecodeRuneInString(l.text[l.cursor:])
	target := l.cursor + size
	if shift {
		l.extendSelectionTo(target)
	} else {
		l.clearSelection()
	}
	l.cursor = target
}

// Home moves the cursor to column 0.
func (l *Line) Home(shift bool) {
	if shift {
		l.extendSelectionTo(0)
	} else {
		l.clearSelection()
	}
	l.cursor = 0
}

// End moves the cursor to the end of the line.
func (l *Line) End(shift bool) {
	if shift {
		l.extendSelectionTo(len(l.text))
	} else {
		l.clearSelection()
	}
	l.cursor = len(l.text)
}
