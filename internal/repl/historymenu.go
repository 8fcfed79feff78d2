package repl

import "github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/history"

// historyMenu tracks the filtered history list shown while the user
// types, and the originally-typed value to restore when navigation
// wraps past either end (spec.md §4.6 Up/Down key handling, Open
// Question (a)).
type historyMenu struct {
	store   *history.History
	typed   string
	matches []history.Match
	index   int // -1 means "typed value, menu hidden"
	visible bool
}

func newHistoryMenu(store *history.History) *historyMenu {
	return &historyMenu{store: store, index: -1}
}

// Filter (re)builds the match list for the given typed text. Called
// whenever the line changes while the menu would be relevant.
func (m *historyMenu) Filter(typed string) {
	m.typed = typed
	if typed == "" {
		m.matches = nil
		m.index = -1
		m.visible = false
		return
	}
	m.matches = m.store.SearchByPrefix(typed, 10)
	m.index = -1
}

// Hide dismisses the menu without altering the stored typed value.
func (m *historyMenu) Hide() {
	m.visible = false
	m.index = -1
}

// Visible reports whether the filtered menu is currently shown.
func (m *historyMenu) Visible() bool { return m.visible }

// Previous (Up) moves the selection one entry older. From the typed
// value it starts at the newest match; past the oldest match it wraps
// back to the typed value with the menu hidden.
func (m *historyMenu) Previous() (value string, menuVisible bool) {
	if len(m.matches) == 0 {
		return m.typed, false
	}
	switch {
	case m.index == -1:
		m.index = 0
	case m.index >= len(m.matches)-1:
		m.index = -1
		m.visible = false
		return m.typed, false
	default:
		m.index++
	}
	m.visible = true
	return m.matches[m.index].Command, true
}

// Next (Down) moves the selection one entry newer, wrapping past the
// newest match back to the typed value with the menu hidden.
func (m *historyMenu) Next() (value string, menuVisible bool) {
	if len(m.matches) == 0 {
		return m.typed, false
	}
	if m.index <= 0 {
		m.index = -1
		m.visible = false
		return m.typed, false
	}
	m.index--
	m.visible = true
	return m.matches[m.index].Command, true
}

// Selected returns the command currently highlighted in the menu, if
// the menu is visible.
func (m *historyMenu) Selected() (string, bool) {
	if !m.visible || m.index < 0 || m.index >= len(m.matches) {
		return "", false
	}
	return m.matches[m.index].Command, true
}
