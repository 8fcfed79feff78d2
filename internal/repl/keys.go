package repl

// KeyKind identifies a logical key event the foreground loop reacts
// to, independent of how the terminal driver decoded the raw bytes.
type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyTab
	KeyEsc
	KeyCtrlX
	KeyAltX
)

// Key is one decoded input event. Shift applies to the arrow/Home/End
// keys for selection extension (spec.md §4.6).
type Key struct {
	Kind  KeyKind
	Rune  rune
	Shift bool
}
