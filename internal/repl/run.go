package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	tickInterval     = 50 * time.Millisecond
	cursorBlinkEvery = 500 * time.Millisecond
)

// Run drives the REPL against the real terminal on in/out until the
// user exits, a nested command is requested, or ctx is cancelled. It
// puts the terminal in raw mode for the duration and restores it on
// return. Callers that need to dispatch a nested ":command" should
// call Run again (via ResumeAfterNested) to continue the session.
func Run(ctx context.Context, r *REPL, in *os.File, out io.Writer) (SubmitResult, error) {
	fd := int(in.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return SubmitResult{}, err
	}
	defer term.Restore(fd, oldState)

	go r.RunBackgroundReader(ctx)

	reader := bufio.NewReader(in)
	keyCh := make(chan Key)
	readErrCh := make(chan error, 1)
	go decodeKeys(reader, keyCh, readErrCh)

	blinkOn := false
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	lastBlink := time.Now()

	for {
		select {
		case <-ctx.Done():
			return SubmitResult{Kind: SubmitNone}, ctx.Err()
		case err := <-readErrCh:
			return SubmitResult{Kind: SubmitNone}, err
		case key := <-keyCh:
			result := r.HandleKey(ctx, out, key)
			if result.Kind != SubmitNone {
				renderLine(out, r, false)
				return result, nil
			}
			renderLine(out, r, blinkOn)
		case <-ticker.C:
			if chunk := r.DrainOutput(); chunk != "" {
				fmt.Fprint(out, chunk)
			}
			if time.Since(lastBlink) >= cursorBlinkEvery {
				blinkOn = !blinkOn
				lastBlink = time.Now()
			}
			renderLine(out, r, blinkOn)
		}
	}
}

// renderLine redraws the live input line, positioning the cursor by
// measured display width (mattn/go-runewidth accounts for wide
// runes the device's own terminal would also account for).
func renderLine(out io.Writer, r *REPL, blinkOn bool) {
	line := r.Line()
	text := line.Text()
	cursorWidth := runewidth.StringWidth(text[:line.Cursor()])

	cursorGlyph := " "
	if blinkOn {
		cursorGlyph = "█"
	}
	fmt.Fprintf(out, "\r\x1b[K%s", text)
	fmt.Fprintf(out, "\r\x1b[%dC%s", cursorWidth, cursorGlyph)
}

// decodeKeys translates raw terminal bytes into Key events. It
// recognizes common ANSI escape sequences for arrows/Home/End (with
// the xterm ";2" shift modifier) and a handful of control codes; any
// other control combination is swallowed per spec.md §4.6.
func decodeKeys(r *bufio.Reader, out chan<- Key, errCh chan<- error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			errCh <- err
			return
		}
		switch b {
		case 0x18: // Ctrl+X
			out <- Key{Kind: KeyCtrlX}
		case '\r', '\n':
			out <- Key{Kind: KeyEnter}
		case 0x7f, 0x08:
			out <- Key{Kind: KeyBackspace}
		case '\t':
			out <- Key{Kind: KeyTab}
		case 0x1b:
			out <- decodeEscape(r)
		default:
			if b < 0x20 {
				continue // other control combos are swallowed
			}
			rn, _, _ := decodeUTF8Rune(r, b)
			out <- Key{Kind: KeyRune, Rune: rn}
		}
	}
}

// decodeEscape consumes the remainder of an ANSI escape sequence
// after the ESC byte already read, translating arrow/Home/End/Delete
// sequences and the Alt+X combination (most terminals send Alt+key as
// ESC followed by the bare key byte, with no '[' prefix). A bare ESC
// (no following byte, or a following byte that matches nothing above)
// is reported as KeyEsc.
func decodeEscape(r *bufio.Reader) Key {
	b1, err := r.ReadByte()
	if err != nil {
		return Key{Kind: KeyEsc}
	}
	if b1 == 'x' || b1 == 'X' {
		return Key{Kind: KeyAltX}
	}
	if b1 != '[' {
		return Key{Kind: KeyEsc}
	}
	b2, err := r.ReadByte()
	if err != nil {
		return Key{Kind: KeyEsc}
	}

	shift := false
	final := b2
	if b2 >= '0' && b2 <= '9' {
		// Numeric CSI sequence, possibly with a ";2" shift modifier,
		// e.g. ESC [ 1 ; 2 C or ESC [ 3 ~ (Delete).
		digits := []byte{b2}
		for {
			nb, err := r.ReadByte()
			if err != nil {
				return Key{Kind: KeyEsc}
			}
			if nb == '~' {
				if string(digits) == "3" {
					return Key{Kind: KeyDelete}
				}
				return Key{Kind: KeyEsc}
			}
			if nb == ';' {
				mod, _ := r.ReadByte()
				shift = mod == '2'
				continue
			}
			if (nb >= 'A' && nb <= 'Z') || (nb >= 'a' && nb <= 'z') {
				final = nb
				break
			}
			digits = append(digits, nb)
		}
	}

	switch final {
	case 'A':
		return Key{Kind: KeyUp, Shift: shift}
	case 'B':
		return Key{Kind: KeyDown, Shift: shift}
	case 'C':
		return Key{Kind: KeyRight, Shift: shift}
	case 'D':
		return Key{Kind: KeyLeft, Shift: shift}
	case 'H':
		return Key{Kind: KeyHome, Shift: shift}
	case 'F':
		return Key{Kind: KeyEnd, Shift: shift}
	default:
		return Key{Kind: KeyEsc}
	}
}

// decodeUTF8Rune reassembles a multi-byte UTF-8 rune starting with
// lead, already consumed from r.
func decodeUTF8Rune(r *bufio.Reader, lead byte) (rune, int, error) {
	n := utf8SeqLen(lead)
	if n <= 1 {
		return rune(lead), 1, nil
	}
	buf := make([]byte, n)
	buf[0] = lead
	for i := 1; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return rune(lead), i, err
		}
		buf[i] = b
	}
	rn := []rune(string(buf))
	if len(rn) == 0 {
		return rune(lead), n, nil
	}
	return rn[0], n, nil
}

func utf8SeqLen(lead byte) int {
	switch {
	case lead&0x80 == 0:
		return 1
	case lead&0xE0 == 0xC0:
		return 2
	case lead&0xF0 == 0xE0:
		return 3
	case lead&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}
