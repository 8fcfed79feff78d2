package editor

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// RunInteractive drives an in-terminal editing session over buf: it
// puts the terminal in raw mode, renders the buffer, and applies
// keystrokes until Ctrl+X (save and exit) or Esc (discard and exit).
// Returns true if the buffer should be saved.
func RunInteractive(buf *Buffer, in *os.File, out io.Writer) (save bool, err error) {
	fd := int(in.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return false, err
	}
	defer term.Restore(fd, oldState)

	reader := bufio.NewReader(in)
	render(out, buf)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return false, err
		}
		switch b {
		case 0x18: // Ctrl+X: save and exit
			return true, nil
		case 0x1b: // Esc: discard and exit
			return false, nil
		case '\r', '\n':
			buf.InsertNewline()
		case 0x7f, 0x08:
			buf.DeleteBackward()
		default:
			if b < 0x20 {
				continue
			}
			buf.InsertRune(rune(b))
		}
		render(out, buf)
	}
}

func render(out io.Writer, buf *Buffer) {
	fmt.Fprint(out, "\x1b[2J\x1b[H")
	for i := 0; i < buf.LineCount(); i++ {
		fmt.Fprintln(out, buf.Line(i))
	}
	fmt.Fprint(out, "\r\n-- Ctrl+X save & exit, Esc discard --\r\n")
}
