// Package status renders a HostSession's connection lifecycle to a
// terminal, the "C7 status renderer" external collaborator that
// observes session.EventListener callbacks and turns them into
// colorized, human-readable lines (spec.md's data-flow sketch: "C1
// synchronously emits status transitions that both the REPL and the
// upload progress renderer observe").
package status

import (
	"fmt"
	"io"
	"sync"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
)

// ANSI SGR codes used for status lines. Writers are expected to be
// wrapped with mattn/go-colorable so these render correctly on
// Windows consoles that don't natively interpret escape sequences.
const (
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[1;31m"
	colorReset  = "\x1b[0m"
)

// Renderer is a session.EventListener that prints each transition to
// an underlying writer, one line per event, serialized by a mutex
// since events can arrive from the background keepalive/reconnect
// goroutines as well as the foreground caller.
type Renderer struct {
	session.NopListener

	mu  sync.Mutex
	out io.Writer
}

// New builds a Renderer writing to out, which should already be
// wrapped with colorable.NewColorable on Windows.
func New(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) line(colorCode, format string, args ...any) {
	fmt.Fprintf(r.out, colorCode+format+colorReset+"\n", args...)
}

// OnStatusChanged prints the channel's new state, including attempt
// counters while reconnecting.
func (r *Renderer) OnStatusChanged(ev session.StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.State {
	case session.Connected:
		r.line(colorGreen, "[%s] connected", ev.Channel)
	case session.Reconnecting:
		if ev.MaxAttempts > 0 {
			r.line(colorYellow, "[%s] reconnecting (attempt %d of %d)", ev.Channel, ev.Attempt, ev.MaxAttempts)
		} else {
			r.line(colorYellow, "[%s] reconnecting (attempt %d)", ev.Channel, ev.Attempt)
		}
	case session.ConnectionFailed:
		r.line(colorRed, "[%s] connection failed after %d attempt(s)", ev.Channel, ev.Attempt)
	case session.LostConnection:
		r.line(colorYellow, "[%s] connection lost", ev.Channel)
	}
}

// OnShellDisconnected reports a shell drop outside the normal
// reconnect status stream (e.g. while the REPL is blocked reading).
func (r *Renderer) OnShellDisconnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.line(colorYellow, "shell disconnected; waiting to reconnect")
}

// OnShellReconnected announces shell recovery.
func (r *Renderer) OnShellReconnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.line(colorGreen, "shell reconnected")
}

// OnFileTransferDisconnected reports an SFTP channel drop.
func (r *Renderer) OnFileTransferDisconnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.line(colorYellow, "file transfer channel disconnected; waiting to reconnect")
}

// OnFileTransferReconnected announces SFTP recovery.
func (r *Renderer) OnFileTransferReconnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.line(colorGreen, "file transfer channel reconnected")
}
