package repl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/history"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
)

// SubmitKind classifies the outcome of Submit.
type SubmitKind int

const (
	SubmitNone SubmitKind = iota
	SubmitSent
	SubmitNested
	SubmitExit
)

// SubmitResult reports what became of a submitted line.
type SubmitResult struct {
	Kind   SubmitKind
	Sent   string // the text actually written to the device, for SubmitSent
	Nested string // the ":command" remainder, for SubmitNested
}

// Options configures a REPL instance.
type Options struct {
	ExitCommand string
	Aliases     AliasMap
}

// REPL drives one interactive pass-through session: a live line
// editor in the foreground, a background shell reader, and
// out-of-band dispatch of ":command" lines (spec.md §4.6, C6).
type REPL struct {
	session.NopListener

	sess    *session.HostSession
	hist    *history.History
	menu    *historyMenu
	aliases AliasMap
	exitCmd string

	line     Line
	detector PromptDetector

	mu            sync.Mutex
	state         State
	pendingNested string

	bufMu sync.Mutex
	buf   bytes.Buffer

	reconnectedCh chan struct{}
}

// New builds a REPL bound to sess, recording submitted commands in
// hist.
func New(sess *session.HostSession, hist *history.History, opts Options) *REPL {
	r := &REPL{
		sess:          sess,
		hist:          hist,
		menu:          newHistoryMenu(hist),
		aliases:       opts.Aliases,
		exitCmd:       opts.ExitCommand,
		state:         Live,
		reconnectedCh: make(chan struct{}, 1),
	}
	sess.AddListener(r)
	return r
}

// Close unregisters the REPL from its session's event stream.
func (r *REPL) Close() {
	r.sess.RemoveListener(r)
}

// State returns the REPL's current mode.
func (r *REPL) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Line exposes the live input line for rendering by the terminal driver.
func (r *REPL) Line() *Line { return &r.line }

// PendingNested returns the nested command remainder recorded by the
// most recent SubmitNested result, for the host CLI to dispatch.
func (r *REPL) PendingNested() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingNested
}

// OnShellDisconnected implements session.EventListener: it moves the
// REPL to Reconnecting so the live loop stops rendering stale state.
func (r *REPL) OnShellDisconnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Live {
		r.state = Reconnecting
	}
}

// OnShellReconnected implements session.EventListener: it resumes Live
// without forcing an initial prompt render (spec.md §4.6 "on resume,
// no initial prompt is printed").
func (r *REPL) OnShellReconnected() {
	r.mu.Lock()
	if r.state == Reconnecting {
		r.state = Live
	}
	r.mu.Unlock()
	select {
	case r.reconnectedCh <- struct{}{}:
	default:
	}
}

// RunBackgroundReader blocks reading shell output into the shared
// buffer until ctx is cancelled or the REPL exits. Exactly one of
// these should run per session (spec.md §4.6 concurrency model).
func (r *REPL) RunBackgroundReader(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if r.State() == Exiting {
			return
		}
		data, err := r.sess.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transient disconnects are reported via the listener
			// callbacks above; wait for recovery before reading again.
			select {
			case <-r.reconnectedCh:
			case <-ctx.Done():
				return
			}
			continue
		}
		if len(data) == 0 {
			continue
		}
		r.bufMu.Lock()
		r.buf.Write(data)
		r.bufMu.Unlock()
	}
}

// DrainOutput removes everything accumulated in the shared buffer and
// runs it through the prompt-stripping display pipeline (spec.md §4.6
// step 1). Returns "" if there is nothing to show.
func (r *REPL) DrainOutput() string {
	r.bufMu.Lock()
	raw := r.buf.String()
	r.buf.Reset()
	r.bufMu.Unlock()
	if raw == "" {
		return ""
	}
	return r.detector.ProcessChunk(raw)
}

// DiscardOutput drops any buffered shell output without rendering it
// (spec.md §4.6: after a nested command dispatch completes).
func (r *REPL) DiscardOutput() {
	r.bufMu.Lock()
	r.buf.Reset()
	r.bufMu.Unlock()
}

// ResumeAfterNested drops buffered output accumulated during the pause
// and returns the REPL to Live.
func (r *REPL) ResumeAfterNested() {
	r.DiscardOutput()
	r.mu.Lock()
	r.pendingNested = ""
	r.state = Live
	r.mu.Unlock()
}

// echo writes the user's original text locally, prefixed by the
// detected device prompt (or a generic one if not yet known).
func (r *REPL) echo(w io.Writer, text string) {
	prompt := r.detector.Prompt()
	if prompt == "" {
		prompt = ">"
	}
	fmt.Fprintf(w, "%s %s\n", prompt, text)
}

// Submit applies the spec.md §4.6 submit rules to the current line and
// resets it. w receives the local echo of sent commands.
func (r *REPL) Submit(ctx context.Context, w io.Writer) SubmitResult {
	text := strings.TrimSpace(r.line.Text())
	if text == "" {
		r.line.Reset()
		return SubmitResult{Kind: SubmitNone}
	}

	if strings.EqualFold(text, r.exitCmd) || strings.EqualFold(text, "exit") {
		r.line.Reset()
		r.performExit(ctx)
		return SubmitResult{Kind: SubmitExit}
	}

	if strings.HasPrefix(text, ":") {
		remainder := strings.TrimSpace(strings.TrimPrefix(text, ":"))
		r.hist.Add(text)
		r.mu.Lock()
		r.pendingNested = remainder
		r.state = Paused
		r.mu.Unlock()
		r.line.Reset()
		return SubmitResult{Kind: SubmitNested, Nested: remainder}
	}

	mapped := r.aliases.Apply(text)
	r.echo(w, text)
	r.hist.Add(text)
	r.line.Reset()
	_ = r.sess.WriteLine(ctx, mapped)
	return SubmitResult{Kind: SubmitSent, Sent: mapped}
}

func (r *REPL) performExit(ctx context.Context) {
	r.mu.Lock()
	r.state = Exiting
	r.mu.Unlock()
	if r.sess.Status().ShellState == session.Connected {
		_ = r.sess.WriteLine(ctx, r.exitCmd)
		time.Sleep(500 * time.Millisecond)
	}
}

// HandleKey applies one decoded key event to the line editor and
// history navigation, per the spec.md §4.6 key map. ctx is used for
// the Tab key's device write and for Ctrl+X's exit sequence.
func (r *REPL) HandleKey(ctx context.Context, w io.Writer, k Key) SubmitResult {
	if r.State() != Live {
		return SubmitResult{Kind: SubmitNone}
	}

	switch k.Kind {
	case KeyRune:
		r.line.InsertRune(k.Rune)
		r.menu.Filter(r.line.Text())
	case KeyBackspace:
		r.line.Backspace()
		r.menu.Filter(r.line.Text())
	case KeyDelete:
		r.line.Delete()
		r.menu.Filter(r.line.Text())
	case KeyLeft:
		r.line.MoveLeft(k.Shift)
	case KeyRight:
		r.line.MoveRight(k.Shift)
	case KeyHome:
		r.line.Home(k.Shift)
	case KeyEnd:
		r.line.End(k.Shift)
	case KeyEnter:
		return r.Submit(ctx, w)
	case KeyTab:
		_ = r.sess.WriteRaw(ctx, []byte(r.line.Text()+"\t"))
	case KeyEsc:
		if r.menu.Visible() {
			r.menu.Hide()
		} else {
			r.line.Reset()
			r.menu.Filter("")
		}
	case KeyUp:
		r.navigateHistory(true)
	case KeyDown:
		r.navigateHistory(false)
	case KeyAltX:
		if cmd, ok := r.menu.Selected(); ok {
			r.hist.RemoveCommand(cmd)
			r.menu.Filter(r.line.Text())
		}
	case KeyCtrlX:
		r.line.Reset()
		r.performExit(ctx)
		return SubmitResult{Kind: SubmitExit}
	}
	return SubmitResult{Kind: SubmitNone}
}

// navigateHistory implements the Up/Down key rule: if a filtered
// history list exists for the current line, navigate it (wrapping to
// the originally typed value with the menu hidden); otherwise walk
// the persisted history directly.
func (r *REPL) navigateHistory(older bool) {
	if len(r.menu.matches) > 0 {
		var value string
		if older {
			value, _ = r.menu.Previous()
		} else {
			value, _ = r.menu.Next()
		}
		r.line.Set(value)
		return
	}
	var value string
	var ok bool
	if older {
		value, ok = r.hist.Previous()
	} else {
		value, ok = r.hist.Next()
	}
	if ok {
		r.line.Set(value)
	}
}
