package repl

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/history"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestREPL builds a REPL against a session pointed at a refused
// local port, so any shell write fails fast instead of hanging —
// Submit swallows that error, which is all these tests exercise.
func newTestREPL(t *testing.T) (*REPL, *session.HostSession) {
	t.Helper()
	sess := session.New("127.0.0.1", 1, session.Credential{Username: "u", Password: "p"}, 0)
	hist := history.New("repl-unit-test-host-unresolvable", 50)
	r := New(sess, hist, Options{ExitCommand: "quit"})
	return r, sess
}

func TestSubmitBlankLineIsNoop(t *testing.T) {
	r, _ := newTestREPL(t)
	var out bytes.Buffer
	result := r.Submit(context.Background(), &out)
	assert.Equal(t, SubmitNone, result.Kind)
	assert.Equal(t, "", out.String())
}

func TestSubmitExitCommandCaseInsensitive(t *testing.T) {
	r, _ := newTestREPL(t)
	r.Line().Set("QUIT")
	var out bytes.Buffer
	result := r.Submit(context.Background(), &out)
	assert.Equal(t, SubmitExit, result.Kind)
	assert.Equal(t, Exiting, r.State())
}

func TestSubmitLiteralExitWord(t *testing.T) {
	r, _ := newTestREPL(t)
	r.Line().Set("exit")
	result := r.Submit(context.Background(), &bytes.Buffer{})
	assert.Equal(t, SubmitExit, result.Kind)
}

func TestSubmitNestedCommandSetsPausedAndPending(t *testing.T) {
	r, _ := newTestREPL(t)
	r.Line().Set(":upload -s:3")
	var out bytes.Buffer
	result := r.Submit(context.Background(), &out)
	assert.Equal(t, SubmitNested, result.Kind)
	assert.Equal(t, "upload -s:3", result.Nested)
	assert.Equal(t, Paused, r.State())
	assert.Equal(t, "upload -s:3", r.PendingNested())
}

func TestNestedCommandIsRecordedInHistoryVerbatim(t *testing.T) {
	r, _ := newTestREPL(t)
	r.Line().Set(":about")
	r.Submit(context.Background(), &bytes.Buffer{})
	all := r.hist.All()
	require.NotEmpty(t, all)
	assert.Equal(t, ":about", all[len(all)-1])
}

func TestResumeAfterNestedDropsBufferAndReturnsLive(t *testing.T) {
	r, _ := newTestREPL(t)
	r.Line().Set(":about")
	r.Submit(context.Background(), &bytes.Buffer{})

	r.bufMu.Lock()
	r.buf.WriteString("stray output accumulated during dispatch")
	r.bufMu.Unlock()

	r.ResumeAfterNested()
	assert.Equal(t, Live, r.State())
	assert.Equal(t, "", r.PendingNested())
	assert.Equal(t, "", r.DrainOutput())
}

func TestSubmitAppliesAliasAndEchoesOriginalText(t *testing.T) {
	r, _ := newTestREPL(t)
	r.aliases = AliasMap{"ls": "dir"}
	r.Line().Set("LS -p:1")

	var out bytes.Buffer
	result := r.Submit(context.Background(), &out)
	assert.Equal(t, SubmitSent, result.Kind)
	assert.Equal(t, "dir -p:1", result.Sent)
	assert.Contains(t, out.String(), "LS -p:1", "echo shows the original text, not the mapped one")

	all := r.hist.All()
	assert.Equal(t, "LS -p:1", all[len(all)-1], "history records the original text")
}

func TestHandleKeyRuneInsertsIntoLine(t *testing.T) {
	r, _ := newTestREPL(t)
	r.HandleKey(context.Background(), &bytes.Buffer{}, Key{Kind: KeyRune, Rune: 'a'})
	r.HandleKey(context.Background(), &bytes.Buffer{}, Key{Kind: KeyRune, Rune: 'b'})
	assert.Equal(t, "ab", r.Line().Text())
}

func TestHandleKeyIgnoredWhenNotLive(t *testing.T) {
	r, _ := newTestREPL(t)
	r.mu.Lock()
	r.state = Paused
	r.mu.Unlock()
	result := r.HandleKey(context.Background(), &bytes.Buffer{}, Key{Kind: KeyRune, Rune: 'a'})
	assert.Equal(t, SubmitNone, result.Kind)
	assert.Equal(t, "", r.Line().Text())
}

func TestHandleKeyEscClearsLineWhenMenuHidden(t *testing.T) {
	r, _ := newTestREPL(t)
	r.Line().Set("partial")
	r.HandleKey(context.Background(), &bytes.Buffer{}, Key{Kind: KeyEsc})
	assert.Equal(t, "", r.Line().Text())
}

func TestOnShellDisconnectedMovesToReconnecting(t *testing.T) {
	r, _ := newTestREPL(t)
	r.OnShellDisconnected()
	assert.Equal(t, Reconnecting, r.State())
}

func TestOnShellReconnectedReturnsToLive(t *testing.T) {
	r, _ := newTestREPL(t)
	r.OnShellDisconnected()
	r.OnShellReconnected()
	assert.Equal(t, Live, r.State())
}

func TestDrainOutputStripsPromptAcrossCalls(t *testing.T) {
	r, _ := newTestREPL(t)
	r.bufMu.Lock()
	r.buf.WriteString("boot message\nDEVICE>")
	r.bufMu.Unlock()

	first := r.DrainOutput()
	assert.Contains(t, first, "boot message")

	r.bufMu.Lock()
	r.buf.WriteString("DEVICE> result line\nDEVICE>")
	r.bufMu.Unlock()

	second := r.DrainOutput()
	assert.NotContains(t, second, "DEVICE>")
	assert.Contains(t, second, "result line")
}

func TestNestedCommandRoundTripReturnsToLiveAndAcceptsNextSubmit(t *testing.T) {
	r, _ := newTestREPL(t)

	r.Line().Set(":config set verbose true")
	first := r.Submit(context.Background(), &bytes.Buffer{})
	require.Equal(t, SubmitNested, first.Kind)
	require.Equal(t, Paused, r.State())

	// Output produced by the device while the nested command ran out of
	// band should not leak into the resumed session.
	r.bufMu.Lock()
	r.buf.WriteString("unsolicited device chatter")
	r.bufMu.Unlock()

	r.ResumeAfterNested()
	require.Equal(t, Live, r.State())
	require.Equal(t, "", r.DrainOutput())

	r.Line().Set("progres")
	second := r.Submit(context.Background(), &bytes.Buffer{})
	assert.Equal(t, SubmitSent, second.Kind)
	assert.Equal(t, "progres", second.Sent)

	all := r.hist.All()
	require.Len(t, all, 2)
	assert.Equal(t, ":config set verbose true", all[0])
	assert.Equal(t, "progres", all[1])
}

func TestRunBackgroundReaderExitsOnContextCancel(t *testing.T) {
	r, _ := newTestREPL(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunBackgroundReader(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background reader did not exit after cancellation")
	}
}
