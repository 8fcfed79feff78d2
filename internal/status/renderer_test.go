package status

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestRendererPrintsConnectedLine(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.OnStatusChanged(session.StatusEvent{Channel: session.ShellChannel, State: session.Connected})
	assert.Contains(t, buf.String(), "[shell] connected")
}

func TestRendererPrintsReconnectingWithBound(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.OnStatusChanged(session.StatusEvent{
		Channel:     session.FileTransferChannel,
		State:       session.Reconnecting,
		Attempt:     2,
		MaxAttempts: 5,
	})
	assert.Contains(t, buf.String(), "attempt 2 of 5")
}

func TestRendererPrintsReconnectingWithoutBound(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.OnStatusChanged(session.StatusEvent{Channel: session.ShellChannel, State: session.Reconnecting, Attempt: 3})
	out := buf.String()
	assert.Contains(t, out, "attempt 3")
	assert.False(t, strings.Contains(out, " of "))
}

func TestRendererImplementsEventListener(t *testing.T) {
	var _ session.EventListener = (*Renderer)(nil)
}

func TestProgressReporterUpdateAndDone(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf, "app.lpz", 100)
	p.Update(50)
	p.Done()
	out := buf.String()
	assert.Contains(t, out, "50/100 bytes (50%)")
	assert.Contains(t, out, "app.lpz: done")
}
