package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingListener captures every StatusEvent for assertions, guarded
// by its own mutex since events can arrive from multiple goroutines
// during a reconnect episode.
type recordingListener struct {
	NopListener
	mu     sync.Mutex
	events []StatusEvent
}

func (r *recordingListener) OnStatusChanged(ev StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingListener) snapshot() []StatusEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StatusEvent, len(r.events))
	copy(out, r.events)
	return out
}

// unreachableCred/unreachableHost target a closed local port: the TCP
// dial fails immediately with "connection refused" instead of timing
// out, so these tests run fast without a fake SSH server.
const unreachableHost = "127.0.0.1"

func unreachablePort(t *testing.T) int {
	t.Helper()
	return 1 // traditionally closed / requires privilege; refused immediately in CI sandboxes
}

func TestConnectShellFailsImmediatelyWhenReconnectDisabled(t *testing.T) {
	h := New(unreachableHost, unreachablePort(t), Credential{Username: "u", Password: "p"}, 0)
	l := &recordingListener{}
	h.AddListener(l)

	err := h.ConnectShell(context.Background())
	require.Error(t, err)

	status := h.Status()
	assert.Equal(t, ConnectionFailed, status.ShellState)

	for _, ev := range l.snapshot() {
		if ev.Channel == ShellChannel {
			assert.NotEqual(t, Reconnecting, ev.State, "disabled reconnect must not enter Reconnecting")
		}
	}
}

func TestReconnectBoundedAttemptsReachesConnectionFailed(t *testing.T) {
	h := New(unreachableHost, unreachablePort(t), Credential{Username: "u", Password: "p"}, 2)
	l := &recordingListener{}
	h.AddListener(l)

	err := h.ConnectFileTransfer(context.Background())
	require.ErrorIs(t, err, ErrConnectionFailed)

	status := h.Status()
	assert.Equal(t, ConnectionFailed, status.FileTransferState)
	assert.Equal(t, 2, status.FileTransferAttempt)

	var reconnectingAttempts []int
	for _, ev := range l.snapshot() {
		if ev.Channel == FileTransferChannel && ev.State == Reconnecting {
			reconnectingAttempts = append(reconnectingAttempts, ev.Attempt)
		}
	}
	assert.Equal(t, []int{1, 2}, reconnectingAttempts, "exactly one Reconnecting event per bounded attempt")
}

func TestStartReconnectDedupesConcurrentCallers(t *testing.T) {
	h := New(unreachableHost, unreachablePort(t), Credential{Username: "u", Password: "p"}, 1)
	l := &recordingListener{}
	h.AddListener(l)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = h.ConnectShell(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrConnectionFailed)
	}

	var reconnectingAttempts []int
	for _, ev := range l.snapshot() {
		if ev.Channel == ShellChannel && ev.State == Reconnecting {
			reconnectingAttempts = append(reconnectingAttempts, ev.Attempt)
		}
	}
	assert.Equal(t, []int{1}, reconnectingAttempts, "both callers must await the same in-flight episode")
}

func TestDisposeCancelsInFlightReconnect(t *testing.T) {
	h := New(unreachableHost, unreachablePort(t), Credential{Username: "u", Password: "p"}, -1)

	go func() {
		_ = h.ConnectShell(context.Background())
	}()

	// give the episode time to enter its backoff wait before disposing
	time.Sleep(50 * time.Millisecond)
	h.Dispose()

	h.mu.Lock()
	disposed := h.disposed
	h.mu.Unlock()
	assert.True(t, disposed)
}
