package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// ErrConnectionFailed is returned when a reconnect episode exhausts
// its bound without reaching Connected.
var ErrConnectionFailed = errors.New("connection failed")

// HostSession is the per-host connection object described in
// spec.md §3: it owns a shell channel and an SFTP channel to one
// host, lazily connecting each on first use. Reconnection runs as one
// shared episode that retries every channel still needed.
type HostSession struct {
	host string
	port int
	cred Credential

	mu                  sync.Mutex
	shellState          ChannelState
	shellAttempt        int
	ftState             ChannelState
	ftAttempt           int
	maxReconnectAttempts int
	shellNeeded         bool
	ftNeeded            bool
	reconnecting        bool
	reconnectCancel     context.CancelFunc
	reconnectDone       chan struct{}
	episodeErr          error

	shellClient *ssh.Client
	shell       *shellChannel

	ftClient   *ssh.Client
	sftpClient *sftp.Client

	listenersMu sync.Mutex
	listeners   []EventListener

	disposed bool
}

// New creates a HostSession. Channels are not connected until first use.
func New(host string, port int, cred Credential, maxReconnectAttempts int) *HostSession {
	return &HostSession{
		host:                 host,
		port:                 port,
		cred:                 cred,
		shellState:           Idle,
		ftState:              Idle,
		maxReconnectAttempts: maxReconnectAttempts,
	}
}

func (h *HostSession) addr() string {
	return hostAddr(h.host, h.port)
}

// SetMaxReconnectAttempts updates the bound; it is honored on the next failure.
func (h *HostSession) SetMaxReconnectAttempts(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxReconnectAttempts = n
}

// AddListener registers an observer for status/connect/disconnect events.
func (h *HostSession) AddListener(l EventListener) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, l)
}

// RemoveListener de-registers a previously added listener.
func (h *HostSession) RemoveListener(l EventListener) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	for i, existing := range h.listeners {
		if existing == l {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			return
		}
	}
}

func (h *HostSession) snapshotListeners() []EventListener {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	out := make([]EventListener, len(h.listeners))
	copy(out, h.listeners)
	return out
}

func (h *HostSession) emitStatus(ch Channel, state ChannelState, attempt, maxAttempts int) {
	ev := StatusEvent{Channel: ch, State: state, Attempt: attempt, MaxAttempts: maxAttempts}
	for _, l := range h.snapshotListeners() {
		l.OnStatusChanged(ev)
	}
}

func (h *HostSession) emitDisconnected(ch Channel) {
	for _, l := range h.snapshotListeners() {
		if ch == ShellChannel {
			l.OnShellDisconnected()
		} else {
			l.OnFileTransferDisconnected()
		}
	}
}

func (h *HostSession) emitReconnected(ch Channel) {
	for _, l := range h.snapshotListeners() {
		if ch == ShellChannel {
			l.OnShellReconnected()
		} else {
			l.OnFileTransferReconnected()
		}
	}
}

// Status returns a snapshot of both channels' current state.
func (h *HostSession) Status() ConnectionStatusModel {
	h.mu.Lock()
	defer h.mu.Unlock()
	return ConnectionStatusModel{
		HostAddress:             h.host,
		ShellState:              h.shellState,
		ShellAttempt:            h.shellAttempt,
		ShellMaxAttempts:        h.maxReconnectAttempts,
		FileTransferState:       h.ftState,
		FileTransferAttempt:     h.ftAttempt,
		FileTransferMaxAttempts: h.maxReconnectAttempts,
	}
}

// ConnectShell idempotently brings the shell channel to Connected.
func (h *HostSession) ConnectShell(ctx context.Context) error {
	h.mu.Lock()
	h.shellNeeded = true
	if h.shellState == Connected {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()
	return h.connectShellLocked(ctx, true)
}

// ConnectFileTransfer idempotently brings the SFTP channel to Connected.
func (h *HostSession) ConnectFileTransfer(ctx context.Context) error {
	h.mu.Lock()
	h.ftNeeded = true
	if h.ftState == Connected {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()
	return h.connectFileTransferLocked(ctx, true)
}

// connectShellLocked performs the shell handshake. When an initial
// attempt fails and maxReconnectAttempts == 0, the error propagates
// directly per spec.md §4.1/§7; otherwise a reconnect episode is
// started and awaited synchronously (with reconnection disabled, that
// episode fails at once with ErrConnectionFailed).
func (h *HostSession) connectShellLocked(ctx context.Context, initial bool) error {
	h.setShellState(Connecting, 0)
	client, shell, err := h.attemptShellDial()
	if err == nil {
		h.mu.Lock()
		h.shellClient, h.shell = client, shell
		h.mu.Unlock()
		h.setShellState(Connected, 0)
		go keepaliveLoop(client, h.guardedShellLost)
		return nil
	}
	if initial && h.maxAttempts() == 0 {
		h.setShellState(ConnectionFailed, 0)
		return err
	}
	h.setShellState(LostConnection, 0)
	return h.startReconnect(ctx)
}

func (h *HostSession) connectFileTransferLocked(ctx context.Context, initial bool) error {
	h.setFTState(Connecting, 0)
	client, sc, err := h.attemptFTDial()
	if err == nil {
		h.mu.Lock()
		h.ftClient, h.sftpClient = client, sc
		h.mu.Unlock()
		h.setFTState(Connected, 0)
		go keepaliveLoop(client, h.guardedFileTransferLost)
		return nil
	}
	if initial && h.maxAttempts() == 0 {
		h.setFTState(ConnectionFailed, 0)
		return err
	}
	h.setFTState(LostConnection, 0)
	return h.startReconnect(ctx)
}

// attemptShellDial makes one unconditional attempt to establish the
// shell channel; it does not touch session state.
func (h *HostSession) attemptShellDial() (*ssh.Client, *shellChannel, error) {
	cfg, err := buildSSHConfig(h.cred)
	if err != nil {
		return nil, nil, err
	}
	client, err := dial(h.addr(), cfg)
	if err != nil {
		return nil, nil, err
	}
	shell, err := newShellChannel(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, shell, nil
}

// attemptFTDial makes one unconditional attempt to establish the SFTP channel.
func (h *HostSession) attemptFTDial() (*ssh.Client, *sftp.Client, error) {
	cfg, err := buildSSHConfig(h.cred)
	if err != nil {
		return nil, nil, err
	}
	client, err := dial(h.addr(), cfg)
	if err != nil {
		return nil, nil, err
	}
	sc, err := newSFTPClient(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, sc, nil
}

func (h *HostSession) maxAttempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxReconnectAttempts
}

func (h *HostSession) setShellState(s ChannelState, attempt int) {
	h.mu.Lock()
	h.shellState = s
	if attempt > 0 {
		h.shellAttempt = attempt
	}
	max := h.maxReconnectAttempts
	h.mu.Unlock()
	h.emitStatus(ShellChannel, s, attempt, max)
}

func (h *HostSession) setFTState(s ChannelState, attempt int) {
	h.mu.Lock()
	h.ftState = s
	if attempt > 0 {
		h.ftAttempt = attempt
	}
	max := h.maxReconnectAttempts
	h.mu.Unlock()
	h.emitStatus(FileTransferChannel, s, attempt, max)
}

// Dispose cancels any in-flight reconnect (waiting up to 5s) and force
// closes both channels. Cleanup errors are swallowed.
func (h *HostSession) Dispose() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	cancel := h.reconnectCancel
	done := h.reconnectDone
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	}

	h.mu.Lock()
	shell, shellClient := h.shell, h.shellClient
	sftpClient, ftClient := h.sftpClient, h.ftClient
	h.mu.Unlock()

	if shell != nil {
		_ = shell.close()
	}
	if shellClient != nil {
		_ = shellClient.Close()
	}
	if sftpClient != nil {
		_ = sftpClient.Close()
	}
	if ftClient != nil {
		_ = ftClient.Close()
	}
}
