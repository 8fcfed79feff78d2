package session

import (
	"context"
	"sync"
	"time"
)

// startReconnect ensures a single reconnect episode is running for
// whatever channels are currently needed, and blocks the calling
// goroutine until that episode resolves (Connected for every needed
// channel, or terminal ConnectionFailed). At most one episode runs
// per session at a time; concurrent callers all await the same one.
func (h *HostSession) startReconnect(ctx context.Context) error {
	h.mu.Lock()
	if h.reconnecting {
		done := h.reconnectDone
		h.mu.Unlock()
		return h.awaitEpisode(ctx, done)
	}
	h.reconnecting = true
	episodeCtx, cancel := context.WithCancel(context.Background())
	h.reconnectCancel = cancel
	done := make(chan struct{})
	h.reconnectDone = done
	h.mu.Unlock()

	go func() {
		err := h.runReconnectEpisode(episodeCtx)
		h.mu.Lock()
		h.reconnecting = false
		h.reconnectCancel = nil
		h.episodeErr = err
		h.mu.Unlock()
		close(done)
	}()

	return h.awaitEpisode(ctx, done)
}

// awaitEpisode blocks until either the episode's done channel closes
// (returning whatever error that episode finished with) or ctx is
// cancelled first.
func (h *HostSession) awaitEpisode(ctx context.Context, done chan struct{}) error {
	select {
	case <-done:
		h.mu.Lock()
		err := h.episodeErr
		h.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runReconnectEpisode drives both channels' Reconnecting/ConnectionFailed
// cycle in lock-step, sharing one attempt counter and one backoff
// delay, per spec.md §4.1: "when both channels are needed,
// reconnection attempts them in parallel and the episode succeeds
// only when every channel needed ... has reached Connected."
func (h *HostSession) runReconnectEpisode(ctx context.Context) error {
	attempt := 0
	for {
		h.mu.Lock()
		needShell := h.shellNeeded && h.shellState != Connected
		needFT := h.ftNeeded && h.ftState != Connected
		maxAttempts := h.maxReconnectAttempts
		h.mu.Unlock()

		if !needShell && !needFT {
			return nil
		}
		if maxAttempts == 0 {
			// Reconnection is disabled: fail the needed channels without retrying.
			if needShell {
				h.setShellState(ConnectionFailed, attempt)
			}
			if needFT {
				h.setFTState(ConnectionFailed, attempt)
			}
			return ErrConnectionFailed
		}

		attempt++
		var wg sync.WaitGroup
		if needShell {
			h.setShellState(Reconnecting, attempt)
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.reconnectShellOnce(attempt)
			}()
		}
		if needFT {
			h.setFTState(Reconnecting, attempt)
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.reconnectFTOnce(attempt)
			}()
		}
		wg.Wait()

		h.mu.Lock()
		shellOK := !h.shellNeeded || h.shellState == Connected
		ftOK := !h.ftNeeded || h.ftState == Connected
		h.mu.Unlock()
		if shellOK && ftOK {
			return nil
		}

		if maxAttempts > 0 && attempt >= maxAttempts {
			h.mu.Lock()
			if h.shellNeeded && h.shellState != Connected {
				h.shellState = ConnectionFailed
			}
			if h.ftNeeded && h.ftState != Connected {
				h.ftState = ConnectionFailed
			}
			h.mu.Unlock()
			h.emitStatus(ShellChannel, ConnectionFailed, attempt, maxAttempts)
			h.emitStatus(FileTransferChannel, ConnectionFailed, attempt, maxAttempts)
			return ErrConnectionFailed
		}

		select {
		case <-time.After(backoffFor(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *HostSession) reconnectShellOnce(attempt int) {
	client, shell, err := h.attemptShellDial()
	if err != nil {
		h.setShellState(ConnectionFailed, attempt)
		return
	}
	h.mu.Lock()
	h.shellClient, h.shell = client, shell
	h.mu.Unlock()
	h.setShellState(Connected, attempt)
	go keepaliveLoop(client, h.guardedShellLost)
	h.emitReconnected(ShellChannel)
}

func (h *HostSession) reconnectFTOnce(attempt int) {
	client, sc, err := h.attemptFTDial()
	if err != nil {
		h.setFTState(ConnectionFailed, attempt)
		return
	}
	h.mu.Lock()
	h.ftClient, h.sftpClient = client, sc
	h.mu.Unlock()
	h.setFTState(Connected, attempt)
	go keepaliveLoop(client, h.guardedFileTransferLost)
	h.emitReconnected(FileTransferChannel)
}
