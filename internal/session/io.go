package session

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ensureShell brings the shell channel to Connected, blocking through
// any in-progress or newly-triggered reconnect episode.
func (h *HostSession) ensureShell(ctx context.Context) (*shellChannel, error) {
	h.mu.Lock()
	h.shellNeeded = true
	state := h.shellState
	shell := h.shell
	h.mu.Unlock()

	switch state {
	case Connected:
		return shell, nil
	case Idle, Connecting, ConnectionFailed:
		if err := h.connectShellLocked(ctx, state == Idle || state == Connecting); err != nil {
			return nil, err
		}
	default: // LostConnection, Reconnecting
		if err := h.startReconnect(ctx); err != nil {
			return nil, err
		}
	}

	h.mu.Lock()
	shell = h.shell
	h.mu.Unlock()
	if shell == nil {
		return nil, ErrConnectionFailed
	}
	return shell, nil
}

// Read blocks until shell output is available, the channel is torn
// down, or ctx is cancelled. It transparently reconnects on
// disconnection before returning control to the caller on the next call.
func (h *HostSession) Read(ctx context.Context) ([]byte, error) {
	shell, err := h.ensureShell(ctx)
	if err != nil {
		return nil, err
	}
	data, err := shell.read(ctx)
	if err != nil {
		if isCancellation(err) {
			return nil, err
		}
		h.onShellLost()
		return nil, h.startReconnect(ctx)
	}
	return data, nil
}

// WriteLine ensures the shell stream then writes line+"\n" to it.
func (h *HostSession) WriteLine(ctx context.Context, line string) error {
	shell, err := h.ensureShell(ctx)
	if err != nil {
		return err
	}
	if err := shell.writeLine(ctx, line); err != nil {
		if isCancellation(err) {
			return err
		}
		h.onShellLost()
		return h.startReconnect(ctx)
	}
	return nil
}

// WriteRaw ensures the shell stream then writes p verbatim, without
// appending a newline (used by the REPL's Tab key, which sends the
// current line literally terminated by a tab).
func (h *HostSession) WriteRaw(ctx context.Context, p []byte) error {
	shell, err := h.ensureShell(ctx)
	if err != nil {
		return err
	}
	if err := shell.write(ctx, p); err != nil {
		if isCancellation(err) {
			return err
		}
		h.onShellLost()
		return h.startReconnect(ctx)
	}
	return nil
}

// DataAvailable is a non-blocking peek; it is only meaningful when
// the shell channel is Connected (spec.md §3 invariant).
func (h *HostSession) DataAvailable() bool {
	h.mu.Lock()
	shell := h.shell
	connected := h.shellState == Connected
	h.mu.Unlock()
	if !connected || shell == nil {
		return false
	}
	return shell.dataAvailable()
}

func (h *HostSession) onShellLost() {
	h.mu.Lock()
	already := h.shellState == LostConnection || h.shellState == Reconnecting
	h.mu.Unlock()
	if already {
		return
	}
	h.setShellState(LostConnection, 0)
	h.emitDisconnected(ShellChannel)
}

func (h *HostSession) onFileTransferLost() {
	h.mu.Lock()
	already := h.ftState == LostConnection || h.ftState == Reconnecting
	h.mu.Unlock()
	if already {
		return
	}
	h.setFTState(LostConnection, 0)
	h.emitDisconnected(FileTransferChannel)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// isTransportError reports whether err indicates the underlying SSH
// transport died, as opposed to a regular SFTP/OS error (file not
// found, permission denied, ...). Mirrors backend/sftp.putSftpConnection's
// isRegularError classification.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	cause := errors.Cause(err)
	if cause == io.EOF {
		return true
	}
	if isRegularSFTPError(cause) {
		return false
	}
	return true
}
