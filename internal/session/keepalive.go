package session

import (
	"time"

	"golang.org/x/crypto/ssh"
)

// keepaliveInterval matches the cadence backend/sftp's internal SSH
// client uses for its "keepalive@openssh.com" global request.
const keepaliveInterval = 30 * time.Second

// keepaliveLoop periodically pings client until a send fails, then
// reports the loss through onLost and returns. A closed client (as
// after Dispose) fails the next send, so callers don't need to track a
// cancellation handle. Reconnection replaces the session's client
// without closing the old one.
func keepaliveLoop(client *ssh.Client, onLost func()) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for range ticker.C {
		if _, _, err := client.SendRequest("keepalive@openssh.com", true, nil); err != nil {
			onLost()
			return
		}
	}
}

func (h *HostSession) guardedShellLost() {
	h.mu.Lock()
	disposed := h.disposed
	h.mu.Unlock()
	if disposed {
		return
	}
	h.onShellLost()
}

func (h *HostSession) guardedFileTransferLost() {
	h.mu.Lock()
	disposed := h.disposed
	h.mu.Unlock()
	if disposed {
		return
	}
	h.onFileTransferLost()
}
