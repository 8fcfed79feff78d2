package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelStateString(t *testing.T) {
	cases := map[ChannelState]string{
		Idle:             "Idle",
		Connecting:       "Connecting",
		Connected:        "Connected",
		LostConnection:   "LostConnection",
		Reconnecting:     "Reconnecting",
		ConnectionFailed: "ConnectionFailed",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
	assert.Equal(t, "ChannelState(99)", ChannelState(99).String())
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "shell", ShellChannel.String())
	assert.Equal(t, "file-transfer", FileTransferChannel.String())
}

func TestCredentialUsesKey(t *testing.T) {
	assert.False(t, Credential{Username: "u", Password: "p"}.usesKey())
	assert.True(t, Credential{Username: "u", PrivateKeyPath: "/tmp/id_rsa"}.usesKey())
}

func TestNewHostSessionStartsIdle(t *testing.T) {
	h := New("host", 22, Credential{Username: "u"}, 3)
	status := h.Status()
	assert.Equal(t, Idle, status.ShellState)
	assert.Equal(t, Idle, status.FileTransferState)
	assert.Equal(t, "host", status.HostAddress)
	assert.Equal(t, 3, status.ShellMaxAttempts)
}

func TestSetMaxReconnectAttempts(t *testing.T) {
	h := New("host", 22, Credential{Username: "u"}, 3)
	h.SetMaxReconnectAttempts(7)
	assert.Equal(t, 7, h.maxAttempts())
}

func TestAddRemoveListener(t *testing.T) {
	h := New("host", 22, Credential{Username: "u"}, 0)
	l := &recordingListener{}
	h.AddListener(l)
	h.setShellState(Connecting, 0)
	assert.Len(t, l.snapshot(), 1)

	h.RemoveListener(l)
	h.setShellState(Connected, 0)
	assert.Len(t, l.snapshot(), 1, "no further events after removal")
}
