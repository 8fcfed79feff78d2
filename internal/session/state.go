// Package session implements the resilient dual-channel SSH/SFTP
// connection to a single Crestron host: a lazily-established
// interactive shell and an SFTP channel, reconnected on failure with
// bounded exponential backoff.
package session

import "fmt"

// ChannelState is the lifecycle state of one logical channel (shell or
// file transfer) within a HostSession.
type ChannelState int

const (
	Idle ChannelState = iota
	Connecting
	Connected
	LostConnection
	Reconnecting
	ConnectionFailed
)

func (s ChannelState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case LostConnection:
		return "LostConnection"
	case Reconnecting:
		return "Reconnecting"
	case ConnectionFailed:
		return "ConnectionFailed"
	default:
		return fmt.Sprintf("ChannelState(%d)", int(s))
	}
}

// Channel identifies which of the two logical channels an event or
// state change refers to.
type Channel int

const (
	ShellChannel Channel = iota
	FileTransferChannel
)

func (c Channel) String() string {
	if c == ShellChannel {
		return "shell"
	}
	return "file-transfer"
}

// Credential is either a username/password pair or a username/private-key pair.
type Credential struct {
	Username       string
	Password       string
	PrivateKeyPath string
	KeyPassphrase  string
}

func (c Credential) usesKey() bool {
	return c.PrivateKeyPath != ""
}

// ConnectionStatusModel mirrors the data model in spec.md §3. It is
// mutated only by the session and observed via StatusChanged events.
type ConnectionStatusModel struct {
	HostAddress             string
	ShellState               ChannelState
	ShellAttempt             int
	ShellMaxAttempts         int
	FileTransferState        ChannelState
	FileTransferAttempt      int
	FileTransferMaxAttempts  int
}

// StatusEvent is published whenever a channel's state changes.
type StatusEvent struct {
	Channel     Channel
	State       ChannelState
	Attempt     int
	MaxAttempts int
}

// EventListener receives session lifecycle notifications. Listeners
// are invoked synchronously on whichever goroutine detected the
// transition; long running handlers should hand off to their own
// goroutine.
type EventListener interface {
	OnStatusChanged(StatusEvent)
	OnShellDisconnected()
	OnShellReconnected()
	OnFileTransferDisconnected()
	OnFileTransferReconnected()
}

// NopListener is a no-op EventListener embedding target for callers
// that only care about a subset of events.
type NopListener struct{}

func (NopListener) OnStatusChanged(StatusEvent)    {}
func (NopListener) OnShellDisconnected()            {}
func (NopListener) OnShellReconnected()              {}
func (NopListener) OnFileTransferDisconnected()      {}
func (NopListener) OnFileTransferReconnected()       {}
