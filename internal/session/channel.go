package session

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

// shellChannel wraps the interactive shell session: a background
// goroutine continuously drains stdout into a mutex-guarded buffer so
// that DataAvailable can peek without blocking and Read can block
// until either more bytes arrive or the caller's context is done.
type shellChannel struct {
	session *ssh.Session
	stdin   io.WriteCloser

	mu     sync.Mutex
	buf    bytes.Buffer
	notify chan struct{}
	closed bool
	err    error
}

func newShellChannel(client *ssh.Client) (*shellChannel, error) {
	s, err := client.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "new ssh session")
	}
	if err := s.RequestPty("xterm", 80, 200, ssh.TerminalModes{}); err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "request pty")
	}
	stdin, err := s.StdinPipe()
	if err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "stdin pipe")
	}
	stdout, err := s.StdoutPipe()
	if err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "stdout pipe")
	}
	if err := s.Shell(); err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "start shell")
	}

	sc := &shellChannel{
		session: s,
		stdin:   stdin,
		notify:  make(chan struct{}),
	}
	go sc.pump(stdout)
	return sc, nil
}

// pump runs in the background for the lifetime of the channel,
// continuously moving bytes from the remote into the local buffer.
func (sc *shellChannel) pump(stdout io.Reader) {
	tmp := make([]byte, 4096)
	for {
		n, err := stdout.Read(tmp)
		sc.mu.Lock()
		if n > 0 {
			sc.buf.Write(tmp[:n])
		}
		if err != nil {
			sc.closed = true
			sc.err = err
			close(sc.notify)
			sc.mu.Unlock()
			return
		}
		if n > 0 {
			close(sc.notify)
			sc.notify = make(chan struct{})
		}
		sc.mu.Unlock()
	}
}

// dataAvailable is a non-blocking peek at the buffer.
func (sc *shellChannel) dataAvailable() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.buf.Len() > 0
}

// read drains whatever bytes are currently buffered, blocking until
// at least one byte has arrived, the channel closed, or ctx is done.
func (sc *shellChannel) read(ctx context.Context) ([]byte, error) {
	for {
		sc.mu.Lock()
		if sc.buf.Len() > 0 {
			out := make([]byte, sc.buf.Len())
			copy(out, sc.buf.Bytes())
			sc.buf.Reset()
			sc.mu.Unlock()
			return out, nil
		}
		if sc.closed {
			err := sc.err
			sc.mu.Unlock()
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, errors.Wrap(err, "shell channel closed")
		}
		ch := sc.notify
		sc.mu.Unlock()
		select {
		case <-ch:
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// writeLine writes a line of input to the shell, terminated with \n.
func (sc *shellChannel) writeLine(ctx context.Context, line string) error {
	return sc.write(ctx, []byte(line+"\n"))
}

func (sc *shellChannel) write(ctx context.Context, p []byte) error {
	done := make(chan error, 1)
	go func() {
		_, err := sc.stdin.Write(p)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (sc *shellChannel) close() error {
	return sc.session.Close()
}
