package editor

import (
	"context"
	"os"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RemoteFile pairs a Buffer with the session and remote path it was
// loaded from, so Save can round-trip the edit back to the device.
type RemoteFile struct {
	*Buffer
	sess       *session.HostSession
	remotePath string
	localTemp  string
}

// LoadRemote downloads remotePath through sess into a scratch local
// file and parses it into a buffer.
func LoadRemote(ctx context.Context, sess *session.HostSession, remotePath string) (*RemoteFile, error) {
	temp, err := os.CreateTemp("", "actl-edit-"+uuid.NewString())
	if err != nil {
		return nil, errors.Wrap(err, "create scratch file")
	}
	temp.Close()

	exists, err := sess.Exists(ctx, remotePath)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %q", remotePath)
	}
	buf := New()
	if exists {
		if err := sess.DownloadFile(ctx, remotePath, temp.Name()); err != nil {
			return nil, errors.Wrapf(err, "download %q", remotePath)
		}
		loaded, err := Load(temp.Name())
		if err != nil {
			return nil, err
		}
		buf = loaded
	}
	return &RemoteFile{Buffer: buf, sess: sess, remotePath: remotePath, localTemp: temp.Name()}, nil
}

// Save writes the buffer locally then uploads it to the remote path.
func (f *RemoteFile) Save(ctx context.Context) error {
	if err := f.Buffer.Save(f.localTemp); err != nil {
		return err
	}
	if err := f.sess.UploadFile(ctx, f.localTemp, f.remotePath, true, nil); err != nil {
		return errors.Wrapf(err, "upload %q", f.remotePath)
	}
	return nil
}

// Close removes the scratch local file.
func (f *RemoteFile) Close() error {
	return os.Remove(f.localTemp)
}
