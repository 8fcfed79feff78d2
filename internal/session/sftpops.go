package session

import (
	"context"
	"io"
	"os"
	"path"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
)

// isRegularSFTPError reports whether err is an expected SFTP-protocol
// failure (not found, permission, ...) rather than a transport loss,
// mirroring backend/sftp.putSftpConnection's classification.
func isRegularSFTPError(cause error) bool {
	if cause == os.ErrNotExist {
		return true
	}
	switch cause.(type) {
	case *sftp.StatusError, *os.PathError:
		return true
	}
	return false
}

// ensureFileTransfer brings the SFTP channel to Connected, blocking
// through any reconnect episode, and returns the live client.
func (h *HostSession) ensureFileTransfer(ctx context.Context) (*sftp.Client, error) {
	h.mu.Lock()
	h.ftNeeded = true
	state := h.ftState
	client := h.sftpClient
	h.mu.Unlock()

	switch state {
	case Connected:
		return client, nil
	case Idle, Connecting, ConnectionFailed:
		if err := h.connectFileTransferLocked(ctx, state == Idle || state == Connecting); err != nil {
			return nil, err
		}
	default:
		if err := h.startReconnect(ctx); err != nil {
			return nil, err
		}
	}

	h.mu.Lock()
	client = h.sftpClient
	h.mu.Unlock()
	if client == nil {
		return nil, ErrConnectionFailed
	}
	return client, nil
}

// withSFTP runs fn against a connected client, reconnecting on
// transport loss and passing regular SFTP errors straight through.
func (h *HostSession) withSFTP(ctx context.Context, fn func(*sftp.Client) error) error {
	client, err := h.ensureFileTransfer(ctx)
	if err != nil {
		return err
	}
	err = fn(client)
	if err != nil && isTransportError(err) {
		h.onFileTransferLost()
		if rerr := h.startReconnect(ctx); rerr != nil {
			return rerr
		}
		return err
	}
	return err
}

// Exists reports whether path exists on the remote.
func (h *HostSession) Exists(ctx context.Context, remotePath string) (bool, error) {
	var exists bool
	err := h.withSFTP(ctx, func(c *sftp.Client) error {
		_, statErr := c.Stat(remotePath)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				exists = false
				return nil
			}
			return errors.Wrapf(statErr, "stat %q", remotePath)
		}
		exists = true
		return nil
	})
	return exists, err
}

// CreateDirectory creates every missing intermediate component of dir
// using forward-slash segmentation (spec.md §4.4.1 step 6).
func (h *HostSession) CreateDirectory(ctx context.Context, dir string) error {
	return h.withSFTP(ctx, func(c *sftp.Client) error {
		return mkdirAll(c, dir)
	})
}

func mkdirAll(c *sftp.Client, dir string) error {
	dir = path.Clean(dir)
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	if _, err := c.Stat(dir); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat %q", dir)
	}
	if err := mkdirAll(c, path.Dir(dir)); err != nil {
		return err
	}
	if err := c.Mkdir(dir); err != nil {
		if _, statErr := c.Stat(dir); statErr == nil {
			return nil // created concurrently
		}
		return errors.Wrapf(err, "mkdir %q", dir)
	}
	return nil
}

// DirEntry describes one entry from a recursive remote listing.
type DirEntry struct {
	Path    string // relative to the listing root, slash-normalized
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// ListDirectory lists the immediate children of dir.
func (h *HostSession) ListDirectory(ctx context.Context, dir string) ([]os.FileInfo, error) {
	var out []os.FileInfo
	err := h.withSFTP(ctx, func(c *sftp.Client) error {
		infos, err := c.ReadDir(dir)
		if err != nil {
			return errors.Wrapf(err, "readdir %q", dir)
		}
		out = infos
		return nil
	})
	return out, err
}

// ListRecursive walks the remote tree rooted at base, returning every
// file with a path relative to base (stripped of the base prefix plus
// one leading slash, per spec.md §4.4.2 step 4 / §9 open question (b)).
func (h *HostSession) ListRecursive(ctx context.Context, base string) ([]DirEntry, error) {
	var out []DirEntry
	err := h.withSFTP(ctx, func(c *sftp.Client) error {
		walker := c.Walk(base)
		for walker.Step() {
			if err := walker.Err(); err != nil {
				return errors.Wrapf(err, "walk %q", base)
			}
			p := walker.Path()
			if p == base {
				continue
			}
			rel := relativeTo(base, p)
			info := walker.Stat()
			out = append(out, DirEntry{
				Path:    rel,
				IsDir:   info.IsDir(),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
		return nil
	})
	return out, err
}

// relativeTo strips base plus one leading slash from p.
func relativeTo(base, p string) string {
	rel := p[len(base):]
	rel = path.Clean("/" + rel)
	if len(rel) > 0 && rel[0] == '/' {
		rel = rel[1:]
	}
	return rel
}

// ListFilesByGlob lists remote files (not directories) matching pattern.
func (h *HostSession) ListFilesByGlob(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	err := h.withSFTP(ctx, func(c *sftp.Client) error {
		matches, err := c.Glob(pattern)
		if err != nil {
			return errors.Wrapf(err, "glob %q", pattern)
		}
		for _, m := range matches {
			info, statErr := c.Stat(m)
			if statErr == nil && !info.IsDir() {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

// DeleteFilesByGlob removes every remote file matching pattern.
func (h *HostSession) DeleteFilesByGlob(ctx context.Context, pattern string) error {
	return h.withSFTP(ctx, func(c *sftp.Client) error {
		matches, err := c.Glob(pattern)
		if err != nil {
			return errors.Wrapf(err, "glob %q", pattern)
		}
		for _, m := range matches {
			if err := c.Remove(m); err != nil {
				return errors.Wrapf(err, "remove %q", m)
			}
		}
		return nil
	})
}

// DownloadFile copies the remote file at remotePath to localPath.
func (h *HostSession) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	return h.withSFTP(ctx, func(c *sftp.Client) error {
		rf, err := c.Open(remotePath)
		if err != nil {
			return errors.Wrapf(err, "open %q", remotePath)
		}
		defer rf.Close()
		if err := os.MkdirAll(path.Dir(localPath), 0o755); err != nil {
			return errors.Wrap(err, "mkdir local parent")
		}
		lf, err := os.Create(localPath)
		if err != nil {
			return errors.Wrapf(err, "create %q", localPath)
		}
		defer lf.Close()
		if _, err := io.Copy(lf, rf); err != nil {
			return errors.Wrap(err, "copy")
		}
		return nil
	})
}

// DownloadFilesByGlob downloads every remote match of pattern into
// localDir. When preserveStructure is true, the remote directory
// structure relative to the glob's base directory is recreated.
func (h *HostSession) DownloadFilesByGlob(ctx context.Context, pattern, localDir string, preserveStructure bool) error {
	matches, err := h.ListFilesByGlob(ctx, pattern)
	if err != nil {
		return err
	}
	base := path.Dir(pattern)
	for _, m := range matches {
		dest := path.Join(localDir, path.Base(m))
		if preserveStructure {
			dest = path.Join(localDir, relativeTo(base, m))
		}
		if err := h.DownloadFile(ctx, m, dest); err != nil {
			return err
		}
	}
	return nil
}

// UploadFile uploads localPath to remotePath, invoking progressCb with
// the cumulative byte count as the transfer proceeds. When overwrite
// is false and the remote file already exists, it is truncated and
// replaced anyway (SFTP servers have no atomic create-exclusive
// primitive this toolkit relies on); callers check existence first
// where overwrite semantics matter.
func (h *HostSession) UploadFile(ctx context.Context, localPath, remotePath string, overwrite bool, progressCb func(int64)) error {
	return h.withSFTP(ctx, func(c *sftp.Client) error {
		if err := mkdirAll(c, path.Dir(remotePath)); err != nil {
			return err
		}
		lf, err := os.Open(localPath)
		if err != nil {
			return errors.Wrapf(err, "open %q", localPath)
		}
		defer lf.Close()

		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		rf, err := c.OpenFile(remotePath, flags)
		if err != nil {
			return errors.Wrapf(err, "open remote %q", remotePath)
		}
		defer rf.Close()

		var reader io.Reader = lf
		if progressCb != nil {
			reader = &progressReader{r: lf, cb: progressCb}
		}
		if _, err := rf.ReadFrom(reader); err != nil {
			_ = c.Remove(remotePath)
			return errors.Wrap(err, "upload")
		}
		return nil
	})
}

// progressReader reports cumulative bytes transferred via cb after
// each Read, the same wrapper shape ProgressReader/ProgressWriter take
// in gonzalop-ftp's transfer helpers.
type progressReader struct {
	r   io.Reader
	cb  func(int64)
	sum int64
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.sum += int64(n)
		p.cb(p.sum)
	}
	return n, err
}

// SetLastWriteTimeUtc sets the remote file's modification time.
func (h *HostSession) SetLastWriteTimeUtc(ctx context.Context, remotePath string, t time.Time) error {
	return h.withSFTP(ctx, func(c *sftp.Client) error {
		if err := c.Chtimes(remotePath, t, t); err != nil {
			return errors.Wrapf(err, "chtimes %q", remotePath)
		}
		return nil
	})
}
