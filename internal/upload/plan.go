package upload

import (
	"context"
	"os"
	"path"
	"strings"
	"time"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/archive"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
)

// mtimeTolerance is the timestamp-fallback slop from spec.md §4.4.2
// step 4: a file differs only when its mtime is more than 2s off.
const mtimeTolerance = 2 * time.Second

// planDelta implements spec.md §4.4.2 step 4: decide which files
// under localRoot need uploading to remotePath, given the current
// remote tree and its optional manifest.
func planDelta(localRoot string, remote map[string]session.DirEntry, remoteManifest archive.Manifest) ([]string, error) {
	localRel, err := archive.WalkFiles(localRoot)
	if err != nil {
		return nil, err
	}

	var changes []string
	for _, rp := range localRel {
		entry, existsRemotely := remote[rp]
		switch {
		case !existsRemotely:
			changes = append(changes, rp)
		case remoteManifest != nil:
			if remoteHash, ok := remoteManifest[rp]; ok {
				localHash, err := archive.ComputeHashOfFile(path.Join(localRoot, rp))
				if err != nil {
					return nil, err
				}
				if !strings.EqualFold(localHash, remoteHash) {
					changes = append(changes, rp)
				}
				continue
			}
			if mtimeDiffers(localRoot, rp, entry) {
				changes = append(changes, rp)
			}
		default:
			if mtimeDiffers(localRoot, rp, entry) {
				changes = append(changes, rp)
			}
		}
	}
	return changes, nil
}

func mtimeDiffers(localRoot, rp string, remote session.DirEntry) bool {
	info, err := os.Stat(path.Join(localRoot, rp))
	if err != nil {
		return true
	}
	delta := info.ModTime().UTC().Sub(remote.ModTime.UTC())
	if delta < 0 {
		delta = -delta
	}
	return delta > mtimeTolerance
}

// listRemoteTree lists remotePath recursively, keyed by the
// slash-normalized relative path, or an empty map if the directory
// does not exist yet.
func listRemoteTree(ctx context.Context, sess *session.HostSession, remotePath string) (map[string]session.DirEntry, error) {
	exists, err := sess.Exists(ctx, remotePath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return map[string]session.DirEntry{}, nil
	}
	entries, err := sess.ListRecursive(ctx, remotePath)
	if err != nil {
		return nil, err
	}
	out := make(map[string]session.DirEntry, len(entries))
	for _, e := range entries {
		if !e.IsDir {
			out[e.Path] = e
		}
	}
	return out, nil
}

// loadRemoteManifest downloads and parses <remotePath>/.act.hash, or
// returns nil if it is absent.
func loadRemoteManifest(ctx context.Context, sess *session.HostSession, remotePath string) (archive.Manifest, error) {
	manifestPath := path.Join(remotePath, archive.ManifestFileName)
	exists, err := sess.Exists(ctx, manifestPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	tmp, err := os.CreateTemp("", "act-remote-manifest-*.hash")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := sess.DownloadFile(ctx, manifestPath, tmpPath); err != nil {
		return nil, err
	}
	return archive.ParseManifestFile(tmpPath)
}
