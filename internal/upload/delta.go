package upload

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/archive"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// runDelta implements the delta path (spec.md §4.4.2): extract the
// package locally, diff it against the remote tree (or upload
// everything when forced), stop the program, upload only what
// changed with bounded concurrency, refresh the remote manifest, and
// bring the program back up.
func runDelta(ctx context.Context, sess *session.HostSession, opts Options, log *logrus.Entry) (Result, error) {
	var result Result
	remotePath := RemotePath(opts.Slot)
	kind := kindOf(opts.ProgramFile)

	tempDir, err := archive.NewExtractionDir()
	if err != nil {
		return result, err
	}
	defer os.RemoveAll(tempDir)

	if err := archive.Extract(opts.ProgramFile, tempDir); err != nil {
		return result, errors.Wrap(err, "extract program archive")
	}

	uploadAllFiles := opts.KillProgram || (kind == KindCLZ && !opts.ChangedOnly)

	var changedRel []string
	if !uploadAllFiles {
		remote, err := listRemoteTree(ctx, sess, remotePath)
		if err != nil {
			return result, err
		}
		remoteManifest, err := loadRemoteManifest(ctx, sess, remotePath)
		if err != nil {
			log.WithError(err).Warn("failed to load remote manifest; falling back to timestamp comparison")
		}
		changedRel, err = planDelta(tempDir, remote, remoteManifest)
		if err != nil {
			return result, err
		}
	} else {
		changedRel, err = archive.WalkFiles(tempDir)
		if err != nil {
			return result, err
		}
	}

	if len(changedRel) == 0 && !opts.KillProgram {
		result.NoChanges = true
		return result, nil
	}

	if opts.KillProgram {
		if ok, err := sess.KillProgram(ctx, opts.Slot); err != nil {
			return result, err
		} else if !ok {
			log.Warn("device did not confirm program kill; continuing")
		}
	} else {
		if ok, err := sess.StopProgram(ctx, opts.Slot); err != nil {
			return result, err
		} else if !ok {
			log.Warn("device did not confirm program stop; continuing")
		}
	}
	time.Sleep(2 * time.Second)

	tasks := make([]fileTask, 0, len(changedRel))
	for _, rel := range changedRel {
		local := path.Join(tempDir, rel)
		info, statErr := os.Stat(local)
		if statErr != nil {
			return result, errors.Wrapf(statErr, "stat %q", local)
		}
		tasks = append(tasks, fileTask{
			LocalPath:  local,
			RemotePath: path.Join(remotePath, rel),
			ModTime:    info.ModTime().UTC(),
		})
	}

	report := multiFileProgress(opts.Out)
	failed, uploadErr := runUploads(ctx, sess, tasks, func(t fileTask, n int64) {
		if opts.Verbose {
			log.Debugf("uploading %s: %d bytes", t.RemotePath, n)
		}
		if report != nil {
			report(t, n)
		}
	})
	result.FilesUploaded = len(tasks) - len(failed)
	for _, f := range failed {
		result.FailedUploads = append(result.FailedUploads, f.RemotePath)
	}
	if uploadErr != nil {
		log.WithError(uploadErr).Warnf("%d file(s) failed to upload; continuing with manifest and registration", len(failed))
	}

	manifest, err := archive.ComputeManifestForTree(tempDir)
	if err != nil {
		return result, err
	}
	manifestPath := path.Join(remotePath, archive.ManifestFileName)
	if err := uploadManifest(ctx, sess, manifest, manifestPath); err != nil {
		log.WithError(err).Warn("failed to upload refreshed manifest")
	}

	if kind == KindLPZ && !opts.NoIPTable {
		if dipPath, found, err := archive.FindDIPInTree(tempDir); err != nil {
			log.WithError(err).Warn("failed to search for .dip")
		} else if found {
			entries, err := archive.ParseDIPFile(dipPath)
			if err != nil {
				log.WithError(err).Warn("failed to parse .dip")
			} else {
				applied, err := applyIPTable(ctx, sess, opts.Slot, entries, log)
				if err != nil {
					return result, err
				}
				result.IPTableEntries = applied
			}
		}
	}

	var mainAssembly string
	if kind == KindCPZ {
		mainAssembly, err = archive.ResolveMainAssembly(tempDir)
		if err != nil {
			log.WithError(err).Warn("failed to resolve main assembly")
		}
	}
	if kind == KindLPZ || kind == KindCPZ {
		if ok, err := sess.RegisterProgram(ctx, opts.Slot, mainAssembly); err != nil {
			return result, err
		} else if !ok {
			log.Warn("device did not confirm program registration")
		}
	}

	if kind == KindLPZ && !opts.NoZig {
		sigPath := archive.SignaturePathFor(opts.ProgramFile)
		if _, err := os.Stat(sigPath); err == nil {
			zigPath := archive.ZigPathFor(tempDir, opts.ProgramFile)
			if err := archive.PackageSignature(sigPath, zigPath); err != nil {
				log.WithError(err).Warn("failed to package signature")
			} else {
				remoteZigPath := path.Join(remotePath, path.Base(zigPath))
				if err := sess.UploadFile(ctx, zigPath, remoteZigPath, true, progressCallback(opts, zigPath)); err != nil {
					log.WithError(err).Warn("failed to upload zig package")
				}
			}
		}
	}

	if !opts.DoNotStart {
		if ok, err := sess.RestartProgram(ctx, opts.Slot); err != nil {
			return result, err
		} else if !ok {
			log.Warn("device did not confirm program restart")
		}
	}

	return result, nil
}

func uploadManifest(ctx context.Context, sess *session.HostSession, manifest archive.Manifest, remoteManifestPath string) error {
	tmp, err := os.CreateTemp("", "act-manifest-upload-*.hash")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(manifest.Serialize()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return sess.UploadFile(ctx, tmpPath, remoteManifestPath, true, nil)
}
