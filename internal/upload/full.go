package upload

import (
	"bytes"
	"context"
	"os"
	"path"
	"time"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/archive"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Result summarizes one upload invocation for the CLI/REPL layer to report.
type Result struct {
	FilesUploaded  int
	IPTableEntries int
	NoChanges      bool
	FailedUploads  []string
}

// runFull implements the full-package path (spec.md §4.4.1): the
// program archive itself is uploaded verbatim (after best-effort
// manifest embedding and optional signature packaging), rather than a
// diffed set of extracted files.
func runFull(ctx context.Context, sess *session.HostSession, opts Options, log *logrus.Entry) (Result, error) {
	var result Result
	remotePath := RemotePath(opts.Slot)

	if opts.KillProgram {
		ok, err := sess.KillProgram(ctx, opts.Slot)
		if err != nil {
			return result, err
		}
		if !ok {
			log.Warn("device did not confirm program kill; continuing")
		}
		time.Sleep(2 * time.Second)
	}

	kind := kindOf(opts.ProgramFile)

	var zigPath string
	if kind == KindLPZ && !opts.NoZig {
		sigPath := archive.SignaturePathFor(opts.ProgramFile)
		if _, err := os.Stat(sigPath); err == nil {
			tempDir, err := archive.NewExtractionDir()
			if err != nil {
				return result, err
			}
			defer os.RemoveAll(tempDir)
			zigPath = archive.ZigPathFor(tempDir, opts.ProgramFile)
			if err := archive.PackageSignature(sigPath, zigPath); err != nil {
				return result, errors.Wrap(err, "package signature")
			}
		}
	}

	if err := archive.EmbedManifest(opts.ProgramFile); err != nil {
		log.WithError(err).Warn("failed to embed hash manifest; upload continues")
	}

	var ipEntries []archive.IPTableEntry
	if kind == KindLPZ && !opts.NoIPTable {
		if data, found, err := archive.FindDIPInArchive(opts.ProgramFile); err != nil {
			log.WithError(err).Warn("failed to read .dip from archive")
		} else if found {
			entries, err := archive.ParseDIP(bytes.NewReader(data))
			if err != nil {
				log.WithError(err).Warn("failed to parse .dip")
			} else {
				ipEntries = entries
			}
		}
	}

	if err := sess.CreateDirectory(ctx, remotePath); err != nil {
		return result, err
	}

	remoteProgramPath := path.Join(remotePath, path.Base(opts.ProgramFile))
	if err := sess.UploadFile(ctx, opts.ProgramFile, remoteProgramPath, true, progressCallback(opts, opts.ProgramFile)); err != nil {
		return result, errors.Wrap(err, "upload program archive")
	}
	result.FilesUploaded++

	if zigPath != "" {
		remoteZigPath := path.Join(remotePath, path.Base(zigPath))
		if err := sess.UploadFile(ctx, zigPath, remoteZigPath, true, progressCallback(opts, zigPath)); err != nil {
			return result, errors.Wrap(err, "upload zig package")
		}
		result.FilesUploaded++
	}

	if len(ipEntries) > 0 {
		applied, err := applyIPTable(ctx, sess, opts.Slot, ipEntries, log)
		if err != nil {
			return result, err
		}
		result.IPTableEntries = applied
	}

	var mainAssembly string
	if kind == KindCPZ {
		// manifest.info / ProgramInfo.config live inside the archive;
		// registration needs them extracted first.
		tempDir, err := archive.NewExtractionDir()
		if err != nil {
			return result, err
		}
		defer os.RemoveAll(tempDir)
		if err := archive.Extract(opts.ProgramFile, tempDir); err != nil {
			return result, err
		}
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

	if ok, err := sess.ProgramLoad(ctx, opts.Slot, opts.DoNotStart); err != nil {
		return result, err
	} else if !ok {
		log.Warn("device did not confirm program load")
	}

	return result, nil
}
