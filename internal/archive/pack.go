package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// SignaturePathFor returns the .sig sidecar path for a .lpz program
// file, without checking existence.
func SignaturePathFor(programFile string) string {
	ext := filepath.Ext(programFile)
	return strings.TrimSuffix(programFile, ext) + ".sig"
}

// PackageSignature zips sigPath as a single entry named after its base
// name into a new archive at destZig (spec.md §4.3 "Signature packaging").
func PackageSignature(sigPath, destZig string) error {
	in, err := os.Open(sigPath)
	if err != nil {
		return errors.Wrapf(err, "open signature %q", sigPath)
	}
	defer in.Close()

	out, err := os.Create(destZig)
	if err != nil {
		return errors.Wrapf(err, "create %q", destZig)
	}
	zw := zip.NewWriter(out)

	w, err := zw.Create(filepath.Base(sigPath))
	if err != nil {
		_ = zw.Close()
		_ = out.Close()
		return errors.Wrap(err, "create zig entry")
	}
	if _, err := io.Copy(w, in); err != nil {
		_ = zw.Close()
		_ = out.Close()
		return errors.Wrap(err, "write zig entry")
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return errors.Wrap(err, "finalize zig archive")
	}
	return out.Close()
}

// ZigPathFor returns the <basename>.zig path for programFile within tempDir.
func ZigPathFor(tempDir, programFile string) string {
	base := strings.TrimSuffix(filepath.Base(programFile), filepath.Ext(programFile))
	return filepath.Join(tempDir, base+".zig")
}
