package upload

import (
	"io"
	"os"
	"path"
	"sync"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/status"
)

// progressCallback builds a per-file byte-progress callback reporting
// to opts.Out, or nil when Out isn't set (spec.md §4.4.1 step 7,
// §4.4.2 step 12). The returned func satisfies session.UploadFile's
// progressCb signature directly.
func progressCallback(opts Options, localPath string) func(int64) {
	if opts.Out == nil {
		return nil
	}
	var size int64
	if info, err := os.Stat(localPath); err == nil {
		size = info.Size()
	}
	reporter := status.NewProgressReporter(opts.Out, path.Base(localPath), size)
	return func(n int64) {
		reporter.Update(n)
		if size > 0 && n >= size {
			reporter.Done()
		}
	}
}

// multiFileProgress fans out runUploads' per-task callback to one
// ProgressReporter per remote path, created lazily on first report
// (tasks run concurrently, so distinct files report interleaved).
func multiFileProgress(out io.Writer) ProgressFunc {
	if out == nil {
		return nil
	}
	var mu sync.Mutex
	reporters := make(map[string]*status.ProgressReporter)
	return func(t fileTask, bytesSoFar int64) {
		mu.Lock()
		reporter, ok := reporters[t.RemotePath]
		if !ok {
			var size int64
			if info, err := os.Stat(t.LocalPath); err == nil {
				size = info.Size()
			}
			reporter = status.NewProgressReporter(out, t.RemotePath, size)
			reporters[t.RemotePath] = reporter
		}
		mu.Unlock()
		reporter.Update(bytesSoFar)
	}
}
