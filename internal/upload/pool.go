package upload

import (
	"context"
	"sync"
	"time"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/pkg/errors"
)

// fileTask is one file to push to the remote, keyed by the local
// absolute path and the remote destination path, which includes the
// program slot's directory (e.g. "program01/a.txt").
type fileTask struct {
	LocalPath  string
	RemotePath string
	ModTime    time.Time
}

const initialUploadConcurrency = 8

// ProgressFunc reports cumulative bytes transferred for one task.
type ProgressFunc func(task fileTask, bytesSoFar int64)

// runUploads uploads every task with bounded concurrency, shrinking
// the ceiling to the number of uploads in flight the moment the first
// failure is observed, retrying each failed upload exactly once, and
// setting the remote mtime to match the local file on success
// (spec.md §4.4.2 step 8).
func runUploads(ctx context.Context, sess *session.HostSession, tasks []fileTask, onProgress ProgressFunc) ([]fileTask, error) {
	sem := newDynamicSemaphore(initialUploadConcurrency)

	var shrinkOnce sync.Once
	var mu sync.Mutex
	var failed []fileTask
	var firstErr error

	attempt := func(t fileTask) error {
		err := sess.UploadFile(ctx, t.LocalPath, t.RemotePath, true, func(n int64) {
			if onProgress != nil {
				onProgress(t, n)
			}
		})
		if err != nil {
			return err
		}
		return sess.SetLastWriteTimeUtc(ctx, t.RemotePath, t.ModTime)
	}

	var wg sync.WaitGroup
	for _, t := range tasks {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()

			sem.acquire()
			err := attempt(t)
			if err != nil {
				shrinkOnce.Do(func() {
					sem.shrinkTo(sem.activeCount())
				})
				sem.release()
				// retry once, outside the (now possibly full) semaphore
				// slot we just released, so the shrunk ceiling applies
				// uniformly to every remaining and retried upload.
				sem.acquire()
				err = attempt(t)
				sem.release()
			} else {
				sem.release()
			}

			if err != nil {
				mu.Lock()
				failed = append(failed, t)
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return failed, ctx.Err()
	}
	if len(failed) > 0 {
		return failed, errors.Wrapf(firstErr, "%d of %d uploads failed", len(failed), len(tasks))
	}
	return nil, nil
}
