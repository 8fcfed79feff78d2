package status

import (
	"fmt"
	"io"
	"sync"
)

// ProgressReporter renders byte-count progress for one named transfer
// to a single updating terminal line, the renderer half of the
// upload orchestrator's per-file progress callback.
type ProgressReporter struct {
	mu    sync.Mutex
	out   io.Writer
	label string
	total int64
}

// NewProgressReporter builds a reporter for a transfer named label
// whose total size in bytes is known up front (0 if unknown).
func NewProgressReporter(out io.Writer, label string, total int64) *ProgressReporter {
	return &ProgressReporter{out: out, label: label, total: total}
}

// Update overwrites the current line with the latest byte count.
func (p *ProgressReporter) Update(bytesSoFar int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total > 0 {
		pct := float64(bytesSoFar) / float64(p.total) * 100
		fmt.Fprintf(p.out, "\r%s: %d/%d bytes (%.0f%%)", p.label, bytesSoFar, p.total, pct)
	} else {
		fmt.Fprintf(p.out, "\r%s: %d bytes", p.label, bytesSoFar)
	}
}

// Done finalizes the line with a trailing newline.
func (p *ProgressReporter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r%s: done\n", p.label)
}
