package upload

import (
	"context"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedExtension is returned when ProgramFile is not a
// recognized .cpz/.clz/.lpz package.
var ErrUnsupportedExtension = errors.New("unsupported program file extension")

// ErrSlotOutOfRange is returned when Slot is outside [1,10].
var ErrSlotOutOfRange = errors.New("slot must be between 1 and 10")

// Run connects to opts.Host and drives the full end-to-end upload —
// mode selection, device stop/kill, transfer, manifest refresh, IP
// table, registration, and restart — per spec.md §4.4.
func Run(ctx context.Context, opts Options, log *logrus.Entry) (Result, error) {
	if opts.Slot < 1 || opts.Slot > 10 {
		return Result{}, ErrSlotOutOfRange
	}
	if kindOf(opts.ProgramFile) == KindUnknown {
		return Result{}, ErrUnsupportedExtension
	}

	sess := session.New(opts.Host, opts.Port, opts.Cred, opts.MaxReconnectAttempts)
	defer sess.Dispose()

	if err := sess.ConnectFileTransfer(ctx); err != nil {
		return Result{}, errors.Wrap(err, "connect file transfer channel")
	}

	if opts.usesDeltaPath() {
		return runDelta(ctx, sess, opts, log)
	}

	if err := sess.ConnectShell(ctx); err != nil {
		return Result{}, errors.Wrap(err, "connect shell channel")
	}
	return runFull(ctx, sess, opts, log)
}
