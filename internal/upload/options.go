// Package upload implements the delta upload orchestrator (spec.md
// §4.4): it composes a host session, the archive engine, and the
// shell command driver to push a program package to a Crestron slot,
// uploading only what changed when asked to.
package upload

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
)

// Options captures one upload invocation's inputs (spec.md §4.4).
type Options struct {
	Host        string
	Port        int
	Cred        session.Credential
	Slot        int
	ProgramFile string

	ChangedOnly bool
	KillProgram bool
	DoNotStart  bool
	NoIPTable   bool
	NoZig       bool
	Verbose     bool
	Force       bool

	MaxReconnectAttempts int

	// Out, when set, receives a live byte-progress line per transfer
	// (spec.md §4.4.1 step 7, §4.4.2 step 12). Progress reporting is
	// skipped entirely when Out is nil.
	Out io.Writer
}

// PackageKind is the program archive's extension family.
type PackageKind int

const (
	KindUnknown PackageKind = iota
	KindCPZ
	KindCLZ
	KindLPZ
)

func kindOf(programFile string) PackageKind {
	switch strings.ToLower(path.Ext(programFile)) {
	case ".cpz":
		return KindCPZ
	case ".clz":
		return KindCLZ
	case ".lpz":
		return KindLPZ
	default:
		return KindUnknown
	}
}

// RemotePath returns "program<NN>" for a slot, zero-padded to two digits.
func RemotePath(slot int) string {
	return fmt.Sprintf("program%02d", slot)
}

// usesDeltaPath implements the mode-selection rule from spec.md §4.4:
// .clz always takes the delta path; changedOnly forces it too;
// otherwise the full-package path runs.
func (o Options) usesDeltaPath() bool {
	return kindOf(o.ProgramFile) == KindCLZ || o.ChangedOnly
}
