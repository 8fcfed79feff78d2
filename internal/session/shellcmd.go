package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// DefaultCommandTimeout is used by the high-level device operations
// below when no caller-supplied timeout applies (spec.md §5).
const DefaultCommandTimeout = 15 * time.Second

// WaitForCommandCompletion polls Read until one of successPatterns or
// failurePatterns (case-insensitive substrings) appears in the
// accumulated output, or timeout elapses. Failure patterns are
// checked before success patterns on every poll (spec.md §4.2).
// When echo is true, every byte received is written to out as it
// arrives.
func (h *HostSession) WaitForCommandCompletion(ctx context.Context, successPatterns, failurePatterns []string, timeout time.Duration, echo bool, out io.Writer) (bool, error) {
	deadline := time.Now().Add(timeout)
	var accumulated strings.Builder

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		readCtx, cancel := context.WithTimeout(ctx, remaining)
		data, err := h.Read(readCtx)
		cancel()
		if err != nil {
			if isCancellation(err) && ctx.Err() == nil {
				// only our own sub-timeout fired; loop to re-check the deadline
				if time.Now().Before(deadline) {
					continue
				}
				return false, nil
			}
			return false, err
		}
		if len(data) > 0 {
			if echo && out != nil {
				_, _ = out.Write(data)
			}
			accumulated.Write(data)
		}

		lower := strings.ToLower(accumulated.String())
		for _, pat := range failurePatterns {
			if pat != "" && strings.Contains(lower, strings.ToLower(pat)) {
				return false, nil
			}
		}
		for _, pat := range successPatterns {
			if pat != "" && strings.Contains(lower, strings.ToLower(pat)) {
				return true, nil
			}
		}
	}
}

// StopProgram sends stopprog for slot and waits for the device to
// confirm (spec.md §4.2, §6).
func (h *HostSession) StopProgram(ctx context.Context, slot int) (bool, error) {
	if err := h.WriteLine(ctx, fmt.Sprintf("stopprog -p:%d", slot)); err != nil {
		return false, err
	}
	return h.WaitForCommandCompletion(ctx,
		[]string{"Program Stopped", "** Specified App does not exist **"},
		nil, DefaultCommandTimeout, false, nil)
}

// KillProgram sends killprog for slot and waits for confirmation.
func (h *HostSession) KillProgram(ctx context.Context, slot int) (bool, error) {
	if err := h.WriteLine(ctx, fmt.Sprintf("killprog -P:%d", slot)); err != nil {
		return false, err
	}
	return h.WaitForCommandCompletion(ctx,
		[]string{fmt.Sprintf("Specified program %d successfully deleted", slot)},
		nil, DefaultCommandTimeout, false, nil)
}

// RegisterProgram issues the device-specific register command for slot,
// optionally naming the main assembly (used for .cpz/.lpz packages).
func (h *HostSession) RegisterProgram(ctx context.Context, slot int, mainAssembly string) (bool, error) {
	cmd := fmt.Sprintf("progreg -p:%d", slot)
	if mainAssembly != "" {
		cmd = fmt.Sprintf("progreg -p:%d -a:%s", slot, mainAssembly)
	}
	if err := h.WriteLine(ctx, cmd); err != nil {
		return false, err
	}
	return h.WaitForCommandCompletion(ctx,
		[]string{"Program Registered", "registration complete"},
		[]string{"error", "failed"}, DefaultCommandTimeout, false, nil)
}

// ProgramLoad sends progload for slot.
func (h *HostSession) ProgramLoad(ctx context.Context, slot int, doNotStart bool) (bool, error) {
	cmd := fmt.Sprintf("progload -p:%d", slot)
	if doNotStart {
		cmd += " -n"
	}
	if err := h.WriteLine(ctx, cmd); err != nil {
		return false, err
	}
	return h.WaitForCommandCompletion(ctx,
		[]string{"Program Start successfully sent for App"},
		nil, DefaultCommandTimeout, false, nil)
}

// RestartProgram issues the device-specific progres restart command.
func (h *HostSession) RestartProgram(ctx context.Context, slot int) (bool, error) {
	if err := h.WriteLine(ctx, fmt.Sprintf("progres -P:%d", slot)); err != nil {
		return false, err
	}
	return h.WaitForCommandCompletion(ctx,
		[]string{"Program Start successfully sent for App", "restarted"},
		[]string{"error", "failed"}, DefaultCommandTimeout, false, nil)
}

// ClearIPTable clears the IP table for slot before re-adding entries.
func (h *HostSession) ClearIPTable(ctx context.Context, slot int) (bool, error) {
	if err := h.WriteLine(ctx, fmt.Sprintf("sendipt %d clear", slot)); err != nil {
		return false, err
	}
	return h.WaitForCommandCompletion(ctx,
		[]string{"IP Table Cleared", "cleared"},
		[]string{"error"}, DefaultCommandTimeout, false, nil)
}

// IPTableEntry mirrors the data model in spec.md §3.
type IPTableEntry struct {
	IPID     uint8
	Address  string
	DeviceID *uint8
	Port     *int
	RoomID   string
}

// AddIPTableEntry sends a single IP table entry for slot.
func (h *HostSession) AddIPTableEntry(ctx context.Context, slot int, entry IPTableEntry) (bool, error) {
	cmd := fmt.Sprintf("sendipt %d add %d %s", slot, entry.IPID, entry.Address)
	if entry.DeviceID != nil {
		cmd += fmt.Sprintf(" -d:%d", *entry.DeviceID)
	}
	if entry.Port != nil {
		cmd += fmt.Sprintf(" -p:%d", *entry.Port)
	}
	if entry.RoomID != "" {
		cmd += fmt.Sprintf(" -r:%s", entry.RoomID)
	}
	if err := h.WriteLine(ctx, cmd); err != nil {
		return false, err
	}
	return h.WaitForCommandCompletion(ctx,
		[]string{"IP Table Entry Added", "added"},
		[]string{"error", "invalid"}, DefaultCommandTimeout, false, nil)
}
