package upload

import (
	"context"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/archive"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/sirupsen/logrus"
)

// applyIPTable clears slot's IP table (warning-only on failure) then
// adds every parsed entry, reporting the count applied (spec.md
// §4.4.1 step 8, §4.4.2 step 10).
func applyIPTable(ctx context.Context, sess *session.HostSession, slot int, entries []archive.IPTableEntry, log *logrus.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if ok, err := sess.ClearIPTable(ctx, slot); err != nil || !ok {
		log.WithError(err).Warn("failed to clear IP table; continuing with existing entries")
	}

	applied := 0
	for _, e := range entries {
		ok, err := sess.AddIPTableEntry(ctx, slot, toSessionEntry(e))
		if err != nil {
			return applied, err
		}
		if ok {
			applied++
		} else {
			log.Warnf("IP table entry for %s was not accepted by the device", e.Address)
		}
	}
	return applied, nil
}

func toSessionEntry(e archive.IPTableEntry) session.IPTableEntry {
	return session.IPTableEntry{
		IPID:     e.IPID,
		Address:  e.Address,
		DeviceID: e.DeviceID,
		Port:     e.Port,
		RoomID:   e.RoomID,
	}
}
