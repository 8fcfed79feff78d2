package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Unknwon/goconfig"
	"github.com/pkg/errors"
)

// IPTableEntry is one row of an IP table, parsed from a .dip file's
// [IPTable] section (spec.md §3).
type IPTableEntry struct {
	IPID     uint8
	Address  string
	DeviceID *uint8
	Port     *int
	RoomID   string
}

const ipTableSection = "IPTable"

// Valid ranges for the .dip fields (spec.md §3): ipId/deviceId are
// single bytes within [0x03,0xFE], and port must lie within
// [257,65535].
const (
	minIPByte  = 0x03
	maxIPByte  = 0xFE
	minDIPPort = 257
	maxDIPPort = 65535
)

var dipKeyPattern = regexp.MustCompile(`^(id|addr|device|port|room)(\d+)$`)

// ParseDIP parses a .dip INI document's [IPTable] section into an
// ordered list of entries, grouping keys of the form
// (id|addr|device|port|room)<index> by their trailing numeric index.
// Entries missing either ipId or address are dropped (spec.md §3).
func ParseDIP(r io.Reader) ([]IPTableEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read dip")
	}
	cfg, err := goconfig.LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "parse dip ini")
	}

	type fields struct {
		id, addr, device, port, room string
	}
	byIndex := map[int]*fields{}

	for _, key := range cfg.GetKeyList(ipTableSection) {
		m := dipKeyPattern.FindStringSubmatch(strings.ToLower(key))
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		f, ok := byIndex[idx]
		if !ok {
			f = &fields{}
			byIndex[idx] = f
		}
		value, _ := cfg.GetValue(ipTableSection, key)
		switch m[1] {
		case "id":
			f.id = value
		case "addr":
			f.addr = value
		case "device":
			f.device = value
		case "port":
			f.port = value
		case "room":
			f.room = value
		}
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var out []IPTableEntry
	for _, idx := range indices {
		f := byIndex[idx]
		if f.id == "" || f.addr == "" {
			continue
		}
		ipID, err := parseHexByte(f.id)
		if err != nil || ipID < minIPByte || ipID > maxIPByte {
			continue
		}
		entry := IPTableEntry{IPID: ipID, Address: f.addr}
		if f.device != "" {
			if deviceID, err := parseHexByte(f.device); err == nil && deviceID >= minIPByte && deviceID <= maxIPByte {
				entry.DeviceID = &deviceID
			}
		}
		if f.port != "" {
			if port, err := strconv.Atoi(f.port); err == nil && port >= minDIPPort && port <= maxDIPPort {
				entry.Port = &port
			}
		}
		if strings.TrimSpace(f.room) != "" {
			entry.RoomID = f.room
		}
		out = append(out, entry)
	}
	return out, nil
}

func parseHexByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 8)
	if err != nil {
		return 0, errors.Wrapf(err, "parse hex byte %q", s)
	}
	return uint8(v), nil
}

// FindDIPInTree locates the single top-level .dip file under root, if any.
func FindDIPInTree(root string) (string, bool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", false, errors.Wrapf(err, "read dir %q", root)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".dip") {
			return filepath.Join(root, e.Name()), true, nil
		}
	}
	return "", false, nil
}

// FindDIPInArchive locates and returns the bytes of the first .dip
// entry inside archivePath, without extracting the rest.
func FindDIPInArchive(archivePath string) ([]byte, bool, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, false, errors.Wrapf(err, "open archive %q", archivePath)
	}
	defer r.Close()

	for _, entry := range r.File {
		if entry.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(entry.Name), ".dip") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, false, errors.Wrapf(err, "open entry %q", entry.Name)
		}
		data, err := io.ReadAll(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, false, errors.Wrapf(err, "read entry %q", entry.Name)
		}
		if closeErr != nil {
			return nil, false, errors.Wrapf(closeErr, "close entry %q", entry.Name)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// ParseDIPFile parses a .dip file from disk.
func ParseDIPFile(path string) ([]IPTableEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", path)
	}
	defer f.Close()
	return ParseDIP(f)
}
