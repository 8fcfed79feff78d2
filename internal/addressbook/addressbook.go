// Package addressbook reads .xadr INI files into named connection
// entries, used to resolve a host/credential pair when a CLI
// invocation doesn't fully specify one (spec.md §6
// "Connection.AddressBooksLocation").
package addressbook

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Unknwon/goconfig"
	"github.com/pkg/errors"
)

// Entry is one named connection profile from a .xadr file.
type Entry struct {
	Name           string
	Host           string
	Port           int
	Username       string
	Password       string
	PrivateKeyPath string
	KeyPassphrase  string
}

// HasCredentials reports whether the entry carries enough to
// authenticate (either a password or a private key).
func (e Entry) HasCredentials() bool {
	return e.Password != "" || e.PrivateKeyPath != ""
}

// Book is the set of entries loaded from one or more .xadr files.
type Book struct {
	entries map[string]Entry
}

// Load reads every *.xadr file named or contained by locations — a
// list of paths, each either a file or a directory, as produced by
// splitting Connection.AddressBooksLocation on ';' or ','. Later
// files override earlier ones on name collision.
func Load(locations []string) (*Book, error) {
	b := &Book{entries: map[string]Entry{}}
	for _, loc := range locations {
		files, err := expandLocation(loc)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if err := b.loadFile(f); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

// ParseLocations splits a Connection.AddressBooksLocation value on
// ';' or ',', trimming whitespace and dropping empties.
func ParseLocations(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' })
	var out []string
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func expandLocation(loc string) ([]string, error) {
	info, err := os.Stat(loc)
	if err != nil {
		return nil, errors.Wrapf(err, "stat address book location %q", loc)
	}
	if !info.IsDir() {
		return []string{loc}, nil
	}
	matches, err := filepath.Glob(filepath.Join(loc, "*.xadr"))
	if err != nil {
		return nil, errors.Wrapf(err, "glob %q", loc)
	}
	sort.Strings(matches)
	return matches, nil
}

func (b *Book) loadFile(path string) error {
	cfg, err := goconfig.LoadConfigFile(path)
	if err != nil {
		return errors.Wrapf(err, "load address book %q", path)
	}
	for _, section := range cfg.GetSectionList() {
		if section == goconfig.DEFAULT_SECTION {
			continue
		}
		entry := Entry{Name: section}
		entry.Host, _ = cfg.GetValue(section, "Host")
		entry.Username, _ = cfg.GetValue(section, "Username")
		entry.Password, _ = cfg.GetValue(section, "Password")
		entry.PrivateKeyPath, _ = cfg.GetValue(section, "PrivateKeyPath")
		entry.KeyPassphrase, _ = cfg.GetValue(section, "KeyPassphrase")
		if portStr, err := cfg.GetValue(section, "Port"); err == nil && portStr != "" {
			if port, err := strconv.Atoi(portStr); err == nil {
				entry.Port = port
			}
		}
		if entry.Host == "" {
			entry.Host = section
		}
		b.entries[strings.ToLower(section)] = entry
	}
	return nil
}

// Lookup finds an entry by name, case-insensitively.
func (b *Book) Lookup(name string) (Entry, bool) {
	e, ok := b.entries[strings.ToLower(name)]
	return e, ok
}

// LookupByHost finds the first entry whose Host matches, case-insensitively.
func (b *Book) LookupByHost(host string) (Entry, bool) {
	for _, e := range b.entries {
		if strings.EqualFold(e.Host, host) {
			return e, true
		}
	}
	return Entry{}, false
}

// All returns every entry, sorted by name.
func (b *Book) All() []Entry {
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
