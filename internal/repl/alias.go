package repl

import "strings"

// AliasMap substitutes the first whitespace-delimited word of a
// submitted line, case-insensitively, preserving any arguments that
// follow (spec.md §4.6 submit rules).
type AliasMap map[string]string

// Apply returns line with its leading word replaced per the map, or
// line unchanged if no entry matches.
func (a AliasMap) Apply(line string) string {
	if len(a) == 0 {
		return line
	}
	fields := strings.SplitN(line, " ", 2)
	head := fields[0]
	to, ok := a[strings.ToLower(head)]
	if !ok {
		return line
	}
	if len(fields) == 1 {
		return to
	}
	return to + " " + fields[1]
}
