package repl

import (
	"regexp"
	"strings"
)

// promptPattern matches a trailing device prompt: anything up to and
// including a '>' at end-of-line, with an optional trailing space
// (spec.md §4.6, §6 "Prompt ends with '>' optionally followed by one space").
var promptPattern = regexp.MustCompile(`(?m)^([^\r\n]*>) ?$`)

// blankRunPattern collapses three or more consecutive blank lines
// down to two (spec.md §4.6 step 1).
var blankRunPattern = regexp.MustCompile(`\n{4,}`)

// PromptDetector discovers and remembers the device shell prompt from
// streamed output, so it can be stripped from subsequent chunks
// before they're shown to the user.
type PromptDetector struct {
	prompt string
	known  bool
}

// Observe scans chunk for a trailing prompt if one hasn't been
// detected yet. Returns the detected prompt, if any.
func (d *PromptDetector) Observe(chunk string) (string, bool) {
	if d.known {
		return d.prompt, true
	}
	trimmed := strings.TrimRight(chunk, "\r\n")
	m := promptPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return "", false
	}
	d.prompt = m[1]
	d.known = true
	return d.prompt, true
}

// Known reports whether a prompt has been detected.
func (d *PromptDetector) Known() bool { return d.known }

// Prompt returns the detected prompt, or "" if none yet.
func (d *PromptDetector) Prompt() string { return d.prompt }

// ProcessChunk applies the spec.md §4.6 step-1 display pipeline to raw
// device output: detect the prompt if unknown, strip every occurrence
// of it (with and without a trailing space), collapse runs of 3+
// blank lines to 2, trim trailing whitespace, and append one
// terminating newline. Returns "" if nothing remains to display.
func (d *PromptDetector) ProcessChunk(raw string) string {
	d.Observe(raw)

	out := raw
	if d.known && d.prompt != "" {
		out = strings.ReplaceAll(out, d.prompt+" ", "")
		out = strings.ReplaceAll(out, d.prompt, "")
	}
	out = blankRunPattern.ReplaceAllString(out, "\n\n\n")
	out = strings.TrimRight(out, " \t\r\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}
