// Package render formats command output for the terminal: simple
// key/value tables (via text/tabwriter, as the torrent backend command
// does for its stats listing) and minimal bold/dim text spans for
// emphasis in interactive prompts.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const (
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// Bold wraps s in an ANSI bold span.
func Bold(s string) string { return ansiBold + s + ansiReset }

// Dim wraps s in an ANSI dim span.
func Dim(s string) string { return ansiDim + s + ansiReset }

// Row is one label/value pair in a KeyValueTable.
type Row struct {
	Label string
	Value string
}

// KeyValueTable writes rows as a tab-aligned "Label:\tValue" listing,
// one per line, followed by a blank line.
func KeyValueTable(w io.Writer, rows []Row) {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r.Label, r.Value)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

// Column is one header in a Table listing.
type Column struct {
	Header string
}

// Table writes a header row followed by one tab-aligned row per
// entry in rows; each row must have the same length as columns.
func Table(w io.Writer, columns []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}
