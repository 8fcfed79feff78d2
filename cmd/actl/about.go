package main

import (
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/render"
	"github.com/spf13/cobra"
)

// Build metadata, injected at link time via:
//
//	go build -ldflags "-X main.buildVersion=... -X main.buildCommit=... -X main.buildDate=..."
//
// spec.md §9 redirects the original's runtime assembly-reflection
// metadata to build-time constants for a compiled Go binary.
var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Print build and version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		render.KeyValueTable(cmd.OutOrStdout(), []render.Row{
			{Label: "Name", Value: "actl"},
			{Label: "Version", Value: buildVersion},
			{Label: "Commit", Value: buildCommit},
			{Label: "Built", Value: buildDate},
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aboutCmd)
}
