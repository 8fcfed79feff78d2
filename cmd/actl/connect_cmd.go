package main

import (
	"context"
	"os"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/config"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/history"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/repl"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/status"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
)

// exitCommand is the device-specific literal sent when the user exits
// the pass-through session (spec.md §4.6 Ctrl+X handling).
const exitCommand = "quit"

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Open an interactive pass-through session to the device shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		host, cred, err := resolveConnection(cfg, rootFlags)
		if err != nil {
			return err
		}

		ctx := context.Background()
		sess := session.New(host, defaultSSHPort, cred, cfg.GetInt(config.KeyNumberOfReconnectAttempts, -1))
		defer sess.Dispose()

		out := colorable.NewColorableStdout()
		renderer := status.New(out)
		sess.AddListener(renderer)

		if err := sess.ConnectShell(ctx); err != nil {
			return err
		}

		hist := history.New(host, history.DefaultMaxSize)
		defer hist.Save()

		r := repl.New(sess, hist, repl.Options{ExitCommand: exitCommand})
		defer r.Close()

		for {
			result, err := repl.Run(ctx, r, os.Stdin, out)
			if err != nil {
				return err
			}
			if result.Kind != repl.SubmitNested {
				return nil
			}
			dispatchNested(cfg, result.Nested, out)
			r.ResumeAfterNested()
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

// dispatchNested runs a ":command" line entered inside the REPL
// through the root command tree, out of band (spec.md §4.6 submit
// rules for lines beginning with ':').
func dispatchNested(cfg *config.Config, line string, out interface {
	Write([]byte) (int, error)
}) {
	rootCmd.SetArgs(splitArgs(line))
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	_ = rootCmd.Execute()
}

func splitArgs(line string) []string {
	var args []string
	var current []rune
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if len(current) > 0 {
				args = append(args, string(current))
				current = nil
			}
		default:
			current = append(current, r)
		}
	}
	if len(current) > 0 {
		args = append(args, string(current))
	}
	return args
}
