package main

import (
	"context"
	"os"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/config"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/editor"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/spf13/cobra"
)

var editRemote bool

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Edit a local or (with --remote) device-resident file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !editRemote {
			buf, err := editor.Load(path)
			if err != nil {
				return err
			}
			save, err := editor.RunInteractive(buf, os.Stdin, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !save {
				return nil
			}
			return buf.Save(path)
		}

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
		if err := sess.ConnectFileTransfer(ctx); err != nil {
			return err
		}

		file, err := editor.LoadRemote(ctx, sess, path)
		if err != nil {
			return err
		}
		defer file.Close()

		save, err := editor.RunInteractive(file.Buffer, os.Stdin, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if !save {
			return nil
		}
		return file.Save(ctx)
	},
}

func init() {
	editCmd.Flags().BoolVar(&editRemote, "remote", false, "edit the file on the connected device via SFTP")
	rootCmd.AddCommand(editCmd)
}
