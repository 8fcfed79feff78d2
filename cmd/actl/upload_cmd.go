package main

import (
	"context"
	"fmt"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/config"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/upload"
	"github.com/spf13/cobra"
)

var uploadFlags struct {
	slot        int
	changedOnly bool
	kill        bool
	doNotStart  bool
	noDIP       bool
	noZig       bool
	programFile string
}

var uploadCmd = &cobra.Command{
	Use:   "upload <program-file>",
	Short: "Upload a program archive to a device slot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uploadFlags.programFile = args[0]

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		host, cred, err := resolveConnection(cfg, rootFlags)
		if err != nil {
			return err
		}

		opts := upload.Options{
			Host:                 host,
			Port:                 defaultSSHPort,
			Cred:                 cred,
			Slot:                 uploadFlags.slot,
			ProgramFile:          uploadFlags.programFile,
			ChangedOnly:          uploadFlags.changedOnly,
			KillProgram:          uploadFlags.kill,
			DoNotStart:           uploadFlags.doNotStart,
			NoIPTable:            uploadFlags.noDIP,
			NoZig:                uploadFlags.noZig,
			Verbose:              rootFlags.verbose,
			MaxReconnectAttempts: cfg.GetInt(config.KeyNumberOfReconnectAttempts, -1),
			Out:                  cmd.OutOrStdout(),
		}

		result, err := upload.Run(context.Background(), opts, log.WithField("component", "upload"))
		if err != nil {
			return err
		}
		if result.NoChanges {
			fmt.Fprintln(cmd.OutOrStdout(), "No files have changed.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d file(s), %d IP table entries.\n", result.FilesUploaded, result.IPTableEntries)
		if len(result.FailedUploads) > 0 {
			return withExitCode(exitGeneralFailure, fmt.Errorf("%d file(s) failed to upload: %v", len(result.FailedUploads), result.FailedUploads))
		}
		return nil
	},
}

func init() {
	f := uploadCmd.Flags()
	f.IntVarP(&uploadFlags.slot, "slot", "s", 1, "program slot (1-10)")
	f.BoolVarP(&uploadFlags.changedOnly, "changed-only", "c", false, "force delta upload even for full packages")
	f.BoolVarP(&uploadFlags.kill, "kill", "k", false, "kill the running program before uploading")
	f.BoolVarP(&uploadFlags.doNotStart, "doNotStart", "d", false, "don't restart/load the program after upload")
	f.BoolVar(&uploadFlags.noDIP, "nodip", false, "skip IP table configuration from the .dip file")
	f.BoolVar(&uploadFlags.noZig, "nozig", false, "skip packaging and uploading the .zig signature")
	rootCmd.AddCommand(uploadCmd)
}
