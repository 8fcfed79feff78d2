package main

import (
	"fmt"

	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/config"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/render"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var addressBookCmd = &cobra.Command{
	Use:   "addressbook",
	Short: "Inspect configured address books",
}

var addressBookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known address-book entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		book, err := loadAddressBook(cfg)
		if err != nil {
			return errors.Wrap(err, "load address books")
		}

		var rows [][]string
		for _, e := range book.All() {
			rows = append(rows, []string{e.Name, e.Host, e.Username, fmt.Sprintf("%v", e.HasCredentials())})
		}
		render.Table(cmd.OutOrStdout(), []string{"Name", "Host", "Username", "Has Credentials"}, rows)
		return nil
	},
}

var addressBookLookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Print one address-book entry's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		book, err := loadAddressBook(cfg)
		if err != nil {
			return errors.Wrap(err, "load address books")
		}
		entry, ok := lookupEntry(book, args[0])
		if !ok {
			return errors.Errorf("no address-book entry named %q", args[0])
		}
		render.KeyValueTable(cmd.OutOrStdout(), []render.Row{
			{Label: "Name", Value: entry.Name},
			{Label: "Host", Value: entry.Host},
			{Label: "Port", Value: fmt.Sprintf("%d", entry.Port)},
			{Label: "Username", Value: entry.Username},
			{Label: "Has Credentials", Value: fmt.Sprintf("%v", entry.HasCredentials())},
		})
		return nil
	},
}

func init() {
	addressBookCmd.AddCommand(addressBookListCmd, addressBookLookupCmd)
	rootCmd.AddCommand(addressBookCmd)
}
