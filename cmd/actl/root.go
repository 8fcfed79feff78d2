// Package main implements actl, the command-line toolkit for
// operating Crestron control-system hardware over SSH/SFTP.
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// defaultSSHPort is used when an address-book entry or flag doesn't
// specify one.
const defaultSSHPort = 22

// Exit codes (spec.md §6).
const (
	exitOK                 = 0
	exitGeneralFailure     = 1
	exitCredentialsMissing = 101
	exitAddressBookNoCreds = 102
)

// connectionFlags hold the persistent root flags shared by every
// subcommand that talks to a device.
type connectionFlags struct {
	address  string
	username string
	password string
	verbose  bool
	keyPath  string
	keyPass  string
}

var rootFlags connectionFlags

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:           "actl",
	Short:         "Operate Crestron control-system hardware over SSH/SFTP",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(colorable.NewColorableStdout())
		if rootFlags.verbose {
			log.SetLevel(logrus.DebugLevel)
		} else {
			log.SetLevel(logrus.WarnLevel)
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.address, "address", "a", "", "device address or address-book name")
	pf.StringVarP(&rootFlags.username, "username", "u", "", "login username")
	pf.StringVarP(&rootFlags.password, "password", "p", "", "login password")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable verbose diagnostic logging")
	pf.StringVar(&rootFlags.keyPath, "key", "", "private key path for key-based auth")
	pf.StringVar(&rootFlags.keyPass, "key-pass", "", "passphrase for --key")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if ec, ok := err.(exitCoder); ok {
			if ec.ExitCode() != exitOK {
				fmt.Fprintln(os.Stderr, err)
			}
			return ec.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return exitGeneralFailure
	}
	return exitOK
}

// exitCoder lets a subcommand's returned error carry a specific
// process exit code (used for the 101/102 credential-resolution
// failures) instead of always falling back to the generic 1.
type exitCoder interface {
	error
	ExitCode() int
}

type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) ExitCode() int { return e.code }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCodeError{code: code, err: err}
}
