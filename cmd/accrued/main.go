package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/accrual/errors"
	"github.com/spf13/cobra"
)

const (
	flagHome  = "home"
	flagAt    = "at"
	flagDebug = "debug"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		debug, _ := root.PersistentFlags().GetBool(flagDebug)
		code, msg := errors.Info(err, debug)
		fmt.Fprintf(os.Stderr, "Error (code %d): %s\n", code, msg)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "accrued",
		Short:         "Interest accruing ledger spanning many domains",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".accrued")
	root.PersistentFlags().String(flagHome, defaultHome, "directory to store files under")
	root.PersistentFlags().String(flagAt, "", "moment operations are executed at, unix seconds or RFC 3339, current time if empty")
	root.PersistentFlags().Bool(flagDebug, false, "print stack traces and internal error messages")

	root.AddCommand(
		initCmd(),
		depositCmd(),
		withdrawCmd(),
		transferCmd(),
		relocateCmd(),
		pendingCmd(),
		balanceCmd(),
		setRateCmd(),
		fundCmd(),
		supplyCmd(),
		versionCmd(),
	)
	return root
}
