// Package main provides the entry point for the connexions CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0-dev"
	globalDir string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := newRootCmd()
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "connexions",
		Short:         "Relationships and groups between CRM contacts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalDir, "dir", "C", "", "Directory holding .connexions (default: current directory)")

	rootCmd.AddCommand(
		newInitCmd(),
		newRelateCmd(),
		newRelationsCmd(),
		newTypesCmd(),
		newUsersCmd(),
		newGroupsCmd(),
		newMergeCmd(),
		newProfileCmd(),
		newImportCmd(),
		newExportCmd(),
		newServeCmd(),
	)

	return rootCmd
}
