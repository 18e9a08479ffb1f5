package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/connexions/internal/application/handlers"
	"github.com/ersonp/connexions/internal/infrastructure/relationaldb"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new connexions workspace",
		Long: `Creates a .connexions directory with default configuration, applies the
database schema, seeds the relationship types and creates the group form.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	basePath, err := workDir()
	if err != nil {
		return err
	}

	result, err := handlers.NewInitHandler(relationaldb.Open).Handle(cmd.Context(), basePath)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created %s\n", result.ConfigPath)
	fmt.Fprintf(w, "Storage driver: %s\n", result.Driver)
	fmt.Fprintf(w, "Relationship types: %d\n", result.TypeCount)
	fmt.Fprintf(w, "Group form: %d\n", result.GroupFormID)
	fmt.Fprintln(w, "Connexions initialized successfully!")
	return nil
}
