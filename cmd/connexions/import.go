package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/connexions/internal/application/handlers"
)

type importFlags struct {
	format string
	dryRun bool
	track  bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import relationships from JSON or CSV",
		Long: `Imports relationships from a structured file. Each row names a type and
two users, by ID or by email. Rows that fail validation are reported and
skipped; existing relationships are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().BoolVar(&flags.track, "track", false, "Record activity for every imported relationship")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		opts := handlers.ImportOptions{
			Format: flags.format,
			DryRun: flags.dryRun,
			Track:  flags.track,
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Importing %s...\n", filePath)

		result, err := d.Import.Handle(ctx, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Fprintf(w, "\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Fprintf(w, "  %s\n", e.Error())
			}
		}

		fmt.Fprintln(w)
		if flags.dryRun {
			fmt.Fprintf(w, "Dry run: %d relationships would be imported", result.Imported)
		} else {
			fmt.Fprintf(w, "Imported: %d relationships", result.Imported)
		}
		if result.Skipped > 0 {
			fmt.Fprintf(w, ", %d skipped (already exist)", result.Skipped)
		}
		if len(result.Errors) > 0 {
			fmt.Fprintf(w, ", %d errors", len(result.Errors))
		}
		fmt.Fprintln(w)

		return nil
	})
}
