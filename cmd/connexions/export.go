package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ersonp/connexions/internal/application/handlers"
)

type exportFlags struct {
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export relationships to file",
		Long:  "Exports every relationship once, as JSON or as CSV that import accepts again.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !slices.Contains(handlers.ExportFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, handlers.ExportFormats)
	}

	ctx := cmd.Context()
	return withDeps(ctx, func(d *Deps) error {
		return writeOutput(cmd.OutOrStdout(), flags.output, func(w io.Writer) error {
			n, err := d.Export.Handle(ctx, w, flags.format)
			if err != nil {
				return err
			}
			if flags.output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d relationships to %s\n", n, flags.output)
			}
			return nil
		})
	})
}

// writeOutput runs write against the named file, or against stdout when
// path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(stdout)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()
	return write(f)
}
