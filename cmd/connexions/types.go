package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/connexions/internal/domain/entities"
)

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Manage relationship types",
		Long:  "List, add, or remove relationship types.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypesList(cmd)
		},
	}

	cmd.AddCommand(newTypesListCmd())
	cmd.AddCommand(newTypesAddCmd())
	cmd.AddCommand(newTypesRemoveCmd())
	cmd.AddCommand(newTypesDescribeCmd())

	return cmd
}

func newTypesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all relationship types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypesList(cmd)
		},
	}
}

func runTypesList(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		types, err := d.Types.HandleList(ctx)
		if err != nil {
			return fmt.Errorf("listing types: %w", err)
		}

		if len(types) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No relationship types found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION\tDEFAULT")
		for i := range types {
			isDefault := ""
			if entities.IsDefaultType(types[i].Name) {
				isDefault = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", types[i].Name, truncate(types[i].Description, 50), isDefault)
		}
		return w.Flush()
	})
}

func newTypesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> [description]",
		Short: "Add a relationship type",
		Long:  "Add a new relationship type. Name must be lowercase with underscores.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			return runTypesAdd(cmd, args[0], description)
		},
	}
}

func runTypesAdd(cmd *cobra.Command, name, description string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		if err := d.Types.HandleAdd(ctx, name, description); err != nil {
			return fmt.Errorf("adding type: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added relationship type: %s\n", name)
		return nil
	})
}

func newTypesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a relationship type",
		Long:  "Remove a relationship type. Default types cannot be removed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypesRemove(cmd, args[0])
		},
	}
}

func runTypesRemove(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		if err := d.Types.HandleRemove(ctx, name); err != nil {
			return fmt.Errorf("removing type: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed relationship type: %s\n", name)
		return nil
	})
}

func newTypesDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Show details about a relationship type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypesDescribe(cmd, args[0])
		},
	}
}

func runTypesDescribe(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		def, err := d.Types.HandleDescribe(ctx, name)
		if err != nil {
			return fmt.Errorf("describing type: %w", err)
		}
		if def == nil {
			return fmt.Errorf("relationship type %q not found", name)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Name:        %s\n", def.Name)
		fmt.Fprintf(w, "Description: %s\n", def.Description)
		fmt.Fprintf(w, "Default:     %v\n", entities.IsDefaultType(def.Name))
		if !def.CreatedAt.IsZero() {
			fmt.Fprintf(w, "Created:     %s\n", def.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		return nil
	})
}
