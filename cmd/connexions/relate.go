package main

import (
	"github.com/spf13/cobra"
)

func newRelateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relate <type> <user-a> <user-b>",
		Short: "Relate two users",
		Long: `Creates a relationship between two users. Relationships are symmetric:
relating A to B also relates B to A.

Examples:
  connexions relate family 12 40
  connexions relate update family 12 40 personal
  connexions relate remove personal 40 12`,
		Args: cobra.ExactArgs(3),
		RunE: runRelate,
	}

	cmd.AddCommand(newRelateUpdateCmd())
	cmd.AddCommand(newRelateRemoveCmd())

	return cmd
}

func runRelate(cmd *cobra.Command, args []string) error {
	a, err := parseUserArg(args[1])
	if err != nil {
		return err
	}
	b, err := parseUserArg(args[2])
	if err != nil {
		return err
	}

	return withDeps(cmd.Context(), func(d *Deps) error {
		out, err := d.Relationships.HandleAdd(cmd.Context(), args[0], a, b)
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), out)
	})
}

func newRelateUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <old-type> <user-a> <user-b> <new-type>",
		Short: "Change the type of a relationship",
		Args:  cobra.ExactArgs(4),
		RunE:  runRelateUpdate,
	}
}

func runRelateUpdate(cmd *cobra.Command, args []string) error {
	a, err := parseUserArg(args[1])
	if err != nil {
		return err
	}
	b, err := parseUserArg(args[2])
	if err != nil {
		return err
	}

	return withDeps(cmd.Context(), func(d *Deps) error {
		out, err := d.Relationships.HandleUpdate(cmd.Context(), args[0], a, b, args[3])
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), out)
	})
}

func newRelateRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <type> <user-a> <user-b>",
		Aliases: []string{"delete"},
		Short:   "Remove a relationship",
		Args:    cobra.ExactArgs(3),
		RunE:    runRelateRemove,
	}
}

func runRelateRemove(cmd *cobra.Command, args []string) error {
	a, err := parseUserArg(args[1])
	if err != nil {
		return err
	}
	b, err := parseUserArg(args[2])
	if err != nil {
		return err
	}

	return withDeps(cmd.Context(), func(d *Deps) error {
		out, err := d.Relationships.HandleRemove(cmd.Context(), args[0], a, b)
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), out)
	})
}
