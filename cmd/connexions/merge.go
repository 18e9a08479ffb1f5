package main

import (
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <to-user> <from-user>",
		Short: "Merge one user into another",
		Long: `Moves every relationship and group membership of <from-user> onto
<to-user>. Relationships between the two users are dropped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseUserArg(args[0])
			if err != nil {
				return err
			}
			from, err := parseUserArg(args[1])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				out, err := d.Users.HandleMerge(ctx, to, from)
				if err != nil {
					return err
				}
				return printOutcome(cmd.OutOrStdout(), out)
			})
		},
	}
}
