package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/connexions/internal/application/handlers"
)

type relationsFlags struct {
	relType   string
	suggested bool
	format    string
}

func newRelationsCmd() *cobra.Command {
	var flags relationsFlags

	cmd := &cobra.Command{
		Use:   "relations <user>",
		Short: "List the relationships of a user",
		Long: `Shows the users related to a user, grouped by relationship type.
With --suggested, shows second-degree connections instead.

Examples:
  connexions relations 12
  connexions relations 12 --type family
  connexions relations 12 --suggested --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelations(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.relType, "type", "", "Only show this relationship type")
	cmd.Flags().BoolVar(&flags.suggested, "suggested", false, "Show second-degree connections")
	cmd.Flags().StringVar(&flags.format, "format", "text", "Output format: text, json")

	return cmd
}

func runRelations(cmd *cobra.Command, arg string, flags relationsFlags) error {
	if err := validateFormat(flags.format); err != nil {
		return err
	}
	if flags.suggested && flags.relType != "" {
		return fmt.Errorf("--type cannot be combined with --suggested")
	}
	user, err := parseUserArg(arg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return withDeps(ctx, func(d *Deps) error {
		var list *handlers.RelationshipList
		if flags.suggested {
			list, err = d.Relationships.HandleSuggested(ctx, user)
		} else {
			list, err = d.Relationships.HandleList(ctx, user, flags.relType)
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if flags.format == "json" {
			return printJSON(w, list)
		}
		title := "Relationships of " + userLine(list.User)
		if flags.suggested {
			title = "Suggested relationships of " + userLine(list.User)
		}
		printTypedUsers(w, title, list.Relationships)
		return nil
	})
}
