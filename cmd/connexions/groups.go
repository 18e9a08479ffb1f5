package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/connexions/internal/application/handlers"
	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/services"
	"github.com/ersonp/connexions/internal/infrastructure/parsers"
)

func newGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage groups of users",
		Long: fmt.Sprintf(`Create groups, show them and change their members.
Group types: %s.`, strings.Join(groupTypeNames(), ", ")),
	}

	cmd.AddCommand(newGroupsCreateCmd())
	cmd.AddCommand(newGroupsFromEmailsCmd())
	cmd.AddCommand(newGroupsShowCmd())
	cmd.AddCommand(newGroupsAddCmd())
	cmd.AddCommand(newGroupsRemoveCmd())
	cmd.AddCommand(newGroupsForCmd())

	return cmd
}

func groupTypeNames() []string {
	names := make([]string, len(entities.GroupTypes))
	for i, t := range entities.GroupTypes {
		names[i] = string(t)
	}
	return names
}

type groupFlags struct {
	name        string
	groupType   string
	icon        string
	description string
	createdBy   string
}

func newGroupsCreateCmd() *cobra.Command {
	var flags groupFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty group",
		Example: `  connexions groups create --name "Sunday choir" --type Church
  connexions groups create --name Board --type Business --description "<p>Quarterly</p>"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := services.GroupInput{
				Name:        flags.name,
				Type:        flags.groupType,
				Icon:        flags.icon,
				Description: flags.description,
			}
			if flags.createdBy != "" {
				id, err := parseUserArg(flags.createdBy)
				if err != nil {
					return err
				}
				in.CreatedBy = id
			}

			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				out, err := d.Groups.HandleCreate(ctx, in)
				if err != nil {
					return err
				}
				return printGroupCreated(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Group name (required)")
	cmd.Flags().StringVar(&flags.groupType, "type", "", "Group type (required)")
	cmd.Flags().StringVar(&flags.icon, "icon", "", "Icon name")
	cmd.Flags().StringVar(&flags.description, "description", "", "Description, basic HTML allowed")
	cmd.Flags().StringVar(&flags.createdBy, "created-by", "", "User the creation is recorded for")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newGroupsFromEmailsCmd() *cobra.Command {
	var flags groupFlags
	var file string

	cmd := &cobra.Command{
		Use:   "create-from-emails [email...]",
		Short: "Create a group from email addresses",
		Long: `Creates a group whose members are the given addresses. Unknown
addresses get a new user. Addresses come from the arguments, or one per
line from --file ("-" reads standard input).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			emails, err := collectEmails(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				out, err := d.Groups.HandleCreateFromEmails(ctx, flags.name, flags.groupType, emails)
				if err != nil {
					return err
				}
				return printGroupCreated(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Group name (required)")
	cmd.Flags().StringVar(&flags.groupType, "type", "", "Group type (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File with one email per line")

	return cmd
}

// collectEmails merges addresses from args and from file.
func collectEmails(stdin io.Reader, file string, args []string) ([]string, error) {
	emails := append([]string(nil), args...)
	if file == "" {
		return emails, nil
	}

	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		defer f.Close()
		r = f
	}
	parsed, err := parsers.ParseEmails(r)
	if err != nil {
		return nil, fmt.Errorf("reading emails: %w", err)
	}
	return append(emails, parsed...), nil
}

func printGroupCreated(w io.Writer, out *handlers.GroupCreated) error {
	if !out.Success {
		return errors.New(out.Message)
	}
	fmt.Fprintf(w, "%s (group %d)\n", out.Message, out.GroupID)
	return nil
}

func newGroupsShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <group>",
		Short: "Show a group and its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			id, err := parseGroupArg(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				details, err := d.Groups.HandleGet(ctx, id)
				if err != nil {
					return err
				}
				if format == "json" {
					return printJSON(cmd.OutOrStdout(), details)
				}
				printGroup(cmd.OutOrStdout(), details)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}

func printGroup(w io.Writer, details *handlers.GroupDetails) {
	g := details.Group
	fmt.Fprintf(w, "%s (group %d)\n", g.Name, g.ID)
	fmt.Fprintf(w, "Type:    %s\n", g.Type)
	if g.Icon != "" {
		fmt.Fprintf(w, "Icon:    %s\n", g.Icon)
	}
	if g.Description != "" {
		fmt.Fprintf(w, "About:   %s\n", g.Description)
	}
	fmt.Fprintf(w, "Members: %d\n", len(details.Members))
	for _, u := range details.Members {
		fmt.Fprintf(w, "  - %s\n", userLine(u))
	}
}

func newGroupsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <group> <user>",
		Short: "Add a user to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, user, err := parseMembershipArgs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				out, err := d.Groups.HandleAddMember(ctx, groupID, user)
				if err != nil {
					return err
				}
				return printOutcome(cmd.OutOrStdout(), out)
			})
		},
	}
}

func newGroupsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <group> <user>",
		Short: "Remove a user from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, user, err := parseMembershipArgs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				out, err := d.Groups.HandleRemoveMember(ctx, groupID, user)
				if err != nil {
					return err
				}
				return printOutcome(cmd.OutOrStdout(), out)
			})
		},
	}
}

func parseMembershipArgs(args []string) (int64, entities.UserID, error) {
	groupID, err := parseGroupArg(args[0])
	if err != nil {
		return 0, 0, err
	}
	user, err := parseUserArg(args[1])
	if err != nil {
		return 0, 0, err
	}
	return groupID, user, nil
}

func newGroupsForCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "for <user>",
		Short: "List the groups a user belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := parseUserArg(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				groups, err := d.Groups.HandleForUser(ctx, user)
				if err != nil {
					return err
				}
				return printGroups(cmd.OutOrStdout(), groups)
			})
		},
	}
}

func printGroups(out io.Writer, groups []*entities.Group) error {
	if len(groups) == 0 {
		fmt.Fprintln(out, "No groups found.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tMEMBERS")
	for _, g := range groups {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", g.ID, truncate(g.Name, 40), g.Type, len(g.Members))
	}
	return w.Flush()
}
