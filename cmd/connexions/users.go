package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/connexions/internal/application/handlers"
	"github.com/ersonp/connexions/internal/domain/entities"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Look up users",
	}

	cmd.AddCommand(newUsersSearchCmd())
	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersShowCmd())
	cmd.AddCommand(newUsersActivityCmd())

	return cmd
}

func newUsersSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find users by name or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				res, err := d.Users.HandleSearch(ctx, args[0], limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(res.Users) == 0 {
					fmt.Fprintf(w, "No users match %q\n", args[0])
					return nil
				}
				if err := printUsers(w, res.Users); err != nil {
					return err
				}
				if res.Message != "" {
					fmt.Fprintln(w, res.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultSearchLimit, "Maximum number of users to show")

	return cmd
}

func newUsersListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users by ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				users, err := d.Users.HandleList(ctx, limit, offset)
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
					return nil
				}
				return printUsers(cmd.OutOrStdout(), users)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of users to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of users to skip")

	return cmd
}

func newUsersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserArg(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				user, err := d.Users.HandleGet(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), user)
			})
		},
	}
}

func newUsersActivityCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity <user>",
		Short: "Show the recorded activity of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserArg(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				entries, err := d.Users.HandleActivity(ctx, id, limit)
				if err != nil {
					return err
				}
				return printActivity(cmd.OutOrStdout(), entries)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", handlers.DefaultActivityLimit, "Maximum number of entries to show")

	return cmd
}

func printUsers(out io.Writer, users []*entities.User) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, truncate(u.Label(), 40), u.Email)
	}
	return w.Flush()
}

func printActivity(out io.Writer, entries []entities.Activity) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No activity recorded.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTYPE\tTITLE")
	for _, a := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.CreatedAt.Format("2006-01-02 15:04"), a.Type, truncate(a.Title, 70))
	}
	return w.Flush()
}
