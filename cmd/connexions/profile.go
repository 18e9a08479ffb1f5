package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/connexions/internal/application/handlers"
)

func newProfileCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "profile <user>",
		Short: "Show the relationships, suggestions and groups of a user",
		Long: `Shows every related user with their transaction figures, totals per
relationship type, second-degree suggestions and group memberships.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			user, err := parseUserArg(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				profile, err := d.Profiles.Handle(ctx, user)
				if err != nil {
					return err
				}
				if format == "json" {
					return printJSON(cmd.OutOrStdout(), profile)
				}
				return printProfile(cmd.OutOrStdout(), profile)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}

func printProfile(out io.Writer, p *handlers.Profile) error {
	fmt.Fprintln(out, userLine(p.User))

	if err := printSections(out, "Relationships", p.Relationships); err != nil {
		return err
	}
	if err := printSections(out, "Suggested", p.Suggested); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Groups")
	return printGroups(out, p.Groups)
}

func printSections(out io.Writer, title string, sections []handlers.ProfileSection) error {
	fmt.Fprintln(out)
	fmt.Fprintln(out, title)
	if len(sections) == 0 {
		fmt.Fprintln(out, "  (none)")
		return nil
	}

	for _, s := range sections {
		fmt.Fprintf(out, "\n[%s]\n", s.Type)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tAMOUNT\tCOUNT\tLAST\tDAYS")
		for _, c := range s.Contacts {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%d\t%s\t%s\n",
				c.ID, truncate(c.DisplayName, 30), c.Email,
				c.TransactionAmount, c.TransactionCount, c.LastTransactionDate, days(c.DaysSinceTransaction))
		}
		t := s.Totals
		fmt.Fprintf(w, "\tTOTAL\t\t%.2f\t%d\t%s\t%s\n",
			t.TransactionAmount, t.TransactionCount, t.LastTransactionDate, days(t.DaysSinceTransaction))
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func days(d *int) string {
	if d == nil {
		return ""
	}
	return fmt.Sprint(*d)
}
