package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/ersonp/connexions/internal/application/handlers"
	"github.com/ersonp/connexions/internal/domain/entities"
)

// parseUserArg parses a user ID argument.
func parseUserArg(s string) (entities.UserID, error) {
	return entities.ParseUserID(s)
}

// parseGroupArg parses a group ID argument.
func parseGroupArg(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid group id %q", s)
	}
	return id, nil
}

func validateFormat(format string) error {
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("invalid format %q (valid: %s)", format, strings.Join(outputFormats, ", "))
	}
	return nil
}

// printOutcome prints a successful outcome and turns a failed one into an
// error so the exit status reflects it.
func printOutcome(w io.Writer, out *handlers.Outcome) error {
	if !out.Success {
		return errors.New(out.Message)
	}
	fmt.Fprintln(w, out.Message)
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// userLine renders a user as "Name (id) <email>".
func userLine(u *entities.User) string {
	if u.Email == "" || u.Email == u.Label() {
		return fmt.Sprintf("%s (%d)", u.Label(), u.ID)
	}
	return fmt.Sprintf("%s (%d) <%s>", u.Label(), u.ID, u.Email)
}

// printTypedUsers prints related users grouped by relationship type.
func printTypedUsers(w io.Writer, title string, sections []handlers.TypedUsers) {
	fmt.Fprintln(w, title)
	if len(sections) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, s := range sections {
		fmt.Fprintf(w, "  %s\n", s.Type)
		for i, u := range s.Users {
			prefix := "+-"
			if i == len(s.Users)-1 {
				prefix = "\\-"
			}
			fmt.Fprintf(w, "    %s %s\n", prefix, userLine(u))
		}
	}
}

// truncate shortens a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
