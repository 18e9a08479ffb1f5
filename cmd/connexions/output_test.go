package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/connexions/internal/application/handlers"
	"github.com/ersonp/connexions/internal/domain/entities"
)

func TestParseGroupArg(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{" 7 ", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseGroupArg(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMembershipArgs(t *testing.T) {
	group, user, err := parseMembershipArgs([]string{"3", "9"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), group)
	assert.Equal(t, entities.UserID(9), user)

	_, _, err = parseMembershipArgs([]string{"3", "x"})
	require.ErrorIs(t, err, entities.ErrInvalidUserID)
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("text"))
	assert.NoError(t, validateFormat("json"))
	assert.Error(t, validateFormat("yaml"))
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printOutcome(&buf, &handlers.Outcome{Success: true, Message: "done"}))
	assert.Equal(t, "done\n", buf.String())

	buf.Reset()
	err := printOutcome(&buf, &handlers.Outcome{Success: false, Message: "already there"})
	require.EqualError(t, err, "already there")
	assert.Empty(t, buf.String())
}

func TestUserLine(t *testing.T) {
	assert.Equal(t, "Alice (1) <alice@example.com>",
		userLine(&entities.User{ID: 1, DisplayName: "Alice", Email: "alice@example.com"}))
	assert.Equal(t, "bob@example.com (2)",
		userLine(&entities.User{ID: 2, Email: "bob@example.com"}))
	assert.Equal(t, "#3 (3)", userLine(&entities.User{ID: 3}))
}

func TestPrintTypedUsers(t *testing.T) {
	var buf bytes.Buffer
	printTypedUsers(&buf, "Relationships of Alice", []handlers.TypedUsers{
		{Type: entities.RelationFamily, Users: []*entities.User{
			{ID: 2, DisplayName: "Bob", Email: "bob@example.com"},
			{ID: 3, DisplayName: "Carol", Email: "carol@example.com"},
		}},
	})

	assert.Equal(t, `Relationships of Alice
  family
    +- Bob (2) <bob@example.com>
    \- Carol (3) <carol@example.com>
`, buf.String())

	buf.Reset()
	printTypedUsers(&buf, "Suggested", nil)
	assert.Equal(t, "Suggested\n  (none)\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestCollectEmails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emails.txt")
	require.NoError(t, os.WriteFile(path, []byte("carol@example.com\n\ndan@example.com\n"), 0644))

	emails, err := collectEmails(nil, path, []string{"alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "carol@example.com", "dan@example.com"}, emails)

	emails, err = collectEmails(strings.NewReader("eve@example.com\n"), "-", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"eve@example.com"}, emails)

	_, err = collectEmails(nil, filepath.Join(t.TempDir(), "missing.txt"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening file")
}

func TestWriteOutput(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, writeOutput(&stdout, "", func(w io.Writer) error {
		_, err := io.WriteString(w, "to stdout")
		return err
	}))
	assert.Equal(t, "to stdout", stdout.String())

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeOutput(&stdout, path, func(w io.Writer) error {
		_, err := io.WriteString(w, "to file")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "to file", string(data))

	boom := errors.New("boom")
	assert.ErrorIs(t, writeOutput(&stdout, path, func(io.Writer) error { return boom }), boom)
}

func TestPrintProfile(t *testing.T) {
	days := 5
	p := &handlers.Profile{
		User: &entities.User{ID: 1, DisplayName: "Alice", Email: "alice@example.com"},
		Relationships: []handlers.ProfileSection{{
			Type: entities.RelationFamily,
			Contacts: []handlers.RelatedContact{
				{ID: 2, DisplayName: "Bob", Email: "bob@example.com", TransactionAmount: 12.5, TransactionCount: 2, DaysSinceTransaction: &days},
			},
			Totals: handlers.KPITotals{TransactionAmount: 12.5, TransactionCount: 2, DaysSinceTransaction: &days},
		}},
		Groups: []*entities.Group{{ID: 4, Name: "Choir", Type: entities.GroupChurch, Members: entities.MemberList{1, 2}}},
	}

	var buf bytes.Buffer
	require.NoError(t, printProfile(&buf, p))

	out := buf.String()
	assert.Contains(t, out, "Alice (1) <alice@example.com>")
	assert.Contains(t, out, "[family]")
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "Suggested\n  (none)")
	assert.Contains(t, out, "Choir")
}
