// Package entities contains core domain data structures.
package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserID identifies a user account.
// It is the only representation of a user identifier used for storage,
// serialization and comparison; String() is its canonical text form.
type UserID int64

// String returns the canonical decimal form of the ID.
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses the canonical decimal form of a user ID.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUserID, s)
	}
	return UserID(n), nil
}

// Profile attribute keys carrying CRM transaction KPIs.
const (
	ProfileTransactionAmount    = "kpi_transaction_amount"
	ProfileTransactionCount     = "kpi_transaction_count"
	ProfileLastTransactionDate  = "kpi_last_transaction_date"
	ProfileDaysSinceTransaction = "kpi_days_since_last_transaction"
)

// User represents a contact account in the CRM user directory.
type User struct {
	ID          UserID            `json:"id"`
	DisplayName string            `json:"display_name"`
	Email       string            `json:"email"`
	FirstName   string            `json:"first_name,omitempty"`
	LastName    string            `json:"last_name,omitempty"`
	Profile     map[string]string `json:"profile,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Label returns the most human-friendly name available for the user.
func (u *User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return "#" + u.ID.String()
}

// Attr returns a profile attribute, or "" when unset.
func (u *User) Attr(key string) string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile[key]
}

// NormalizeEmail lowercases and trims an email address for matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BuildDisplayName joins first and last name, falling back to the email.
func BuildDisplayName(firstName, lastName, email string) string {
	name := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if name == "" {
		return NormalizeEmail(email)
	}
	return name
}
