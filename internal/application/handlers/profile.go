package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/services"
)

// ProfileDateLayout formats transaction dates in the profile view.
const ProfileDateLayout = "02 January 2006"

// Layouts accepted for stored transaction dates.
var transactionDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	ProfileDateLayout,
}

// ProfileHandler builds the relationships and groups view of a user.
type ProfileHandler struct {
	relationships *services.RelationshipService
	groups        *services.GroupService
	users         *services.UserService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(relationships *services.RelationshipService, groups *services.GroupService, users *services.UserService) *ProfileHandler {
	return &ProfileHandler{
		relationships: relationships,
		groups:        groups,
		users:         users,
	}
}

// RelatedContact is one related user with their transaction figures.
type RelatedContact struct {
	ID                   entities.UserID `json:"id"`
	DisplayName          string          `json:"display_name"`
	Email                string          `json:"email"`
	TransactionAmount    float64         `json:"transaction_amount"`
	TransactionCount     int             `json:"transaction_count"`
	LastTransactionDate  string          `json:"last_transaction_date,omitempty"`
	DaysSinceTransaction *int            `json:"days_since_last_transaction,omitempty"`
}

// KPITotals aggregates the figures of one relationship type.
type KPITotals struct {
	TransactionAmount    float64 `json:"transaction_amount"`
	TransactionCount     int     `json:"transaction_count"`
	LastTransactionDate  string  `json:"last_transaction_date,omitempty"`
	DaysSinceTransaction *int    `json:"days_since_last_transaction,omitempty"`
}

// ProfileSection holds the contacts of one relationship type.
type ProfileSection struct {
	Type     entities.RelationType `json:"type"`
	Contacts []RelatedContact      `json:"contacts"`
	Totals   KPITotals             `json:"totals"`
}

// Profile is the relationships and groups view of a user.
type Profile struct {
	User          *entities.User    `json:"user"`
	Relationships []ProfileSection  `json:"relationships"`
	Suggested     []ProfileSection  `json:"suggested"`
	Groups        []*entities.Group `json:"groups"`
}

// Handle returns the profile of user. The relationship sections and the
// groups are loaded concurrently.
func (h *ProfileHandler) Handle(ctx context.Context, user entities.UserID) (*Profile, error) {
	u, err := h.users.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: u, Suggested: []ProfileSection{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		direct, err := h.relationships.ForUser(gctx, user)
		if err != nil {
			return err
		}
		if profile.Relationships, err = h.sections(gctx, direct); err != nil {
			return err
		}
		if direct.IsEmpty() {
			return nil
		}
		second, err := h.relationships.SecondLevel(gctx, user, direct)
		if err != nil {
			return err
		}
		profile.Suggested, err = h.sections(gctx, second)
		return err
	})
	g.Go(func() error {
		groups, err := h.groups.ForUser(gctx, user)
		if err != nil {
			return err
		}
		profile.Groups = groups
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (h *ProfileHandler) sections(ctx context.Context, graph entities.RelationshipGraph) ([]ProfileSection, error) {
	typed, err := resolveGraph(ctx, h.users, graph)
	if err != nil {
		return nil, err
	}
	sections := make([]ProfileSection, 0, len(typed))
	for _, t := range typed {
		section := ProfileSection{Type: t.Type, Contacts: make([]RelatedContact, 0, len(t.Users))}
		var latest time.Time
		for _, u := range t.Users {
			contact, at := newRelatedContact(u)
			section.Contacts = append(section.Contacts, contact)

			section.Totals.TransactionAmount += contact.TransactionAmount
			section.Totals.TransactionCount += contact.TransactionCount
			if !at.IsZero() && at.After(latest) {
				latest = at
				section.Totals.LastTransactionDate = contact.LastTransactionDate
			}
			if d := contact.DaysSinceTransaction; d != nil {
				if section.Totals.DaysSinceTransaction == nil || *d > *section.Totals.DaysSinceTransaction {
					days := *d
					section.Totals.DaysSinceTransaction = &days
				}
			}
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// newRelatedContact reads the KPI attributes of u. Missing or malformed
// figures count as zero; the parsed last transaction time is returned too.
func newRelatedContact(u *entities.User) (RelatedContact, time.Time) {
	c := RelatedContact{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
	}
	c.TransactionAmount, _ = strconv.ParseFloat(strings.TrimSpace(u.Attr(entities.ProfileTransactionAmount)), 64)
	c.TransactionCount, _ = strconv.Atoi(strings.TrimSpace(u.Attr(entities.ProfileTransactionCount)))

	var at time.Time
	if raw := strings.TrimSpace(u.Attr(entities.ProfileLastTransactionDate)); raw != "" {
		c.LastTransactionDate = raw
		if t, ok := parseTransactionDate(raw); ok {
			at = t
			c.LastTransactionDate = t.Format(ProfileDateLayout)
		}
	}
	if raw := strings.TrimSpace(u.Attr(entities.ProfileDaysSinceTransaction)); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil {
			c.DaysSinceTransaction = &days
		}
	}
	return c, at
}

func parseTransactionDate(raw string) (time.Time, bool) {
	for _, layout := range transactionDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
