package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/services"
)

func setKPIs(f *fixture, id entities.UserID, amount, count, date, days string) {
	f.db.Users[id].Profile = map[string]string{
		entities.ProfileTransactionAmount:    amount,
		entities.ProfileTransactionCount:     count,
		entities.ProfileLastTransactionDate:  date,
		entities.ProfileDaysSinceTransaction: days,
	}
}

func TestProfileHandler_Handle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	setKPIs(f, 2, "120.50", "3", "2024-03-01", "30")
	setKPIs(f, 3, "79.50", "1", "2024-04-15", "5")
	setKPIs(f, 4, "", "", "", "")

	_, err := f.relHandler.HandleAdd(ctx, "family", 1, 2)
	require.NoError(t, err)
	_, err = f.relHandler.HandleAdd(ctx, "family", 1, 3)
	require.NoError(t, err)
	_, err = f.relHandler.HandleAdd(ctx, "family", 3, 4)
	require.NoError(t, err)
	created, err := f.groupHandler.HandleCreate(ctx, services.GroupInput{Name: "Smiths", Type: "Family"})
	require.NoError(t, err)
	_, err = f.groupHandler.HandleAddMember(ctx, created.GroupID, 1)
	require.NoError(t, err)

	profile, err := f.profileHandler.Handle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.User.DisplayName)

	require.Len(t, profile.Relationships, 1)
	family := profile.Relationships[0]
	assert.Equal(t, entities.RelationFamily, family.Type)
	require.Len(t, family.Contacts, 2)
	assert.Equal(t, "Bob", family.Contacts[0].DisplayName)
	assert.Equal(t, "01 March 2024", family.Contacts[0].LastTransactionDate)

	assert.InDelta(t, 200.0, family.Totals.TransactionAmount, 1e-9)
	assert.Equal(t, 4, family.Totals.TransactionCount)
	assert.Equal(t, "15 April 2024", family.Totals.LastTransactionDate)
	require.NotNil(t, family.Totals.DaysSinceTransaction)
	assert.Equal(t, 30, *family.Totals.DaysSinceTransaction)

	require.Len(t, profile.Suggested, 1)
	require.Len(t, profile.Suggested[0].Contacts, 1)
	dan := profile.Suggested[0].Contacts[0]
	assert.Equal(t, entities.UserID(4), dan.ID)
	assert.Zero(t, dan.TransactionAmount)
	assert.Nil(t, dan.DaysSinceTransaction)
	assert.Empty(t, profile.Suggested[0].Totals.LastTransactionDate)

	require.Len(t, profile.Groups, 1)
	assert.Equal(t, "Smiths", profile.Groups[0].Name)
}

func TestProfileHandler_Handle_NoRelationships(t *testing.T) {
	f := newFixture(t)

	profile, err := f.profileHandler.Handle(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, profile.Relationships)
	assert.Empty(t, profile.Suggested)
	assert.Empty(t, profile.Groups)
}

func TestProfileHandler_Handle_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.profileHandler.Handle(context.Background(), 50)
	require.ErrorIs(t, err, entities.ErrUnresolvableIdentity)
}

func TestNewRelatedContact_UnparseableDate(t *testing.T) {
	u := &entities.User{ID: 9, Profile: map[string]string{
		entities.ProfileLastTransactionDate:  "last spring",
		entities.ProfileDaysSinceTransaction: "n/a",
	}}

	c, at := newRelatedContact(u)
	assert.Equal(t, "last spring", c.LastTransactionDate)
	assert.True(t, at.IsZero())
	assert.Nil(t, c.DaysSinceTransaction)
}

func TestParseTransactionDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"2024-03-01", "2024-03-01", true},
		{"2024-03-01 10:30:00", "2024-03-01", true},
		{"2024-03-01T10:30:00Z", "2024-03-01", true},
		{"01 March 2024", "2024-03-01", true},
		{"March", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseTransactionDate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}
