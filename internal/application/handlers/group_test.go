package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/services"
)

func TestGroupHandler_HandleCreate(t *testing.T) {
	f := newFixture(t)

	created, err := f.groupHandler.HandleCreate(context.Background(), services.GroupInput{Name: "Smiths", Type: "Family"})
	require.NoError(t, err)
	assert.True(t, created.Success)
	assert.Equal(t, MsgGroupSaved, created.Message)
	assert.NotZero(t, created.GroupID)

	_, err = f.groupHandler.HandleCreate(context.Background(), services.GroupInput{Name: "Smiths", Type: "Tribe"})
	require.ErrorIs(t, err, entities.ErrInvalidGroupType)
}

func TestGroupHandler_HandleCreateFromEmails(t *testing.T) {
	t.Run("creates members", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		created, err := f.groupHandler.HandleCreateFromEmails(ctx, "Choir", "Church",
			[]string{"alice@example.com", "", "new@example.com"})
		require.NoError(t, err)
		require.True(t, created.Success)

		details, err := f.groupHandler.HandleGet(ctx, created.GroupID)
		require.NoError(t, err)
		require.Len(t, details.Members, 2)
		assert.Equal(t, "Alice", details.Members[0].DisplayName)
		assert.Equal(t, "new@example.com", details.Members[1].Email)
	})

	t.Run("missing fields", func(t *testing.T) {
		tests := []struct {
			name      string
			groupName string
			groupType string
			emails    []string
		}{
			{"no name", " ", "Church", []string{"a@example.com"}},
			{"no type", "Choir", "", []string{"a@example.com"}},
			{"no emails", "Choir", "Church", []string{"", "  "}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				created, err := f.groupHandler.HandleCreateFromEmails(context.Background(), tt.groupName, tt.groupType, tt.emails)
				require.NoError(t, err)
				assert.False(t, created.Success)
				assert.Equal(t, MsgGroupFieldsRequired, created.Message)
				assert.Empty(t, f.db.Records)
			})
		}
	})
}

func TestGroupHandler_Members(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.groupHandler.HandleCreate(ctx, services.GroupInput{Name: "Book Club", Type: "Other"})
	require.NoError(t, err)
	id := created.GroupID

	out, err := f.groupHandler.HandleAddMember(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, &Outcome{Success: true, Message: MsgGroupMemberAdded}, out)

	out, err = f.groupHandler.HandleAddMember(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, &Outcome{Success: false, Message: MsgGroupMemberExists}, out)

	groups, err := f.groupHandler.HandleForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Book Club", groups[0].Name)

	out, err = f.groupHandler.HandleRemoveMember(ctx, id, 2)
	require.NoError(t, err)
	assert.True(t, out.Success)

	out, err = f.groupHandler.HandleRemoveMember(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, MsgGroupMemberNotPresent, out.Message)

	_, err = f.groupHandler.HandleAddMember(ctx, id, 99)
	require.ErrorIs(t, err, entities.ErrUnresolvableIdentity)
}

func TestGroupHandler_HandleGet_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.groupHandler.HandleGet(context.Background(), 404)
	require.ErrorIs(t, err, entities.ErrGroupNotFound)
}
