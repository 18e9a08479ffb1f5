package services

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/mocks"
)

// stripTags drops bold markup from text and script tags from rich text.
type stripTags struct{}

func (stripTags) Text(s string) string {
	return strings.NewReplacer("<b>", "", "</b>", "").Replace(s)
}

func (stripTags) RichText(s string) string {
	return strings.NewReplacer("<script>", "", "</script>", "").Replace(s)
}

type groupFixture struct {
	svc     *GroupService
	db      *mocks.RelationalDB
	tracker *mocks.Tracker
	metrics *mocks.Metrics
}

func newGroupFixture(t *testing.T, cfg GroupConfig) *groupFixture {
	t.Helper()
	db := mocks.NewRelationalDB()
	db.AddUser(1, "Alice", "alice@example.com")
	db.AddUser(2, "Bob", "bob@example.com")
	db.AddUser(3, "Carol", "carol@example.com")
	db.AddUser(4, "Dan", "dan@example.com")

	tracker := mocks.NewTracker()
	metrics := mocks.NewMetrics()
	svc := NewGroupService(db, db, tracker, stripTags{}, nil, cfg)
	svc.SetMetrics(metrics)
	return &groupFixture{svc: svc, db: db, tracker: tracker, metrics: metrics}
}

func (f *groupFixture) createGroup(t *testing.T, name string, members ...entities.UserID) int64 {
	t.Helper()
	id, err := f.svc.Create(context.Background(), GroupInput{Name: name, Type: "Family"})
	require.NoError(t, err)
	for _, m := range members {
		added, err := f.svc.AddUser(context.Background(), m, id, false)
		require.NoError(t, err)
		require.True(t, added)
	}
	f.tracker.Reset()
	return id
}

func TestGroupService_Form(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()

	id, err := f.svc.Form(ctx)
	require.NoError(t, err)
	assert.NotZero(t, id)

	stored, err := f.db.GetOption(ctx, GroupFormOption)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(id, 10), stored)

	form, err := f.db.GetForm(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, form)
	assert.Equal(t, "[Connexions] Groups", form.Title)
	assert.NotEmpty(t, form.ConfirmationID)
	confirmationID := form.ConfirmationID

	// Drift is corrected on the next call, under the same ID.
	form.Title = "edited by hand"
	form.Fields = form.Fields[:2]
	require.NoError(t, f.db.UpdateForm(ctx, form))

	again, err := f.svc.Form(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	form, err = f.db.GetForm(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "[Connexions] Groups", form.Title)
	assert.Len(t, form.Fields, 5)
	assert.Equal(t, confirmationID, form.ConfirmationID)
	assert.Len(t, f.db.Forms, 1)
}

func TestGroupService_Form_RecreatesMissing(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{FormTitle: "Groups"})
	ctx := context.Background()
	require.NoError(t, f.db.SetOption(ctx, GroupFormOption, "999"))

	id, err := f.svc.Form(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, int64(999), id)

	form, err := f.db.GetForm(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, form)
	assert.Equal(t, "Groups", form.Title)
}

func TestGroupService_Create(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()

	id, err := f.svc.Create(ctx, GroupInput{
		Name:        " <b>Smiths</b> ",
		Type:        "family",
		Description: "Our family<script>",
		CreatedBy:   1,
	})
	require.NoError(t, err)

	g, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Smiths", g.Name)
	assert.Equal(t, entities.GroupFamily, g.Type)
	assert.Equal(t, "Our family", g.Description)
	assert.Empty(t, g.Members)

	require.Len(t, f.tracker.Events, 1)
	assert.Equal(t, "New Family group created: Smiths", f.tracker.Events[0].Title)
	assert.Equal(t, entities.ActivityGroups, f.tracker.Events[0].Type)
	assert.Equal(t, "alice@example.com", f.tracker.Events[0].Email)
}

func TestGroupService_Create_Validation(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()

	_, err := f.svc.Create(ctx, GroupInput{Name: "  ", Type: "Family"})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	_, err = f.svc.Create(ctx, GroupInput{Name: "Club", Type: "Sports"})
	assert.ErrorIs(t, err, entities.ErrInvalidGroupType)

	assert.Empty(t, f.db.Records)
	assert.Empty(t, f.tracker.Events)
}

func TestGroupService_Get_NotFound(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})

	_, err := f.svc.Get(context.Background(), 12345)
	assert.ErrorIs(t, err, entities.ErrGroupNotFound)
}

func TestGroupService_Get_OtherForm(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()
	otherForm, err := f.db.CreateForm(ctx, &entities.Form{Title: "Newsletter"})
	require.NoError(t, err)
	recID, err := f.db.SubmitRecord(ctx, otherForm, map[int]string{1: "not a group"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, recID)
	assert.ErrorIs(t, err, entities.ErrGroupNotFound)
}

func TestGroupService_AddUser(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()
	id := f.createGroup(t, "Smiths")

	added, err := f.svc.AddUser(ctx, 1, id, true)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = f.svc.AddUser(ctx, 1, id, true)
	require.NoError(t, err)
	assert.False(t, added)

	g, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entities.MemberList{1}, g.Members)
	assert.Equal(t, `["1"]`, f.db.Records[id].Fields[entities.FieldGroupMembers])

	require.Len(t, f.tracker.Events, 1)
	assert.Equal(t, entities.TitleGroupAdded, f.tracker.Events[0].Title)
	assert.Equal(t, "Alice is now a member of Smiths", f.tracker.Events[0].Description)
	assert.Equal(t, entities.UserID(1), f.tracker.Events[0].UserID)
	assert.Equal(t, 1, f.metrics.Count("group_add_user", "ok"))
	assert.Equal(t, 1, f.metrics.Count("group_add_user", "rejected"))
}

func TestGroupService_AddUser_Errors(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()
	id := f.createGroup(t, "Smiths")

	_, err := f.svc.AddUser(ctx, 99, id, true)
	assert.ErrorIs(t, err, entities.ErrUnresolvableIdentity)

	_, err = f.svc.AddUser(ctx, 1, id+100, true)
	assert.ErrorIs(t, err, entities.ErrGroupNotFound)

	assert.Empty(t, f.tracker.Events)
}

func TestGroupService_AddUser_EmptyMembersField(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()
	formID, err := f.svc.Form(ctx)
	require.NoError(t, err)
	id, err := f.db.SubmitRecord(ctx, formID, map[int]string{entities.FieldGroupName: "Legacy"})
	require.NoError(t, err)

	added, err := f.svc.AddUser(ctx, 2, id, false)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, `["2"]`, f.db.Records[id].Fields[entities.FieldGroupMembers])
	assert.Equal(t, "Legacy", f.db.Records[id].Fields[entities.FieldGroupName])
}

func TestGroupService_RemoveUser(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()
	id := f.createGroup(t, "Smiths", 1, 2, 3)

	removed, err := f.svc.RemoveUser(ctx, 2, id, true)
	require.NoError(t, err)
	assert.True(t, removed)

	g, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entities.MemberList{1, 3}, g.Members)

	removed, err = f.svc.RemoveUser(ctx, 2, id, true)
	require.NoError(t, err)
	assert.False(t, removed)

	require.Len(t, f.tracker.Events, 1)
	assert.Equal(t, entities.TitleGroupRemoved, f.tracker.Events[0].Title)
	assert.Equal(t, entities.ActivityRelationships, f.tracker.Events[0].Type)
	assert.Equal(t, "Bob is no longer a member of Smiths", f.tracker.Events[0].Description)
}

func TestGroupService_AddUser_RetriesOnConflict(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()
	id := f.createGroup(t, "Smiths")

	calls := 0
	f.db.BeforeUpdateRecord = func(rec *entities.Record) {
		calls++
		if calls == 1 {
			// Another writer adds Carol between our read and write.
			stored := f.db.Records[rec.ID]
			stored.Fields[entities.FieldGroupMembers] = `["3"]`
			stored.Revision++
		}
	}

	added, err := f.svc.AddUser(ctx, 1, id, false)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 2, calls)

	g, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entities.MemberList{3, 1}, g.Members)
	assert.Equal(t, 1, f.metrics.Conflicts)
}

func TestGroupService_AddUser_GivesUpAfterRetries(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{MaxUpdateRetries: 2})
	ctx := context.Background()
	id := f.createGroup(t, "Smiths")

	calls := 0
	f.db.BeforeUpdateRecord = func(rec *entities.Record) {
		calls++
		f.db.Records[rec.ID].Revision++
	}

	added, err := f.svc.AddUser(ctx, 1, id, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrRevisionConflict)
	assert.False(t, added)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, f.metrics.Conflicts)
	assert.Empty(t, f.tracker.Events)
}

func TestGroupService_ForUser(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()
	smiths := f.createGroup(t, "Smiths", 1, 2)
	choir := f.createGroup(t, "Choir", 3)
	office := f.createGroup(t, "Office", 2, 1)

	// Member 12 must not match a search for member 1.
	formID, err := f.svc.Form(ctx)
	require.NoError(t, err)
	_, err = f.db.SubmitRecord(ctx, formID, map[int]string{
		entities.FieldGroupName:    "Twelve",
		entities.FieldGroupMembers: `["12"]`,
	})
	require.NoError(t, err)

	groups, err := f.svc.ForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, smiths, groups[0].ID)
	assert.Equal(t, office, groups[1].ID)

	groups, err = f.svc.ForUser(ctx, 3)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, choir, groups[0].ID)

	groups, err = f.svc.ForUser(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupService_Members(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()

	group := &entities.Group{ID: 7, Members: entities.MemberList{3, 99, 1, 2}}
	members, err := f.svc.Members(ctx, group)
	require.NoError(t, err)

	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.DisplayName
	}
	assert.Equal(t, []string{"Carol", "Alice", "Bob"}, names)

	members, err = f.svc.Members(ctx, &entities.Group{})
	require.NoError(t, err)
	assert.Empty(t, members)

	f.db.Err = assert.AnError
	_, err = f.svc.Members(ctx, group)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGroupService_CreateFromEmails(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()

	id, err := f.svc.CreateFromEmails(ctx, "Volunteers", "Event", []string{
		"alice@example.com",
		"",
		"  NEW@example.com ",
	})
	require.NoError(t, err)

	created, err := f.db.FindUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, UnknownName, created.FirstName)
	assert.Equal(t, UnknownName, created.LastName)

	g, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entities.GroupEvent, g.Type)
	assert.Equal(t, entities.MemberList{1, created.ID}, g.Members)

	assert.Equal(t, []string{
		"New Event group created: Volunteers",
		entities.TitleGroupAdded,
		entities.TitleGroupAdded,
	}, f.tracker.Titles())
}

func TestGroupService_CreateFromEmails_InvalidEmail(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})

	_, err := f.svc.CreateFromEmails(context.Background(), "Volunteers", "Event", []string{"alice@example.com", "not-an-email"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
	assert.Contains(t, err.Error(), "email 2")
	assert.Empty(t, f.db.Records)
}

func TestGroupService_CreateFromEmails_RollsBackOnFailure(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()
	f.db.FindOrCreateErr = func(email string) error {
		if email == "b@example.com" {
			return assert.AnError
		}
		return nil
	}

	id, err := f.svc.CreateFromEmails(ctx, "Volunteers", "Event", []string{
		"a@example.com",
		"b@example.com",
		"carol@example.com",
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, id)

	assert.Empty(t, f.db.Records)
	created, err := f.db.FindUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.Empty(t, f.tracker.Events)

	// The form survives and a retry creates exactly one group.
	f.db.FindOrCreateErr = nil
	id, err = f.svc.CreateFromEmails(ctx, "Volunteers", "Event", []string{"a@example.com", "carol@example.com"})
	require.NoError(t, err)
	require.Len(t, f.db.Records, 1)
	g, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, g.Members, 2)
}

// plainStore hides the transactor of the mock store.
type plainStore struct {
	GroupStore
}

func TestGroupService_CreateFromEmails_PartialWithoutTransactions(t *testing.T) {
	db := mocks.NewRelationalDB()
	db.AddUser(1, "Alice", "alice@example.com")
	db.FindOrCreateErr = func(email string) error {
		if email == "b@example.com" {
			return assert.AnError
		}
		return nil
	}
	svc := NewGroupService(plainStore{db}, db, nil, nil, nil, GroupConfig{})
	ctx := context.Background()

	_, err := svc.CreateFromEmails(ctx, "Volunteers", "Event", []string{"alice@example.com", "b@example.com"})
	var partial *entities.PartialGroupError
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, assert.AnError)

	g, err := svc.Get(ctx, partial.GroupID)
	require.NoError(t, err)
	assert.Equal(t, entities.MemberList{1}, g.Members)
}

func TestGroupService_MalformedMembers(t *testing.T) {
	db := mocks.NewRelationalDB()
	db.AddUser(1, "Alice", "alice@example.com")
	db.AddUser(2, "Bob", "bob@example.com")
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewGroupService(db, db, nil, nil, zap.New(core), GroupConfig{})
	ctx := context.Background()

	formID, err := svc.Form(ctx)
	require.NoError(t, err)
	bad, err := db.SubmitRecord(ctx, formID, map[int]string{
		entities.FieldGroupName:    "Legacy",
		entities.FieldGroupType:    "Other",
		entities.FieldGroupMembers: `["1",""]`,
	})
	require.NoError(t, err)
	good, err := svc.Create(ctx, GroupInput{Name: "Smiths", Type: "Family"})
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, 1, good, false)
	require.NoError(t, err)

	groups, err := svc.ForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, bad, groups[0].ID)
	assert.Equal(t, entities.MemberList{1}, groups[0].Members)
	assert.NotZero(t, logs.FilterMessage("group has malformed member entries").Len())

	added, err := svc.AddUser(ctx, 2, bad, false)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, `["1","2"]`, db.Records[bad].Fields[entities.FieldGroupMembers])

	removed, err := svc.RemoveUser(ctx, 1, bad, false)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestGroupService_MergeUsers(t *testing.T) {
	f := newGroupFixture(t, GroupConfig{})
	ctx := context.Background()
	onlyFrom := f.createGroup(t, "Only Bob", 2)
	both := f.createGroup(t, "Both", 1, 2, 3)
	other := f.createGroup(t, "Other", 3)

	require.NoError(t, f.svc.MergeUsers(ctx, 1, 2))

	groups, err := f.svc.ForUser(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, groups)

	g, err := f.svc.Get(ctx, onlyFrom)
	require.NoError(t, err)
	assert.Equal(t, entities.MemberList{1}, g.Members)

	g, err = f.svc.Get(ctx, both)
	require.NoError(t, err)
	assert.Equal(t, entities.MemberList{1, 3}, g.Members)

	g, err = f.svc.Get(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, entities.MemberList{3}, g.Members)

	assert.Empty(t, f.tracker.Events)
}
