package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/connexions/internal/domain/mocks"
	"github.com/ersonp/connexions/internal/domain/services"
)

// fixture wires every handler over one in-memory store holding
// Alice (1), Bob (2), Carol (3) and Dan (4).
type fixture struct {
	db      *mocks.RelationalDB
	tracker *mocks.Tracker

	relationships *services.RelationshipService
	groups        *services.GroupService

	relHandler     *RelationshipHandler
	groupHandler   *GroupHandler
	profileHandler *ProfileHandler
	userHandler    *UserHandler
	importHandler  *ImportHandler
	exportHandler  *ExportHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := mocks.NewRelationalDB()
	db.AddUser(1, "Alice", "alice@example.com")
	db.AddUser(2, "Bob", "bob@example.com")
	db.AddUser(3, "Carol", "carol@example.com")
	db.AddUser(4, "Dan", "dan@example.com")

	types := services.NewRelationTypeService(db)
	require.NoError(t, types.LoadDefaults(context.Background()))

	tracker := mocks.NewTracker()
	users := services.NewUserService(db)
	rels := services.NewRelationshipService(db, db, types, tracker, nil)
	groups := services.NewGroupService(db, db, tracker, nil, nil, services.DefaultGroupConfig())
	merge := services.NewMergeService(rels, groups, db, db, tracker, nil)

	return &fixture{
		db:             db,
		tracker:        tracker,
		relationships:  rels,
		groups:         groups,
		relHandler:     NewRelationshipHandler(rels, users),
		groupHandler:   NewGroupHandler(groups),
		profileHandler: NewProfileHandler(rels, groups, users),
		userHandler:    NewUserHandler(users, merge, db),
		importHandler:  NewImportHandler(services.NewImportService(rels, db, types)),
		exportHandler:  NewExportHandler(rels, users),
	}
}
