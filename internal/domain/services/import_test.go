package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/infrastructure/parsers"
)

func newImportFixture(t *testing.T) (*ImportService, *relationshipFixture) {
	t.Helper()
	rf := newRelationshipFixture(t)
	types := NewRelationTypeService(rf.db)
	return NewImportService(rf.svc, rf.db, types), rf
}

func TestImportService_Import(t *testing.T) {
	svc, rf := newImportFixture(t)
	ctx := context.Background()

	raws := []parsers.RawRelationship{
		{Type: "family", UserA: "1", UserB: "2", LineNum: 2},
		{Type: "Personal", UserA: "alice@example.com", UserB: "CAROL@example.com", LineNum: 3},
		{Type: "professional", UserA: "4", UserB: "5", LineNum: 4},
	}

	result, err := svc.Import(ctx, raws, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Errors)

	assert.True(t, rf.db.HasEdge(entities.RelationFamily, 2, 1))
	assert.True(t, rf.db.HasEdge(entities.RelationPersonal, 3, 1))
	assert.True(t, rf.db.HasEdge(entities.RelationProfessional, 5, 4))
	assert.Empty(t, rf.tracker.Events)
}

func TestImportService_Import_SkipsExisting(t *testing.T) {
	svc, rf := newImportFixture(t)
	ctx := context.Background()
	_, err := rf.svc.Add(ctx, entities.RelationFamily, 2, 1, false)
	require.NoError(t, err)

	raws := []parsers.RawRelationship{
		{Type: "family", UserA: "1", UserB: "2"},
		{Type: "family", UserA: "1", UserB: "3"},
	}
	result, err := svc.Import(ctx, raws, ImportOptions{Track: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, rf.tracker.Events, 2)
}

func TestImportService_Import_ValidationErrors(t *testing.T) {
	svc, rf := newImportFixture(t)
	ctx := context.Background()

	raws := []parsers.RawRelationship{
		{Type: "", UserA: "1", UserB: "2", LineNum: 2},
		{Type: "enemy", UserA: "1", UserB: "2", LineNum: 3},
		{Type: "family", UserA: "", UserB: "2", LineNum: 4},
		{Type: "family", UserA: "1", UserB: "99", LineNum: 5},
		{Type: "family", UserA: "1", UserB: "nobody@example.com", LineNum: 6},
		{Type: "family", UserA: "1", UserB: "alice@example.com", LineNum: 7},
		{Type: "family", UserA: "2", UserB: "3", LineNum: 8},
	}

	result, err := svc.Import(ctx, raws, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 6)

	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, "type", result.Errors[0].Field)
	assert.Equal(t, "enemy", result.Errors[1].Value)
	assert.Equal(t, "user_a", result.Errors[2].Field)
	assert.Equal(t, `user "99" does not exist`, result.Errors[3].Message)
	assert.Equal(t, "nobody@example.com", result.Errors[4].Value)
	assert.Equal(t, "a user cannot be related to itself", result.Errors[5].Message)
	assert.Equal(t, "line 7: a user cannot be related to itself", result.Errors[5].Error())

	assert.Equal(t, 2, rf.db.EdgeCount())
}

func TestImportService_Import_DryRun(t *testing.T) {
	svc, rf := newImportFixture(t)
	ctx := context.Background()

	raws := []parsers.RawRelationship{
		{Type: "family", UserA: "1", UserB: "2"},
		{Type: "alias", UserA: "3", UserB: "3"},
	}
	result, err := svc.Import(ctx, raws, ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Zero(t, rf.db.EdgeCount())
}

func TestImportService_Import_StoreError(t *testing.T) {
	svc, rf := newImportFixture(t)
	rf.db.InsertErr = func(entities.Relationship) error { return errors.New("disk full") }

	_, err := svc.Import(context.Background(), []parsers.RawRelationship{
		{Type: "family", UserA: "1", UserB: "2", LineNum: 2},
	}, ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "disk full")
}

func TestImportError_Error(t *testing.T) {
	assert.Equal(t, "line 3: bad", ImportError{Line: 3, Message: "bad"}.Error())
	assert.Equal(t, "bad", ImportError{Message: "bad"}.Error())
}
