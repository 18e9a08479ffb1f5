package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/mocks"
)

func TestRelationTypeService_LoadDefaults(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())

	err := svc.LoadDefaults(context.Background())
	require.NoError(t, err)

	types, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, types, 4)
}

func TestRelationTypeService_LoadDefaults_Idempotent(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())

	// Load twice
	require.NoError(t, svc.LoadDefaults(context.Background()))
	require.NoError(t, svc.LoadDefaults(context.Background()))

	types, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, types, 4) // Still 4, not 8
}

func TestRelationTypeService_Register(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())
	require.NoError(t, svc.LoadDefaults(context.Background()))

	err := svc.Register(context.Background(), []string{"Mentor", "family", "mentor"})
	require.NoError(t, err)

	names, err := svc.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entities.RelationType{"alias", "family", "mentor", "personal", "professional"}, names)

	err = svc.Register(context.Background(), []string{"not valid"})
	assert.ErrorIs(t, err, entities.ErrInvalidRelationType)
}

func TestRelationTypeService_Add_InvalidName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid lowercase", "mentor", false},
		{"valid with underscore", "former_spouse", false},
		{"valid with number", "type2", false},
		{"uppercase normalized to lowercase", "Mentor", false},
		{"invalid starts with number", "2type", true},
		{"invalid special chars", "mentor!", true},
		{"invalid spaces", "former spouse", true},
		{"invalid hyphen", "former-spouse", true},
		{"invalid empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRelationTypeService(mocks.NewRelationalDB())

			err := svc.Add(context.Background(), tt.input, "description")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRelationTypeService_Add_NormalizesName(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())

	err := svc.Add(context.Background(), "  Mentor  ", "Mentors")
	require.NoError(t, err)

	types, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, entities.RelationType("mentor"), types[0].Name)
}

func TestRelationTypeService_Add_Duplicate(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())

	require.NoError(t, svc.Add(context.Background(), "mentor", "First"))

	err := svc.Add(context.Background(), "mentor", "Second")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRelationTypeService_Remove(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())

	require.NoError(t, svc.Add(context.Background(), "mentor", "Mentors"))
	require.NoError(t, svc.Remove(context.Background(), "mentor"))

	types, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestRelationTypeService_Remove_DefaultType(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())
	require.NoError(t, svc.LoadDefaults(context.Background()))

	err := svc.Remove(context.Background(), "family")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot remove default")
}

func TestRelationTypeService_Remove_NotFound(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())

	err := svc.Remove(context.Background(), "nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRelationTypeService_IsValid(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())
	require.NoError(t, svc.LoadDefaults(context.Background()))

	assert.True(t, svc.IsValid(context.Background(), entities.RelationFamily))
	assert.True(t, svc.IsValid(context.Background(), entities.RelationAlias))
	assert.False(t, svc.IsValid(context.Background(), "mentor"))
	assert.False(t, svc.IsValid(context.Background(), ""))
}

func TestRelationTypeService_IsValid_CacheInvalidation(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())

	// Initially mentor doesn't exist
	assert.False(t, svc.IsValid(context.Background(), "mentor"))

	require.NoError(t, svc.Add(context.Background(), "mentor", "Mentors"))

	// Now mentor should be valid (cache should be invalidated)
	assert.True(t, svc.IsValid(context.Background(), "mentor"))
}

func TestRelationTypeService_Names_Empty(t *testing.T) {
	svc := NewRelationTypeService(mocks.NewRelationalDB())

	names, err := svc.Names(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRelationTypeService_StoreError(t *testing.T) {
	db := mocks.NewRelationalDB()
	db.Err = assert.AnError
	svc := NewRelationTypeService(db)

	assert.ErrorIs(t, svc.LoadDefaults(context.Background()), assert.AnError)
	assert.False(t, svc.IsValid(context.Background(), entities.RelationFamily))
}
