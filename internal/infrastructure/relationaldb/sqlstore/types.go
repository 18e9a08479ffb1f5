package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ersonp/connexions/internal/domain/entities"
)

// SaveRelationType saves or updates a relationship type.
func (s *Store) SaveRelationType(ctx context.Context, def *entities.RelationTypeDefinition) error {
	if def.CreatedAt.IsZero() {
		def.CreatedAt = timeNow()
	}
	_, err := s.exec(ctx, `
		INSERT INTO relation_types (name, description, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET description = excluded.description
	`, string(def.Name), def.Description, def.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving relation type: %w", err)
	}
	return nil
}

// FindRelationType finds a relationship type by name.
func (s *Store) FindRelationType(ctx context.Context, name entities.RelationType) (*entities.RelationTypeDefinition, error) {
	var def entities.RelationTypeDefinition
	var typeName string
	err := s.queryRow(ctx, `
		SELECT name, description, created_at FROM relation_types WHERE name = ?
	`, string(name)).Scan(&typeName, &def.Description, &def.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning relation type: %w", err)
	}
	def.Name = entities.RelationType(typeName)
	return &def, nil
}

// ListRelationTypes lists all stored relationship types by name.
func (s *Store) ListRelationTypes(ctx context.Context) ([]entities.RelationTypeDefinition, error) {
	rows, err := s.query(ctx, `SELECT name, description, created_at FROM relation_types ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying relation types: %w", err)
	}
	defer rows.Close()

	result := make([]entities.RelationTypeDefinition, 0)
	for rows.Next() {
		var def entities.RelationTypeDefinition
		var typeName string
		if err := rows.Scan(&typeName, &def.Description, &def.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning relation type: %w", err)
		}
		def.Name = entities.RelationType(typeName)
		result = append(result, def)
	}
	return result, rows.Err()
}

// DeleteRelationType deletes a relationship type by name.
func (s *Store) DeleteRelationType(ctx context.Context, name entities.RelationType) error {
	ok, err := s.affected(ctx, `DELETE FROM relation_types WHERE name = ?`, string(name))
	if err != nil {
		return fmt.Errorf("deleting relation type: %w", err)
	}
	if !ok {
		return fmt.Errorf("relation type not found: %s", name)
	}
	return nil
}

// LogActivity appends an activity entry.
func (s *Store) LogActivity(ctx context.Context, a *entities.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = timeNow()
	}
	_, err := s.exec(ctx, `
		INSERT INTO activity_log (id, type, source, title, description, user_id, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, string(a.Type), a.Source, a.Title, a.Description, int64(a.UserID), a.Email, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// FindActivityByUser returns the newest entries for a user first.
func (s *Store) FindActivityByUser(ctx context.Context, user entities.UserID, limit int) ([]entities.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.query(ctx, `
		SELECT id, type, source, title, description, user_id, email, created_at
		FROM activity_log
		WHERE user_id = ?
		ORDER BY seq DESC
		LIMIT ?
	`, int64(user), limit)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Activity, 0)
	for rows.Next() {
		var a entities.Activity
		var activityType string
		var userID int64
		if err := rows.Scan(&a.ID, &activityType, &a.Source, &a.Title, &a.Description, &userID, &a.Email, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		a.Type = entities.ActivityType(activityType)
		a.UserID = entities.UserID(userID)
		result = append(result, a)
	}
	return result, rows.Err()
}
