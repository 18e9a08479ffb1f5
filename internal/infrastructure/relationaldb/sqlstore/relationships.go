package sqlstore

import (
	"context"
	"fmt"

	"github.com/ersonp/connexions/internal/domain/entities"
)

const relationshipColumns = `type, user_id_a, user_id_b, created_at`

// RelationshipExists checks for the directed edge (type, a, b).
func (s *Store) RelationshipExists(ctx context.Context, relType entities.RelationType, a, b entities.UserID) (bool, error) {
	var count int
	err := s.queryRow(ctx, `
		SELECT COUNT(*) FROM relationships
		WHERE type = ? AND user_id_a = ? AND user_id_b = ?
	`, string(relType), int64(a), int64(b)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking relationship: %w", err)
	}
	return count > 0, nil
}

// InsertRelationship inserts one directed edge; false when it already exists.
func (s *Store) InsertRelationship(ctx context.Context, rel entities.Relationship) (bool, error) {
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = timeNow()
	}
	ok, err := s.affected(ctx, `
		INSERT INTO relationships (type, user_id_a, user_id_b, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, string(rel.Type), int64(rel.UserA), int64(rel.UserB), rel.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("inserting relationship: %w", err)
	}
	return ok, nil
}

// UpdateRelationshipType changes the type of one directed edge. Nothing
// changes when the edge is missing or the new type is already taken.
func (s *Store) UpdateRelationshipType(ctx context.Context, oldType entities.RelationType, a, b entities.UserID, newType entities.RelationType) (bool, error) {
	ok, err := s.affected(ctx, `
		UPDATE relationships SET type = ?
		WHERE type = ? AND user_id_a = ? AND user_id_b = ?
		AND NOT EXISTS (
			SELECT 1 FROM relationships
			WHERE type = ? AND user_id_a = ? AND user_id_b = ?
		)
	`, string(newType), string(oldType), int64(a), int64(b), string(newType), int64(a), int64(b))
	if err != nil {
		return false, fmt.Errorf("updating relationship: %w", err)
	}
	return ok, nil
}

// DeleteRelationship deletes one directed edge.
func (s *Store) DeleteRelationship(ctx context.Context, relType entities.RelationType, a, b entities.UserID) (bool, error) {
	ok, err := s.affected(ctx, `
		DELETE FROM relationships
		WHERE type = ? AND user_id_a = ? AND user_id_b = ?
	`, string(relType), int64(a), int64(b))
	if err != nil {
		return false, fmt.Errorf("deleting relationship: %w", err)
	}
	return ok, nil
}

// FindRelationshipsByUser returns all edges where user is the first end.
func (s *Store) FindRelationshipsByUser(ctx context.Context, user entities.UserID) ([]entities.Relationship, error) {
	return s.queryRelationships(ctx, `
		SELECT `+relationshipColumns+` FROM relationships
		WHERE user_id_a = ?
		ORDER BY type ASC, user_id_b ASC
	`, int64(user))
}

// FindRelationshipsByUserAndType returns the edges of one type where user is the first end.
func (s *Store) FindRelationshipsByUserAndType(ctx context.Context, user entities.UserID, relType entities.RelationType) ([]entities.Relationship, error) {
	return s.queryRelationships(ctx, `
		SELECT `+relationshipColumns+` FROM relationships
		WHERE user_id_a = ? AND type = ?
		ORDER BY user_id_b ASC
	`, int64(user), string(relType))
}

// ListRelationships returns every stored edge, ordered by type and ends.
func (s *Store) ListRelationships(ctx context.Context) ([]entities.Relationship, error) {
	return s.queryRelationships(ctx, `
		SELECT `+relationshipColumns+` FROM relationships
		ORDER BY type ASC, user_id_a ASC, user_id_b ASC
	`)
}

// queryRelationships is a helper to execute relationship queries.
func (s *Store) queryRelationships(ctx context.Context, query string, args ...any) ([]entities.Relationship, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Relationship, 0)
	for rows.Next() {
		var rel entities.Relationship
		var relType string
		var a, b int64
		if err := rows.Scan(&relType, &a, &b, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		rel.Type = entities.RelationType(relType)
		rel.UserA = entities.UserID(a)
		rel.UserB = entities.UserID(b)
		result = append(result, rel)
	}
	return result, rows.Err()
}
