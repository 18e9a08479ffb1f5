package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/ports"
)

// Operation outcomes reported to the metrics recorder.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// RelationshipService maintains the symmetric relationship graph.
// Every logical relationship is stored as two directed edges that are
// written together.
type RelationshipService struct {
	store   ports.RelationshipStore
	users   ports.UserDirectory
	tx      ports.Transactor
	types   *RelationTypeService
	tracker ports.ActivityTracker
	metrics ports.MetricsRecorder
	logger  *zap.Logger
}

// NewRelationshipService creates a new RelationshipService.
// Paired writes run in one transaction when store implements ports.Transactor.
func NewRelationshipService(
	store ports.RelationshipStore,
	users ports.UserDirectory,
	types *RelationTypeService,
	tracker ports.ActivityTracker,
	logger *zap.Logger,
) *RelationshipService {
	tx, _ := store.(ports.Transactor)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelationshipService{
		store:   store,
		users:   users,
		tx:      tx,
		types:   types,
		tracker: tracker,
		metrics: noopMetrics{},
		logger:  logger,
	}
}

// SetMetrics sets the recorder for operation outcomes.
func (s *RelationshipService) SetMetrics(m ports.MetricsRecorder) {
	if m != nil {
		s.metrics = m
	}
}

// Exists reports whether the directed edge (relType, a, b) is stored.
func (s *RelationshipService) Exists(ctx context.Context, relType entities.RelationType, a, b entities.UserID) (bool, error) {
	ok, err := s.store.RelationshipExists(ctx, relType, a, b)
	if err != nil {
		return false, fmt.Errorf("checking relationship: %w", err)
	}
	return ok, nil
}

// Add creates the relationship between a and b in both directions.
// It returns false when the edge (relType, a, b) already exists.
func (s *RelationshipService) Add(ctx context.Context, relType entities.RelationType, a, b entities.UserID, track bool) (bool, error) {
	userA, userB, err := s.validate(ctx, relType, a, b, true)
	if err != nil {
		s.metrics.ObserveOperation("relationship_add", outcomeError)
		return false, err
	}

	var added bool
	err = withinTx(ctx, s.tx, func(ctx context.Context) error {
		var err error
		added, err = s.insertPair(ctx, entities.Relationship{Type: relType, UserA: a, UserB: b, CreatedAt: time.Now().UTC()})
		return err
	})
	if err != nil {
		s.metrics.ObserveOperation("relationship_add", outcomeError)
		return false, err
	}
	if !added {
		s.metrics.ObserveOperation("relationship_add", outcomeRejected)
		return false, nil
	}

	s.metrics.ObserveOperation("relationship_add", outcomeOK)
	s.logger.Debug("relationship added",
		zap.String("type", string(relType)), zap.Int64("user_a", int64(a)), zap.Int64("user_b", int64(b)))
	if track {
		s.trackPair(ctx, entities.TitleRelationshipAdded, "now has a", relType, userA, userB)
	}
	return true, nil
}

// Update changes the type of the relationship between a and b in both
// directions. It returns false when (oldType, a, b) does not exist or
// (newType, a, b) already does.
func (s *RelationshipService) Update(ctx context.Context, oldType entities.RelationType, a, b entities.UserID, newType entities.RelationType, track bool) (bool, error) {
	userA, userB, err := s.validate(ctx, newType, a, b, true)
	if err != nil {
		s.metrics.ObserveOperation("relationship_update", outcomeError)
		return false, err
	}

	var updated bool
	err = withinTx(ctx, s.tx, func(ctx context.Context) error {
		var err error
		updated, err = s.updatePair(ctx, oldType, a, b, newType)
		return err
	})
	if err != nil {
		s.metrics.ObserveOperation("relationship_update", outcomeError)
		return false, err
	}
	if !updated {
		s.metrics.ObserveOperation("relationship_update", outcomeRejected)
		return false, nil
	}

	s.metrics.ObserveOperation("relationship_update", outcomeOK)
	s.logger.Debug("relationship updated",
		zap.String("old_type", string(oldType)), zap.String("new_type", string(newType)),
		zap.Int64("user_a", int64(a)), zap.Int64("user_b", int64(b)))
	if track {
		s.trackPair(ctx, entities.TitleRelationshipUpdated, "now has a", newType, userA, userB)
	}
	return true, nil
}

// Remove deletes the relationship between a and b in both directions.
// It returns false when the edge (relType, a, b) does not exist.
func (s *RelationshipService) Remove(ctx context.Context, relType entities.RelationType, a, b entities.UserID, track bool) (bool, error) {
	userA, userB, err := s.validate(ctx, relType, a, b, false)
	if err != nil {
		s.metrics.ObserveOperation("relationship_remove", outcomeError)
		return false, err
	}

	var removed bool
	err = withinTx(ctx, s.tx, func(ctx context.Context) error {
		var err error
		removed, err = s.deletePair(ctx, entities.Relationship{Type: relType, UserA: a, UserB: b})
		return err
	})
	if err != nil {
		s.metrics.ObserveOperation("relationship_remove", outcomeError)
		return false, err
	}
	if !removed {
		s.metrics.ObserveOperation("relationship_remove", outcomeRejected)
		return false, nil
	}

	s.metrics.ObserveOperation("relationship_remove", outcomeOK)
	s.logger.Debug("relationship removed",
		zap.String("type", string(relType)), zap.Int64("user_a", int64(a)), zap.Int64("user_b", int64(b)))
	if track {
		s.trackPair(ctx, entities.TitleRelationshipRemoved, "no longer has a", relType, userA, userB)
	}
	return true, nil
}

// ForUser returns the direct relationships of user, grouped by type.
func (s *RelationshipService) ForUser(ctx context.Context, user entities.UserID) (entities.RelationshipGraph, error) {
	if _, err := resolveUser(ctx, s.users, user); err != nil {
		return nil, err
	}
	rels, err := s.store.FindRelationshipsByUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("finding relationships: %w", err)
	}
	return entities.NewRelationshipGraph(rels), nil
}

// ForUserByType returns the users directly related to user by relType, sorted.
func (s *RelationshipService) ForUserByType(ctx context.Context, user entities.UserID, relType entities.RelationType) ([]entities.UserID, error) {
	rels, err := s.store.FindRelationshipsByUserAndType(ctx, user, relType)
	if err != nil {
		return nil, fmt.Errorf("finding %s relationships: %w", relType, err)
	}
	return entities.NewRelationshipGraph(rels)[relType], nil
}

// SecondLevel returns the suggested relationships of user: for every type,
// the same-type neighbours of the user's direct neighbours, excluding the
// user and the direct neighbours themselves. direct is computed when empty.
func (s *RelationshipService) SecondLevel(ctx context.Context, user entities.UserID, direct entities.RelationshipGraph) (entities.RelationshipGraph, error) {
	if direct.IsEmpty() {
		var err error
		direct, err = s.ForUser(ctx, user)
		if err != nil {
			return nil, err
		}
	} else {
		supplied := make(entities.RelationshipGraph, len(direct))
		for t, ids := range direct {
			supplied[t] = slices.Clone(ids)
		}
		supplied.Normalize()
		direct = supplied
	}

	result := make(entities.RelationshipGraph)
	for _, relType := range direct.Types() {
		neighbours := direct[relType]
		for _, n := range neighbours {
			hops, err := s.ForUserByType(ctx, n, relType)
			if err != nil {
				return nil, err
			}
			for _, candidate := range hops {
				if candidate == user || direct.Contains(relType, candidate) {
					continue
				}
				result[relType] = append(result[relType], candidate)
			}
		}
	}
	result.Normalize()
	return result, nil
}

// ListLogical returns one edge per logical relationship: the edge whose
// first end has the lower ID, or the only stored direction of a half-edge.
func (s *RelationshipService) ListLogical(ctx context.Context) ([]entities.Relationship, error) {
	rels, err := s.store.ListRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}

	type key struct {
		t    entities.RelationType
		a, b entities.UserID
	}
	stored := make(map[key]bool, len(rels))
	for _, r := range rels {
		stored[key{r.Type, r.UserA, r.UserB}] = true
	}

	logical := make([]entities.Relationship, 0, len(rels)/2+1)
	for _, r := range rels {
		if r.UserA < r.UserB || !stored[key{r.Type, r.UserB, r.UserA}] {
			logical = append(logical, r)
		}
	}
	return logical, nil
}

// MergeUsers moves every relationship of from onto to, without tracking.
// Edges between from and to are dropped rather than turned into self-edges.
func (s *RelationshipService) MergeUsers(ctx context.Context, to, from entities.UserID) error {
	return withinTx(ctx, s.tx, func(ctx context.Context) error {
		rels, err := s.store.FindRelationshipsByUser(ctx, from)
		if err != nil {
			return fmt.Errorf("finding relationships of %d: %w", from, err)
		}
		for _, rel := range rels {
			if _, err := s.deletePair(ctx, rel); err != nil {
				return err
			}
			if rel.UserB == to || rel.UserB == from {
				continue
			}
			moved := entities.Relationship{Type: rel.Type, UserA: to, UserB: rel.UserB, CreatedAt: rel.CreatedAt}
			if _, err := s.insertPair(ctx, moved); err != nil {
				return err
			}
		}
		return nil
	})
}

// validate checks identities and, when checkType is set, that relType is registered.
func (s *RelationshipService) validate(ctx context.Context, relType entities.RelationType, a, b entities.UserID, checkType bool) (*entities.User, *entities.User, error) {
	if a == b {
		return nil, nil, fmt.Errorf("%w: %d", entities.ErrSelfRelationship, a)
	}
	if checkType && !s.types.IsValid(ctx, relType) {
		return nil, nil, fmt.Errorf("%w: %q", entities.ErrInvalidRelationType, relType)
	}
	userA, err := resolveUser(ctx, s.users, a)
	if err != nil {
		return nil, nil, err
	}
	userB, err := resolveUser(ctx, s.users, b)
	if err != nil {
		return nil, nil, err
	}
	return userA, userB, nil
}

// insertPair writes rel and its inverse. It reports false when rel already exists.
func (s *RelationshipService) insertPair(ctx context.Context, rel entities.Relationship) (bool, error) {
	ok, err := s.store.InsertRelationship(ctx, rel)
	if err != nil {
		return false, fmt.Errorf("inserting relationship: %w", err)
	}
	if !ok {
		return false, nil
	}
	// A pre-existing inverse is a half-edge left by an older writer; keep it.
	if _, err := s.store.InsertRelationship(ctx, rel.Inverse()); err != nil {
		return false, s.inverseFailure("add", rel, err)
	}
	return true, nil
}

// updatePair retypes rel and its inverse from oldType to newType.
func (s *RelationshipService) updatePair(ctx context.Context, oldType entities.RelationType, a, b entities.UserID, newType entities.RelationType) (bool, error) {
	taken, err := s.store.RelationshipExists(ctx, newType, a, b)
	if err != nil {
		return false, fmt.Errorf("checking relationship: %w", err)
	}
	if taken {
		return false, nil
	}
	ok, err := s.store.UpdateRelationshipType(ctx, oldType, a, b, newType)
	if err != nil {
		return false, fmt.Errorf("updating relationship: %w", err)
	}
	if !ok {
		return false, nil
	}

	forward := entities.Relationship{Type: newType, UserA: a, UserB: b}
	ok, err = s.store.UpdateRelationshipType(ctx, oldType, b, a, newType)
	if err != nil {
		return false, s.inverseFailure("update", forward, err)
	}
	if !ok {
		// Missing or colliding inverse: drop the stale row and write the new one.
		if _, err := s.store.DeleteRelationship(ctx, oldType, b, a); err != nil {
			return false, s.inverseFailure("update", forward, err)
		}
		if _, err := s.store.InsertRelationship(ctx, forward.Inverse()); err != nil {
			return false, s.inverseFailure("update", forward, err)
		}
	}
	return true, nil
}

// deletePair removes rel and its inverse. It reports false when rel is absent.
func (s *RelationshipService) deletePair(ctx context.Context, rel entities.Relationship) (bool, error) {
	ok, err := s.store.DeleteRelationship(ctx, rel.Type, rel.UserA, rel.UserB)
	if err != nil {
		return false, fmt.Errorf("deleting relationship: %w", err)
	}
	if !ok {
		return false, nil
	}
	if rel.IsSelf() {
		return true, nil
	}
	if _, err := s.store.DeleteRelationship(ctx, rel.Type, rel.UserB, rel.UserA); err != nil {
		return false, s.inverseFailure("remove", rel, err)
	}
	return true, nil
}

// inverseFailure wraps a failed inverse write. Inside a transaction the
// forward write is rolled back, so only the non-transactional path reports
// a partial write.
func (s *RelationshipService) inverseFailure(op string, forward entities.Relationship, err error) error {
	if s.tx != nil {
		return fmt.Errorf("writing inverse relationship: %w", err)
	}
	s.logger.Error("relationship left without its inverse",
		zap.String("op", op), zap.String("type", string(forward.Type)),
		zap.Int64("user_a", int64(forward.UserA)), zap.Int64("user_b", int64(forward.UserB)), zap.Error(err))
	return &entities.PartialWriteError{Op: op, Forward: forward, Inverse: forward.Inverse(), Err: err}
}

// trackPair emits one event per direction.
func (s *RelationshipService) trackPair(ctx context.Context, title, phrase string, relType entities.RelationType, a, b *entities.User) {
	if s.tracker == nil {
		return
	}
	for _, pair := range [][2]*entities.User{{a, b}, {b, a}} {
		s.tracker.Track(ctx, entities.Activity{
			Type:        entities.ActivityRelationships,
			Source:      entities.ActivitySource,
			Title:       title,
			Description: fmt.Sprintf("%s %s %s relationship with %s", pair[0].Label(), phrase, relType, pair[1].Label()),
			UserID:      pair[0].ID,
			Email:       pair[0].Email,
		})
	}
}
