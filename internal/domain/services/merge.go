package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/ports"
)

// MergeService unifies two user identities. Relationships and group
// memberships of the retired identity move to the surviving one in a
// single transaction.
type MergeService struct {
	relationships *RelationshipService
	groups        *GroupService
	users         ports.UserDirectory
	tx            ports.Transactor
	tracker       ports.ActivityTracker
	metrics       ports.MetricsRecorder
	logger        *zap.Logger
}

// NewMergeService creates a new MergeService. tx may be nil.
func NewMergeService(
	relationships *RelationshipService,
	groups *GroupService,
	users ports.UserDirectory,
	tx ports.Transactor,
	tracker ports.ActivityTracker,
	logger *zap.Logger,
) *MergeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MergeService{
		relationships: relationships,
		groups:        groups,
		users:         users,
		tx:            tx,
		tracker:       tracker,
		metrics:       noopMetrics{},
		logger:        logger,
	}
}

// SetMetrics sets the recorder for merge durations.
func (s *MergeService) SetMetrics(m ports.MetricsRecorder) {
	if m != nil {
		s.metrics = m
	}
}

// Merge moves everything from the user from onto the user to.
func (s *MergeService) Merge(ctx context.Context, to, from entities.UserID) error {
	if to == from {
		return fmt.Errorf("%w: cannot merge user %d into itself", entities.ErrSelfRelationship, to)
	}
	target, err := resolveUser(ctx, s.users, to)
	if err != nil {
		return err
	}
	retired, err := resolveUser(ctx, s.users, from)
	if err != nil {
		return err
	}

	start := time.Now()
	err = withinTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.relationships.MergeUsers(ctx, to, from); err != nil {
			return fmt.Errorf("merging relationships: %w", err)
		}
		if err := s.groups.MergeUsers(ctx, to, from); err != nil {
			return fmt.Errorf("merging groups: %w", err)
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveOperation("merge", outcomeError)
		return err
	}
	s.metrics.ObserveOperation("merge", outcomeOK)
	s.metrics.ObserveMerge(time.Since(start))
	s.logger.Info("users merged", zap.Int64("to", int64(to)), zap.Int64("from", int64(from)))

	if s.tracker != nil {
		s.tracker.Track(ctx, entities.Activity{
			Type:        entities.ActivityRelationships,
			Source:      entities.ActivitySource,
			Title:       entities.TitleUsersMerged,
			Description: fmt.Sprintf("%s was merged into %s", retired.Label(), target.Label()),
			UserID:      target.ID,
			Email:       target.Email,
		})
	}
	return nil
}
