// Package activity records user activity entries in the relational store.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/ports"
)

// Tracker implements ports.ActivityTracker over an ActivityLog.
// Write failures are logged and never reach the caller.
type Tracker struct {
	log    ports.ActivityLog
	logger *zap.Logger
	now    func() time.Time
}

// NewTracker creates a new Tracker.
func NewTracker(log ports.ActivityLog, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		log:    log,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Track stores a, filling in the ID, source and timestamp when unset.
// The write outlives cancellation of ctx.
func (t *Tracker) Track(ctx context.Context, a entities.Activity) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Source == "" {
		a.Source = entities.ActivitySource
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = t.now()
	}

	if err := t.log.LogActivity(context.WithoutCancel(ctx), &a); err != nil {
		t.logger.Warn("recording activity failed",
			zap.String("title", a.Title),
			zap.Int64("user_id", int64(a.UserID)),
			zap.Error(err),
		)
	}
}

// Recent returns the newest entries for user.
func (t *Tracker) Recent(ctx context.Context, user entities.UserID, limit int) ([]entities.Activity, error) {
	return t.log.FindActivityByUser(ctx, user, limit)
}
