package ports

import (
	"context"

	"github.com/ersonp/connexions/internal/domain/entities"
)

// ActivityTracker records user activity. It never fails the caller:
// delivery problems are handled by the implementation.
type ActivityTracker interface {
	Track(ctx context.Context, activity entities.Activity)
}
