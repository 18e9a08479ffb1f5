package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/ports"
	"github.com/ersonp/connexions/internal/domain/services"
)

// DefaultActivityLimit is the number of activity entries returned when no limit is given.
const DefaultActivityLimit = 20

// MsgUsersMerged is shown after a successful merge.
const MsgUsersMerged = "Users merged successfully"

// UserHandler handles user lookup, activity and merge operations.
type UserHandler struct {
	users    *services.UserService
	merge    *services.MergeService
	activity ports.ActivityLog
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService, merge *services.MergeService, activity ports.ActivityLog) *UserHandler {
	return &UserHandler{
		users:    users,
		merge:    merge,
		activity: activity,
	}
}

// SearchResult is a page of matching users with a hint when the query
// should be refined.
type SearchResult struct {
	Users   []*entities.User `json:"users"`
	Total   int              `json:"total"`
	Message string           `json:"message,omitempty"`
}

// HandleSearch finds users by display name or email.
func (h *UserHandler) HandleSearch(ctx context.Context, query string, limit int) (*SearchResult, error) {
	res, err := h.users.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := &SearchResult{Users: res.Users, Total: res.Total}
	if res.More() {
		out.Message = fmt.Sprintf("%d users matched, refine your search", res.Total)
	}
	return out, nil
}

// HandleGet returns one user.
func (h *UserHandler) HandleGet(ctx context.Context, id entities.UserID) (*entities.User, error) {
	return h.users.Resolve(ctx, id)
}

// HandleList returns a page of users ordered by ID.
func (h *UserHandler) HandleList(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	return h.users.List(ctx, limit, offset)
}

// HandleActivity returns the newest activity entries of a user.
func (h *UserHandler) HandleActivity(ctx context.Context, id entities.UserID, limit int) ([]entities.Activity, error) {
	if _, err := h.users.Resolve(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	entries, err := h.activity.FindActivityByUser(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("loading activity: %w", err)
	}
	return entries, nil
}

// HandleMerge moves the relationships and groups of from onto to.
func (h *UserHandler) HandleMerge(ctx context.Context, to, from entities.UserID) (*Outcome, error) {
	if err := h.merge.Merge(ctx, to, from); err != nil {
		return nil, err
	}
	return &Outcome{Success: true, Message: MsgUsersMerged}, nil
}
