package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/services"
)

// Messages shown for relationship actions.
const (
	MsgRelationshipAdded        = "Relationship added successfully"
	MsgRelationshipAddFailed    = "Something went wrong while attempting to add the relationship. Do these contacts already have that type of relationship?"
	MsgRelationshipUpdated      = "Relationship updated successfully"
	MsgRelationshipUpdateFailed = "Something went wrong while attempting to update the selected relationship. Do these contacts already have that type of relationship?"
	MsgRelationshipRemoved      = "Deleted successfully"
	MsgRelationshipRemoveFailed = "An issue occurred while attempting to delete the selected relationship. Please try again."
)

// Outcome reports a business result. Success false is not an error: the
// action was valid but had nothing to do.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func outcome(ok bool, success, failure string) *Outcome {
	if ok {
		return &Outcome{Success: true, Message: success}
	}
	return &Outcome{Success: false, Message: failure}
}

// RelationshipHandler handles relationship operations.
type RelationshipHandler struct {
	service *services.RelationshipService
	users   *services.UserService
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(service *services.RelationshipService, users *services.UserService) *RelationshipHandler {
	return &RelationshipHandler{
		service: service,
		users:   users,
	}
}

// TypedUsers lists the users related to someone by one relationship type.
type TypedUsers struct {
	Type  entities.RelationType `json:"type"`
	Users []*entities.User      `json:"users"`
}

// RelationshipList contains a user's relationships grouped by type.
type RelationshipList struct {
	User          *entities.User `json:"user"`
	Relationships []TypedUsers   `json:"relationships"`
}

// HandleAdd relates a and b by relType and records the activity.
func (h *RelationshipHandler) HandleAdd(ctx context.Context, relType string, a, b entities.UserID) (*Outcome, error) {
	ok, err := h.service.Add(ctx, services.NormalizeTypeName(relType), a, b, true)
	if err != nil {
		return nil, err
	}
	return outcome(ok, MsgRelationshipAdded, MsgRelationshipAddFailed), nil
}

// HandleUpdate changes the type of the relationship between a and b.
func (h *RelationshipHandler) HandleUpdate(ctx context.Context, oldType string, a, b entities.UserID, newType string) (*Outcome, error) {
	ok, err := h.service.Update(ctx, services.NormalizeTypeName(oldType), a, b, services.NormalizeTypeName(newType), true)
	if err != nil {
		return nil, err
	}
	return outcome(ok, MsgRelationshipUpdated, MsgRelationshipUpdateFailed), nil
}

// HandleRemove deletes the relationship between a and b.
func (h *RelationshipHandler) HandleRemove(ctx context.Context, relType string, a, b entities.UserID) (*Outcome, error) {
	ok, err := h.service.Remove(ctx, services.NormalizeTypeName(relType), a, b, true)
	if err != nil {
		return nil, err
	}
	return outcome(ok, MsgRelationshipRemoved, MsgRelationshipRemoveFailed), nil
}

// HandleList returns the direct relationships of user, optionally limited to one type.
func (h *RelationshipHandler) HandleList(ctx context.Context, user entities.UserID, relType string) (*RelationshipList, error) {
	u, err := h.users.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	graph, err := h.service.ForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if relType != "" {
		t := services.NormalizeTypeName(relType)
		graph = entities.RelationshipGraph{t: graph[t]}
	}
	typed, err := resolveGraph(ctx, h.users, graph)
	if err != nil {
		return nil, err
	}
	return &RelationshipList{User: u, Relationships: typed}, nil
}

// HandleSuggested returns the second-level relationships of user.
func (h *RelationshipHandler) HandleSuggested(ctx context.Context, user entities.UserID) (*RelationshipList, error) {
	u, err := h.users.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	graph, err := h.service.SecondLevel(ctx, user, nil)
	if err != nil {
		return nil, err
	}
	typed, err := resolveGraph(ctx, h.users, graph)
	if err != nil {
		return nil, err
	}
	return &RelationshipList{User: u, Relationships: typed}, nil
}

// resolveGraph loads the users of graph in one batch, keeping type order.
// Types without resolvable users are omitted.
func resolveGraph(ctx context.Context, users *services.UserService, graph entities.RelationshipGraph) ([]TypedUsers, error) {
	ids := make([]entities.UserID, 0, graph.Count())
	for _, t := range graph.Types() {
		ids = append(ids, graph[t]...)
	}
	resolved, err := users.ResolveMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving related users: %w", err)
	}

	result := make([]TypedUsers, 0, len(graph))
	for _, t := range graph.Types() {
		entry := TypedUsers{Type: t, Users: make([]*entities.User, 0, len(graph[t]))}
		for _, id := range graph[t] {
			if u, ok := resolved[id]; ok {
				entry.Users = append(entry.Users, u)
			}
		}
		if len(entry.Users) > 0 {
			result = append(result, entry)
		}
	}
	return result, nil
}
