package httpapi

import (
	"fmt"
	"net/http"

	"github.com/ersonp/connexions/internal/domain/entities"
)

type relationshipRequest struct {
	Type  string `json:"type"`
	UserA int64  `json:"user_a"`
	UserB int64  `json:"user_b"`
}

type updateRelationshipRequest struct {
	OldType string `json:"old_type"`
	UserA   int64  `json:"user_a"`
	UserB   int64  `json:"user_b"`
	NewType string `json:"new_type"`
}

func toUserID(n int64) (entities.UserID, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", entities.ErrInvalidUserID, n)
	}
	return entities.UserID(n), nil
}

func pair(a, b int64) (entities.UserID, entities.UserID, error) {
	ua, err := toUserID(a)
	if err != nil {
		return 0, 0, err
	}
	ub, err := toUserID(b)
	if err != nil {
		return 0, 0, err
	}
	return ua, ub, nil
}

// POST /api/relationships
func (a *api) addRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	ua, ub, err := pair(req.UserA, req.UserB)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.relationships.HandleAdd(r.Context(), req.Type, ua, ub)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeOutcome(w, out.Success, out)
}

// PUT /api/relationships
func (a *api) updateRelationship(w http.ResponseWriter, r *http.Request) {
	var req updateRelationshipRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	ua, ub, err := pair(req.UserA, req.UserB)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.relationships.HandleUpdate(r.Context(), req.OldType, ua, ub, req.NewType)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeOutcome(w, out.Success, out)
}

// DELETE /api/relationships
func (a *api) removeRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	ua, ub, err := pair(req.UserA, req.UserB)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.relationships.HandleRemove(r.Context(), req.Type, ua, ub)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeOutcome(w, out.Success, out)
}

// GET /api/users/{id}/relationships?type=
func (a *api) listRelationships(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	list, err := a.relationships.HandleList(r.Context(), id, r.URL.Query().Get("type"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/users/{id}/relationships/suggested
func (a *api) suggestedRelationships(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	list, err := a.relationships.HandleSuggested(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
