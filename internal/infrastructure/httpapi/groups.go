package httpapi

import (
	"net/http"

	"github.com/ersonp/connexions/internal/domain/services"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	CreatedBy   int64  `json:"created_by,omitempty"`
}

type groupFromEmailsRequest struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Emails []string `json:"emails"`
}

type memberRequest struct {
	UserID int64 `json:"user_id"`
}

// POST /api/groups
func (a *api) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	in := services.GroupInput{
		Name:        req.Name,
		Type:        req.Type,
		Icon:        req.Icon,
		Description: req.Description,
	}
	if req.CreatedBy != 0 {
		creator, err := toUserID(req.CreatedBy)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		in.CreatedBy = creator
	}
	out, err := a.groups.HandleCreate(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// POST /api/groups/from-emails
func (a *api) createGroupFromEmails(w http.ResponseWriter, r *http.Request) {
	var req groupFromEmailsRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.groups.HandleCreateFromEmails(r.Context(), req.Name, req.Type, req.Emails)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !out.Success {
		writeJSON(w, http.StatusBadRequest, out)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// GET /api/groups/{id}
func (a *api) getGroup(w http.ResponseWriter, r *http.Request) {
	id, err := groupIDParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	details, err := a.groups.HandleGet(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// GET /api/groups/{id}/members
func (a *api) groupMembers(w http.ResponseWriter, r *http.Request) {
	id, err := groupIDParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	details, err := a.groups.HandleGet(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details.Members)
}

// POST /api/groups/{id}/members
func (a *api) addGroupMember(w http.ResponseWriter, r *http.Request) {
	id, err := groupIDParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req memberRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	user, err := toUserID(req.UserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.groups.HandleAddMember(r.Context(), id, user)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeOutcome(w, out.Success, out)
}

// DELETE /api/groups/{id}/members/{userID}
func (a *api) removeGroupMember(w http.ResponseWriter, r *http.Request) {
	id, err := groupIDParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	user, err := userIDParam(r, "userID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.groups.HandleRemoveMember(r.Context(), id, user)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeOutcome(w, out.Success, out)
}
