package httpapi

import (
	"net/http"

	"github.com/ersonp/connexions/internal/application/handlers"
)

// GET /api/users?search=&limit=&offset=
func (a *api) searchUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	query := r.URL.Query().Get("search")
	if query != "" {
		res, err := a.users.HandleSearch(r.Context(), query, limit)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	users, err := a.users.HandleList(r.Context(), limit, offset)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, handlers.SearchResult{Users: users, Total: len(users)})
}

// GET /api/users/{id}
func (a *api) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	user, err := a.users.HandleGet(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GET /api/users/{id}/profile
func (a *api) getProfile(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	profile, err := a.profiles.Handle(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GET /api/users/{id}/groups
func (a *api) userGroups(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	groups, err := a.groups.HandleForUser(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// GET /api/users/{id}/activity?limit=
func (a *api) userActivity(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", handlers.DefaultActivityLimit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	entries, err := a.users.HandleActivity(r.Context(), id, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type mergeRequest struct {
	To   int64 `json:"to"`
	From int64 `json:"from"`
}

// POST /api/merge
func (a *api) mergeUsers(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	to, err := toUserID(req.To)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	from, err := toUserID(req.From)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.users.HandleMerge(r.Context(), to, from)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeOutcome(w, out.Success, out)
}

// GET /api/relationship-types
func (a *api) listTypes(w http.ResponseWriter, r *http.Request) {
	defs, err := a.types.HandleList(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, defs)
}
