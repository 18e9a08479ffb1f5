package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ersonp/connexions/internal/domain/entities"
)

const msgInternal = "internal server error"

// errorResponse has the shape of handlers.Outcome so clients read one
// format for business failures and errors alike.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// partialGroupResponse names the group that was stored without all of
// its members, so clients repair it instead of creating another.
type partialGroupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	GroupID int64  `json:"group_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeOutcome answers 200 for a successful outcome and 409 otherwise.
func writeOutcome(w http.ResponseWriter, success bool, v any) {
	status := http.StatusOK
	if !success {
		status = http.StatusConflict
	}
	writeJSON(w, status, v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrUnresolvableIdentity),
		errors.Is(err, entities.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrInvalidInput),
		errors.Is(err, entities.ErrInvalidUserID),
		errors.Is(err, entities.ErrInvalidRelationType),
		errors.Is(err, entities.ErrInvalidGroupType),
		errors.Is(err, entities.ErrSelfRelationship):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrRevisionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var partial *entities.PartialGroupError
	if errors.As(err, &partial) {
		a.logger.Error("group stored with missing members",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int64("group_id", partial.GroupID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, partialGroupResponse{
			Message: fmt.Sprintf("group %d was created but not all members were added", partial.GroupID),
			GroupID: partial.GroupID,
		})
		return
	}

	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = msgInternal
	}
	writeJSON(w, status, errorResponse{Message: msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %v", entities.ErrInvalidInput, err)
	}
	return nil
}

func userIDParam(r *http.Request, name string) (entities.UserID, error) {
	return entities.ParseUserID(chi.URLParam(r, name))
}

func groupIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: group id %q", entities.ErrInvalidInput, raw)
	}
	return id, nil
}

// intQuery reads a non-negative integer query parameter, or def when absent.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s %q", entities.ErrInvalidInput, name, raw)
	}
	return n, nil
}
