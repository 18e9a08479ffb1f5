package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ersonp/connexions/internal/application/handlers"
	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/mocks"
	"github.com/ersonp/connexions/internal/domain/services"
	"github.com/ersonp/connexions/internal/infrastructure/metrics"
)

type testAPI struct {
	db      *mocks.RelationalDB
	handler http.Handler
	reg     *prometheus.Registry
	logs    *observer.ObservedLogs
}

func newTestAPI(t *testing.T, limiter *RateLimiter) *testAPI {
	t.Helper()
	db := mocks.NewRelationalDB()
	db.AddUser(1, "Alice", "alice@example.com")
	db.AddUser(2, "Bob", "bob@example.com")
	db.AddUser(3, "Carol", "carol@example.com")

	types := services.NewRelationTypeService(db)
	require.NoError(t, types.LoadDefaults(context.Background()))

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	tracker := mocks.NewTracker()
	users := services.NewUserService(db)
	rels := services.NewRelationshipService(db, db, types, tracker, logger)
	rels.SetMetrics(collector)
	groups := services.NewGroupService(db, db, tracker, nil, logger, services.DefaultGroupConfig())
	groups.SetMetrics(collector)
	merge := services.NewMergeService(rels, groups, db, db, tracker, logger)

	h := NewRouter(&Deps{
		Relationships: handlers.NewRelationshipHandler(rels, users),
		Groups:        handlers.NewGroupHandler(groups),
		Profiles:      handlers.NewProfileHandler(rels, groups, users),
		Users:         handlers.NewUserHandler(users, merge, db),
		Types:         handlers.NewTypesHandler(types),
		Metrics:       collector,
		Gatherer:      reg,
		Limiter:       limiter,
		Logger:        logger,
	})
	return &testAPI{db: db, handler: h, reg: reg, logs: logs}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRouter_Healthz(t *testing.T) {
	a := newTestAPI(t, nil)

	w := a.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_RelationshipLifecycle(t *testing.T) {
	a := newTestAPI(t, nil)

	w := a.do(t, http.MethodPost, "/api/relationships", map[string]any{"type": "family", "user_a": 1, "user_b": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, handlers.Outcome{Success: true, Message: handlers.MsgRelationshipAdded}, decode[handlers.Outcome](t, w))
	assert.True(t, a.db.HasEdge(entities.RelationFamily, 2, 1))

	// A duplicate is a business failure.
	w = a.do(t, http.MethodPost, "/api/relationships", map[string]any{"type": "family", "user_a": 2, "user_b": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, handlers.Outcome{Success: false, Message: handlers.MsgRelationshipAddFailed}, decode[handlers.Outcome](t, w))

	w = a.do(t, http.MethodPut, "/api/relationships", map[string]any{"old_type": "family", "user_a": 1, "user_b": 2, "new_type": "personal"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, a.db.HasEdge(entities.RelationPersonal, 1, 2))

	w = a.do(t, http.MethodGet, "/api/users/1/relationships", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[handlers.RelationshipList](t, w)
	require.Len(t, list.Relationships, 1)
	assert.Equal(t, entities.RelationPersonal, list.Relationships[0].Type)

	w = a.do(t, http.MethodDelete, "/api/relationships", map[string]any{"type": "personal", "user_a": 2, "user_b": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, a.db.EdgeCount())

	w = a.do(t, http.MethodDelete, "/api/relationships", map[string]any{"type": "personal", "user_a": 2, "user_b": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, handlers.MsgRelationshipRemoveFailed, decode[handlers.Outcome](t, w).Message)
}

func TestRouter_ErrorMapping(t *testing.T) {
	a := newTestAPI(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown user", http.MethodGet, "/api/users/99", nil, http.StatusNotFound},
		{"malformed user id", http.MethodGet, "/api/users/abc", nil, http.StatusBadRequest},
		{"self relationship", http.MethodPost, "/api/relationships", map[string]any{"type": "family", "user_a": 1, "user_b": 1}, http.StatusBadRequest},
		{"invalid type", http.MethodPost, "/api/relationships", map[string]any{"type": "enemy", "user_a": 1, "user_b": 2}, http.StatusBadRequest},
		{"unresolvable end", http.MethodPost, "/api/relationships", map[string]any{"type": "family", "user_a": 1, "user_b": 42}, http.StatusNotFound},
		{"unknown field", http.MethodPost, "/api/relationships", map[string]any{"kind": "family"}, http.StatusBadRequest},
		{"missing group", http.MethodGet, "/api/groups/77", nil, http.StatusNotFound},
		{"bad group id", http.MethodGet, "/api/groups/x", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/users/1/activity?limit=-1", nil, http.StatusBadRequest},
		{"merge into self", http.MethodPost, "/api/merge", map[string]any{"to": 1, "from": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode[errorResponse](t, w)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestRouter_StoreFailureHidesDetails(t *testing.T) {
	a := newTestAPI(t, nil)
	a.db.Err = assert.AnError

	w := a.do(t, http.MethodGet, "/api/users/1", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgInternal, decode[errorResponse](t, w).Message)
	require.NotZero(t, a.logs.FilterMessage("request failed").Len())
}

func TestRouter_Groups(t *testing.T) {
	a := newTestAPI(t, nil)

	w := a.do(t, http.MethodPost, "/api/groups", map[string]any{"name": "Choir", "type": "Church", "description": "Sunday"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[handlers.GroupCreated](t, w)
	require.NotZero(t, created.GroupID)
	base := "/api/groups/" + strconv.FormatInt(created.GroupID, 10)

	w = a.do(t, http.MethodPost, base+"/members", map[string]any{"user_id": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, handlers.MsgGroupMemberAdded, decode[handlers.Outcome](t, w).Message)

	w = a.do(t, http.MethodPost, base+"/members", map[string]any{"user_id": 2})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, handlers.MsgGroupMemberExists, decode[handlers.Outcome](t, w).Message)

	w = a.do(t, http.MethodGet, base+"/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	members := decode[[]entities.User](t, w)
	require.Len(t, members, 1)
	assert.Equal(t, "bob@example.com", members[0].Email)

	w = a.do(t, http.MethodGet, "/api/users/2/groups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Group](t, w), 1)

	w = a.do(t, http.MethodDelete, base+"/members/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handlers.MsgGroupMemberRemoved, decode[handlers.Outcome](t, w).Message)

	w = a.do(t, http.MethodDelete, base+"/members/2", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_GroupFromEmails(t *testing.T) {
	a := newTestAPI(t, nil)

	w := a.do(t, http.MethodPost, "/api/groups/from-emails", map[string]any{"name": "Team", "type": "Business", "emails": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.MsgGroupFieldsRequired, decode[handlers.GroupCreated](t, w).Message)

	w = a.do(t, http.MethodPost, "/api/groups/from-emails", map[string]any{
		"name": "Team", "type": "Business", "emails": []string{"alice@example.com", "new@example.com"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[handlers.GroupCreated](t, w)
	assert.True(t, created.Success)

	u, err := a.db.FindUserByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
}

func TestRouter_GroupFromEmails_FailureLeavesNoGroup(t *testing.T) {
	a := newTestAPI(t, nil)
	a.db.FindOrCreateErr = func(email string) error {
		if email == "new@example.com" {
			return assert.AnError
		}
		return nil
	}
	body := map[string]any{
		"name": "Team", "type": "Business", "emails": []string{"alice@example.com", "new@example.com"},
	}

	w := a.do(t, http.MethodPost, "/api/groups/from-emails", body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, a.db.Records)

	a.db.FindOrCreateErr = nil
	w = a.do(t, http.MethodPost, "/api/groups/from-emails", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, a.db.Records, 1)
}

func TestWriteError_PartialGroup(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a := &api{logger: zap.New(core)}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/groups/from-emails", nil)

	a.writeError(w, r, &entities.PartialGroupError{GroupID: 12, Err: assert.AnError})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[partialGroupResponse](t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, int64(12), resp.GroupID)
	assert.Equal(t, 1, logs.FilterMessage("group stored with missing members").Len())
}

func TestRouter_UsersAndMerge(t *testing.T) {
	a := newTestAPI(t, nil)

	w := a.do(t, http.MethodGet, "/api/users?search=bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[handlers.SearchResult](t, w)
	require.Len(t, res.Users, 1)
	assert.Equal(t, entities.UserID(2), res.Users[0].ID)

	w = a.do(t, http.MethodGet, "/api/users?limit=2&offset=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[handlers.SearchResult](t, w)
	require.Len(t, res.Users, 2)
	assert.Equal(t, entities.UserID(2), res.Users[0].ID)

	w = a.do(t, http.MethodPost, "/api/relationships", map[string]any{"type": "professional", "user_a": 2, "user_b": 3})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, "/api/merge", map[string]any{"to": 1, "from": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, a.db.HasEdge(entities.RelationProfessional, 1, 3))

	w = a.do(t, http.MethodGet, "/api/users/1/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[handlers.Profile](t, w)
	require.Len(t, profile.Relationships, 1)
	assert.Equal(t, entities.RelationProfessional, profile.Relationships[0].Type)
}

func TestRouter_RelationshipTypes(t *testing.T) {
	a := newTestAPI(t, nil)

	w := a.do(t, http.MethodGet, "/api/relationship-types", nil)

	require.Equal(t, http.StatusOK, w.Code)
	defs := decode[[]entities.RelationTypeDefinition](t, w)
	names := make([]entities.RelationType, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	assert.Contains(t, names, entities.RelationFamily)
	assert.Contains(t, names, entities.RelationAlias)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	a := newTestAPI(t, nil)
	a.do(t, http.MethodGet, "/api/users/1", nil)

	w := a.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `connexions_http_requests_total{method="GET",route="/api/users/{id}`)
}

func TestRouter_RateLimited(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2}, nil)
	defer limiter.Stop()
	a := newTestAPI(t, limiter)

	for i := 0; i < 2; i++ {
		w := a.do(t, http.MethodGet, "/api/relationship-types", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := a.do(t, http.MethodGet, "/api/relationship-types", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Health checks are outside the limited group.
	w = a.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewRecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}
