// Package httpapi exposes the relationship, group and user handlers as a
// JSON API over chi.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ersonp/connexions/internal/application/handlers"
	"github.com/ersonp/connexions/internal/infrastructure/metrics"
)

// Deps holds what NewRouter needs. Metrics, Gatherer and Limiter are
// optional; a nil Limiter disables rate limiting.
type Deps struct {
	Relationships *handlers.RelationshipHandler
	Groups        *handlers.GroupHandler
	Profiles      *handlers.ProfileHandler
	Users         *handlers.UserHandler
	Types         *handlers.TypesHandler

	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Limiter  *RateLimiter
	Logger   *zap.Logger
}

type api struct {
	relationships *handlers.RelationshipHandler
	groups        *handlers.GroupHandler
	profiles      *handlers.ProfileHandler
	users         *handlers.UserHandler
	types         *handlers.TypesHandler
	logger        *zap.Logger
}

// NewRouter builds the API routes and middleware chain:
//
//	Recovery → Logging → Metrics → RateLimit (/api only)
func NewRouter(deps *Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &api{
		relationships: deps.Relationships,
		groups:        deps.Groups,
		profiles:      deps.Profiles,
		users:         deps.Users,
		types:         deps.Types,
		logger:        logger,
	}

	r := chi.NewRouter()
	r.Use(NewRecoveryMiddleware(logger))
	r.Use(NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(NewMetricsMiddleware(deps.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Middleware())
		}

		r.Get("/relationship-types", a.listTypes)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", a.searchUsers)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.getUser)
				r.Get("/relationships", a.listRelationships)
				r.Get("/relationships/suggested", a.suggestedRelationships)
				r.Get("/profile", a.getProfile)
				r.Get("/groups", a.userGroups)
				r.Get("/activity", a.userActivity)
			})
		})

		r.Route("/relationships", func(r chi.Router) {
			r.Post("/", a.addRelationship)
			r.Put("/", a.updateRelationship)
			r.Delete("/", a.removeRelationship)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", a.createGroup)
			r.Post("/from-emails", a.createGroupFromEmails)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.getGroup)
				r.Get("/members", a.groupMembers)
				r.Post("/members", a.addGroupMember)
				r.Delete("/members/{userID}", a.removeGroupMember)
			})
		})

		r.Post("/merge", a.mergeUsers)
	})

	return r
}
