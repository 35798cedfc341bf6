package handlers

import (
	"net/http"
	"time"

	"github.com/claimlab/apiserver/internal/auth"
	"github.com/claimlab/apiserver/internal/policy"
	"github.com/claimlab/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Deps carries everything the HTTP routes need.
type Deps struct {
	Issuer          *auth.Issuer
	Validator       *auth.Validator
	UserService     *services.UserService
	ClaimService    *services.ClaimService
	CategoryService *services.CategoryService
	DB              Pinger
	Driver          string
	SecureCookies   bool
	Logins          LoginRecorder
	StartedAt       time.Time
	Logger          *zap.Logger
}

// Mount registers the public routes and the /api tree on r.
func Mount(r chi.Router, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	requireSession := auth.RequireSession(deps.Validator, logger)

	health := NewHealthHandler(deps.DB, deps.Driver, deps.StartedAt)
	r.Get("/", health.Banner)
	r.Get("/health", health.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/test", health.Test)

		AuthRouter(r, NewAuthHandler(deps.Issuer, deps.UserService, deps.SecureCookies, deps.Logins, logger), requireSession)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Route("/claims", func(r chi.Router) {
				ClaimRouter(r, NewClaimHandler(deps.ClaimService, logger))
			})
			r.Route("/admin", func(r chi.Router) {
				AdminRouter(r, NewAdminHandler(deps.UserService, deps.ClaimService, logger))
			})
			r.With(policy.Require(policy.ListCategories)).
				Get("/categories", NewCategoryHandler(deps.CategoryService, logger).ListCategories)
		})
	})
}

// NotFound answers unknown routes with the JSON error shape.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}
