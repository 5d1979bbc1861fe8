package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/reportkit/internal/api/handler"
	"github.com/daap14/reportkit/internal/api/middleware"
	"github.com/daap14/reportkit/internal/api/response"
	"github.com/daap14/reportkit/internal/auth"
	"github.com/daap14/reportkit/internal/identity"
	"github.com/daap14/reportkit/internal/report"
	"github.com/daap14/reportkit/internal/user"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Verifier        identity.Verifier
	IdentityTimeout time.Duration
	Users           *user.Service
	Reports         report.Generator
	StorePinger     handler.StorePinger
	Version         string
	OpenAPISpec     []byte
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Route not found", middleware.GetRequestID(r.Context()))
	})

	healthHandler := handler.NewHealthHandler(deps.StorePinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.Verifier == nil || deps.Users == nil {
		return r
	}

	guard := auth.NewGuard(deps.Users)
	authHandler := handler.NewAuthHandler(deps.Users)
	adminHandler := handler.NewAdminHandler(deps.Users)

	r.Route("/api", func(r chi.Router) {
		r.Use(identity.Middleware(deps.Verifier, deps.IdentityTimeout))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuthenticated(guard))
			r.Post("/auth/sync", authHandler.Sync)
			r.Get("/auth/me", authHandler.Me)

			if deps.Reports != nil {
				reportHandler := handler.NewReportHandler(deps.Reports)
				r.Post("/generate-report", reportHandler.Generate)
			}
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(guard))
			r.Get("/users", adminHandler.ListUsers)
			r.Patch("/users/{id}/role", adminHandler.SetRole)
		})
	})

	return r
}
