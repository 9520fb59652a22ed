package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-worker/internal/api/middleware"
	"github.com/phrazzld/scry-worker/internal/api/shared"
	"github.com/phrazzld/scry-worker/internal/service/auth"
	"github.com/phrazzld/scry-worker/internal/store"
)

// healthCheckTimeout bounds the database ping behind /health.
const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps are the collaborators of the operator API.
type RouterDeps struct {
	Tasks         store.TaskStore
	Tokens        store.TokenStore
	Conversations store.ConversationStore
	JWT           auth.JWTService
	DB            Pinger
	Logger        *slog.Logger
}

// NewRouter wires the operator API routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	authMiddleware := middleware.NewAuthMiddleware(deps.JWT)
	taskHandler := NewTaskHandler(deps.Tasks, deps.Logger)
	tokenHandler := NewTokenHandler(deps.Tokens, deps.Logger)
	conversationHandler := NewConversationHandler(deps.Conversations, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Put("/tokens", tokenHandler.RegisterToken)
		r.Delete("/tokens/{deviceID}", tokenHandler.DeleteToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Get("/conversations", conversationHandler.ListConversations)
			r.Get("/conversations/{id}", conversationHandler.GetConversation)
		})
	})

	r.Get("/health", healthHandler(deps.DB))

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
				return
			}
		}
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
