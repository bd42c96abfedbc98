// Package handlers contains the HTTP endpoints of the API server.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/generation"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/infra"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/middleware"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/ratelimit"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/storage"
)

// App bundles the dependencies shared by all handlers.
type App struct {
	Cfg    *infra.Config
	Logger zerolog.Logger

	Users    domain.UserRepository
	Projects domain.ProjectRepository
	Assets   domain.AssetRepository
	Jobs     domain.JobRepository

	Store   storage.Store
	Local   *storage.LocalStore // non-nil only with the local backend
	Orch    *generation.Orchestrator
	Limiter *ratelimit.Limiter
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// currentUser loads the authenticated user, writing the error response
// itself when that fails.
func (a *App) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "unknown user")
		return nil, false
	}
	return user, true
}
