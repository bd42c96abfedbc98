package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

type createProjectRequest struct {
	Name string `json:"name"`
}

type projectDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *App) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name required")
		return
	}

	project := &domain.Project{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Name:   req.Name,
	}
	if err := a.Projects.Create(r.Context(), project); err != nil {
		a.Logger.Error().Err(err).Msg("create project failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create project")
		return
	}
	a.json(w, http.StatusCreated, toProjectDTO(project))
}

func (a *App) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	projects, err := a.Projects.ListByUser(r.Context(), user.ID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list projects failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list projects")
		return
	}
	out := make([]projectDTO, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectDTO(&projects[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"projects": out})
}

func (a *App) DeleteProject(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	project, err := a.Projects.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "project not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load project failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load project")
		return
	}
	if project.UserID != user.ID {
		a.error(w, http.StatusForbidden, "forbidden", "not your project")
		return
	}
	if err := a.Projects.Delete(r.Context(), id); err != nil {
		a.Logger.Error().Err(err).Msg("delete project failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toProjectDTO(p *domain.Project) projectDTO {
	return projectDTO{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt}
}
