package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

type jobDTO struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"project_id"`
	Status        string          `json:"status"`
	Mode          string          `json:"mode"`
	InputAssetID  *string         `json:"input_asset_id,omitempty"`
	CostCents     int             `json:"cost_cents,omitempty"`
	Error         json.RawMessage `json:"error,omitempty"`
	OutputAssetID string          `json:"output_asset_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// GetJob returns the job's state for polling. Ownership is enforced before
// anything about the job is revealed: a foreign job id gets 403 with no
// contents.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	job, err := a.Jobs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	if job.UserID != user.ID {
		a.error(w, http.StatusForbidden, "forbidden", "not your job")
		return
	}

	dto := toJobDTO(job)
	if job.Status == domain.JobStatusSucceeded && job.InputAssetID != nil {
		// Best effort: surface the produced asset so clients skip a list call.
		if id, err := a.outputAssetID(r, job); err == nil {
			dto.OutputAssetID = id
		}
	}
	a.json(w, http.StatusOK, map[string]any{"job": dto})
}

// outputAssetID finds the output asset generated from the job's input. The
// asset carries the source reference, so scan the user's recent assets.
func (a *App) outputAssetID(r *http.Request, job *domain.GenerationJob) (string, error) {
	assets, err := a.Assets.ListByUser(r.Context(), job.UserID, 100, 0)
	if err != nil {
		return "", err
	}
	for i := range assets {
		asset := &assets[i]
		if asset.Kind != domain.AssetKindOutput || asset.SourceAssetID == nil {
			continue
		}
		if *asset.SourceAssetID == *job.InputAssetID && asset.Mode == job.Mode && !asset.CreatedAt.Before(job.CreatedAt) {
			return asset.ID, nil
		}
	}
	return "", domain.ErrNotFound
}

func toJobDTO(job *domain.GenerationJob) jobDTO {
	return jobDTO{
		ID:           job.ID,
		ProjectID:    job.ProjectID,
		Status:       string(job.Status),
		Mode:         string(job.Mode),
		InputAssetID: job.InputAssetID,
		CostCents:    job.CostCents,
		Error:        json.RawMessage(job.Error),
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}
