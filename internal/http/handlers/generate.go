package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/generation"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/prompt"
)

type generateRequest struct {
	InputAssetID       string   `json:"input_asset_id"`
	Mode               string   `json:"mode"`
	ProductDescription string   `json:"product_description"`
	ProductCategory    string   `json:"product_category"`
	BrandTone          string   `json:"brand_tone"`
	Scene              string   `json:"scene"`
	Constraints        []string `json:"constraints"`
}

// Generate validates the request and enqueues a generation job. The response
// is 202 with the job id; the worker does the actual provider call and the
// client polls /v1/jobs/{id}.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	job, decision, err := a.Orch.Enqueue(r.Context(), user.ID, generation.EnqueueRequest{
		InputAssetID: req.InputAssetID,
		Mode:         req.Mode,
		Inputs: prompt.Inputs{
			ProductDescription: req.ProductDescription,
			ProductCategory:    req.ProductCategory,
			BrandTone:          req.BrandTone,
			Scene:              req.Scene,
			Constraints:        req.Constraints,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidMode):
			a.error(w, http.StatusBadRequest, "invalid_mode", "unknown generation mode")
		case errors.Is(err, domain.ErrInvalidPrompt):
			a.error(w, http.StatusBadRequest, "invalid_prompt", err.Error())
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "input asset not found")
		case errors.Is(err, domain.ErrForbidden):
			a.error(w, http.StatusForbidden, "forbidden", "not your asset")
		case errors.Is(err, domain.ErrRateLimited):
			blocked := decision.PerMinute
			if decision.BlockedBy == domain.CounterPerDay {
				blocked = decision.PerDay
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(blocked.ResetAt).Seconds())+1))
			a.json(w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{
					"code":     "rate_limited",
					"message":  "generation limit reached",
					"tier":     string(decision.BlockedBy),
					"limit":    blocked.Limit,
					"reset_at": blocked.ResetAt,
				},
			})
		case errors.Is(err, domain.ErrInsufficientCredits):
			a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits for this mode")
		default:
			a.Logger.Error().Err(err).Msg("enqueue failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to enqueue job")
		}
		return
	}

	a.json(w, http.StatusAccepted, map[string]any{
		"job": toJobDTO(job),
	})
}
