// Package generation owns the job lifecycle: enqueueing validated requests
// and processing them against the external image provider.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/metrics"
	imgprov "github.com/francesca-tabor-ai/commerce-pix-sub001/internal/providers/image"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/prompt"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/ratelimit"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/storage"
)

const maxStackBytes = 2048

// ModeCosts resolves the per-mode generation price in cents.
type ModeCosts func(domain.Mode) int

// Orchestrator drives jobs through queued -> running -> succeeded|failed.
type Orchestrator struct {
	users    domain.UserRepository
	assets   domain.AssetRepository
	jobs     domain.JobRepository
	limiter  *ratelimit.Limiter
	store    storage.Store
	editors  imgprov.Registry
	provider string // default editor name
	costFor  ModeCosts
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(
	users domain.UserRepository,
	assets domain.AssetRepository,
	jobs domain.JobRepository,
	limiter *ratelimit.Limiter,
	store storage.Store,
	editors imgprov.Registry,
	provider string,
	costFor ModeCosts,
	providerTimeout time.Duration,
	logger zerolog.Logger,
) *Orchestrator {
	if providerTimeout <= 0 {
		providerTimeout = 120 * time.Second
	}
	return &Orchestrator{
		users:    users,
		assets:   assets,
		jobs:     jobs,
		limiter:  limiter,
		store:    store,
		editors:  editors,
		provider: provider,
		costFor:  costFor,
		timeout:  providerTimeout,
		logger:   logger.With().Str("component", "generation").Logger(),
	}
}

// EnqueueRequest is a validated-at-the-edge generation request.
type EnqueueRequest struct {
	InputAssetID string
	Mode         string
	Inputs       prompt.Inputs
}

// Enqueue validates the request, applies rate limits and the credit
// precheck, and creates the job in queued. The worker picks it up from
// there; the caller gets the job row back for polling.
func (o *Orchestrator) Enqueue(ctx context.Context, userID string, req EnqueueRequest) (*domain.GenerationJob, ratelimit.Decision, error) {
	var decision ratelimit.Decision

	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		return nil, decision, err
	}

	asset, err := o.assets.GetByID(ctx, req.InputAssetID)
	if err != nil {
		return nil, decision, fmt.Errorf("input asset: %w", err)
	}
	if asset.UserID != userID {
		return nil, decision, fmt.Errorf("input asset: %w", domain.ErrForbidden)
	}
	if asset.Kind != domain.AssetKindInput {
		return nil, decision, fmt.Errorf("%w: asset %s is not an input", domain.ErrInvalidPrompt, asset.ID)
	}

	// Validate the prompt inputs now so the seller hears about problems
	// synchronously instead of through a failed job.
	if _, _, err := prompt.Build(mode, req.Inputs); err != nil {
		return nil, decision, err
	}

	decision = o.limiter.CheckAll(ctx, userID)
	if !decision.Allowed {
		metrics.IncRateLimitDenial(string(decision.BlockedBy))
		return nil, decision, domain.ErrRateLimited
	}

	user, err := o.users.GetByID(ctx, userID)
	if err != nil {
		return nil, decision, fmt.Errorf("user: %w", err)
	}
	if user.CreditCents < o.costFor(mode) {
		return nil, decision, domain.ErrInsufficientCredits
	}

	inputsJSON, err := json.Marshal(req.Inputs)
	if err != nil {
		return nil, decision, fmt.Errorf("encode prompt inputs: %w", err)
	}

	job := &domain.GenerationJob{
		ID:           uuid.NewString(),
		UserID:       userID,
		ProjectID:    asset.ProjectID,
		Status:       domain.JobStatusQueued,
		Mode:         mode,
		InputAssetID: &asset.ID,
		PromptInputs: inputsJSON,
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, decision, fmt.Errorf("create job: %w", err)
	}
	o.logger.Info().Str("job_id", job.ID).Str("user_id", userID).Str("mode", string(mode)).Msg("job queued")
	return job, decision, nil
}

// Process runs one claimed job to a terminal state. Jobs still in queued are
// first moved to running through the guarded transition; a job already
// terminal is left untouched. Usage counters and credits are consumed only
// when the job succeeds.
func (o *Orchestrator) Process(ctx context.Context, job *domain.GenerationJob) error {
	log := o.logger.With().Str("job_id", job.ID).Str("mode", string(job.Mode)).Logger()

	if job.Status == domain.JobStatusQueued {
		ok, err := o.jobs.Transition(ctx, job.ID, domain.JobStatusRunning, 0, nil)
		if err != nil {
			return fmt.Errorf("transition running: %w", err)
		}
		if !ok {
			log.Warn().Msg("job no longer transitionable, skipping")
			return nil
		}
		job.Status = domain.JobStatusRunning
	}
	if job.Status != domain.JobStatusRunning {
		// Terminal states absorb all further processing attempts.
		return nil
	}

	output, failure := o.produce(ctx, job)
	if failure != nil {
		return o.fail(ctx, job, failure)
	}

	cost := o.costFor(job.Mode)
	ok, err := o.jobs.Transition(ctx, job.ID, domain.JobStatusSucceeded, cost, nil)
	if err != nil {
		return fmt.Errorf("transition succeeded: %w", err)
	}
	if !ok {
		log.Warn().Msg("job turned terminal mid-flight, skipping settlement")
		return nil
	}

	// Business rule: quota and credits are consumed on success only.
	o.limiter.Record(ctx, job.UserID)
	if deducted, err := o.users.DeductCredits(ctx, job.UserID, cost); err != nil {
		log.Error().Err(err).Msg("credit deduction failed")
	} else if !deducted {
		log.Warn().Int("cost_cents", cost).Msg("balance below cost at settlement")
	}

	metrics.IncJobProcessed(string(domain.JobStatusSucceeded), string(job.Mode))
	log.Info().Str("output_asset_id", output.ID).Int("cost_cents", cost).Msg("job succeeded")
	return nil
}

// produce performs the fallible middle of the pipeline: fetch input bytes,
// build the prompt, call the provider, and persist the output asset.
func (o *Orchestrator) produce(ctx context.Context, job *domain.GenerationJob) (*domain.Asset, error) {
	if job.InputAssetID == nil {
		return nil, fmt.Errorf("input asset reference missing")
	}
	input, err := o.assets.GetByID(ctx, *job.InputAssetID)
	if err != nil {
		return nil, fmt.Errorf("load input asset: %w", err)
	}

	data, mime, err := o.store.Download(ctx, input.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("download input: %w", err)
	}
	if mime == "" {
		mime = input.MimeType
	}

	var inputs prompt.Inputs
	if len(job.PromptInputs) > 0 {
		if err := json.Unmarshal(job.PromptInputs, &inputs); err != nil {
			return nil, fmt.Errorf("decode prompt inputs: %w", err)
		}
	}
	text, payload, err := prompt.Build(job.Mode, inputs)
	if err != nil {
		return nil, err
	}

	editor, err := o.editors.Select(o.provider)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	start := time.Now()
	edited, err := editor.Edit(callCtx, imgprov.EditRequest{
		Image:     data,
		MimeType:  mime,
		Prompt:    text,
		RequestID: job.ID,
	})
	metrics.ObserveProviderCall(editor.Name(), err == nil, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("edit: %w", err)
	}

	width, height := edited.Width, edited.Height
	if width == 0 || height == 0 {
		if cfg, _, decErr := image.DecodeConfig(bytes.NewReader(edited.Data)); decErr == nil {
			width, height = cfg.Width, cfg.Height
		}
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode prompt payload: %w", err)
	}

	outID := uuid.NewString()
	key := fmt.Sprintf("%s/outputs/%s.png", job.UserID, outID)
	if err := o.store.Upload(ctx, key, edited.Data, edited.MimeType); err != nil {
		return nil, fmt.Errorf("store output: %w", err)
	}

	out := &domain.Asset{
		ID:            outID,
		UserID:        job.UserID,
		ProjectID:     job.ProjectID,
		Kind:          domain.AssetKindOutput,
		Mode:          job.Mode,
		SourceAssetID: &input.ID,
		PromptVersion: payload.PromptVersion,
		PromptPayload: payloadJSON,
		StoragePath:   key,
		MimeType:      edited.MimeType,
		Width:         width,
		Height:        height,
		Bytes:         int64(len(edited.Data)),
	}
	if err := o.assets.Create(ctx, out); err != nil {
		return nil, fmt.Errorf("persist output asset: %w", err)
	}
	return out, nil
}

// fail writes the structured error payload and marks the job failed. The
// initiating request already returned, so polling is the only place this
// surfaces.
func (o *Orchestrator) fail(ctx context.Context, job *domain.GenerationJob, cause error) error {
	stack := debug.Stack()
	if len(stack) > maxStackBytes {
		stack = stack[:maxStackBytes]
	}
	payload, err := json.Marshal(domain.JobError{
		Message:   cause.Error(),
		Stack:     string(stack),
		Timestamp: time.Now().UTC(),
		Mode:      job.Mode,
		UserID:    job.UserID,
		RequestID: job.ID,
	})
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"message":%q}`, cause.Error()))
	}

	ok, terr := o.jobs.Transition(ctx, job.ID, domain.JobStatusFailed, 0, payload)
	if terr != nil {
		return fmt.Errorf("transition failed: %w (job error: %v)", terr, cause)
	}
	if ok {
		metrics.IncJobProcessed(string(domain.JobStatusFailed), string(job.Mode))
	}
	o.logger.Error().Err(cause).Str("job_id", job.ID).Msg("job failed")
	return nil
}
