package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
	imgprov "github.com/francesca-tabor-ai/commerce-pix-sub001/internal/providers/image"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/prompt"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/ratelimit"
)

type stubUsers struct {
	users      map[string]*domain.User
	deductions []int
	deductErr  error
}

func (s *stubUsers) UpsertByEmail(_ context.Context, u *domain.User) (*domain.User, error) {
	return u, nil
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUsers) AddCredits(_ context.Context, id string, delta int) error {
	s.users[id].CreditCents += delta
	return nil
}

func (s *stubUsers) DeductCredits(_ context.Context, id string, amount int) (bool, error) {
	if s.deductErr != nil {
		return false, s.deductErr
	}
	u := s.users[id]
	if u.CreditCents < amount {
		return false, nil
	}
	u.CreditCents -= amount
	s.deductions = append(s.deductions, amount)
	return true, nil
}

type stubAssets struct {
	assets map[string]*domain.Asset
}

func (s *stubAssets) Create(_ context.Context, a *domain.Asset) error {
	s.assets[a.ID] = a
	return nil
}

func (s *stubAssets) GetByID(_ context.Context, id string) (*domain.Asset, error) {
	a, ok := s.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (s *stubAssets) ListByUser(context.Context, string, int, int) ([]domain.Asset, error) {
	return nil, nil
}

func (s *stubAssets) Delete(_ context.Context, id string) error {
	delete(s.assets, id)
	return nil
}

func (s *stubAssets) outputs() []*domain.Asset {
	var out []*domain.Asset
	for _, a := range s.assets {
		if a.Kind == domain.AssetKindOutput {
			out = append(out, a)
		}
	}
	return out
}

// stubJobs mirrors the repository's guarded-transition semantics in memory.
type stubJobs struct {
	jobs map[string]*domain.GenerationJob
}

func (s *stubJobs) Create(_ context.Context, j *domain.GenerationJob) error {
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}

func (s *stubJobs) GetByID(_ context.Context, id string) (*domain.GenerationJob, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return j, nil
}

func (s *stubJobs) Transition(_ context.Context, id string, next domain.JobStatus, cost int, errJSON []byte) (bool, error) {
	j, ok := s.jobs[id]
	if !ok || j.Status.Terminal() {
		return false, nil
	}
	j.Status = next
	if next == domain.JobStatusSucceeded {
		j.CostCents = cost
	}
	if errJSON != nil {
		j.Error = errJSON
	}
	return true, nil
}

func (s *stubJobs) ClaimQueued(context.Context) (*domain.GenerationJob, error) {
	return nil, domain.ErrNotFound
}

func (s *stubJobs) Statistics(context.Context) (*domain.JobStatistics, error) {
	return &domain.JobStatistics{}, nil
}

type memCounters struct {
	mu     sync.Mutex
	counts map[string]int
	getErr error
}

func (m *memCounters) key(userID string, t domain.CounterType, start time.Time) string {
	return fmt.Sprintf("%s|%s|%d", userID, t, start.Unix())
}

func (m *memCounters) Get(_ context.Context, userID string, t domain.CounterType, start time.Time) (int, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[m.key(userID, t, start)], nil
}

func (m *memCounters) Increment(_ context.Context, userID string, t domain.CounterType, start time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[m.key(userID, t, start)]++
	return nil
}

func (m *memCounters) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := 0
	for _, c := range m.counts {
		sum += c
	}
	return sum
}

func (m *memCounters) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type memStore struct {
	objects map[string][]byte
	mimes   map[string]string
}

func (m *memStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	m.mimes[key] = contentType
	return nil
}

func (m *memStore) Download(_ context.Context, key string) ([]byte, string, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return data, m.mimes[key], nil
}

func (m *memStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://example.test/" + key, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type stubEditor struct {
	err   error
	calls int
}

func (e *stubEditor) Name() string { return "stub" }

func (e *stubEditor) Edit(_ context.Context, _ imgprov.EditRequest) (*imgprov.Edited, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return &imgprov.Edited{Data: []byte("png-bytes"), MimeType: "image/png", Width: 512, Height: 512}, nil
}

type fixture struct {
	users    *stubUsers
	assets   *stubAssets
	jobs     *stubJobs
	counters *memCounters
	store    *memStore
	editor   *stubEditor
	orch     *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users: &stubUsers{users: map[string]*domain.User{
			"u1": {ID: "u1", Email: "seller@example.com", CreditCents: 100},
		}},
		assets:   &stubAssets{assets: make(map[string]*domain.Asset)},
		jobs:     &stubJobs{jobs: make(map[string]*domain.GenerationJob)},
		counters: &memCounters{counts: make(map[string]int)},
		store:    &memStore{objects: make(map[string][]byte), mimes: make(map[string]string)},
		editor:   &stubEditor{},
	}
	f.assets.assets["in1"] = &domain.Asset{
		ID:          "in1",
		UserID:      "u1",
		ProjectID:   "p1",
		Kind:        domain.AssetKindInput,
		StoragePath: "u1/inputs/in1.jpg",
		MimeType:    "image/jpeg",
	}
	f.store.objects["u1/inputs/in1.jpg"] = []byte("jpeg-bytes")
	f.store.mimes["u1/inputs/in1.jpg"] = "image/jpeg"

	limiter := ratelimit.New(f.counters, 5, 50, zerolog.Nop())
	costFor := func(m domain.Mode) int {
		if m == domain.ModeMainWhite {
			return 2
		}
		return 4
	}
	f.orch = NewOrchestrator(
		f.users, f.assets, f.jobs, limiter, f.store,
		imgprov.Registry{"stub": f.editor}, "stub",
		costFor, time.Minute, zerolog.Nop(),
	)
	return f
}

func enqueueReq() EnqueueRequest {
	return EnqueueRequest{
		InputAssetID: "in1",
		Mode:         "main_white",
		Inputs:       prompt.Inputs{ProductDescription: "stainless steel water bottle"},
	}
}

func TestEnqueueCreatesQueuedJob(t *testing.T) {
	f := newFixture(t)

	job, _, err := f.orch.Enqueue(context.Background(), "u1", enqueueReq())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != domain.JobStatusQueued {
		t.Errorf("status = %s, want queued", job.Status)
	}
	if job.InputAssetID == nil || *job.InputAssetID != "in1" {
		t.Error("input asset reference not carried onto the job")
	}
	var in prompt.Inputs
	if err := json.Unmarshal(job.PromptInputs, &in); err != nil {
		t.Fatalf("prompt inputs not valid JSON: %v", err)
	}
	if in.ProductDescription != "stainless steel water bottle" {
		t.Errorf("persisted description = %q", in.ProductDescription)
	}
	if f.editor.calls != 0 {
		t.Error("enqueue must not call the provider")
	}
	if f.users.users["u1"].CreditCents != 100 {
		t.Error("enqueue must not deduct credits")
	}
}

func TestEnqueueUnknownMode(t *testing.T) {
	f := newFixture(t)
	req := enqueueReq()
	req.Mode = "hero_banner"

	if _, _, err := f.orch.Enqueue(context.Background(), "u1", req); !errors.Is(err, domain.ErrInvalidMode) {
		t.Fatalf("err = %v, want ErrInvalidMode", err)
	}
}

func TestEnqueueForeignAssetForbidden(t *testing.T) {
	f := newFixture(t)
	f.assets.assets["in1"].UserID = "someone-else"

	if _, _, err := f.orch.Enqueue(context.Background(), "u1", enqueueReq()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if len(f.jobs.jobs) != 0 {
		t.Error("no job may be created for a foreign asset")
	}
}

func TestEnqueueOutputAssetRejected(t *testing.T) {
	f := newFixture(t)
	f.assets.assets["in1"].Kind = domain.AssetKindOutput

	if _, _, err := f.orch.Enqueue(context.Background(), "u1", enqueueReq()); !errors.Is(err, domain.ErrInvalidPrompt) {
		t.Fatalf("err = %v, want ErrInvalidPrompt", err)
	}
}

func TestEnqueueRateLimited(t *testing.T) {
	f := newFixture(t)
	// Fill the current and the following minute bucket so the test cannot
	// flake on a minute rollover between setup and check.
	now := time.Now()
	for _, at := range []time.Time{now, now.Add(time.Minute)} {
		start := domain.CounterPerMinute.PeriodStart(at)
		for i := 0; i < 5; i++ {
			f.counters.Increment(context.Background(), "u1", domain.CounterPerMinute, start)
		}
	}

	_, decision, err := f.orch.Enqueue(context.Background(), "u1", enqueueReq())
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if decision.BlockedBy != domain.CounterPerMinute {
		t.Errorf("blocked_by = %s, want per_minute", decision.BlockedBy)
	}
	if len(f.jobs.jobs) != 0 {
		t.Error("denied request must not create a job")
	}
}

func TestEnqueueInsufficientCredits(t *testing.T) {
	f := newFixture(t)
	f.users.users["u1"].CreditCents = 1

	if _, _, err := f.orch.Enqueue(context.Background(), "u1", enqueueReq()); !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
}

func TestProcessSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, _, err := f.orch.Enqueue(ctx, "u1", enqueueReq())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := f.orch.Process(ctx, f.jobs.jobs[job.ID]); err != nil {
		t.Fatalf("Process: %v", err)
	}

	stored := f.jobs.jobs[job.ID]
	if stored.Status != domain.JobStatusSucceeded {
		t.Fatalf("status = %s, want succeeded", stored.Status)
	}
	if stored.CostCents != 2 {
		t.Errorf("cost_cents = %d, want 2 for main_white", stored.CostCents)
	}

	outs := f.assets.outputs()
	if len(outs) != 1 {
		t.Fatalf("output assets = %d, want exactly 1", len(outs))
	}
	out := outs[0]
	if out.SourceAssetID == nil || *out.SourceAssetID != "in1" {
		t.Error("output must reference its source asset")
	}
	if out.PromptVersion != prompt.Version {
		t.Errorf("prompt_version = %q, want %q", out.PromptVersion, prompt.Version)
	}
	var payload prompt.Payload
	if err := json.Unmarshal(out.PromptPayload, &payload); err != nil {
		t.Fatalf("prompt payload not valid JSON: %v", err)
	}
	if payload.TemplateID != "main_white.v3" {
		t.Errorf("template_id = %q", payload.TemplateID)
	}
	if _, ok := f.store.objects[out.StoragePath]; !ok {
		t.Error("output bytes not uploaded to the store")
	}

	if f.users.users["u1"].CreditCents != 98 {
		t.Errorf("credits = %d, want 98 after a 2-cent job", f.users.users["u1"].CreditCents)
	}
	if got := f.counters.total(); got != 2 {
		t.Errorf("counter increments = %d, want 2 (minute and day tier)", got)
	}
}

func TestProcessProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.editor.err = errors.New("upstream 503")
	ctx := context.Background()

	job, _, err := f.orch.Enqueue(ctx, "u1", enqueueReq())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := f.orch.Process(ctx, f.jobs.jobs[job.ID]); err != nil {
		t.Fatalf("Process must not propagate provider errors: %v", err)
	}

	stored := f.jobs.jobs[job.ID]
	if stored.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}

	var je domain.JobError
	if err := json.Unmarshal(stored.Error, &je); err != nil {
		t.Fatalf("error payload not valid JSON: %v", err)
	}
	if je.Message == "" || je.Timestamp.IsZero() {
		t.Error("error payload must carry message and timestamp")
	}
	if je.Mode != domain.ModeMainWhite || je.UserID != "u1" || je.RequestID != job.ID {
		t.Errorf("error payload context = %+v", je)
	}

	if f.users.users["u1"].CreditCents != 100 {
		t.Error("failed jobs must not consume credits")
	}
	if f.counters.total() != 0 {
		t.Error("failed jobs must not consume quota")
	}
	if len(f.assets.outputs()) != 0 {
		t.Error("failed jobs must not persist output assets")
	}
}

func TestProcessTerminalJobIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, _, err := f.orch.Enqueue(ctx, "u1", enqueueReq())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	f.jobs.jobs[job.ID].Status = domain.JobStatusSucceeded

	if err := f.orch.Process(ctx, f.jobs.jobs[job.ID]); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if f.editor.calls != 0 {
		t.Error("terminal job must not reach the provider")
	}
	if f.users.users["u1"].CreditCents != 100 || f.counters.total() != 0 {
		t.Error("terminal job must not settle credits or quota again")
	}
}

func TestProcessDeductionFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.users.deductErr = errors.New("db down")
	ctx := context.Background()

	job, _, err := f.orch.Enqueue(ctx, "u1", enqueueReq())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := f.orch.Process(ctx, f.jobs.jobs[job.ID]); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if f.jobs.jobs[job.ID].Status != domain.JobStatusSucceeded {
		t.Error("settlement trouble must not fail an already-produced job")
	}
}
