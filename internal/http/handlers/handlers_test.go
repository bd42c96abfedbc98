package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/generation"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/http/handlers"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/http/httpapi"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/infra"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/middleware"
	imgprov "github.com/francesca-tabor-ai/commerce-pix-sub001/internal/providers/image"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/ratelimit"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/storage"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *memUsers) UpsertByEmail(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			cp := *existing
			return &cp, nil
		}
	}
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) AddCredits(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].CreditCents += delta
	return nil
}

func (m *memUsers) DeductCredits(_ context.Context, id string, amount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	if u.CreditCents < amount {
		return false, nil
	}
	u.CreditCents -= amount
	return true, nil
}

type memProjects struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
}

func (m *memProjects) Create(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *memProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProjects) ListByUser(_ context.Context, userID string) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Project
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProjects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

type memAssets struct {
	mu     sync.Mutex
	assets map[string]*domain.Asset
}

func (m *memAssets) Create(_ context.Context, a *domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.assets[a.ID] = &cp
	return nil
}

func (m *memAssets) GetByID(_ context.Context, id string) (*domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAssets) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Asset
	for _, a := range m.assets {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAssets) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assets, id)
	return nil
}

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]*domain.GenerationJob
}

func (m *memJobs) Create(_ context.Context, j *domain.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *memJobs) GetByID(_ context.Context, id string) (*domain.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) Transition(_ context.Context, id string, next domain.JobStatus, cost int, errJSON []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
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

func (m *memJobs) ClaimQueued(context.Context) (*domain.GenerationJob, error) {
	return nil, domain.ErrNotFound
}

func (m *memJobs) Statistics(context.Context) (*domain.JobStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.JobStatistics{
		ByStatus: make(map[domain.JobStatus]int64),
		ByMode:   make(map[domain.Mode]int64),
	}
	for _, j := range m.jobs {
		stats.TotalJobs++
		stats.ByStatus[j.Status]++
		stats.ByMode[j.Mode]++
	}
	return stats, nil
}

type memCounters struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *memCounters) Get(_ context.Context, userID string, t domain.CounterType, start time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[fmt.Sprintf("%s|%s|%d", userID, t, start.Unix())], nil
}

func (m *memCounters) Increment(_ context.Context, userID string, t domain.CounterType, start time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[fmt.Sprintf("%s|%s|%d", userID, t, start.Unix())]++
	return nil
}

func (m *memCounters) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type env struct {
	app      *handlers.App
	router   http.Handler
	users    *memUsers
	projects *memProjects
	assets   *memAssets
	jobs     *memJobs
}

func newEnv(t *testing.T) *env {
	t.Helper()

	local, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080/static", "test-signing-secret")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	e := &env{
		users:    &memUsers{users: make(map[string]*domain.User)},
		projects: &memProjects{projects: make(map[string]*domain.Project)},
		assets:   &memAssets{assets: make(map[string]*domain.Asset)},
		jobs:     &memJobs{jobs: make(map[string]*domain.GenerationJob)},
	}
	counters := &memCounters{counts: make(map[string]int)}
	limiter := ratelimit.New(counters, 5, 50, zerolog.Nop())

	cfg := &infra.Config{
		JWTSecret:         "test-secret",
		FreeCreditCents:   100,
		SignedURLTTL:      15 * time.Minute,
		IPRateLimitPerMin: 1000,
		ProviderTimeout:   time.Minute,
		ModeCostCents: map[domain.Mode]int{
			domain.ModeMainWhite:      2,
			domain.ModeLifestyle:      4,
			domain.ModeFeatureCallout: 4,
			domain.ModePackaging:      4,
		},
	}

	orch := generation.NewOrchestrator(
		e.users, e.assets, e.jobs, limiter, local,
		imgprov.Registry{"noop": imgprov.NewNoopEditor()}, "noop",
		cfg.CostFor, cfg.ProviderTimeout, zerolog.Nop(),
	)

	e.app = &handlers.App{
		Cfg:      cfg,
		Logger:   zerolog.Nop(),
		Users:    e.users,
		Projects: e.projects,
		Assets:   e.assets,
		Jobs:     e.jobs,
		Store:    local,
		Local:    local,
		Orch:     orch,
		Limiter:  limiter,
	}
	e.router = httpapi.NewRouter(e.app, nil, nil)
	return e
}

// seedUser inserts a user and returns a valid bearer token for them.
func (e *env) seedUser(t *testing.T, id string, credits int, role domain.UserRole) string {
	t.Helper()
	e.users.users[id] = &domain.User{
		ID:          id,
		Email:       id + "@example.com",
		Role:        role,
		Plan:        domain.UserPlanFree,
		CreditCents: credits,
	}
	token, err := middleware.SignJWT("test-secret", id, "en", "free", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (e *env) seedInputAsset(t *testing.T, id, userID, projectID string) {
	t.Helper()
	key := userID + "/inputs/" + id + ".png"
	if err := e.app.Store.Upload(context.Background(), key, tinyPNG(t), "image/png"); err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	e.assets.assets[id] = &domain.Asset{
		ID:          id,
		UserID:      userID,
		ProjectID:   projectID,
		Kind:        domain.AssetKindInput,
		StoragePath: key,
		MimeType:    "image/png",
	}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLoginIssuesTokenAndFreeCredits(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "seller@example.com",
		"name":  "Seller",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID          string `json:"id"`
			CreditCents int    `json:"credit_cents"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if resp.User.CreditCents != 100 {
		t.Errorf("credit_cents = %d, want the free grant", resp.User.CreditCents)
	}

	// The token must work against a protected route.
	rec = e.do(t, http.MethodGet, "/v1/me", resp.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/v1/me with fresh token: %d", rec.Code)
	}
}

func TestLoginRejectsBadEmail(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "not-an-email"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{"/v1/me", "/v1/projects", "/v1/assets", "/v1/jobs/abc"} {
		rec := e.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: %d, want 401", path, rec.Code)
		}
	}
}

func TestGenerateAccepted(t *testing.T) {
	e := newEnv(t)
	token := e.seedUser(t, "u1", 100, domain.UserRoleUser)
	e.seedInputAsset(t, "in1", "u1", "p1")

	rec := e.do(t, http.MethodPost, "/v1/generate", token, map[string]any{
		"input_asset_id":      "in1",
		"mode":                "main_white",
		"product_description": "ceramic travel mug",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		Job struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"job"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Job.Status != "queued" {
		t.Errorf("job status = %q, want queued", resp.Job.Status)
	}
	if _, ok := e.jobs.jobs[resp.Job.ID]; !ok {
		t.Error("job not persisted")
	}
}

func TestGenerateUnknownMode(t *testing.T) {
	e := newEnv(t)
	token := e.seedUser(t, "u1", 100, domain.UserRoleUser)
	e.seedInputAsset(t, "in1", "u1", "p1")

	rec := e.do(t, http.MethodPost, "/v1/generate", token, map[string]any{
		"input_asset_id":      "in1",
		"mode":                "hero_shot",
		"product_description": "mug",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_mode") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestGenerateInsufficientCredits(t *testing.T) {
	e := newEnv(t)
	token := e.seedUser(t, "u1", 1, domain.UserRoleUser)
	e.seedInputAsset(t, "in1", "u1", "p1")

	rec := e.do(t, http.MethodPost, "/v1/generate", token, map[string]any{
		"input_asset_id":      "in1",
		"mode":                "main_white",
		"product_description": "mug",
	})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}
}

func TestGenerateForeignAssetForbidden(t *testing.T) {
	e := newEnv(t)
	token := e.seedUser(t, "u1", 100, domain.UserRoleUser)
	e.seedUser(t, "u2", 100, domain.UserRoleUser)
	e.seedInputAsset(t, "in2", "u2", "p2")

	rec := e.do(t, http.MethodPost, "/v1/generate", token, map[string]any{
		"input_asset_id":      "in2",
		"mode":                "main_white",
		"product_description": "mug",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestJobOwnership(t *testing.T) {
	e := newEnv(t)
	ownerToken := e.seedUser(t, "u1", 100, domain.UserRoleUser)
	otherToken := e.seedUser(t, "u2", 100, domain.UserRoleUser)
	e.seedInputAsset(t, "in1", "u1", "p1")

	rec := e.do(t, http.MethodPost, "/v1/generate", ownerToken, map[string]any{
		"input_asset_id":      "in1",
		"mode":                "lifestyle",
		"product_description": "mug",
		"scene":               "sunny kitchen table",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue: %d", rec.Code)
	}
	var resp struct {
		Job struct {
			ID string `json:"id"`
		} `json:"job"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = e.do(t, http.MethodGet, "/v1/jobs/"+resp.Job.ID, otherToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign job poll: %d, want 403", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "lifestyle") {
		t.Error("forbidden response must not leak job contents")
	}

	rec = e.do(t, http.MethodGet, "/v1/jobs/"+resp.Job.ID, ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner job poll: %d", rec.Code)
	}
}

func TestJobNotFound(t *testing.T) {
	e := newEnv(t)
	token := e.seedUser(t, "u1", 100, domain.UserRoleUser)
	rec := e.do(t, http.MethodGet, "/v1/jobs/"+uuid.NewString(), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUploadListDownloadDelete(t *testing.T) {
	e := newEnv(t)
	token := e.seedUser(t, "u1", 100, domain.UserRoleUser)
	e.projects.projects["p1"] = &domain.Project{ID: "p1", UserID: "u1", Name: "Spring line"}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("project_id", "p1"); err != nil {
		t.Fatal(err)
	}
	part, err := mw.CreateFormFile("file", "mug.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(tinyPNG(t)); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d body = %s", rec.Code, rec.Body)
	}
	var uploaded struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
		Width    int    `json:"width"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &uploaded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if uploaded.MimeType != "image/png" {
		t.Errorf("sniffed mime = %q", uploaded.MimeType)
	}
	if uploaded.Width != 8 {
		t.Errorf("width = %d, want 8", uploaded.Width)
	}

	rec = e.do(t, http.MethodGet, "/v1/assets", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), uploaded.ID) {
		t.Fatalf("list: %d body = %s", rec.Code, rec.Body)
	}

	rec = e.do(t, http.MethodGet, "/v1/assets/"+uploaded.ID+"/download", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: %d", rec.Code)
	}
	var dl struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dl); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(dl.URL, "sig=") {
		t.Errorf("signed url missing signature: %s", dl.URL)
	}

	// Signed URL path must resolve through /static with a valid signature.
	staticPath := strings.TrimPrefix(dl.URL, "http://localhost:8080")
	req = httptest.NewRequest(http.MethodGet, staticPath, nil)
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("static download: %d", rec.Code)
	}

	rec = e.do(t, http.MethodDelete, "/v1/assets/"+uploaded.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if _, err := e.assets.GetByID(context.Background(), uploaded.ID); err == nil {
		t.Error("asset row still present after delete")
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	e := newEnv(t)
	token := e.seedUser(t, "u1", 100, domain.UserRoleUser)
	e.projects.projects["p1"] = &domain.Project{ID: "p1", UserID: "u1"}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("project_id", "p1")
	part, _ := mw.CreateFormFile("file", "notes.txt")
	part.Write([]byte("just some text"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
}

func TestStaticRejectsTamperedSignature(t *testing.T) {
	e := newEnv(t)
	token := e.seedUser(t, "u1", 100, domain.UserRoleUser)
	e.seedInputAsset(t, "in1", "u1", "p1")

	rec := e.do(t, http.MethodGet, "/v1/assets/in1/download", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: %d", rec.Code)
	}
	var dl struct {
		URL string `json:"url"`
	}
	json.Unmarshal(rec.Body.Bytes(), &dl)

	tampered := strings.TrimPrefix(dl.URL, "http://localhost:8080")
	tampered = strings.Replace(tampered, "sig=", "sig=00", 1)
	req := httptest.NewRequest(http.MethodGet, tampered, nil)
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("tampered link: %d, want 403", rec.Code)
	}
}

func TestAdminStatsForbiddenForUsers(t *testing.T) {
	e := newEnv(t)
	userToken := e.seedUser(t, "u1", 100, domain.UserRoleUser)
	adminToken := e.seedUser(t, "admin1", 0, domain.UserRoleAdmin)

	rec := e.do(t, http.MethodGet, "/v1/admin/stats", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user access: %d, want 403", rec.Code)
	}
	rec = e.do(t, http.MethodGet, "/v1/admin/stats", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin access: %d", rec.Code)
	}
}

func TestProjectLifecycle(t *testing.T) {
	e := newEnv(t)
	token := e.seedUser(t, "u1", 100, domain.UserRoleUser)

	rec := e.do(t, http.MethodPost, "/v1/projects", token, map[string]string{"name": "Summer drop"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d body = %s", rec.Code, rec.Body)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = e.do(t, http.MethodGet, "/v1/projects", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Summer drop") {
		t.Fatalf("list: %d body = %s", rec.Code, rec.Body)
	}

	otherToken := e.seedUser(t, "u2", 100, domain.UserRoleUser)
	rec = e.do(t, http.MethodDelete, "/v1/projects/"+created.ID, otherToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: %d, want 403", rec.Code)
	}

	rec = e.do(t, http.MethodDelete, "/v1/projects/"+created.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/v1/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
