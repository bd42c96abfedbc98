package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/metrics"
)

const maxUploadBytes = 15 << 20 // 15 MiB

var allowedUploadMimes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type assetDTO struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	Kind          string    `json:"kind"`
	Mode          string    `json:"mode,omitempty"`
	SourceAssetID *string   `json:"source_asset_id,omitempty"`
	MimeType      string    `json:"mime_type"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
	Bytes         int64     `json:"bytes"`
	CreatedAt     time.Time `json:"created_at"`
	URL           string    `json:"url,omitempty"`
}

// UploadAsset accepts a multipart product photo and stores it as an input
// asset. The declared content type is ignored; the stored mime comes from
// sniffing the bytes.
func (a *App) UploadAsset(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds size limit")
		return
	}

	projectID := r.FormValue("project_id")
	project, err := a.Projects.GetByID(r.Context(), projectID)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown project_id")
		return
	}
	if project.UserID != user.ID {
		a.error(w, http.StatusForbidden, "forbidden", "not your project")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file field required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}

	mime := mimetype.Detect(data)
	ext, supported := allowedUploadMimes[mime.String()]
	if !supported {
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_media", fmt.Sprintf("unsupported image type %s", mime.String()))
		return
	}

	var width, height int
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	asset := &domain.Asset{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		ProjectID:   project.ID,
		Kind:        domain.AssetKindInput,
		MimeType:    mime.String(),
		Width:       width,
		Height:      height,
		Bytes:       int64(len(data)),
	}
	asset.StoragePath = fmt.Sprintf("%s/inputs/%s%s", user.ID, asset.ID, ext)

	if err := a.Store.Upload(r.Context(), asset.StoragePath, data, asset.MimeType); err != nil {
		a.Logger.Error().Err(err).Msg("store upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store file")
		return
	}
	if err := a.Assets.Create(r.Context(), asset); err != nil {
		a.Logger.Error().Err(err).Msg("persist asset failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to persist asset")
		return
	}

	dto := toAssetDTO(asset)
	start := time.Now()
	if url, err := a.Store.PresignGet(r.Context(), asset.StoragePath, a.Cfg.SignedURLTTL); err == nil {
		dto.URL = url
	}
	metrics.ObservePresign(time.Since(start).Seconds())
	a.json(w, http.StatusCreated, dto)
}

func (a *App) ListAssets(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	assets, err := a.Assets.ListByUser(r.Context(), user.ID, limit, offset)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list assets failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list assets")
		return
	}
	out := make([]assetDTO, 0, len(assets))
	for i := range assets {
		out = append(out, toAssetDTO(&assets[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"assets": out})
}

// DownloadAsset returns a time-limited signed URL for the asset bytes.
func (a *App) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	asset, ok := a.loadOwnedAsset(w, r, user.ID)
	if !ok {
		return
	}

	start := time.Now()
	url, err := a.Store.PresignGet(r.Context(), asset.StoragePath, a.Cfg.SignedURLTTL)
	metrics.ObservePresign(time.Since(start).Seconds())
	if err != nil {
		a.Logger.Error().Err(err).Msg("presign failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign download url")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"url":        url,
		"expires_at": time.Now().Add(a.Cfg.SignedURLTTL).UTC(),
	})
}

// DeleteAsset removes the stored object and the row. Jobs that referenced
// the asset keep their historical record.
func (a *App) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	asset, ok := a.loadOwnedAsset(w, r, user.ID)
	if !ok {
		return
	}
	if err := a.Store.Delete(r.Context(), asset.StoragePath); err != nil {
		a.Logger.Error().Err(err).Msg("delete object failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete file")
		return
	}
	if err := a.Assets.Delete(r.Context(), asset.ID); err != nil {
		a.Logger.Error().Err(err).Msg("delete asset row failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete asset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) loadOwnedAsset(w http.ResponseWriter, r *http.Request, userID string) (*domain.Asset, bool) {
	asset, err := a.Assets.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "asset not found")
			return nil, false
		}
		a.Logger.Error().Err(err).Msg("load asset failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load asset")
		return nil, false
	}
	if asset.UserID != userID {
		a.error(w, http.StatusForbidden, "forbidden", "not your asset")
		return nil, false
	}
	return asset, true
}

func toAssetDTO(asset *domain.Asset) assetDTO {
	return assetDTO{
		ID:            asset.ID,
		ProjectID:     asset.ProjectID,
		Kind:          string(asset.Kind),
		Mode:          string(asset.Mode),
		SourceAssetID: asset.SourceAssetID,
		MimeType:      asset.MimeType,
		Width:         asset.Width,
		Height:        asset.Height,
		Bytes:         asset.Bytes,
		CreatedAt:     asset.CreatedAt,
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
