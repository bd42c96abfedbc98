package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StaticDownload serves a locally stored object after verifying the HMAC
// signature that PresignGet embedded in the URL. Registered only when the
// local storage backend is active.
func (a *App) StaticDownload(w http.ResponseWriter, r *http.Request) {
	if a.Local == nil {
		a.error(w, http.StatusNotFound, "not_found", "static downloads disabled")
		return
	}
	key := chi.URLParam(r, "*")
	q := r.URL.Query()
	if err := a.Local.Verify(key, q.Get("exp"), q.Get("sig")); err != nil {
		a.error(w, http.StatusForbidden, "forbidden", "invalid or expired link")
		return
	}
	data, mime, err := a.Local.Download(r.Context(), key)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "object not found")
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
