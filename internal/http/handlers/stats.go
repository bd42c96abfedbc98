package handlers

import (
	"net/http"
)

// AdminStats exposes aggregate job statistics. Admin role only.
func (a *App) AdminStats(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	if !user.IsAdmin() {
		a.error(w, http.StatusForbidden, "forbidden", "admin only")
		return
	}
	stats, err := a.Jobs.Statistics(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("job statistics failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load statistics")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"total_jobs":         stats.TotalJobs,
		"by_status":          stats.ByStatus,
		"by_mode":            stats.ByMode,
		"succeeded_last_24h": stats.SucceededLast,
		"failed_last_24h":    stats.FailedLast,
		"revenue_cents":      stats.RevenueCents,
	})
}
