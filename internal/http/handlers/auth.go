package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/middleware"
)

type loginRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Locale      string        `json:"locale"`
	Plan        string        `json:"plan"`
	Role        string        `json:"role"`
	CreditCents int           `json:"credit_cents"`
	Usage       *usageSummary `json:"usage,omitempty"`
}

type usageSummary struct {
	PerMinute tierDTO `json:"per_minute"`
	PerDay    tierDTO `json:"per_day"`
}

type tierDTO struct {
	Count   int       `json:"count"`
	Limit   int       `json:"limit"`
	ResetAt time.Time `json:"reset_at"`
}

// Login upserts the user by email and issues a JWT. Identity verification is
// delegated to the SSO layer in front of this endpoint; new accounts start
// with the configured free credit grant.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "valid email required")
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}

	user, err := a.Users.UpsertByEmail(r.Context(), &domain.User{
		Email:       req.Email,
		Name:        strings.TrimSpace(req.Name),
		Locale:      locale,
		Role:        domain.UserRoleUser,
		Plan:        domain.UserPlanFree,
		CreditCents: a.Cfg.FreeCreditCents,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("upsert user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to persist user")
		return
	}

	token, err := middleware.SignJWT(a.Cfg.JWTSecret, user.ID, user.Locale, string(user.Plan), 24*time.Hour)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign jwt failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, loginResponse{Token: token, User: toUserDTO(user, nil)})
}

// Me returns the authenticated user's profile, balance, and current usage.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	decision := a.Limiter.CheckAll(r.Context(), user.ID)
	usage := &usageSummary{
		PerMinute: tierDTO(decision.PerMinute),
		PerDay:    tierDTO(decision.PerDay),
	}
	a.json(w, http.StatusOK, toUserDTO(user, usage))
}

func toUserDTO(u *domain.User, usage *usageSummary) userDTO {
	return userDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Locale:      u.Locale,
		Plan:        string(u.Plan),
		Role:        string(u.Role),
		CreditCents: u.CreditCents,
		Usage:       usage,
	}
}
