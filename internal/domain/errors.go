package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidMode         = errors.New("invalid generation mode")
	ErrInvalidPrompt       = errors.New("invalid prompt input")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrProviderFailure     = errors.New("provider failure")
	ErrTerminalState       = errors.New("job already in terminal state")
)
