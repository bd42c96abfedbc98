package domain

import "time"

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status absorbs further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is legal. Terminal
// states accept nothing; queued may only start running; running may only
// terminate.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return next == JobStatusRunning || next == JobStatusFailed
	case JobStatusRunning:
		return next.Terminal()
	default:
		return false
	}
}

// GenerationJob tracks one request for an AI-edited marketing variant.
type GenerationJob struct {
	ID           string
	UserID       string
	ProjectID    string
	Status       JobStatus
	Mode         Mode
	InputAssetID *string
	PromptInputs []byte // JSON prompt.Inputs captured at enqueue time
	Error        []byte // JSON payload, set only on failure
	CostCents    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobError is the structured payload persisted in GenerationJob.Error and
// surfaced to the client for support handoff.
type JobError struct {
	Message   string    `json:"message"`
	Stack     string    `json:"stack,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Mode      Mode      `json:"mode"`
	UserID    string    `json:"user_id"`
	RequestID string    `json:"request_id,omitempty"`
}

// JobStatistics aggregates jobs for the admin dashboard.
type JobStatistics struct {
	TotalJobs     int64
	ByStatus      map[JobStatus]int64
	ByMode        map[Mode]int64
	SucceededLast int64 // last 24h
	FailedLast    int64 // last 24h
	RevenueCents  int64
}
