package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// UserPlan enumerates billing plans.
type UserPlan string

const (
	UserPlanFree UserPlan = "free"
	UserPlanPro  UserPlan = "pro"
)

// User represents an authenticated seller account.
type User struct {
	ID          string
	Email       string
	Name        string
	Locale      string
	Role        UserRole
	Plan        UserPlan
	CreditCents int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAdmin reports whether the user may access admin endpoints.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Project groups a seller's assets and jobs.
type Project struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
