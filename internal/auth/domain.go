package auth

import "time"

// User represents an account allowed to manage invoices.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8
