package models

import "time"

// Lockout counts failed logins of a user (table block_users).
type Lockout struct {
	ID           int        `json:"id"`
	UserID       int        `json:"user_id"`
	Attempts     int        `json:"attempts"`
	LastAttempt  time.Time  `json:"last_attempt"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
}

func (l *Lockout) Blocked(now time.Time) bool {
	return l != nil && l.BlockedUntil != nil && l.BlockedUntil.After(now)
}
