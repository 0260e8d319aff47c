package models

import "time"

// TwoFactor is the single live second-factor code of a user (table auth_2f).
// Every new request overwrites it.
type TwoFactor struct {
	ID             int       `json:"id"`
	UserID         int       `json:"user_id"`
	Code           string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	FailedAttempts int       `json:"failed_attempts"`
}

// Usable reports whether the code may still be accepted at now.
func (t *TwoFactor) Usable(now time.Time, maxFails int) bool {
	if !now.Before(t.ExpiresAt) {
		return false
	}
	return maxFails <= 0 || t.FailedAttempts < maxFails
}

// EmailCodeRequest is accepted from the query string or the body.
type EmailCodeRequest struct {
	Email string `json:"email" form:"email"`
	Code  string `json:"code" form:"code"`
}

type EmailRequest struct {
	Email string `json:"email" form:"email"`
}
