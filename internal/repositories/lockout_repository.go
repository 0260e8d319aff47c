package repositories

import (
	"context"
	"database/sql"
	"time"

	"passkeeper/internal/dbx"
	"passkeeper/internal/models"
)

type LockoutRepository interface {
	Get(ctx context.Context, userID int) (*models.Lockout, error)
	RegisterFailure(ctx context.Context, userID int, at time.Time, threshold int, blockUntil time.Time) (*models.Lockout, error)
	Delete(ctx context.Context, userID int) error
}

type lockoutRepository struct {
	db dbx.DBTX
}

func NewLockoutRepository(db dbx.DBTX) LockoutRepository {
	return &lockoutRepository{db: db}
}

func scanLockout(row rowScanner) (*models.Lockout, error) {
	l := &models.Lockout{}
	var until sql.NullTime
	if err := row.Scan(&l.ID, &l.UserID, &l.Attempts, &l.LastAttempt, &until); err != nil {
		return nil, err
	}
	if until.Valid {
		t := until.Time
		l.BlockedUntil = &t
	}
	return l, nil
}

func (r *lockoutRepository) Get(ctx context.Context, userID int) (*models.Lockout, error) {
	const q = `
		SELECT id, user_id, attempts, last_attempt, blocked_until
		FROM block_users
		WHERE user_id = $1
	`
	l, err := scanLockout(r.db.QueryRowContext(ctx, q, userID))
	if err != nil {
		return nil, wrap("lockout get", err)
	}
	return l, nil
}

// RegisterFailure counts one failed login in a single statement. The row is
// created on the first failure; once attempts reaches threshold the account
// is blocked until blockUntil.
func (r *lockoutRepository) RegisterFailure(ctx context.Context, userID int, at time.Time, threshold int, blockUntil time.Time) (*models.Lockout, error) {
	const q = `
		INSERT INTO block_users (user_id, attempts, last_attempt, blocked_until)
		VALUES ($1, 1, $2, CASE WHEN 1 >= $3 THEN $4::timestamptz ELSE NULL END)
		ON CONFLICT (user_id) DO UPDATE
		SET attempts = block_users.attempts + 1,
			last_attempt = EXCLUDED.last_attempt,
			blocked_until = CASE
				WHEN block_users.attempts + 1 >= $3 THEN $4::timestamptz
				ELSE block_users.blocked_until
			END
		RETURNING id, user_id, attempts, last_attempt, blocked_until
	`
	l, err := scanLockout(r.db.QueryRowContext(ctx, q, userID, at, threshold, blockUntil))
	if err != nil {
		return nil, wrap("lockout register failure", err)
	}
	return l, nil
}

// Delete drops the counter; a missing row is not an error.
func (r *lockoutRepository) Delete(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM block_users WHERE user_id=$1`, userID)
	return wrap("lockout delete", err)
}
