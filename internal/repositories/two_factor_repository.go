package repositories

import (
	"context"
	"time"

	"passkeeper/internal/dbx"
	"passkeeper/internal/models"
)

type TwoFactorRepository interface {
	// Upsert replaces the user's code and resets the failure counter.
	Upsert(ctx context.Context, userID int, code string, createdAt, expiresAt time.Time) error
	Get(ctx context.Context, userID int) (*models.TwoFactor, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, userID int) (*models.TwoFactor, error)
	IncrementFailures(ctx context.Context, userID int) (int, error)
}

type twoFactorRepository struct {
	db dbx.DBTX
}

func NewTwoFactorRepository(db dbx.DBTX) TwoFactorRepository {
	return &twoFactorRepository{db: db}
}

func (r *twoFactorRepository) Upsert(ctx context.Context, userID int, code string, createdAt, expiresAt time.Time) error {
	const q = `
		INSERT INTO auth_2f (user_id, code, created_at, expires_at, failed_attempts)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (user_id) DO UPDATE
		SET code = EXCLUDED.code,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			failed_attempts = 0
	`
	_, err := r.db.ExecContext(ctx, q, userID, code, createdAt, expiresAt)
	return wrap("two factor upsert", err)
}

const twoFactorSelect = `
	SELECT id, user_id, code, created_at, expires_at, failed_attempts
	FROM auth_2f
	WHERE user_id = $1`

func (r *twoFactorRepository) get(ctx context.Context, op, q string, userID int) (*models.TwoFactor, error) {
	var t models.TwoFactor
	err := r.db.QueryRowContext(ctx, q, userID).
		Scan(&t.ID, &t.UserID, &t.Code, &t.CreatedAt, &t.ExpiresAt, &t.FailedAttempts)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &t, nil
}

func (r *twoFactorRepository) Get(ctx context.Context, userID int) (*models.TwoFactor, error) {
	return r.get(ctx, "two factor get", twoFactorSelect, userID)
}

func (r *twoFactorRepository) GetForUpdate(ctx context.Context, userID int) (*models.TwoFactor, error) {
	return r.get(ctx, "two factor get for update", twoFactorSelect+` FOR UPDATE`, userID)
}

func (r *twoFactorRepository) IncrementFailures(ctx context.Context, userID int) (int, error) {
	const q = `
		UPDATE auth_2f
		SET failed_attempts = failed_attempts + 1
		WHERE user_id = $1
		RETURNING failed_attempts
	`
	var n int
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&n); err != nil {
		return 0, wrap("two factor increment failures", err)
	}
	return n, nil
}
