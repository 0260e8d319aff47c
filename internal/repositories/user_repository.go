package repositories

import (
	"context"
	"database/sql"

	"passkeeper/internal/dbx"
	"passkeeper/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	ConfirmEmail(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
}

type userRepository struct {
	db dbx.DBTX
}

func NewUserRepository(db dbx.DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
	id, username, email, password_hash, is_active, is_email_confirmed,
	email_confirmation_code, email_confirmation_sent_at, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		code   sql.NullString
		sentAt sql.NullTime
	)
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsEmailConfirmed,
		&code, &sentAt, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if code.Valid {
		s := code.String
		u.EmailConfirmationCode = &s
	}
	if sentAt.Valid {
		t := sentAt.Time
		u.EmailConfirmationSentAt = &t
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (
			username, email, password_hash, is_active, is_email_confirmed,
			email_confirmation_code, email_confirmation_sent_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.IsEmailConfirmed,
		user.EmailConfirmationCode,
		user.EmailConfirmationSentAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return wrap("user create", err)
}

func (r *userRepository) getOne(ctx context.Context, op, where string, arg any) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getOne(ctx, "user get by id", "id = $1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "user get by email", "email = $1", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "user get by username", "username = $1", username)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, wrap("user list", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap("user list scan", err)
		}
		users = append(users, u)
	}
	return users, wrap("user list rows", rows.Err())
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users
		SET
			username=$1,
			email=$2,
			password_hash=$3,
			is_active=$4,
			is_email_confirmed=$5,
			email_confirmation_code=$6,
			email_confirmation_sent_at=$7,
			updated_at=NOW()
		WHERE id=$8
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.IsEmailConfirmed,
		user.EmailConfirmationCode,
		user.EmailConfirmationSentAt,
		user.ID,
	).Scan(&user.UpdatedAt)
	return wrap("user update", err)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	const q = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	res, err := r.db.ExecContext(ctx, q, passwordHash, id)
	if err != nil {
		return wrap("user update password", err)
	}
	return expectAffected("user update password", res)
}

// ConfirmEmail marks the address confirmed and clears the pending code.
func (r *userRepository) ConfirmEmail(ctx context.Context, id int) error {
	const q = `
		UPDATE users
		SET is_email_confirmed=TRUE, email_confirmation_code=NULL, updated_at=NOW()
		WHERE id=$1
	`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return wrap("user confirm email", err)
	}
	return expectAffected("user confirm email", res)
}

// Delete removes the user; lockout, 2FA and credential rows cascade.
func (r *userRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return wrap("user delete", err)
	}
	return expectAffected("user delete", res)
}
