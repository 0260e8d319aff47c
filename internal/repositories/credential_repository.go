package repositories

import (
	"context"
	"database/sql"

	"passkeeper/internal/dbx"
	"passkeeper/internal/models"
)

// CredentialRepository stores credentials. Every lookup is scoped to the
// owning user; a foreign id behaves like a missing one.
type CredentialRepository interface {
	Create(ctx context.Context, c *models.Credential) error
	GetByID(ctx context.Context, userID, id int) (*models.Credential, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Credential, error)
	SearchBySite(ctx context.Context, userID int, siteName string) ([]*models.Credential, error)
	Update(ctx context.Context, c *models.Credential) error
	Delete(ctx context.Context, userID, id int) error
	MarkLogged(ctx context.Context, userID int) (int64, error)
}

type credentialRepository struct {
	db dbx.DBTX
}

func NewCredentialRepository(db dbx.DBTX) CredentialRepository {
	return &credentialRepository{db: db}
}

const credentialColumns = `
	id, user_id, login, password, site_name, description, url, is_logged, created_at, updated_at`

func scanCredential(row rowScanner) (*models.Credential, error) {
	c := &models.Credential{}
	var desc, url sql.NullString
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Login, &c.Password, &c.SiteName, &desc, &url,
		&c.IsLogged, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if desc.Valid {
		s := desc.String
		c.Description = &s
	}
	if url.Valid {
		s := url.String
		c.URL = &s
	}
	return c, nil
}

func (r *credentialRepository) Create(ctx context.Context, c *models.Credential) error {
	const q = `
		INSERT INTO passwords (user_id, login, password, site_name, description, url, is_logged)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		c.UserID, c.Login, c.Password, c.SiteName, c.Description, c.URL, c.IsLogged,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return wrap("credential create", err)
}

func (r *credentialRepository) GetByID(ctx context.Context, userID, id int) (*models.Credential, error) {
	q := `SELECT` + credentialColumns + ` FROM passwords WHERE id=$1 AND user_id=$2`
	c, err := scanCredential(r.db.QueryRowContext(ctx, q, id, userID))
	if err != nil {
		return nil, wrap("credential get", err)
	}
	return c, nil
}

func (r *credentialRepository) query(ctx context.Context, op, q string, args ...any) ([]*models.Credential, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	out := []*models.Credential{}
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func (r *credentialRepository) ListByUser(ctx context.Context, userID int) ([]*models.Credential, error) {
	q := `SELECT` + credentialColumns + ` FROM passwords WHERE user_id=$1 ORDER BY id`
	return r.query(ctx, "credential list", q, userID)
}

// SearchBySite is a case-insensitive substring match on site_name.
func (r *credentialRepository) SearchBySite(ctx context.Context, userID int, siteName string) ([]*models.Credential, error) {
	q := `SELECT` + credentialColumns + `
		FROM passwords
		WHERE user_id=$1 AND site_name ILIKE '%' || $2 || '%'
		ORDER BY id`
	return r.query(ctx, "credential search", q, userID, siteName)
}

func (r *credentialRepository) Update(ctx context.Context, c *models.Credential) error {
	const q = `
		UPDATE passwords
		SET login=$1, password=$2, site_name=$3, description=$4, url=$5, updated_at=NOW()
		WHERE id=$6 AND user_id=$7
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		c.Login, c.Password, c.SiteName, c.Description, c.URL, c.ID, c.UserID,
	).Scan(&c.UpdatedAt)
	return wrap("credential update", err)
}

func (r *credentialRepository) Delete(ctx context.Context, userID, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM passwords WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return wrap("credential delete", err)
	}
	return expectAffected("credential delete", res)
}

// MarkLogged sets is_logged=1 on every credential of the user.
func (r *credentialRepository) MarkLogged(ctx context.Context, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE passwords SET is_logged=1 WHERE user_id=$1`, userID)
	if err != nil {
		return 0, wrap("credential mark logged", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("credential mark logged", err)
	}
	return n, nil
}
