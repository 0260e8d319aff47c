package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"passkeeper/internal/dbx"
	"passkeeper/internal/migrations"
)

// Manager vends repositories bound to either the pool or a transaction.
type Manager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) UserRepository
	Credentials(db dbx.DBTX) CredentialRepository
	Lockouts(db dbx.DBTX) LockoutRepository
	TwoFactors(db dbx.DBTX) TwoFactorRepository
}

type PostgresManager struct{}

func NewPostgresManager() *PostgresManager {
	return &PostgresManager{}
}

func (m *PostgresManager) Users(db dbx.DBTX) UserRepository {
	return NewUserRepository(db)
}

func (m *PostgresManager) Credentials(db dbx.DBTX) CredentialRepository {
	return NewCredentialRepository(db)
}

func (m *PostgresManager) Lockouts(db dbx.DBTX) LockoutRepository {
	return NewLockoutRepository(db)
}

func (m *PostgresManager) TwoFactors(db dbx.DBTX) TwoFactorRepository {
	return NewTwoFactorRepository(db)
}

// swapped in tests
var gooseUpContext = goose.UpContext

func (m *PostgresManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
