package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var twoFactorCols = []string{"id", "user_id", "code", "created_at", "expires_at", "failed_attempts"}

func TestTwoFactorRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	mock.ExpectExec(`INSERT INTO auth_2f .* ON CONFLICT \(user_id\) DO UPDATE .* failed_attempts = 0`).
		WithArgs(1, "123456", now, now.Add(5*time.Minute)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := NewTwoFactorRepository(db).Upsert(context.Background(), 1, "123456", now, now.Add(5*time.Minute))
	require.NoError(t, err)
}

func TestTwoFactorRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	mock.ExpectQuery(`FROM auth_2f\s+WHERE user_id = \$1$`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(twoFactorCols).AddRow(1, 1, "123456", now, now.Add(5*time.Minute), 2))

	tf, err := NewTwoFactorRepository(db).Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "123456", tf.Code)
	assert.Equal(t, 2, tf.FailedAttempts)
	assert.True(t, tf.Usable(now, 5))
	assert.False(t, tf.Usable(now.Add(5*time.Minute), 5))
}

func TestTwoFactorRepository_GetForUpdateLocks(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM auth_2f\s+WHERE user_id = \$1 FOR UPDATE`).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)

	_, err := NewTwoFactorRepository(db).GetForUpdate(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTwoFactorRepository_IncrementFailures(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`UPDATE auth_2f\s+SET failed_attempts = failed_attempts \+ 1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"failed_attempts"}).AddRow(3))

	n, err := NewTwoFactorRepository(db).IncrementFailures(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
