package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passkeeper/internal/models"
	"passkeeper/internal/repositories"
)

func TestManager_UserUniquenessAndCascade(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	users := m.Users(nil)

	alice := &models.User{Username: "alice", Email: "a@x.io"}
	require.NoError(t, users.Create(ctx, alice))
	assert.ErrorIs(t, users.Create(ctx, &models.User{Username: "alice", Email: "other@x.io"}), repositories.ErrDuplicate)
	assert.ErrorIs(t, users.Create(ctx, &models.User{Username: "bob", Email: "a@x.io"}), repositories.ErrDuplicate)

	require.NoError(t, m.Credentials(nil).Create(ctx, &models.Credential{UserID: alice.ID, Login: "l", Password: "p", SiteName: "s"}))
	require.NoError(t, m.TwoFactors(nil).Upsert(ctx, alice.ID, "123456", time.Now(), time.Now().Add(time.Minute)))
	_, err := m.Lockouts(nil).RegisterFailure(ctx, alice.ID, time.Now(), 5, time.Now().Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, alice.ID))
	list, _ := m.Credentials(nil).ListByUser(ctx, alice.ID)
	assert.Empty(t, list)
	_, ok := m.TwoFactor(alice.ID)
	assert.False(t, ok)
	_, ok = m.Lockout(alice.ID)
	assert.False(t, ok)
}

func TestManager_LockoutCounts(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	now := time.Now()
	until := now.Add(10 * time.Minute)

	var l *models.Lockout
	var err error
	for i := 0; i < 5; i++ {
		l, err = m.Lockouts(nil).RegisterFailure(ctx, 1, now, 5, until)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, l.Attempts)
	require.NotNil(t, l.BlockedUntil)
	assert.True(t, l.Blocked(now))
}

func TestManager_SearchIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	creds := m.Credentials(nil)
	require.NoError(t, creds.Create(ctx, &models.Credential{UserID: 1, Login: "a", Password: "p", SiteName: "GitHub"}))
	require.NoError(t, creds.Create(ctx, &models.Credential{UserID: 1, Login: "a", Password: "p", SiteName: "mail"}))
	require.NoError(t, creds.Create(ctx, &models.Credential{UserID: 2, Login: "b", Password: "p", SiteName: "github"}))

	found, err := creds.SearchBySite(ctx, 1, "git")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "GitHub", found[0].SiteName)

	_, err = creds.GetByID(ctx, 1, 3)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
