package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passkeeper/internal/cryptox"
	"passkeeper/internal/models"
)

func strPtr(s string) *string { return &s }

// vaultUser registers a user and returns a live 2FA code for them.
func vaultUser(t *testing.T, env *testEnv, username, email string) (*models.User, string) {
	t.Helper()
	u := mustRegister(t, env, username, email, "Passw0rd!")
	require.NoError(t, env.accounts.RequestSecondFactor(context.Background(), email))
	return u, env.mail.lastCode(t)
}

func otherCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestCredentialService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := mustRegister(t, env, "alice", "a@x.io", "Passw0rd!")

	_, err := env.credentials.Create(ctx, u, models.CredentialInput{Login: "l", Password: "p", SiteName: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "site_name is required", err.Error())

	_, err = env.credentials.Create(ctx, u, models.CredentialInput{Login: "l", SiteName: "github"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.credentials.Create(ctx, u, models.CredentialInput{Login: "l", Password: "p", SiteName: "github", URL: strPtr("nope")})
	assert.ErrorIs(t, err, ErrValidation)

	c, err := env.credentials.Create(ctx, u, models.CredentialInput{
		Login:       "alice",
		Password:    "s3cret",
		SiteName:    " github ",
		Description: strPtr("  "),
		URL:         strPtr("https://github.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, c.UserID)
	assert.Equal(t, "github", c.SiteName)
	assert.Nil(t, c.Description, "blank description is dropped")
	assert.Equal(t, 0, c.IsLogged)
}

func TestCredentialService_ListRequiresCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := mustRegister(t, env, "alice", "a@x.io", "Passw0rd!")

	_, err := env.credentials.List(ctx, u, "123456")
	assert.ErrorIs(t, err, ErrUnauthorized, "no code issued yet")

	require.NoError(t, env.accounts.RequestSecondFactor(ctx, "a@x.io"))
	code := env.mail.lastCode(t)

	list, err := env.credentials.List(ctx, u, code)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = env.credentials.List(ctx, u, otherCode(code))
	assert.ErrorIs(t, err, ErrUnauthorized)
	tf, _ := env.repos.TwoFactor(u.ID)
	assert.Equal(t, 1, tf.FailedAttempts)

	env.clock.Advance(5*time.Minute + time.Second)
	_, err = env.credentials.List(ctx, u, code)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Invalid or expired 2FA code", err.Error())
}

func TestCredentialService_CodeDisabledAfterFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u, code := vaultUser(t, env, "alice", "a@x.io")

	for i := 0; i < 5; i++ {
		_, err := env.credentials.Search(ctx, u, "git", otherCode(code))
		require.ErrorIs(t, err, ErrUnauthorized)
	}
	_, err := env.credentials.Search(ctx, u, "git", code)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCredentialService_EmptyCodeIsNotAFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u, code := vaultUser(t, env, "alice", "a@x.io")

	for _, blank := range []string{"", "", "   ", "", "\t", ""} {
		_, err := env.credentials.List(ctx, u, blank)
		require.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, "Invalid or expired 2FA code", err.Error())
	}
	tf, ok := env.repos.TwoFactor(u.ID)
	require.True(t, ok)
	assert.Equal(t, 0, tf.FailedAttempts)

	_, err := env.credentials.List(ctx, u, code)
	assert.NoError(t, err)
}

func TestCredentialService_ListAndSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, code := vaultUser(t, env, "alice", "a@x.io")
	bob := mustRegister(t, env, "bob", "b@x.io", "Passw0rd!")

	for _, site := range []string{"GitHub", "gitlab", "mail"} {
		_, err := env.credentials.Create(ctx, alice, models.CredentialInput{Login: "alice", Password: "p-" + site, SiteName: site})
		require.NoError(t, err)
	}
	_, err := env.credentials.Create(ctx, bob, models.CredentialInput{Login: "bob", Password: "x", SiteName: "github"})
	require.NoError(t, err)

	list, err := env.credentials.List(ctx, alice, code)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	hits, err := env.credentials.Search(ctx, alice, "GIT", code)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "GitHub", hits[0].SiteName)
	assert.Equal(t, "p-GitHub", hits[0].Password)

	hits, err = env.credentials.Search(ctx, alice, "nothing", code)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCredentialService_ReplacePatchDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := mustRegister(t, env, "alice", "a@x.io", "Passw0rd!")
	bob := mustRegister(t, env, "bob", "b@x.io", "Passw0rd!")

	c, err := env.credentials.Create(ctx, alice, models.CredentialInput{Login: "alice", Password: "p1", SiteName: "github", URL: strPtr("https://github.com")})
	require.NoError(t, err)

	_, err = env.credentials.Replace(ctx, bob, c.ID, models.CredentialInput{Login: "x", Password: "y"})
	assert.ErrorIs(t, err, ErrNotFound, "other users' credentials are invisible")

	r, err := env.credentials.Replace(ctx, alice, c.ID, models.CredentialInput{Login: "alice2", Password: "p2"})
	require.NoError(t, err)
	assert.Equal(t, "unknown", r.SiteName)
	assert.Nil(t, r.URL)

	p, err := env.credentials.Patch(ctx, alice, c.ID, models.CredentialPatch{Password: strPtr("p3")})
	require.NoError(t, err)
	assert.Equal(t, "alice2", p.Login)
	assert.Equal(t, "p3", p.Password)

	_, err = env.credentials.Patch(ctx, alice, c.ID, models.CredentialPatch{Login: strPtr("")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.credentials.Patch(ctx, alice, 999, models.CredentialPatch{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.credentials.Delete(ctx, bob, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	d, err := env.credentials.Delete(ctx, alice, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "p3", d.Password)
	_, ok := env.repos.Credential(c.ID)
	assert.False(t, ok)

	_, err = env.credentials.Delete(ctx, alice, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Password not found", err.Error())
}

func TestCredentialService_SealsPasswordsAtRest(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	sealer, err := cryptox.NewSealer(key)
	require.NoError(t, err)
	env := newTestEnvWithSealer(t, sealer)
	ctx := context.Background()
	u, code := vaultUser(t, env, "alice", "a@x.io")

	c, err := env.credentials.Create(ctx, u, models.CredentialInput{Login: "alice", Password: "s3cret", SiteName: "github"})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", c.Password, "caller sees plaintext")

	stored, ok := env.repos.Credential(c.ID)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(stored.Password, cryptox.SealedPrefix))
	assert.NotContains(t, stored.Password, "s3cret")

	list, err := env.credentials.List(ctx, u, code)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s3cret", list[0].Password)

	_, err = env.credentials.Patch(ctx, u, c.ID, models.CredentialPatch{Password: strPtr("n3w")})
	require.NoError(t, err)
	stored, _ = env.repos.Credential(c.ID)
	assert.True(t, strings.HasPrefix(stored.Password, cryptox.SealedPrefix))
}
