package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_HashAndCheck(t *testing.T) {
	env := newTestEnv(t)

	hash, err := env.auth.HashPassword("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", hash)
	assert.True(t, env.auth.CheckPassword(hash, "Passw0rd!"))
	assert.False(t, env.auth.CheckPassword(hash, "passw0rd!"))
	assert.False(t, env.auth.CheckPassword("not-a-hash", "Passw0rd!"))
}

func TestAuthService_AccessToken(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.auth.IssueAccessToken("a@x.io")
	require.NoError(t, err)

	sub, err := env.auth.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", sub)

	env.clock.Advance(24*time.Hour + time.Second)
	_, err = env.auth.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestAuthService_PurposeSeparation(t *testing.T) {
	env := newTestEnv(t)

	access, err := env.auth.IssueAccessToken("a@x.io")
	require.NoError(t, err)
	reset, err := env.auth.IssueResetToken("a@x.io")
	require.NoError(t, err)

	_, err = env.auth.ParseResetToken(access)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	_, err = env.auth.ParseAccessToken(reset)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	sub, err := env.auth.ParseResetToken(reset)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", sub)
}

func TestAuthService_SharedKeyStillChecksPurpose(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.ResetSecretKey = ""
	auth := NewAuthService(cfg.JWT)

	reset, err := auth.IssueResetToken("a@x.io")
	require.NoError(t, err)
	_, err = auth.ParseAccessToken(reset)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestAuthService_RejectsForeignTokens(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()

	claims := jwt.RegisteredClaims{
		Subject:   "a@x.io",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"garbage", func() string { return "a.b.c" }},
		{"wrong key", func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
			return s
		}},
		{"alg none", func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			return s
		}},
		{"no expiry", func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "a@x.io"}).SignedString([]byte("test-secret"))
			return s
		}},
		{"no subject", func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: claims.ExpiresAt}).SignedString([]byte("test-secret"))
			return s
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.ParseAccessToken(tt.token())
			assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
		})
	}
}
