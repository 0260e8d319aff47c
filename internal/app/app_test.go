package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passkeeper/internal/config"
	"passkeeper/internal/logging"
	"passkeeper/internal/repositories/memory"
)

type noMail struct{}

func (noMail) Send(context.Context, string, string, string) error { return nil }

type noImages struct{}

func (noImages) Generate(context.Context, string) (string, error) { return "", nil }

func testServices(t *testing.T, cfg *config.Config) (*Services, error) {
	t.Helper()
	return NewServices(cfg, nil, memory.NewManager(), noMail{}, noImages{}, logging.Nop())
}

func TestNewServices_RejectsBadVaultKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Vault.EncryptionKey = "dG9vLXNob3J0"

	_, err := testServices(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault key")
}

func TestNewRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.LoadDefaults()
	svc, err := testServices(t, cfg)
	require.NoError(t, err)
	r := NewRouter(svc, logging.Nop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/passwords/search")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/passwords/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
