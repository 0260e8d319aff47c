package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, "info", c.Server.LogLevel)
	assert.Equal(t, 24*time.Hour, c.JWT.AccessTokenTTL)
	assert.Equal(t, time.Hour, c.JWT.ResetTokenTTL)
	assert.Equal(t, 10*time.Minute, c.Auth.ConfirmationCodeTTL)
	assert.Equal(t, 5*time.Minute, c.Auth.TwoFactorCodeTTL)
	assert.Equal(t, 5, c.Auth.LockoutThreshold)
	assert.Equal(t, 10*time.Minute, c.Auth.LockoutDuration)
	assert.True(t, c.Email.DryRun)
	assert.Empty(t, c.Vault.EncryptionKey)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeTempYAML(t, `
server:
  port: 9090
database:
  url: postgres://u:p@db:5432/vault
jwt:
  secret_key: file-secret
  access_token_ttl: 2h
auth:
  lockout_threshold: 3
  lockout_duration: 15m
email:
  smtp_host: mail.local
  smtp_port: 2525
  from_email: noreply@local
  dry_run: false
`)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db:5432/vault", cfg.Database.DSN)
	assert.Equal(t, "file-secret", cfg.JWT.SecretKey)
	assert.Equal(t, "file-secret", cfg.JWT.ResetSecretKey, "reset secret falls back to access secret")
	assert.Equal(t, 2*time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 3, cfg.Auth.LockoutThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 5*time.Minute, cfg.Auth.TwoFactorCodeTTL, "unset keys keep defaults")
	assert.Equal(t, "mail.local", cfg.Email.SMTPHost)
	assert.Equal(t, 2525, cfg.Email.SMTPPort)
	assert.False(t, cfg.Email.DryRun)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeTempYAML(t, "jwt:\n  secret_key: file-secret\n")
	t.Setenv("JWT_SECRET_KEY", "env-secret")
	t.Setenv("RESET_SECRET_KEY", "env-reset")
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.SecretKey)
	assert.Equal(t, "env-reset", cfg.JWT.ResetSecretKey)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Image.APIKey)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("invalid yaml", func(t *testing.T) {
		path := writeTempYAML(t, "server: [this is: not valid")
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("bad port env", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "eighty")
		_, err := Load("")
		require.Error(t, err)
	})
}

func TestConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, defaultConfigPath, configPath(nil))
	assert.Equal(t, "custom.yaml", configPath([]string{"-config", "custom.yaml"}))

	t.Setenv("CONFIG_PATH", "/etc/passkeeper.yaml")
	assert.Equal(t, "/etc/passkeeper.yaml", configPath(nil))
	assert.Equal(t, "flag.yaml", configPath([]string{"-config=flag.yaml"}))
	assert.Equal(t, "/etc/passkeeper.yaml", configPath([]string{"-test.v", "-unknown"}), "unknown flags are ignored")
}
