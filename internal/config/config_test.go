package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Session.RefreshInterval)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.AI.Enabled)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9191\nADMIN_EMAILS= Boss@Example.com ,ops@example.com\n"), 0o600))

	// godotenv never overrides variables that are already set, so clear them.
	// t.Setenv restores the previous values afterwards.
	for _, key := range []string{"PORT", "ADMIN_EMAILS"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, []string{"boss@example.com", "ops@example.com"}, cfg.Auth.AdminEmails)
	assert.True(t, cfg.Auth.IsAdminEmail("BOSS@example.com"))
	assert.False(t, cfg.Auth.IsAdminEmail("someone@example.com"))
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "eighty"},
		{"TOKEN_TTL", "forever"},
		{"AI_ENABLED", "sometimes"},
		{"ENV", "test"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidate_TokenKey(t *testing.T) {
	cfg := &Config{
		App:     AppConfig{Environment: "production"},
		Logger:  LoggerConfig{Level: "warn"},
		Server:  ServerConfig{Port: 8080},
		AI:      AIConfig{RateLimitRPS: 1, RateLimitBurst: 1},
		Auth:    AuthConfig{TokenKey: "abcd", TokenTTL: time.Hour},
		Session: SessionConfig{RefreshInterval: time.Second},
	}
	assert.Error(t, cfg.Validate())

	cfg.Auth.TokenKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", Username: "u", Password: "p", Database: "todo", Schema: "app"}
	assert.Equal(t, "host=db user=u password=p dbname=todo port=5432 sslmode=disable search_path=app", d.DSN())
}
