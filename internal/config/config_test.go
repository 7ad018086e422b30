package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/moderation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageInMemory, cfg.Storage.Type)
	assert.Equal(t, moderation.DefaultBaseURL, cfg.Groq.BaseURL)
	assert.Equal(t, moderation.DefaultTextModel, cfg.Groq.TextModel)
	assert.Equal(t, moderation.DefaultImageModel, cfg.Groq.ImageModel)
	assert.Equal(t, moderation.DefaultTimeout, cfg.Groq.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
  write_timeout: 45s
storage:
  type: postgres
database:
  url: postgres://file
groq:
  api_key: from-file
  rate_limit: 2.5
moderation:
  banned_words:
    - kill
    - buy now
log:
  format: console
`)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, StoragePostgres, cfg.Storage.Type)
	// Переменная окружения важнее файла
	assert.Equal(t, "postgres://env", cfg.Database.URL)
	// Пустая переменная не затирает файл
	assert.Equal(t, "from-file", cfg.Groq.APIKey)
	assert.Equal(t, 2.5, cfg.Groq.RateLimit)
	assert.Equal(t, []string{"kill", "buy now"}, cfg.Moderation.BannedWords)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("GROQ_TIMEOUT", "3s")
	t.Setenv("STORAGE_TYPE", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gsk_test", cfg.Groq.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Groq.Timeout)

	gc := cfg.Groq.Classifier()
	assert.True(t, gc.Configured())
	assert.Equal(t, cfg.Groq.TextModel, gc.TextModel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Type = "redis" }, wantErr: "unknown storage type"},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage.Type = StoragePostgres }, wantErr: "database.url"},
		{name: "negative rate", mutate: func(c *Config) { c.Groq.RateLimit = -1 }, wantErr: "rate_limit"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "groq.api_key", envKey("GROQ_API_KEY"))
	assert.Equal(t, "database.url", envKey("DATABASE_URL"))
	assert.Equal(t, "path", envKey("PATH"))
}
