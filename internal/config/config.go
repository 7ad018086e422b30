// Package config загружает настройки сервиса из YAML и переменных окружения.
package config

import (
	"fmt"
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/moderation"
)

const (
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"
)

// Config - все настройки сервиса.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Database   DatabaseConfig   `koanf:"database"`
	Groq       GroqConfig       `koanf:"groq"`
	Moderation ModerationConfig `koanf:"moderation"`
	Log        LogConfig        `koanf:"log"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type StorageConfig struct {
	Type string `koanf:"type"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// GroqConfig - доступ к OpenAI-совместимому API классификатора.
// Пустой api_key отключает классификатор: остается только фильтр слов.
type GroqConfig struct {
	APIKey     string        `koanf:"api_key"`
	BaseURL    string        `koanf:"base_url"`
	TextModel  string        `koanf:"text_model"`
	ImageModel string        `koanf:"image_model"`
	Timeout    time.Duration `koanf:"timeout"`
	RateLimit  float64       `koanf:"rate_limit"`
	Burst      int           `koanf:"burst"`
}

type ModerationConfig struct {
	// BannedWords - порядок важен: в причине указывается первое совпавшее слово.
	BannedWords []string `koanf:"banned_words"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Classifier переводит секцию groq в настройки клиента модерации.
func (g GroqConfig) Classifier() moderation.GroqConfig {
	return moderation.GroqConfig{
		APIKey:     g.APIKey,
		BaseURL:    g.BaseURL,
		TextModel:  g.TextModel,
		ImageModel: g.ImageModel,
		Timeout:    g.Timeout,
		RateLimit:  g.RateLimit,
		Burst:      g.Burst,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	// Модерация может занять до двух вызовов классификатора
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = StorageInMemory
	}
	if cfg.Groq.BaseURL == "" {
		cfg.Groq.BaseURL = moderation.DefaultBaseURL
	}
	if cfg.Groq.TextModel == "" {
		cfg.Groq.TextModel = moderation.DefaultTextModel
	}
	if cfg.Groq.ImageModel == "" {
		cfg.Groq.ImageModel = moderation.DefaultImageModel
	}
	if cfg.Groq.Timeout == 0 {
		cfg.Groq.Timeout = moderation.DefaultTimeout
	}
	if cfg.Groq.Burst == 0 {
		cfg.Groq.Burst = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageInMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url (DATABASE_URL) must be set for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q (in-memory or postgres)", c.Storage.Type)
	}
	if c.Groq.RateLimit < 0 {
		return fmt.Errorf("groq.rate_limit must not be negative")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("unknown log format %q (json or console)", c.Log.Format)
	}
	return nil
}
