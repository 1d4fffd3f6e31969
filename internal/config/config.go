package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"inspiration-batch/internal/catalog"
	"inspiration-batch/internal/gemini"
	"inspiration-batch/internal/reconcile"
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is required")

type Config struct {
	GeminiAPIKey    string
	GeminiModel     string
	GeminiImageSize string

	CatalogPath  string
	OutputDir    string
	PublicPrefix string

	BatchDelay time.Duration
	MinID      int

	LogLevel    string
	PreferIPv4  bool
	HTTPTimeout time.Duration

	TelegramToken  string
	TelegramChatID int64
}

func Load() (Config, error) {
	cfg := Config{
		GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:     getEnv("GEMINI_IMAGE_MODEL", gemini.DefaultImageModel),
		GeminiImageSize: getEnv("GEMINI_IMAGE_SIZE", gemini.DefaultImageSize),
		CatalogPath:     getEnv("CATALOG_PATH", "web/public/data/image-prompts.json"),
		OutputDir:       getEnv("OUTPUT_DIR", "web/public/generated-inspiration"),
		PublicPrefix:    getEnv("PUBLIC_PREFIX", reconcile.DefaultPublicPrefix),
		BatchDelay:      time.Duration(getEnvInt("BATCH_DELAY_MS", 2000)) * time.Millisecond,
		MinID:           getEnvInt("MIN_GENERABLE_ID", catalog.DefaultMinID),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		PreferIPv4:      getEnvBool("PREFER_IPV4", true),
		HTTPTimeout:     time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		TelegramToken:   strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
	}

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}

	return cfg, nil
}

// RequireAPIKey reports whether generation can run with this configuration.
func (c Config) RequireAPIKey() error {
	if c.GeminiAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// NotifyEnabled is true when both Telegram settings are present.
func (c Config) NotifyEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
