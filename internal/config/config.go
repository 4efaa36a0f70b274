package config

import (
	"github.com/spf13/viper"
)

// MigrationStrategy selects how data moves local→remote on sign-in.
type MigrationStrategy string

const (
	MigrationStrategyNoop MigrationStrategy = "noop" // default: anonymous-first accounts, nothing to copy
	MigrationStrategyCopy MigrationStrategy = "copy" // batched copy of local books and clips
)

// OCREngine selects the recognition provider.
type OCREngine string

const (
	OCREngineTesseract OCREngine = "tesseract"
	OCREngineCanned    OCREngine = "canned"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Remote
		Auth
		OCR
		Migration
		Sync
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string // sqlite file backing the local key-value store
	}
	Remote struct {
		BaseURL string // hosted row API, e.g. https://api.example.com/rest/v1
		APIKey  string
	}
	Auth struct {
		BaseURL   string // hosted auth API, e.g. https://api.example.com/auth/v1
		APIKey    string
		Anonymous bool // sign in anonymously at startup when no session exists
	}
	OCR struct {
		Engine      OCREngine
		Languages   string // comma-separated trained-data hints, e.g. "eng,jpn"
		MaxWidth    int
		JPEGQuality int
		Fallback    bool // use the canned engine when the primary fails
	}
	Migration struct {
		Strategy MigrationStrategy
	}
	Sync struct {
		Enabled  bool
		Schedule string // Cron format: "0 * * * *" = hourly
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("remote_base_url", "")
	v.SetDefault("remote_api_key", "")
	v.SetDefault("auth_base_url", "")
	v.SetDefault("auth_api_key", "")
	v.SetDefault("auth_anonymous", true)

	// OCR defaults
	v.SetDefault("ocr_engine", "tesseract")
	v.SetDefault("ocr_languages", "eng")
	v.SetDefault("ocr_max_width", 1280)
	v.SetDefault("ocr_jpeg_quality", 85)
	v.SetDefault("ocr_fallback", false)

	// Migration and sync defaults
	v.SetDefault("migration_strategy", "noop")
	v.SetDefault("sync_enabled", false)
	v.SetDefault("sync_schedule", "0 * * * *") // Hourly at :00

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Remote: Remote{
			BaseURL: v.GetString("REMOTE_BASE_URL"),
			APIKey:  v.GetString("REMOTE_API_KEY"),
		},
		Auth: Auth{
			BaseURL:   v.GetString("AUTH_BASE_URL"),
			APIKey:    v.GetString("AUTH_API_KEY"),
			Anonymous: v.GetBool("AUTH_ANONYMOUS"),
		},
		OCR: OCR{
			Engine:      OCREngine(v.GetString("OCR_ENGINE")),
			Languages:   v.GetString("OCR_LANGUAGES"),
			MaxWidth:    v.GetInt("OCR_MAX_WIDTH"),
			JPEGQuality: v.GetInt("OCR_JPEG_QUALITY"),
			Fallback:    v.GetBool("OCR_FALLBACK"),
		},
		Migration: Migration{
			Strategy: MigrationStrategy(v.GetString("MIGRATION_STRATEGY")),
		},
		Sync: Sync{
			Enabled:  v.GetBool("SYNC_ENABLED"),
			Schedule: v.GetString("SYNC_SCHEDULE"),
		},
	}
}
