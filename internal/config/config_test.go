package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8288), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.True(t, cfg.Auth.Anonymous)
	assert.Equal(t, OCREngineTesseract, cfg.OCR.Engine)
	assert.Equal(t, "eng", cfg.OCR.Languages)
	assert.Equal(t, 1280, cfg.OCR.MaxWidth)
	assert.Equal(t, 85, cfg.OCR.JPEGQuality)
	assert.Equal(t, MigrationStrategyNoop, cfg.Migration.Strategy)
	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, "0 * * * *", cfg.Sync.Schedule)
}

func TestNewConfig_EnvOverride(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("OCR_ENGINE", "canned")
	t.Setenv("MIGRATION_STRATEGY", "copy")

	cfg := NewConfig()

	assert.Equal(t, int32(9001), cfg.HTTP.Port)
	assert.Equal(t, OCREngineCanned, cfg.OCR.Engine)
	assert.Equal(t, MigrationStrategyCopy, cfg.Migration.Strategy)
}
