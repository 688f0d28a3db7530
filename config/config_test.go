package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDevelopment(t *testing.T) {
	assert.True(t, (&Config{Environment: "development"}).IsDevelopment())
	assert.False(t, (&Config{Environment: "production"}).IsDevelopment())
	assert.True(t, (&Config{Environment: "production"}).IsProduction())
	assert.False(t, (&Config{Environment: "staging"}).IsProduction())
}

func TestLoadWithOptions(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("DB_HOST", "testhost")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_NAME", "segmentation_test")
	t.Setenv("DB_MAX_OPEN_CONNS", "10")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SEGMENTATION_SCHEDULER_INTERVAL", "6h")
	t.Setenv("SEGMENTATION_EVALUATE_RATE_LIMIT", "2")
	t.Setenv("SEGMENTATION_CATALOG_FILE", "/etc/segmentation/catalog.json")

	cfg, err := LoadWithOptions(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "testhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "testuser", cfg.Database.User)
	assert.Equal(t, "testpass", cfg.Database.Password)
	assert.Equal(t, "segmentation_test", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "test-secret", cfg.Security.SecretKey)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, VERSION, cfg.Version)

	assert.True(t, cfg.Segmentation.SchedulerEnabled)
	assert.Equal(t, 6*time.Hour, cfg.Segmentation.SchedulerInterval)
	assert.Equal(t, 2, cfg.Segmentation.EvaluateRateLimit)
	assert.Equal(t, time.Minute, cfg.Segmentation.EvaluateRateWindow)
	assert.Equal(t, "/etc/segmentation/catalog.json", cfg.Segmentation.CatalogFile)
	assert.Empty(t, cfg.Segmentation.WebhookURL)

	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "segmentation-api", cfg.Tracing.ServiceName)
	assert.Equal(t, "none", cfg.Tracing.TraceExporter)
}

func TestLoadWithOptions_MissingSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")

	_, err := LoadWithOptions(LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY is required")
}

func TestLoadWithOptions_WebhookWithoutSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("SEGMENTATION_WEBHOOK_URL", "https://hooks.example.com/segmentation")
	t.Setenv("SEGMENTATION_WEBHOOK_SECRET", "")

	_, err := LoadWithOptions(LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEGMENTATION_WEBHOOK_SECRET")
}

func TestLoadWithOptions_EnvFile(t *testing.T) {
	// empty variables fall through to the file
	t.Setenv("SECRET_KEY", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SEGMENTATION_SCHEDULER_ENABLED", "")

	dir := t.TempDir()
	content := "SECRET_KEY=file-secret\nSERVER_PORT=7070\nSEGMENTATION_SCHEDULER_ENABLED=false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte(content), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := LoadWithOptions(LoadOptions{EnvFile: ".env.test"})
	require.NoError(t, err)
	assert.Equal(t, "file-secret", cfg.Security.SecretKey)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.False(t, cfg.Segmentation.SchedulerEnabled)
}
