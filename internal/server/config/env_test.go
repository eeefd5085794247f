package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Setenv("FUDBI_HTTP_ADDR", ":9999")
	t.Setenv("FUDBI_SESSION_TTL", "30m")
	t.Setenv("FUDBI_COOKIE_SECURE", "true")
	t.Setenv("FUDBI_EMAIL_FANOUT_CAP", "7")
	t.Setenv("FUDBI_MAX_IMAGE_SIZE", "2048")
	t.Setenv("FUDBI_RATE_LIMIT_RPS", "2.5")
	t.Setenv("FUDBI_S3_BUCKET", "")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 7, cfg.EmailFanoutCap)
	assert.Equal(t, int64(2048), cfg.MaxImageSize)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 1e-9)
	assert.Equal(t, "fudbi-food-images", cfg.S3Bucket, "empty values are ignored")
}

func Test_parseEnv_FileFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FUDBI_TELEGRAM_TOKEN=42:xyz\nFUDBI_SMTP_PORT=2525\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("FUDBI_TELEGRAM_TOKEN")
		os.Unsetenv("FUDBI_SMTP_PORT")
	})

	os.Args = []string{"testbin", "-env", path}
	cfg := &Config{}
	parseEnv(cfg)

	assert.Equal(t, "42:xyz", cfg.TelegramToken)
	assert.Equal(t, 2525, cfg.SMTPPort)

	os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "missing.env")}
	require.Panics(t, func() { parseEnv(&Config{}) })
}

func Test_parseEnv_Malformed(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Setenv("FUDBI_OUTBOX_BATCH_SIZE", "many")
	require.Panics(t, func() { parseEnv(&Config{}) })
}

func TestLoadEnvConfig(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"fudbictl", "migrate", "--dsn", "memory://"}

	t.Setenv("FUDBI_DATABASE_DSN", "postgres://u:p@db:5432/fudbi")

	cfg := LoadEnvConfig()
	assert.Equal(t, "postgres://u:p@db:5432/fudbi", cfg.DatabaseDSN)
	assert.Equal(t, 50, cfg.PageSize)
}
