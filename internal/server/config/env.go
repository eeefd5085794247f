package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fudbi/fudbi/internal/flagx"
)

const envPrefix = "FUDBI_"

// parseEnv overlays FUDBI_* environment variables. A file named with -env is
// loaded first and must exist; otherwise ./.env is loaded if present.
// Variables already set in the process environment win over the file.
// Malformed values panic, like a malformed JSON config.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlag(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	envString(&config.Environment, "ENV")
	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.GRPCHealthAddr, "GRPC_HEALTH_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "SECRET_KEY")
	envDuration(&config.SessionTTL, "SESSION_TTL")
	envBool(&config.CookieSecure, "COOKIE_SECURE")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.AppURL, "APP_URL")
	envString(&config.CORSOrigin, "CORS_ORIGIN")

	envDuration(&config.RequestTimeout, "REQUEST_TIMEOUT")
	envDuration(&config.HTTPReadTimeout, "HTTP_READ_TIMEOUT")
	envDuration(&config.HTTPWriteTimeout, "HTTP_WRITE_TIMEOUT")
	envDuration(&config.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
	envFloat(&config.RateLimitRPS, "RATE_LIMIT_RPS")
	envInt(&config.RateLimitBurst, "RATE_LIMIT_BURST")
	envInt(&config.PageSize, "PAGE_SIZE")
	envDuration(&config.ConfirmationCodeTTL, "CONFIRMATION_CODE_TTL")

	envString(&config.S3AccessKey, "S3_ACCESS_KEY")
	envString(&config.S3SecretKey, "S3_SECRET_KEY")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envDuration(&config.UploadURLTTL, "UPLOAD_URL_TTL")
	envInt64(&config.MaxImageSize, "MAX_IMAGE_SIZE")

	envString(&config.AMQPURL, "AMQP_URL")

	envString(&config.SMTPHost, "SMTP_HOST")
	envInt(&config.SMTPPort, "SMTP_PORT")
	envString(&config.SMTPUser, "SMTP_USER")
	envString(&config.SMTPPassword, "SMTP_PASSWORD")
	envString(&config.MailFrom, "MAIL_FROM")

	envString(&config.TelegramToken, "TELEGRAM_TOKEN")
	envInt(&config.EmailFanoutCap, "EMAIL_FANOUT_CAP")

	envDuration(&config.OutboxPollInterval, "OUTBOX_POLL_INTERVAL")
	envInt(&config.OutboxBatchSize, "OUTBOX_BATCH_SIZE")
	envInt(&config.OutboxMaxAttempts, "OUTBOX_MAX_ATTEMPTS")
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(dst *string, name string) {
	if v, ok := lookupEnv(name); ok {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	if v, ok := lookupEnv(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		*dst = n
	}
}

func envInt64(dst *int64, name string) {
	if v, ok := lookupEnv(name); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		*dst = n
	}
}

func envFloat(dst *float64, name string) {
	if v, ok := lookupEnv(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		*dst = f
	}
}

func envBool(dst *bool, name string) {
	if v, ok := lookupEnv(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		*dst = b
	}
}

func envDuration(dst *time.Duration, name string) {
	if v, ok := lookupEnv(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		*dst = d
	}
}
