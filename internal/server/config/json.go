package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/fudbi/fudbi/internal/flagx"
	"github.com/fudbi/fudbi/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. Only the fields present in the file are copied into
// the runtime Config.
type JsonConfig struct {
	Environment    string         `json:"environment"`
	HTTPAddr       string         `json:"http_addr"`
	GRPCHealthAddr string         `json:"grpc_health_addr"`
	DatabaseDSN    string         `json:"database_dsn"`
	SecretKey      string         `json:"secret_key"`
	SessionTTL     timex.Duration `json:"session_ttl"`
	CookieSecure   *bool          `json:"cookie_secure"`
	LogLevel       string         `json:"log_level"`
	AppURL         string         `json:"app_url"`
	CORSOrigin     string         `json:"cors_origin"`

	RequestTimeout      timex.Duration `json:"request_timeout"`
	HTTPReadTimeout     timex.Duration `json:"http_read_timeout"`
	HTTPWriteTimeout    timex.Duration `json:"http_write_timeout"`
	ShutdownTimeout     timex.Duration `json:"shutdown_timeout"`
	RateLimitRPS        float64        `json:"rate_limit_rps"`
	RateLimitBurst      int            `json:"rate_limit_burst"`
	PageSize            int            `json:"page_size"`
	ConfirmationCodeTTL timex.Duration `json:"confirmation_code_ttl"`

	S3AccessKey    string         `json:"s3_access_key"`
	S3SecretKey    string         `json:"s3_secret_key"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	UploadURLTTL   timex.Duration `json:"upload_url_ttl"`
	MaxImageSize   int64          `json:"max_image_size"`

	AMQPURL string `json:"amqp_url"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	MailFrom     string `json:"mail_from"`

	TelegramToken  string `json:"telegram_token"`
	EmailFanoutCap int    `json:"email_fanout_cap"`

	OutboxPollInterval timex.Duration `json:"outbox_poll_interval"`
	OutboxBatchSize    int            `json:"outbox_batch_size"`
	OutboxMaxAttempts  int            `json:"outbox_max_attempts"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flag. If it is not
// set, no JSON file is loaded. If the file cannot be read or contains invalid
// JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.Environment, c.Environment)
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionTTL, c.SessionTTL)
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.AppURL, c.AppURL)
	setString(&config.CORSOrigin, c.CORSOrigin)

	setDuration(&config.RequestTimeout, c.RequestTimeout)
	setDuration(&config.HTTPReadTimeout, c.HTTPReadTimeout)
	setDuration(&config.HTTPWriteTimeout, c.HTTPWriteTimeout)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setNumber(&config.RateLimitRPS, c.RateLimitRPS)
	setNumber(&config.RateLimitBurst, c.RateLimitBurst)
	setNumber(&config.PageSize, c.PageSize)
	setDuration(&config.ConfirmationCodeTTL, c.ConfirmationCodeTTL)

	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.UploadURLTTL, c.UploadURLTTL)
	setNumber(&config.MaxImageSize, c.MaxImageSize)

	setString(&config.AMQPURL, c.AMQPURL)

	setString(&config.SMTPHost, c.SMTPHost)
	setNumber(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)

	setString(&config.TelegramToken, c.TelegramToken)
	setNumber(&config.EmailFanoutCap, c.EmailFanoutCap)

	setDuration(&config.OutboxPollInterval, c.OutboxPollInterval)
	setNumber(&config.OutboxBatchSize, c.OutboxBatchSize)
	setNumber(&config.OutboxMaxAttempts, c.OutboxMaxAttempts)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setNumber[T int | int64 | float64](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
