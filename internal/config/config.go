package config

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppName     string `env:"APP_NAME" envDefault:"AgriBiz"`
	AppPort     string `env:"APP_PORT" envDefault:"3000"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"` // "text" | "json"

	// CIDRs of reverse proxies whose X-Forwarded-For is believed, e.g. "10.0.0.0/8,127.0.0.1/32".
	TrustedProxies []netip.Prefix `env:"TRUSTED_PROXIES" envSeparator:","`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	UsersTable     string `env:"DYNAMO_TABLE_USERS" envDefault:"users"`
	S3BucketName   string `env:"S3_BUCKET_NAME" envDefault:"agribiz-profile-images"`
	SNSRegion      string `env:"SNS_REGION" envDefault:"us-east-1"`

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./private_key.pem"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@agribiz.local"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"AgriBiz"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPTLS      bool   `env:"SMTP_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"` // empty disables the resend limiter
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	OTPTTL               time.Duration `env:"OTP_TTL" envDefault:"10m"`
	OTPSweepInterval     time.Duration `env:"OTP_SWEEP_INTERVAL" envDefault:"1m"`
	ResendCooldown       time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"60s"`
	ResendMaxPerHour     int           `env:"OTP_RESEND_MAX_PER_HOUR" envDefault:"5"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL" envDefault:"24h"`
	RequireVerification  bool          `env:"REQUIRE_EMAIL_VERIFICATION" envDefault:"true"`
	RequireVerifiedLogin bool          `env:"REQUIRE_VERIFIED_LOGIN" envDefault:"false"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"JWT_EXPIRY", c.JWTExpiry},
		{"OTP_TTL", c.OTPTTL},
		{"OTP_SWEEP_INTERVAL", c.OTPSweepInterval},
		{"OTP_RESEND_COOLDOWN", c.ResendCooldown},
		{"RESET_TOKEN_TTL", c.ResetTokenTTL},
	}
	for _, v := range durations {
		if v.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", v.name, v.d)
		}
	}
	if c.ResendMaxPerHour <= 0 {
		return fmt.Errorf("OTP_RESEND_MAX_PER_HOUR must be positive, got %d", c.ResendMaxPerHour)
	}
	return nil
}
