// Package config loads the service configuration from the environment.
// A local .env file is honoured for development; secrets such as the JWT
// signing key have no defaults and must always be supplied.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every externally supplied setting.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GinMode  string `envconfig:"GIN_MODE" default:"debug"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	DatabaseURL   string `envconfig:"DATABASE_URL" default:"host=localhost user=user password=password dbname=textbookdb port=5432 sslmode=disable"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// JWTSecret signs every bearer token. HS256 wants at least 32 bytes.
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" required:"true"`

	VerificationTTL  time.Duration `envconfig:"VERIFICATION_TTL" default:"1h"`
	VerifyURLBase    string        `envconfig:"VERIFY_URL_BASE" default:"http://localhost:3000/verify"`
	UnverifiedMaxAge time.Duration `envconfig:"UNVERIFIED_MAX_AGE" default:"24h"`

	MailDriver string `envconfig:"MAIL_DRIVER" default:"log"`
	MailFrom   string `envconfig:"MAIL_FROM" default:"no-reply@textbook-exchange.local"`
	AWSRegion  string `envconfig:"AWS_REGION" default:"us-east-1"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:4000"`
}

const minSecretLength = 32

// Load reads an optional .env file and then the process environment.
func Load(log *slog.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && log != nil {
		log.Debug("No .env file found, using process environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks constraints envconfig cannot express with tags.
func (c Config) Validate() error {
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("config error: JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config error: TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	switch strings.ToLower(c.MailDriver) {
	case "log", "ses":
	default:
		return fmt.Errorf("config error: MAIL_DRIVER must be \"log\" or \"ses\", got %q", c.MailDriver)
	}
	for _, origin := range c.AllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("config error: ALLOWED_ORIGINS entry %q needs an http:// or https:// scheme", origin)
		}
	}
	return nil
}
