package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string `env:"PORT,        default=8000"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	CORSOrigin string `env:"CORS_ORIGIN, default=http://localhost:3000"`

	Token     TokenConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Media     MediaConfig
	RateLimit RateLimitConfig
}

type TokenConfig struct {
	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET, required"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_EXPIRY, default=1h"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET, required"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_EXPIRY, default=240h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=videotube"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MediaConfig struct {
	Bucket        string `env:"MEDIA_BUCKET, required"`
	Region        string `env:"MEDIA_REGION, default=us-east-1"`
	Endpoint      string `env:"MEDIA_ENDPOINT"`
	AccessKey     string `env:"MEDIA_ACCESS_KEY"`
	SecretKey     string `env:"MEDIA_SECRET_KEY"`
	PublicBaseURL string `env:"MEDIA_PUBLIC_URL"`
	Workers       int    `env:"MEDIA_JANITOR_WORKERS, default=2"`
}

type RateLimitConfig struct {
	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS,   default=5"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW,         default=15m"`
	PerSecond        float64       `env:"AUTH_RATE_PER_SECOND, default=5"`
	Burst            int           `env:"AUTH_RATE_BURST,      default=10"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// IsDevelopment reports whether ENV is "development".
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c *Config) validate() error {
	var errs []error
	if c.Token.AccessSecret == c.Token.RefreshSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token expiries must be positive"))
	}
	// Session cookies ride on credentialed CORS, which browsers refuse for "*".
	if o := strings.TrimSpace(c.CORSOrigin); o == "" || o == "*" {
		errs = append(errs, errors.New("CORS_ORIGIN must name an explicit origin"))
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("auth rate limit must be positive"))
	}
	return errors.Join(errs...)
}
