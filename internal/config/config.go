package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	PlatformAPIURL  string        `env:"PLATFORM_API_URL" envDefault:"http://localhost:8000/api"`
	PlatformTimeout time.Duration `env:"PLATFORM_TIMEOUT" envDefault:"30s"`
	UploadTimeout   time.Duration `env:"UPLOAD_TIMEOUT" envDefault:"5m"`
	RetryCount      int           `env:"RETRY_COUNT" envDefault:"3"`
	RetryWait       time.Duration `env:"RETRY_WAIT" envDefault:"1s"`

	SessionSecret        string        `env:"SESSION_SECRET" envDefault:"change-me"`
	SessionIdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"5m"`
	SessionCheckSchedule string        `env:"SESSION_CHECK_INTERVAL" envDefault:"@every 1m"`
	SecureCookies        bool          `env:"SECURE_COOKIES" envDefault:"false"`

	NotificationPollSchedule string        `env:"NOTIFICATION_POLL" envDefault:"@every 1m"`
	NotificationDebounce     time.Duration `env:"NOTIFICATION_DEBOUNCE" envDefault:"30s"`
	SearchReindexSchedule    string        `env:"SEARCH_REINDEX" envDefault:"@every 10m"`

	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`
	LedgerPath  string `env:"LEDGER_PATH" envDefault:"fedlearn_ledger.db"`

	MeiliSearchHost string `env:"MEILISEARCH_HOST"`
	MeiliMasterKey  string `env:"MEILI_MASTER_KEY"`

	CloudinaryURL          string `env:"CLOUDINARY_URL"`
	CloudinaryUploadFolder string `env:"CLOUDINARY_UPLOAD_FOLDER" envDefault:"fedlearn_contributions"`

	ExportDir string `env:"EXPORT_DIR" envDefault:"./exports"`

	RateLimitComment time.Duration `env:"RATE_LIMIT_COMMENT" envDefault:"10s"`
	RateLimitLogin   time.Duration `env:"RATE_LIMIT_LOGIN" envDefault:"2s"`
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("invalid SESSION_IDLE_TIMEOUT: must be positive")
	}
	if c.RetryCount < 1 {
		return fmt.Errorf("invalid RETRY_COUNT: must be at least 1")
	}
	if strings.TrimSpace(c.PlatformAPIURL) == "" {
		return fmt.Errorf("PLATFORM_API_URL is required")
	}
	c.PlatformAPIURL = strings.TrimRight(c.PlatformAPIURL, "/")
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
