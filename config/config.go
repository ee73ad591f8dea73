package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultWebhookURL is used when N8N_WEBHOOK_URL is not set.
const DefaultWebhookURL = "https://n8nbalde.app.n8n.cloud/webhook/ai-agent-mysql"

type Config struct {
	Host string `env:"HOST"`
	Port string `env:"PORT" envDefault:"3000"`

	// Empty means every chat is forwarded.
	GroupID        string        `env:"GRUPO_BUGS"`
	WebhookURL     string        `env:"N8N_WEBHOOK_URL" envDefault:"https://n8nbalde.app.n8n.cloud/webhook/ai-agent-mysql"`
	WebhookSecret  string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"0s"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:session/whatsapp.db?_pragma=foreign_keys(1)"`

	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string `env:"LOG_FORMAT" envDefault:"console"`
	WhatsmeowLogLevel string `env:"WHATSMEOW_LOG_LEVEL" envDefault:"warn"`

	RateLimit   float64  `env:"RATE_LIMIT" envDefault:"20"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	PrintQR     bool     `env:"PRINT_QR" envDefault:"true"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.GroupID = strings.TrimSpace(cfg.GroupID)
	cfg.WebhookURL = strings.TrimSpace(cfg.WebhookURL)
	if cfg.WebhookURL == "" {
		cfg.WebhookURL = DefaultWebhookURL
	}
	if cfg.WebhookTimeout < 0 {
		return nil, fmt.Errorf("WEBHOOK_TIMEOUT must not be negative")
	}
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// GroupLabel is the group shown on /status; "todos" when unset.
func (c *Config) GroupLabel() string {
	if c.GroupID == "" {
		return "todos"
	}
	return c.GroupID
}

// UsesPostgres reports whether DatabaseURL points at Postgres.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}
