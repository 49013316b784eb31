package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// AppURL is the externally visible base URL, used to build checkout
	// success/cancel redirects.
	AppURL string `yaml:"app_url"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	// JWTSecret verifies session tokens issued by the auth provider.
	JWTSecret string `yaml:"jwt_secret"`
}

type PolarConfig struct {
	AccessToken    string `yaml:"access_token"`
	WebhookSecret  string `yaml:"webhook_secret"`
	OrganizationID string `yaml:"organization_id"`
	BaseURL        string `yaml:"base_url"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Polar    PolarConfig    `yaml:"polar"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML config, applies env var fallbacks for secrets,
// defaults, and minimal validation. In dev mode a .env file next to the
// binary is loaded first so local secrets do not live in the YAML.
func LoadConfig(path string, dev bool) (*Config, error) {
	if dev {
		_ = godotenv.Load()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Secrets may come from the environment instead of the file.
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	}
	if cfg.Polar.AccessToken == "" {
		cfg.Polar.AccessToken = os.Getenv("POLAR_ACCESS_TOKEN")
	}
	if cfg.Polar.WebhookSecret == "" {
		cfg.Polar.WebhookSecret = os.Getenv("POLAR_WEBHOOK_SECRET")
	}
	if cfg.Polar.OrganizationID == "" {
		cfg.Polar.OrganizationID = os.Getenv("POLAR_ORGANIZATION_ID")
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Polar.BaseURL == "" {
		cfg.Polar.BaseURL = "https://api.polar.sh/v1"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.Polar.AccessToken == "" {
		return nil, errors.New("polar.access_token is required")
	}
	if cfg.Polar.WebhookSecret == "" {
		return nil, errors.New("polar.webhook_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 24 * time.Hour
	}
	return d
}
