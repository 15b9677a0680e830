package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all runtime configuration. Values come from an optional YAML
// file and the environment; the environment always wins.
type Config struct {
	HTTPAddr    string        `yaml:"http_addr" env:"HTTP_ADDR" env-default:":8080"`
	StoreDriver string        `yaml:"store_driver" env:"STORE_DRIVER" env-default:"postgres"` // postgres or memory
	LogLevel    string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	AutoMigrate bool          `yaml:"auto_migrate" env:"AUTO_MIGRATE" env-default:"true"`
	CORSOrigins string        `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	TitleFetch  time.Duration `yaml:"title_fetch_timeout" env:"TITLE_FETCH_TIMEOUT" env-default:"5s"`

	Database DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	URL          string        `yaml:"-" env:"DATABASE_URL"` // overrides the discrete fields
	Host         string        `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port         int           `yaml:"port" env:"PGPORT" env-default:"5432"`
	User         string        `yaml:"user" env:"PGUSER" env-default:"annotations"`
	Password     string        `yaml:"-" env:"PGPASSWORD"`
	Name         string        `yaml:"database" env:"PGDATABASE" env-default:"annotations"`
	SSLMode      string        `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"PGMAX_CONNECTIONS" env-default:"10"`
	Retries      int           `yaml:"connect_retries" env:"DB_CONNECT_RETRIES" env-default:"5"`
	RetryDelay   time.Duration `yaml:"retry_delay" env:"DB_RETRY_DELAY" env-default:"2s"`
}

// Load reads .env (if present) into the process environment and then builds
// the Config. path may be empty.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.StoreDriver != StorePostgres && cfg.StoreDriver != StoreMemory {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.TitleFetch <= 0 {
		return nil, fmt.Errorf("TITLE_FETCH_TIMEOUT must be positive, got %s", cfg.TitleFetch)
	}
	return &cfg, nil
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// AllowedOrigins splits the comma separated CORS list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
