// Package config loads client settings from .env, an optional YAML file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	APIURL     string `yaml:"api_url" validate:"required,url"`
	Token      string `yaml:"token"`
	User       string `yaml:"user" validate:"omitempty,email"`
	PersistURI string `yaml:"persist_uri"`

	Feed struct {
		PageSize      int           `yaml:"page_size" validate:"min=1,max=100"`
		MoreInterval  time.Duration `yaml:"more_interval" validate:"min=0"`
		ViewBatchSize int           `yaml:"view_batch_size" validate:"min=1"`
		Resume        bool          `yaml:"resume"`
	} `yaml:"feed"`

	Inbox struct {
		RefreshConcurrency int `yaml:"refresh_concurrency" validate:"min=1,max=32"`
	} `yaml:"inbox"`

	Log struct {
		Level       string `yaml:"level" validate:"oneof=debug info warn error"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	SentryDSN string `yaml:"sentry_dsn"`

	Dev struct {
		Addr   string `yaml:"addr" validate:"required"`
		Token  string `yaml:"token"`
		NodeId int    `yaml:"node_id" validate:"min=0,max=2047"`
	} `yaml:"dev"`
}

func Default() Config {
	var cfg Config
	cfg.APIURL = "http://localhost:3000"
	cfg.Feed.PageSize = 10
	cfg.Feed.MoreInterval = time.Second
	cfg.Feed.ViewBatchSize = 5
	cfg.Inbox.RefreshConcurrency = 4
	cfg.Log.Level = "info"
	cfg.Dev.Addr = ":3000"
	return cfg
}

// Load builds the effective config. path may be empty; a missing .env file
// is not an error.
func Load(path string) (Config, error) {
	// Load dotenv
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("JESTR_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("JESTR_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("JESTR_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("JESTR_PERSIST_URI"); v != "" {
		cfg.PersistURI = v
	}
	if v := os.Getenv("JESTR_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JESTR_PAGE_SIZE: %w", err)
		}
		cfg.Feed.PageSize = n
	}
	if v := os.Getenv("JESTR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		cfg.SentryDSN = v
	}
	if v := os.Getenv("JESTR_DEV_ADDR"); v != "" {
		cfg.Dev.Addr = v
	}
	if v := os.Getenv("JESTR_DEV_TOKEN"); v != "" {
		cfg.Dev.Token = v
	}
	return nil
}
