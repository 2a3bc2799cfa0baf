// Package config loads server configuration from an optional YAML file with
// environment overrides on top.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	TemplateDir string `yaml:"template_dir"`
	// SecretKey is the base64-encoded token signing secret. Leave empty to
	// generate a fresh one at startup, which invalidates outstanding tokens
	// on restart.
	SecretKey   string `yaml:"secret_key"`
	TokenMaxAge string `yaml:"token_max_age"`

	Sink struct {
		// Kind selects the storage sink: filesystem, inline or postgres.
		Kind        string `yaml:"kind"`
		Dir         string `yaml:"dir"`
		DatabaseURL string `yaml:"database_url"`
	} `yaml:"sink"`

	Hub struct {
		BaseURL string `yaml:"base_url"`
		User    string `yaml:"user"`
	} `yaml:"hub"`

	Auth struct {
		// Users enables the mock session login when non-empty.
		Users []string `yaml:"users"`
	} `yaml:"auth"`
}

// Load reads path when it exists, then applies environment overrides and
// defaults. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("NOTEBOOK_TEMPLATE_DIR"); v != "" {
		cfg.TemplateDir = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Sink.DatabaseURL = v
	}
	if v := os.Getenv("JUPYTERHUB_URL"); v != "" {
		cfg.Hub.BaseURL = v
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.TemplateDir == "" {
		cfg.TemplateDir = "notebook_templates"
	}
	if cfg.Sink.Kind == "" {
		cfg.Sink.Kind = "filesystem"
	}
	if cfg.Sink.Dir == "" {
		cfg.Sink.Dir = "notebooks"
	}
	return cfg, nil
}

// Secret decodes the configured signing secret, generating a random one when
// unset.
func (c Config) Secret() ([]byte, error) {
	if c.SecretKey == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		return secret, nil
	}
	secret, err := base64.StdEncoding.DecodeString(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("decode secret_key: %w", err)
	}
	return secret, nil
}

// MaxAge parses token_max_age, defaulting to zero so the caller falls back
// to the codec default.
func (c Config) MaxAge() (time.Duration, error) {
	if c.TokenMaxAge == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TokenMaxAge)
	if err != nil {
		return 0, fmt.Errorf("parse token_max_age: %w", err)
	}
	return d, nil
}
