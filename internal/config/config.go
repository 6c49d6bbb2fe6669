// Package config provides configuration loading and structs for the modboard server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/hyperjump/modboard/internal/highlight"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. MODBOARD_SERVER_PORT.
const EnvPrefix = "MODBOARD_"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" env:"DEBUG"`
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Upstream  UpstreamConfig  `yaml:"upstream" envPrefix:"UPSTREAM_"`
	Highlight HighlightConfig `yaml:"highlight" envPrefix:"HIGHLIGHT_"`
	Templates TemplatesConfig `yaml:"templates" envPrefix:"TEMPLATES_"`
	Upload    UploadConfig    `yaml:"upload" envPrefix:"UPLOAD_"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

// UpstreamConfig points at the moderation backend.
type UpstreamConfig struct {
	BaseURL  string        `yaml:"base_url" env:"BASE_URL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
	APIToken string        `yaml:"api_token,omitempty" env:"API_TOKEN"`
}

// HighlightConfig tunes the term highlighter.
type HighlightConfig struct {
	// CollisionPolicy is "last" or "first": which category wins when a term is
	// positive in several categories.
	CollisionPolicy string `yaml:"collision_policy" env:"COLLISION_POLICY"`
	ClassPrefix     string `yaml:"class_prefix" env:"CLASS_PREFIX"`
}

// TemplatesConfig selects where page templates come from. An empty Dir uses
// the templates compiled into the binary.
type TemplatesConfig struct {
	Dir   string `yaml:"dir" env:"DIR"`
	Watch bool   `yaml:"watch" env:"WATCH"`
}

// UploadConfig limits document uploads.
type UploadConfig struct {
	MaxBytes   int64    `yaml:"max_bytes" env:"MAX_BYTES"`
	Extensions []string `yaml:"extensions" env:"EXTENSIONS" envSeparator:","`
}

// Load reads and parses the config file at path, overlays MODBOARD_* environment
// variables, then applies defaults and expands paths.
// Returns an error if the file cannot be read or parsed, or the result is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	if cfg.Templates.Dir != "" {
		cfg.Templates.Dir = expandPath(cfg.Templates.Dir, filepath.Dir(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overlays MODBOARD_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if _, err := highlight.ParseCollisionPolicy(c.Highlight.CollisionPolicy); err != nil {
		return fmt.Errorf("invalid highlight config: %w", err)
	}
	if !highlight.ValidClassPrefix(c.Highlight.ClassPrefix) {
		return fmt.Errorf("invalid highlight class_prefix %q (want lower-case letters, digits and -)", c.Highlight.ClassPrefix)
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream base_url %q", c.Upstream.BaseURL)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
