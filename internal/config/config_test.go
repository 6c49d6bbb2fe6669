package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
upstream:
  base_url: "http://moderation.internal:5000"
  timeout: 3s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Upstream.BaseURL != "http://moderation.internal:5000" {
		t.Errorf("base_url = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.Upstream.Timeout)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  host: "localhost"
  port: 8080
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_templatesDirRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
templates:
  dir: "./web/templates"
  watch: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(filepath.Dir(path), "web", "templates")
	if cfg.Templates.Dir != want {
		t.Errorf("templates dir = %s, want %s", cfg.Templates.Dir, want)
	}
	if !cfg.Templates.Watch {
		t.Error("watch should be true")
	}
}

func TestLoad_envOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
highlight:
  collision_policy: last
`)
	t.Setenv("MODBOARD_SERVER_PORT", "9100")
	t.Setenv("MODBOARD_HIGHLIGHT_COLLISION_POLICY", "first")
	t.Setenv("MODBOARD_UPSTREAM_BASE_URL", "https://backend.example.com")
	t.Setenv("MODBOARD_UPLOAD_EXTENSIONS", ".txt,.pdf")
	t.Setenv("MODBOARD_DEBUG", "true")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Highlight.CollisionPolicy != "first" {
		t.Errorf("collision policy = %q", cfg.Highlight.CollisionPolicy)
	}
	if cfg.Upstream.BaseURL != "https://backend.example.com" {
		t.Errorf("base_url = %q", cfg.Upstream.BaseURL)
	}
	if len(cfg.Upload.Extensions) != 2 || cfg.Upload.Extensions[1] != ".pdf" {
		t.Errorf("extensions = %v", cfg.Upload.Extensions)
	}
	if !cfg.Debug {
		t.Error("MODBOARD_DEBUG should enable debug")
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: [unclosed"},
		{"bad collision policy", "highlight:\n  collision_policy: random\n"},
		{"bad base url", "upstream:\n  base_url: \"not a url\"\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"class prefix injection", "highlight:\n  class_prefix: 'a\" onclick=\"x'\n"},
		{"class prefix upper case", "highlight:\n  class_prefix: Flag\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "http://localhost:5000" {
		t.Errorf("default base_url: got %s", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("default timeout: got %v", cfg.Upstream.Timeout)
	}
	if cfg.Highlight.CollisionPolicy != "last" || cfg.Highlight.ClassPrefix != "highlight" {
		t.Errorf("highlight defaults: got %+v", cfg.Highlight)
	}
	if cfg.Upload.MaxBytes != 10<<20 {
		t.Errorf("default max bytes: got %d", cfg.Upload.MaxBytes)
	}
	if len(cfg.Upload.Extensions) != len(DefaultUploadExtensions) || cfg.Upload.Extensions[0] != ".txt" {
		t.Errorf("upload extensions: got %v", cfg.Upload.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:   ServerConfig{Host: "localhost", Port: 9090},
		Upstream: UpstreamConfig{BaseURL: "http://backend:5000", Timeout: 5 * time.Second},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Upstream.Timeout != 5*time.Second {
		t.Errorf("loaded timeout: got %v", loaded.Upstream.Timeout)
	}
}
