package config

import "time"

// DefaultUploadExtensions are the document types the upload page accepts.
var DefaultUploadExtensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx", ".rtf", ".odt"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = "http://localhost:5000"
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 10 * time.Second
	}
	if cfg.Highlight.CollisionPolicy == "" {
		cfg.Highlight.CollisionPolicy = "last"
	}
	if cfg.Highlight.ClassPrefix == "" {
		cfg.Highlight.ClassPrefix = "highlight"
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 10 << 20
	}
	if cfg.Upload.Extensions == nil {
		cfg.Upload.Extensions = append([]string(nil), DefaultUploadExtensions...)
	}
}
