// Package config loads davgallery configuration.
//
// Precedence, lowest to highest: built-in defaults, config file,
// environment (DAVGALLERY_*), runtime overrides.
package config

import (
	"fmt"
	"time"

	"github.com/3leaps/davgallery/pkg/provider/webdav"
)

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	WebDAV  WebDAVConfig  `mapstructure:"webdav"`
	Gallery GalleryConfig `mapstructure:"gallery"`

	// Workers bounds concurrent requests for multi-path commands.
	Workers int `mapstructure:"workers"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// WebDAVConfig configures the upstream server.
type WebDAVConfig struct {
	Endpoint   string            `mapstructure:"endpoint"`
	RemotePath string            `mapstructure:"remote_path"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	Headers    map[string]string `mapstructure:"headers"`
}

// GalleryConfig configures listing classification.
type GalleryConfig struct {
	// Mimes lists the file MIME types kept in listings.
	Mimes []string `mapstructure:"mimes"`
}

// ProviderConfig converts the webdav section into a provider config.
// The HTTP client is left to the caller.
func (c *Config) ProviderConfig() webdav.Config {
	return webdav.Config{
		Endpoint:   c.WebDAV.Endpoint,
		RemotePath: c.WebDAV.RemotePath,
		Headers:    c.WebDAV.Headers,
		Mimes:      c.Gallery.Mimes,
	}
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.WebDAV.Timeout < 0 {
		return fmt.Errorf("webdav.timeout must not be negative")
	}
	return nil
}
