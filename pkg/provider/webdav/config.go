// Package webdav implements the provider interface for WebDAV servers
// such as Nextcloud and ownCloud.
package webdav

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/3leaps/davgallery/pkg/gallery"
)

// Config configures a WebDAV provider.
//
// The request URL for a path is Endpoint + RemotePath + path. Filenames in
// results are relative to RemotePath.
//
// For Nextcloud the remote path is typically:
//
//	/remote.php/dav/files/<user>
type Config struct {
	// Endpoint is the server base URL (required), e.g. https://cloud.example.com.
	Endpoint string

	// RemotePath is the fixed remote base all paths are relative to.
	// Empty means the server root.
	RemotePath string

	// Headers are sent with every request (e.g. Authorization, requesttoken).
	// Per-call ListOptions.Headers override them.
	Headers map[string]string

	// HTTPClient performs requests. Nil uses http.DefaultClient.
	// Timeouts and retries belong to this client.
	HTTPClient Doer

	// Mimes lists the file MIME types kept in listings.
	// Empty keeps image/jpeg only.
	Mimes []string
}

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return &ConfigError{Field: "Endpoint", Message: "endpoint URL is required"}
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return &ConfigError{Field: "Endpoint", Message: "invalid URL: " + err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "Endpoint", Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ConfigError{Field: "Endpoint", Message: "host is required"}
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return &ConfigError{Field: "Endpoint", Message: "query and fragment are not allowed"}
	}
	return nil
}

// MimePolicy returns the listing filter policy for this configuration.
func (c *Config) MimePolicy() gallery.MimePolicy {
	return gallery.NewMimePolicy(c.Mimes...)
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "webdav config: " + e.Field + ": " + e.Message
}
