// Package provider defines abstractions for remote folder listing.
//
// Providers implement a minimal surface area: list a folder into the gallery
// model and stat a single entry. Authentication, retries and caching are the
// transport's concern; providers should not implement them.
package provider

import (
	"context"
	"net/http"

	"github.com/go-viper/mapstructure/v2"

	"github.com/3leaps/davgallery/pkg/gallery"
)

// Provider abstracts remote folder listing operations.
//
// Implementations should:
//   - Issue exactly one request per call
//   - Build fresh results on every call (no shared mutable state)
//   - Be safe for concurrent use
type Provider interface {
	// List returns the folder model of path: its self-entry, subfolders
	// and displayable files.
	List(ctx context.Context, path string, opts ListOptions) (*gallery.Listing, error)

	// Stat returns the normalized entry for a single path.
	// Returns ErrNotFound (wrapped) if the entry does not exist.
	Stat(ctx context.Context, path string) (*gallery.Entry, error)

	// Close releases any resources held by the provider.
	Close() error
}

// ListOptions configures a List operation.
type ListOptions struct {
	// Deep requests the full subtree (Depth: infinity) instead of direct
	// children only (Depth: 1).
	Deep bool `mapstructure:"deep"`

	// Headers override library default request headers, key by key.
	Headers map[string]string `mapstructure:"headers"`

	// Extra holds unrecognized options. They are decoded so callers can
	// inspect them but never reach the server: PROPFIND has no request
	// knob to carry them.
	Extra map[string]any `mapstructure:",remain"`
}

// HTTPHeader returns Headers as an http.Header.
func (o ListOptions) HTTPHeader() http.Header {
	h := make(http.Header, len(o.Headers))
	for k, v := range o.Headers {
		h.Set(k, v)
	}
	return h
}

// DecodeListOptions builds ListOptions from a loose option map, as received
// from configuration files or query parameters.
//
// Recognized keys are "deep" and "headers"; other keys land in Extra.
// String values such as "true" are accepted for deep.
func DecodeListOptions(raw map[string]any) (ListOptions, error) {
	var opts ListOptions
	if len(raw) == 0 {
		return opts, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(raw); err != nil {
		return ListOptions{}, err
	}
	return opts, nil
}

// ProviderType identifies a remote listing protocol.
type ProviderType string

const (
	// ProviderWebDAV represents a WebDAV server (Nextcloud, ownCloud, generic).
	ProviderWebDAV ProviderType = "webdav"
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	return string(p)
}
