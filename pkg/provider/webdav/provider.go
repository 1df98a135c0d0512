package webdav

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/3leaps/davgallery/pkg/gallery"
	"github.com/3leaps/davgallery/pkg/multistatus"
	"github.com/3leaps/davgallery/pkg/provider"
)

// errEmptyMultistatus is returned by Stat when the document has no response element.
var errEmptyMultistatus = errors.New("multistatus contains no response")

// Provider implements provider.Provider for WebDAV servers.
type Provider struct {
	client     Doer
	endpoint   *url.URL
	remotePath string
	headers    http.Header
	policy     gallery.MimePolicy
}

// Ensure Provider implements the interface.
var _ provider.Provider = (*Provider)(nil)

// New creates a new WebDAV provider with the given configuration.
func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(strings.TrimSpace(cfg.Endpoint))
	if err != nil {
		return nil, &ConfigError{Field: "Endpoint", Message: err.Error()}
	}
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/")
	endpoint.RawPath = ""

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	return &Provider{
		client:     client,
		endpoint:   endpoint,
		remotePath: multistatus.NormalizePath(cfg.RemotePath),
		headers:    headers,
		policy:     cfg.MimePolicy(),
	}, nil
}

// RemotePath returns the normalized remote base.
func (p *Provider) RemotePath() string {
	return p.remotePath
}

// List returns the folder model of path.
//
// The PROPFIND uses a custom body instead of a children-only listing so the
// response includes the queried folder itself; this fills Folder without a
// second request.
func (p *Provider) List(ctx context.Context, path string, opts provider.ListOptions) (*gallery.Listing, error) {
	depth := DepthChildren
	if opts.Deep {
		depth = DepthInfinity
	}

	header := p.requestHeader(depth)
	for k, v := range opts.HTTPHeader() {
		header[k] = v
	}

	body, err := p.propfind(ctx, "List", path, path, header)
	if err != nil {
		return nil, err
	}

	doc, err := multistatus.Parse(body)
	if err != nil {
		return nil, &provider.ParseError{Op: "List", Path: path, Err: err}
	}

	listing := gallery.FromDocument(doc, p.remotePath, path, true, p.policy)
	return &listing, nil
}

// Stat returns the normalized entry for a single path.
//
// The root is requested with an empty path rather than "/", since some
// servers reject a literal root slash for this operation.
func (p *Provider) Stat(ctx context.Context, path string) (*gallery.Entry, error) {
	reqPath := path
	if path == "/" {
		reqPath = ""
	}

	body, err := p.propfind(ctx, "Stat", path, reqPath, p.requestHeader(DepthSelf))
	if err != nil {
		return nil, err
	}

	doc, err := multistatus.Parse(body)
	if err != nil {
		return nil, &provider.ParseError{Op: "Stat", Path: path, Err: err}
	}
	if len(doc.Entries) == 0 {
		return nil, &provider.ParseError{Op: "Stat", Path: path, Err: errEmptyMultistatus}
	}

	raw := doc.Entries[0]
	entry := gallery.Normalize(raw.Props, multistatus.RelativeFilename(p.remotePath, raw.Href), true)
	return &entry, nil
}

// Close releases any resources held by the provider.
// The HTTP client is owned by the caller, so this is a no-op.
func (p *Provider) Close() error {
	return nil
}

// propfind issues a PROPFIND for reqPath and returns the body of a 2xx response.
// Non-success statuses are returned as *provider.TransportError without reading the body.
func (p *Provider) propfind(ctx context.Context, op, path, reqPath string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, methodPropfind, p.resolve(reqPath), strings.NewReader(PropfindBody))
	if err != nil {
		return nil, &provider.TransportError{Op: op, Path: path, Err: err}
	}
	req.Header = header

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &provider.TransportError{Op: op, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, provider.NewStatusError(op, path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.TransportError{Op: op, Path: path, Err: err}
	}
	return body, nil
}

// requestHeader merges client headers with the library defaults.
func (p *Provider) requestHeader(depth string) http.Header {
	h := p.headers.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Accept", "text/plain")
	h.Set("Depth", depth)
	h.Set("Content-Type", "application/xml; charset=utf-8")
	return h
}

// resolve builds the request URL for a path under the remote base.
// reqPath is cleaned first, so ".." segments cannot rise above the base.
// The empty path addresses the base itself.
func (p *Provider) resolve(reqPath string) string {
	u := *p.endpoint
	base := p.remotePath
	if base == "/" {
		base = ""
	}
	if reqPath != "" {
		reqPath = multistatus.NormalizePath(reqPath)
	}
	u.Path = u.Path + base + reqPath
	u.RawPath = ""
	return u.String()
}
