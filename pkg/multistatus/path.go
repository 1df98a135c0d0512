package multistatus

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var schemeHost = regexp.MustCompile(`(?i)^https?://[^/]+`)

// NormalizeHref converts a server href to a decoded server-relative path.
//
// Normalization rules:
//   - A leading scheme and host ("https://cloud.example.com") is removed
//   - Percent-encoding is decoded; the raw value is kept if decoding fails
//
// Examples:
//
//	"https://h/remote.php/dav/a%20b.jpg" → "/remote.php/dav/a b.jpg"
//	"/remote.php/dav/Photos/"           → "/remote.php/dav/Photos/"
func NormalizeHref(href string) string {
	href = schemeHost.ReplaceAllString(strings.TrimSpace(href), "")
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	return href
}

// NormalizePath converts p to the canonical filename form.
//
// The result always starts with "/", contains no duplicate slashes or
// "." / ".." segments, and has no trailing slash (except for the root "/").
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// RelativeFilename computes the filename of href relative to the remote base.
//
// If base is the root, the normalized href is the filename. Otherwise the
// base prefix is stripped and the remainder normalized. Hrefs outside the
// base are returned normalized but otherwise unchanged.
func RelativeFilename(base, href string) string {
	base = NormalizePath(base)
	href = NormalizePath(NormalizeHref(href))
	if base == "/" {
		return href
	}
	if href == base {
		return "/"
	}
	if rest, ok := strings.CutPrefix(href, base+"/"); ok {
		return NormalizePath(rest)
	}
	return href
}
