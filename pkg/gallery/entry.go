// Package gallery turns raw WebDAV property bags into the folder model
// consumed by gallery views: the current folder, its subfolders, and the
// displayable files.
//
// Everything in this package is pure: no I/O, no logging, no shared state.
package gallery

import (
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/3leaps/davgallery/pkg/multistatus"
)

// EntryType distinguishes folders from files.
type EntryType string

const (
	// EntryTypeDirectory is a collection resource.
	EntryTypeDirectory EntryType = "directory"

	// EntryTypeFile is any non-collection resource.
	EntryTypeFile EntryType = "file"
)

// String returns the string representation of the entry type.
func (t EntryType) String() string {
	return string(t)
}

// NoID is the identifier of an entry whose fileid is absent or malformed.
const NoID int64 = -1

// Property names consumed by Normalize.
const (
	PropFileID        = "fileid"
	PropFavorite      = "favorite"
	PropHasPreview    = "has-preview"
	PropResourceType  = "resourcetype"
	PropContentType   = "getcontenttype"
	PropContentLength = "getcontentlength"
	PropETag          = "getetag"
	PropLastModified  = "getlastmodified"
)

// Entry is a normalized remote filesystem entry.
type Entry struct {
	// Filename is the path relative to the remote root, e.g. "/Photos/a.jpg".
	Filename string `json:"filename" yaml:"filename"`

	// Basename is the last element of Filename.
	Basename string `json:"basename" yaml:"basename"`

	// Type is directory or file.
	Type EntryType `json:"type" yaml:"type"`

	// Mime is the content type without parameters. Empty for directories.
	Mime string `json:"mime,omitempty" yaml:"mime,omitempty"`

	// Size is the content length in bytes (0 when not reported).
	Size int64 `json:"size" yaml:"size"`

	// ETag is the entity tag with surrounding quotes removed.
	ETag string `json:"etag,omitempty" yaml:"etag,omitempty"`

	// LastModified is the raw getlastmodified value.
	LastModified string `json:"lastmod,omitempty" yaml:"lastmod,omitempty"`

	// ModTime is LastModified parsed as an HTTP date; zero if unparsable.
	ModTime time.Time `json:"-" yaml:"-"`

	// ID is the numeric fileid, or NoID when absent or malformed.
	ID int64 `json:"id" yaml:"id"`

	// IsFavorite is false only when the favorite property is exactly "0".
	IsFavorite bool `json:"isFavorite" yaml:"isFavorite"`

	// HasPreview is false only when the has-preview property is exactly "false".
	HasPreview bool `json:"hasPreview" yaml:"hasPreview"`

	// Props holds every raw property by local name. Only set for detailed results.
	Props map[string]string `json:"props,omitempty" yaml:"props,omitempty"`
}

// HasID reports whether the entry carries a valid fileid.
func (e *Entry) HasID() bool {
	return e.ID >= 0
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e.Type == EntryTypeDirectory
}

// Normalize maps a raw property bag to an Entry.
//
// Normalize is deterministic and does not validate: a missing or
// non-numeric fileid yields ID == NoID rather than an error, so one bad
// entry cannot fail a whole listing. When detailed is true the raw
// properties are passed through in Props.
func Normalize(props multistatus.PropBag, filename string, detailed bool) Entry {
	e := Entry{
		Filename:     filename,
		Basename:     path.Base(filename),
		Type:         entryType(props),
		Size:         parseSize(props.Text(PropContentLength)),
		ETag:         strings.Trim(props.Text(PropETag), `"`),
		LastModified: props.Text(PropLastModified),
		ID:           ParseID(props.Text(PropFileID)),
		IsFavorite:   IsFavorite(props),
		HasPreview:   HasPreview(props),
	}
	if e.Basename == "/" || e.Basename == "." {
		e.Basename = ""
	}
	if e.LastModified != "" {
		if t, err := http.ParseTime(e.LastModified); err == nil {
			e.ModTime = t.UTC()
		}
	}
	if e.Type == EntryTypeFile {
		e.Mime = mimeType(props.Text(PropContentType))
	}
	if detailed {
		e.Props = props.Strings()
	}
	return e
}

// IsFavorite is false if and only if the favorite property is exactly "0".
func IsFavorite(props multistatus.PropBag) bool {
	v, ok := props.Get(PropFavorite)
	return !ok || v != "0"
}

// HasPreview is false if and only if the has-preview property is exactly "false".
func HasPreview(props multistatus.PropBag) bool {
	v, ok := props.Get(PropHasPreview)
	return !ok || v != "false"
}

// ParseID parses a fileid. Returns NoID for empty, non-numeric or negative input.
func ParseID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return NoID
	}
	return id
}

func entryType(props multistatus.PropBag) EntryType {
	if rt, ok := props[PropResourceType]; ok && rt.HasChild("collection") {
		return EntryTypeDirectory
	}
	return EntryTypeFile
}

func mimeType(raw string) string {
	mt, _, _ := strings.Cut(raw, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func parseSize(raw string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
