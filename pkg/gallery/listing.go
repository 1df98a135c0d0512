package gallery

import (
	"strings"

	"github.com/3leaps/davgallery/pkg/multistatus"
)

// MimeJPEG is the only file type displayed by default.
const MimeJPEG = "image/jpeg"

// Listing is the folder model for one queried path.
type Listing struct {
	// Folder is the self-entry of the queried path. Zero value when the
	// server response did not contain one.
	Folder Entry `json:"folder" yaml:"folder"`

	// Folders are the subfolders, in response order.
	Folders []Entry `json:"folders" yaml:"folders"`

	// Files are the displayable files, in response order.
	Files []Entry `json:"files" yaml:"files"`
}

// HasFolder reports whether the self-entry was found.
func (l *Listing) HasFolder() bool {
	return l.Folder.Filename != ""
}

// MimePolicy decides which file entries are displayable.
//
// The zero value accepts JPEG only.
type MimePolicy struct {
	accepted map[string]struct{}
}

// DefaultMimePolicy accepts image/jpeg only.
func DefaultMimePolicy() MimePolicy {
	return NewMimePolicy(MimeJPEG)
}

// NewMimePolicy accepts the given MIME types (case-insensitive).
// With no types it behaves like DefaultMimePolicy.
func NewMimePolicy(mimes ...string) MimePolicy {
	p := MimePolicy{accepted: map[string]struct{}{}}
	for _, m := range mimes {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			p.accepted[m] = struct{}{}
		}
	}
	if len(p.accepted) == 0 {
		return MimePolicy{}
	}
	return p
}

// Accepts reports whether a file with this MIME type is displayable.
func (p MimePolicy) Accepts(mime string) bool {
	if len(p.accepted) == 0 {
		return mime == MimeJPEG
	}
	_, ok := p.accepted[mime]
	return ok
}

// Mimes returns the accepted MIME types.
func (p MimePolicy) Mimes() []string {
	if len(p.accepted) == 0 {
		return []string{MimeJPEG}
	}
	out := make([]string, 0, len(p.accepted))
	for m := range p.accepted {
		out = append(out, m)
	}
	return out
}

// Classify sorts entries into the listing of queried.
//
// The entry whose filename equals queried becomes Folder; directories go to
// Folders; files accepted by policy go to Files; everything else is dropped.
// If several entries match queried, the last one wins. Without a match
// Folder is empty with ID NoID.
func Classify(queried string, entries []Entry, policy MimePolicy) Listing {
	queried = multistatus.NormalizePath(queried)
	l := Listing{
		Folder:  Entry{ID: NoID},
		Folders: []Entry{},
		Files:   []Entry{},
	}
	for _, e := range entries {
		switch {
		case e.Filename == queried:
			l.Folder = e
		case e.Type == EntryTypeDirectory:
			l.Folders = append(l.Folders, e)
		case policy.Accepts(e.Mime):
			l.Files = append(l.Files, e)
		}
	}
	return l
}

// FromDocument normalizes every entry of a multi-status document and
// classifies them against queried. Filenames are computed relative to base.
func FromDocument(doc *multistatus.Document, base, queried string, detailed bool, policy MimePolicy) Listing {
	entries := make([]Entry, 0, len(doc.Entries))
	for _, raw := range doc.Entries {
		filename := multistatus.RelativeFilename(base, raw.Href)
		entries = append(entries, Normalize(raw.Props, filename, detailed))
	}
	return Classify(queried, entries, policy)
}
