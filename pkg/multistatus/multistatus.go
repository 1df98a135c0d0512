// Package multistatus parses WebDAV multi-status documents into raw entries.
//
// A multi-status document enumerates metadata for a path and, optionally,
// its descendants. Each response element carries an href and one or more
// propstat blocks. This package flattens every response into a RawEntry:
// the href plus a property bag keyed by property local name.
//
// Namespaces are ignored when matching element names. Servers bind the DAV:
// namespace to arbitrary prefixes (d:, D:, none) and the owncloud/nextcloud
// extension properties (fileid, favorite, has-preview) never collide with
// DAV: property names.
package multistatus

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotMultistatus is returned when the document root is not a multistatus element.
var ErrNotMultistatus = errors.New("document root is not multistatus")

// Document is a parsed multi-status document.
type Document struct {
	// Entries holds one RawEntry per response element, in document order.
	Entries []RawEntry
}

// RawEntry is a single response element as received from the server.
type RawEntry struct {
	// Href is the href exactly as sent by the server (not normalized).
	Href string

	// Props is the merged property bag of the successful propstat blocks.
	Props PropBag
}

// Property is one WebDAV property value.
type Property struct {
	// Name is the fully qualified property name.
	Name xml.Name

	// Text is the trimmed character data of the property element.
	Text string

	// Children holds the local names of child elements, e.g. "collection"
	// for a resourcetype property.
	Children []string
}

// Value returns the text of the property, or its child element names
// joined by a space when the property has no text.
func (p Property) Value() string {
	if p.Text != "" {
		return p.Text
	}
	return strings.Join(p.Children, " ")
}

// HasChild reports whether the property contains a child element with the given local name.
func (p Property) HasChild(local string) bool {
	for _, c := range p.Children {
		if c == local {
			return true
		}
	}
	return false
}

// PropBag maps property local names to values.
type PropBag map[string]Property

// Get returns the value of the named property and whether it was present.
func (b PropBag) Get(name string) (string, bool) {
	p, ok := b[name]
	if !ok {
		return "", false
	}
	return p.Value(), true
}

// Text returns the value of the named property, or "" if absent.
func (b PropBag) Text(name string) string {
	v, _ := b.Get(name)
	return v
}

// Strings flattens the bag to name -> value.
func (b PropBag) Strings() map[string]string {
	out := make(map[string]string, len(b))
	for k, p := range b {
		out[k] = p.Value()
	}
	return out
}

type xmlMultistatus struct {
	XMLName   xml.Name      `xml:"multistatus"`
	Responses []xmlResponse `xml:"response"`
}

type xmlResponse struct {
	Hrefs     []string      `xml:"href"`
	Propstats []xmlPropstat `xml:"propstat"`
}

type xmlPropstat struct {
	Prop   xmlProp `xml:"prop"`
	Status string  `xml:"status"`
}

type xmlProp struct {
	Props []xmlAny `xml:",any"`
}

type xmlAny struct {
	XMLName  xml.Name
	Text     string   `xml:",chardata"`
	Children []xmlAny `xml:",any"`
}

// Parse decodes a multi-status document.
//
// Returns ErrNotMultistatus (wrapped) if the root element is not multistatus,
// or the decoder error if the body is not well-formed XML.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty document: %w", ErrNotMultistatus)
	}

	var ms xmlMultistatus
	if err := xml.Unmarshal(data, &ms); err != nil {
		var unexpected xml.UnmarshalError
		if errors.As(err, &unexpected) {
			return nil, fmt.Errorf("%v: %w", err, ErrNotMultistatus)
		}
		return nil, err
	}

	doc := &Document{Entries: make([]RawEntry, 0, len(ms.Responses))}
	for _, r := range ms.Responses {
		href := ""
		if len(r.Hrefs) > 0 {
			href = strings.TrimSpace(r.Hrefs[0])
		}
		doc.Entries = append(doc.Entries, RawEntry{
			Href:  href,
			Props: mergePropstats(r.Propstats),
		})
	}
	return doc, nil
}

// mergePropstats merges properties from all successful propstat blocks.
// Falls back to the first block when none reports success.
func mergePropstats(propstats []xmlPropstat) PropBag {
	bag := PropBag{}
	merged := false
	for _, ps := range propstats {
		if !statusOK(ps.Status) {
			continue
		}
		addProps(bag, ps.Prop)
		merged = true
	}
	if !merged && len(propstats) > 0 {
		addProps(bag, propstats[0].Prop)
	}
	return bag
}

func addProps(bag PropBag, prop xmlProp) {
	for _, p := range prop.Props {
		children := make([]string, 0, len(p.Children))
		for _, c := range p.Children {
			children = append(children, c.XMLName.Local)
		}
		bag[p.XMLName.Local] = Property{
			Name:     p.XMLName,
			Text:     strings.TrimSpace(p.Text),
			Children: children,
		}
	}
}

// statusOK reports whether a propstat status line ("HTTP/1.1 200 OK") is 2xx.
// A missing status is treated as success.
func statusOK(status string) bool {
	status = strings.TrimSpace(status)
	if status == "" {
		return true
	}
	fields := strings.Fields(status)
	if len(fields) < 2 {
		return false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return false
	}
	return code >= 200 && code < 300
}
