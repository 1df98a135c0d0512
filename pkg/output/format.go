package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/3leaps/davgallery/pkg/gallery"
)

// Format selects how a command renders results.
type Format string

// Supported formats.
const (
	FormatJSONL Format = "jsonl"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = fmt.Errorf("unknown format (expected %s|%s|%s|%s)", FormatJSONL, FormatJSON, FormatYAML, FormatTable)

// ParseFormat validates a format name. Empty selects jsonl.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSONL, nil
	case FormatJSONL, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// RenderListing writes a listing as a single json or yaml document, or
// as a table. jsonl output goes through a Writer instead.
func RenderListing(w io.Writer, format Format, l *gallery.Listing) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, l)
	case FormatYAML:
		return renderYAML(w, l)
	case FormatTable:
		rows := make([]gallery.Entry, 0, 1+len(l.Folders)+len(l.Files))
		if l.HasFolder() {
			rows = append(rows, l.Folder)
		}
		rows = append(rows, l.Folders...)
		rows = append(rows, l.Files...)
		return renderTable(w, rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// RenderEntries writes stat results as a json or yaml list, or as a table.
func RenderEntries(w io.Writer, format Format, entries []gallery.Entry) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, entries)
	case FormatYAML:
		return renderYAML(w, entries)
	case FormatTable:
		return renderTable(w, entries)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func renderTable(w io.Writer, entries []gallery.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TYPE\tSIZE\tMODIFIED\tID\tFAV\tFILENAME")
	for _, e := range entries {
		size := "-"
		if !e.IsDir() {
			size = humanize.IBytes(uint64(max(e.Size, 0)))
		}
		modified := "-"
		if !e.ModTime.IsZero() {
			modified = e.ModTime.Format("2006-01-02 15:04")
		}
		id := "-"
		if e.HasID() {
			id = fmt.Sprintf("%d", e.ID)
		}
		fav := ""
		if e.IsFavorite {
			fav = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Type, size, modified, id, fav, e.Filename)
	}
	return tw.Flush()
}
