package match

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/3leaps/davgallery/pkg/gallery"
)

// Filter evaluates whether an entry passes filter criteria.
//
// Filters operate on the normalized entry, so every property a listing
// returns (size, modification time, MIME type) is available without
// further requests.
type Filter interface {
	// Match returns true if the entry passes the filter.
	Match(e *gallery.Entry) bool

	// String returns a human-readable description of the filter.
	String() string
}

// FilterConfig holds filter criteria from config or CLI flags.
type FilterConfig struct {
	// Size specifies min/max size constraints.
	Size *SizeFilterConfig `json:"size,omitempty" yaml:"size,omitempty" mapstructure:"size"`

	// Modified specifies date range constraints.
	Modified *DateFilterConfig `json:"modified,omitempty" yaml:"modified,omitempty" mapstructure:"modified"`

	// ContentType lists allowed MIME types.
	ContentType []string `json:"content_type,omitempty" yaml:"content_type,omitempty" mapstructure:"content_type"`

	// NameRegex is a regex applied to filenames after glob matching.
	NameRegex string `json:"name_regex,omitempty" yaml:"name_regex,omitempty" mapstructure:"name_regex"`
}

// SizeFilterConfig specifies size constraints.
type SizeFilterConfig struct {
	// Min is the minimum size (inclusive). Supports human-readable: "1KB", "100MiB".
	Min string `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`

	// Max is the maximum size (inclusive).
	Max string `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
}

// DateFilterConfig specifies date range constraints.
type DateFilterConfig struct {
	// After keeps entries modified at or after this time (inclusive).
	// Supports ISO 8601: "2024-01-15" or "2024-01-15T10:30:00Z".
	After string `json:"after,omitempty" yaml:"after,omitempty" mapstructure:"after"`

	// Before keeps entries modified before this time (exclusive end).
	Before string `json:"before,omitempty" yaml:"before,omitempty" mapstructure:"before"`
}

// Filter errors.
var (
	ErrInvalidSize  = errors.New("invalid size value")
	ErrInvalidDate  = errors.New("invalid date value")
	ErrInvalidRegex = errors.New("invalid regex pattern")
)

// SizeFilter filters entries by size range.
type SizeFilter struct {
	min int64 // -1 means no minimum
	max int64 // -1 means no maximum
}

// NewSizeFilter creates a size filter from config.
// Returns nil if no size constraints are specified.
func NewSizeFilter(cfg *SizeFilterConfig) (*SizeFilter, error) {
	if cfg == nil || (cfg.Min == "" && cfg.Max == "") {
		return nil, nil
	}

	f := &SizeFilter{min: -1, max: -1}

	if cfg.Min != "" {
		size, err := ParseSize(cfg.Min)
		if err != nil {
			return nil, fmt.Errorf("min size: %w", err)
		}
		f.min = size
	}

	if cfg.Max != "" {
		size, err := ParseSize(cfg.Max)
		if err != nil {
			return nil, fmt.Errorf("max size: %w", err)
		}
		f.max = size
	}

	if f.min >= 0 && f.max >= 0 && f.min > f.max {
		return nil, fmt.Errorf("%w: min (%d) > max (%d)", ErrInvalidSize, f.min, f.max)
	}

	return f, nil
}

// Match returns true if the entry size is within the configured range.
func (f *SizeFilter) Match(e *gallery.Entry) bool {
	if f.min >= 0 && e.Size < f.min {
		return false
	}
	if f.max >= 0 && e.Size > f.max {
		return false
	}
	return true
}

// String returns a human-readable description.
func (f *SizeFilter) String() string {
	switch {
	case f.min >= 0 && f.max >= 0:
		return fmt.Sprintf("size: %s - %s", FormatSize(f.min), FormatSize(f.max))
	case f.min >= 0:
		return fmt.Sprintf("size: >= %s", FormatSize(f.min))
	case f.max >= 0:
		return fmt.Sprintf("size: <= %s", FormatSize(f.max))
	default:
		return "size: any"
	}
}

// DateFilter filters entries by modification date range.
type DateFilter struct {
	after  time.Time // zero means no after constraint
	before time.Time // zero means no before constraint
}

// NewDateFilter creates a date filter from config.
// Returns nil if no date constraints are specified.
func NewDateFilter(cfg *DateFilterConfig) (*DateFilter, error) {
	if cfg == nil || (cfg.After == "" && cfg.Before == "") {
		return nil, nil
	}

	f := &DateFilter{}

	if cfg.After != "" {
		t, err := ParseDate(cfg.After)
		if err != nil {
			return nil, fmt.Errorf("after date: %w", err)
		}
		f.after = t
	}

	if cfg.Before != "" {
		t, err := ParseDate(cfg.Before)
		if err != nil {
			return nil, fmt.Errorf("before date: %w", err)
		}
		f.before = t
	}

	if !f.after.IsZero() && !f.before.IsZero() && !f.after.Before(f.before) {
		return nil, fmt.Errorf("%w: after (%s) >= before (%s)", ErrInvalidDate, f.after, f.before)
	}

	return f, nil
}

// Match returns true if the entry modification time is within range.
// Entries without a parsable modification time never match a date range.
func (f *DateFilter) Match(e *gallery.Entry) bool {
	if e.ModTime.IsZero() {
		return false
	}
	if !f.after.IsZero() && e.ModTime.Before(f.after) {
		return false
	}
	if !f.before.IsZero() && !e.ModTime.Before(f.before) {
		return false
	}
	return true
}

// String returns a human-readable description.
func (f *DateFilter) String() string {
	switch {
	case !f.after.IsZero() && !f.before.IsZero():
		return fmt.Sprintf("modified: %s to %s", f.after.Format("2006-01-02"), f.before.Format("2006-01-02"))
	case !f.after.IsZero():
		return fmt.Sprintf("modified: on/after %s", f.after.Format("2006-01-02"))
	case !f.before.IsZero():
		return fmt.Sprintf("modified: before %s", f.before.Format("2006-01-02"))
	default:
		return "modified: any"
	}
}

// MimeFilter keeps entries whose MIME type is in an allow list.
// Directories have no MIME type and never match.
type MimeFilter struct {
	allowed map[string]struct{}
	raw     []string
}

// NewMimeFilter creates a MIME filter. Returns nil for an empty list.
func NewMimeFilter(mimes []string) *MimeFilter {
	if len(mimes) == 0 {
		return nil
	}
	f := &MimeFilter{allowed: make(map[string]struct{}, len(mimes))}
	for _, m := range mimes {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		if _, dup := f.allowed[m]; !dup {
			f.raw = append(f.raw, m)
		}
		f.allowed[m] = struct{}{}
	}
	if len(f.allowed) == 0 {
		return nil
	}
	return f
}

// Match returns true if the entry MIME type is allowed.
func (f *MimeFilter) Match(e *gallery.Entry) bool {
	_, ok := f.allowed[e.Mime]
	return ok
}

// String returns a human-readable description.
func (f *MimeFilter) String() string {
	return "content_type: " + strings.Join(f.raw, "|")
}

// RegexFilter filters entries by filename pattern.
type RegexFilter struct {
	pattern *regexp.Regexp
	raw     string
}

// NewRegexFilter creates a regex filter from pattern string.
// Returns nil if pattern is empty.
func NewRegexFilter(pattern string) (*RegexFilter, error) {
	if pattern == "" {
		return nil, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegex, err)
	}

	return &RegexFilter{pattern: re, raw: pattern}, nil
}

// Match returns true if the entry filename matches the regex.
func (f *RegexFilter) Match(e *gallery.Entry) bool {
	return f.pattern.MatchString(e.Filename)
}

// String returns a human-readable description.
func (f *RegexFilter) String() string {
	return fmt.Sprintf("name_regex: %s", f.raw)
}

// CompositeFilter combines multiple filters with AND semantics.
type CompositeFilter struct {
	filters []Filter
}

// NewCompositeFilter creates a composite filter from the given filters.
// Nil filters are ignored. Returns nil if no non-nil filters provided.
func NewCompositeFilter(filters ...Filter) *CompositeFilter {
	var nonNil []Filter
	for _, f := range filters {
		if f != nil {
			nonNil = append(nonNil, f)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return &CompositeFilter{filters: nonNil}
}

// NewFilterFromConfig creates a CompositeFilter from FilterConfig.
// Returns nil if no filters are configured.
func NewFilterFromConfig(cfg *FilterConfig) (*CompositeFilter, error) {
	if cfg == nil {
		return nil, nil
	}

	var filters []Filter

	sizeFilter, err := NewSizeFilter(cfg.Size)
	if err != nil {
		return nil, err
	}
	if sizeFilter != nil {
		filters = append(filters, sizeFilter)
	}

	dateFilter, err := NewDateFilter(cfg.Modified)
	if err != nil {
		return nil, err
	}
	if dateFilter != nil {
		filters = append(filters, dateFilter)
	}

	if mimeFilter := NewMimeFilter(cfg.ContentType); mimeFilter != nil {
		filters = append(filters, mimeFilter)
	}

	regexFilter, err := NewRegexFilter(cfg.NameRegex)
	if err != nil {
		return nil, err
	}
	if regexFilter != nil {
		filters = append(filters, regexFilter)
	}

	if len(filters) == 0 {
		return nil, nil
	}

	return &CompositeFilter{filters: filters}, nil
}

// Match returns true if all filters pass. A nil filter matches everything.
func (f *CompositeFilter) Match(e *gallery.Entry) bool {
	if f == nil {
		return true
	}
	for _, filter := range f.filters {
		if !filter.Match(e) {
			return false
		}
	}
	return true
}

// String returns a human-readable description.
func (f *CompositeFilter) String() string {
	if f == nil || len(f.filters) == 0 {
		return "no filters"
	}
	parts := make([]string, len(f.filters))
	for i, filter := range f.filters {
		parts[i] = filter.String()
	}
	return strings.Join(parts, ", ")
}

// Filters returns the underlying filters.
func (f *CompositeFilter) Filters() []Filter {
	if f == nil {
		return nil
	}
	return f.filters
}

// ParseSize parses a human-readable size string.
//
// Supported formats:
//   - Raw bytes: "1024"
//   - Base-10 (SI): "1KB", "100MB" (1KB = 1000 bytes)
//   - Base-2 (IEC): "1KiB", "100MiB" (1KiB = 1024 bytes)
//   - Case insensitive, optional space before the unit
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: size overflows int64", ErrInvalidSize)
	}
	return int64(n), nil
}

// FormatSize formats bytes as a human-readable string using base-2 units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return fmt.Sprintf("%dB", bytes)
	}
	return humanize.IBytes(uint64(bytes))
}

// ParseDate parses an ISO 8601 date or datetime string.
//
// Supported formats:
//   - Date only: "2024-01-15" (interpreted as start of day UTC)
//   - Datetime: "2024-01-15T10:30:00Z"
//   - Datetime with offset: "2024-01-15T10:30:00+05:00"
//
// All times are normalized to UTC for comparison.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
