package match

import (
	"errors"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher evaluates glob patterns against gallery filenames.
//
// A Matcher is configured with include and exclude patterns:
//   - Include patterns: filename must match at least one (none means all)
//   - Exclude patterns: filename must not match any
//
// Patterns without a slash match the basename only, so "*.jpg" selects
// JPEG files at any depth. Patterns with a slash match the whole filename
// relative to the remote base, without the leading slash.
//
// The Matcher is safe for concurrent use after creation.
type Matcher struct {
	includes      []pattern
	excludes      []pattern
	includeHidden bool
}

// pattern holds a normalized pattern and whether it targets the basename.
type pattern struct {
	raw      string
	basename bool
}

// Config configures a Matcher.
type Config struct {
	// Includes are glob patterns that filenames must match (at least one).
	// Optional: if empty, every filename is included.
	Includes []string

	// Excludes are glob patterns that filenames must not match (any).
	Excludes []string

	// IncludeHidden controls whether hidden entries are matched.
	// Hidden entries have path segments starting with '.'.
	// Default: false (hidden entries are excluded).
	IncludeHidden bool
}

// Errors returned by Matcher operations.
var (
	// ErrInvalidPattern is returned when a pattern cannot be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// PatternError wraps pattern-related errors with context.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// New creates a new Matcher from the given configuration.
//
// Patterns are normalized to handle Windows-style backslash separators
// while preserving escape sequences for literal glob metacharacters.
func New(cfg Config) (*Matcher, error) {
	includes, err := compile(cfg.Includes)
	if err != nil {
		return nil, err
	}
	excludes, err := compile(cfg.Excludes)
	if err != nil {
		return nil, err
	}

	return &Matcher{
		includes:      includes,
		excludes:      excludes,
		includeHidden: cfg.IncludeHidden,
	}, nil
}

func compile(raws []string) ([]pattern, error) {
	out := make([]pattern, 0, len(raws))
	for _, raw := range raws {
		normalized := strings.TrimPrefix(NormalizePattern(raw), "/")
		if normalized == "" || !doublestar.ValidatePattern(normalized) {
			return nil, &PatternError{Pattern: raw, Err: ErrInvalidPattern}
		}
		out = append(out, pattern{
			raw:      normalized,
			basename: !strings.Contains(normalized, "/"),
		})
	}
	return out, nil
}

// Match returns true if the filename passes the include/exclude patterns.
//
// A filename matches if:
//  1. It is not hidden (unless IncludeHidden is true)
//  2. It matches at least one include pattern, or no includes are set
//  3. It does not match any exclude pattern
func (m *Matcher) Match(filename string) bool {
	key := strings.TrimPrefix(filename, "/")

	if !m.includeHidden && IsHidden(key) {
		return false
	}

	if len(m.includes) > 0 {
		matched := false
		for _, inc := range m.includes {
			if inc.match(key) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, exc := range m.excludes {
		if exc.match(key) {
			return false
		}
	}

	return true
}

// MatchDir reports whether a folder is kept and descended into. Glob
// patterns select files only, so folders are dropped just for being hidden.
func (m *Matcher) MatchDir(filename string) bool {
	return m.includeHidden || !IsHidden(strings.TrimPrefix(filename, "/"))
}

// IsEmpty reports whether the matcher has no patterns.
func (m *Matcher) IsEmpty() bool {
	return len(m.includes) == 0 && len(m.excludes) == 0
}

// IncludePatterns returns the normalized include patterns.
func (m *Matcher) IncludePatterns() []string {
	return raws(m.includes)
}

// ExcludePatterns returns the normalized exclude patterns.
func (m *Matcher) ExcludePatterns() []string {
	return raws(m.excludes)
}

func raws(ps []pattern) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.raw
	}
	return out
}

func (p pattern) match(key string) bool {
	target := key
	if p.basename {
		target = path.Base(key)
	}
	matched, err := doublestar.Match(p.raw, target)
	if err != nil {
		// validated in New
		return false
	}
	return matched
}
