// Package match selects gallery entries by filename glob patterns and
// by metadata (size, modification time, MIME type, filename regex).
package match

import (
	"strings"
)

// Glob metacharacters that can be escaped with backslash in patterns.
const globEscapable = `*?[]{}\`

// NormalizePattern converts a user-provided glob pattern to canonical form.
//
// Normalization rules:
//   - Unescaped backslashes converted to forward slashes (Windows compat)
//   - Escaped backslashes and glob metacharacters preserved (\*, \?, \[, etc.)
//
// Examples:
//
//	"Photos/2024/**"       → "Photos/2024/**"      (unchanged)
//	"Photos\2024\**"       → "Photos/2024/**"      (backslash → slash)
//	"Photos/img\*.jpg"     → "Photos/img\*.jpg"    (escape preserved)
func NormalizePattern(pattern string) string {
	if pattern == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(pattern))

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\\' && i+1 < len(runes) {
			next := runes[i+1]
			if strings.ContainsRune(globEscapable, next) {
				result.WriteRune('\\')
				result.WriteRune(next)
				i++
				continue
			}
			result.WriteRune('/')
			continue
		}

		if r == '\\' {
			result.WriteRune('/')
			continue
		}

		result.WriteRune(r)
	}

	return result.String()
}

// IsHidden returns true if any path segment starts with a dot.
//
// Examples:
//
//	"Photos/a.jpg"          → false
//	".trash/a.jpg"          → true
//	"Photos/.thumbs/a.jpg"  → true
//	"Photos/a.jpg."         → false (dot at end is not hidden)
func IsHidden(filename string) bool {
	for _, seg := range strings.Split(filename, "/") {
		if seg != "" && strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
