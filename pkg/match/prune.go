package match

import "strings"

// StaticPrefix returns the literal folder prefix of a glob pattern: the
// part before the first unescaped metacharacter, cut back to the last
// complete path segment. Escaped metacharacters are unescaped.
//
//	"Photos/2020/**/*.jpg" -> "Photos/2020/"
//	"*.jpg"                -> ""
//	"Photos/2020-*/a.jpg"  -> "Photos/"
//	"Photos/a.jpg"         -> "Photos/a.jpg"
//	"Photos/\[raw\]/*"     -> "Photos/[raw]/"
func StaticPrefix(pattern string) string {
	pattern = NormalizePattern(pattern)
	idx := firstMeta(pattern)
	switch idx {
	case -1:
		return unescape(pattern)
	case 0:
		return ""
	}
	prefix := pattern[:idx]
	slash := strings.LastIndex(prefix, "/")
	if slash < 0 {
		return ""
	}
	return unescape(prefix[:slash+1])
}

func isMeta(c byte) bool {
	return c == '*' || c == '?' || c == '[' || c == '{'
}

// firstMeta returns the index of the first unescaped glob metacharacter,
// or -1.
func firstMeta(p string) int {
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '\\' && i+1 < len(p) {
			if isMeta(p[i+1]) || p[i+1] == '\\' {
				i++
			}
			continue
		}
		if isMeta(c) {
			return i
		}
	}
	return -1
}

func unescape(p string) string {
	if !strings.ContainsRune(p, '\\') {
		return p
	}
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		if p[i] == '\\' && i+1 < len(p) && strings.IndexByte(globEscapable, p[i+1]) >= 0 {
			i++
		}
		b.WriteByte(p[i])
	}
	return b.String()
}

// Descend reports whether a file below folder dir could pass the include
// patterns, so a walk can skip listing folders no include can reach.
// Basename includes reach every folder. Hidden folders follow MatchDir.
func (m *Matcher) Descend(dir string) bool {
	if !m.MatchDir(dir) {
		return false
	}
	if len(m.includes) == 0 {
		return true
	}
	key := strings.TrimPrefix(dir, "/")
	if key != "" && !strings.HasSuffix(key, "/") {
		key += "/"
	}
	for _, inc := range m.includes {
		if inc.basename {
			return true
		}
		prefix := StaticPrefix(inc.raw)
		if strings.HasPrefix(key, prefix) || strings.HasPrefix(prefix, key) {
			return true
		}
	}
	return false
}
