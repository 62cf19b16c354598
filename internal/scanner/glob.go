package scanner

import (
	"path/filepath"
	"strings"
)

// MatchGlob matches pattern against a forward-slash relative path.
// Extends filepath.Match with "**" (zero or more path segments);
// patterns without "**" delegate directly to filepath.Match, except that
// bare patterns (no separator) match the base name anywhere in the tree.
func MatchGlob(pattern, path string) bool {
	pattern = filepath.ToSlash(pattern)
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")

	if !strings.Contains(pattern, "**") {
		if !strings.Contains(pattern, "/") {
			matched, _ := filepath.Match(pattern, filepath.Base(path))
			return matched
		}
		matched, _ := filepath.Match(pattern, path)
		return matched
	}

	idx := strings.Index(pattern, "**")
	prefix := pattern[:idx]
	suffix := strings.TrimLeft(pattern[idx+2:], "/")

	if prefix != "" {
		prefix = strings.TrimRight(prefix, "/")
		if !strings.HasPrefix(path, prefix) {
			return false
		}
		path = strings.TrimLeft(strings.TrimPrefix(path, prefix), "/")
	}

	if suffix == "" {
		return true
	}

	// Try the suffix against every tail of the remaining path.
	parts := strings.Split(path, "/")
	for i := 0; i <= len(parts); i++ {
		if MatchGlob(suffix, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if MatchGlob(p, path) {
			return true
		}
	}
	return false
}
