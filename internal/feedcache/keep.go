package feedcache

import (
	"path"
	"strings"
)

// keepPattern is a parsed keep pattern with its matching strategy.
type keepPattern struct {
	pattern  string
	matchKey bool // true = match against the full store key; false = basename only
}

// KeepMatcher protects store keys from garbage collection. It is meant for
// assets the display surface ships alongside the cache, such as placeholders.
// Patterns without '/' match the key's basename; patterns with '/' match the
// whole key.
type KeepMatcher struct {
	patterns []keepPattern
}

// NewKeepMatcher creates a KeepMatcher from raw pattern strings.
// Blank entries and entries starting with '#' are skipped.
func NewKeepMatcher(rawPatterns []string) *KeepMatcher {
	var patterns []keepPattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		patterns = append(patterns, keepPattern{
			pattern:  raw,
			matchKey: strings.Contains(raw, "/"),
		})
	}
	return &KeepMatcher{patterns: patterns}
}

// Match reports whether key must never be collected.
func (m *KeepMatcher) Match(key string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}

	base := path.Base(key)
	for _, p := range m.patterns {
		var matched bool
		var err error
		if p.matchKey {
			matched, err = path.Match(p.pattern, key)
		} else {
			matched, err = path.Match(p.pattern, base)
		}
		if err != nil {
			// malformed patterns never match
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
