// Copyright 2024-2026 Rapyuta Robotics

package bridge

import (
	"fmt"
	"regexp"
)

// CompilePatterns compiles allow-list patterns with full-match semantics:
// the whole candidate name must match, not a substring.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("bad allow-list pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// AllowList evaluates names against an ordered pattern list, remembering
// positive matches so a name is only ever evaluated against the patterns
// once. Negative results are never cached here: callers that want one-shot
// rejection keep their own ignored-name set.
//
// Not safe for concurrent use. Each side's poller owns its own AllowList
// instances; the compiled pattern slice may be shared, the cache is not.
type AllowList struct {
	patterns []*regexp.Regexp
	matched  map[string]struct{}
}

// NewAllowList creates an allow-list over an already-compiled pattern
// slice. An empty pattern list matches nothing.
func NewAllowList(patterns []*regexp.Regexp) *AllowList {
	return &AllowList{
		patterns: patterns,
		matched:  make(map[string]struct{}),
	}
}

// Matches reports whether name matches any pattern. The first positive
// result per name is cached and returned without re-evaluation thereafter.
func (l *AllowList) Matches(name string) bool {
	if _, ok := l.matched[name]; ok {
		return true
	}
	for _, re := range l.patterns {
		if re.MatchString(name) {
			l.matched[name] = struct{}{}
			return true
		}
	}
	return false
}
