package discovery

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter filters test files by name pattern
type Filter struct {
	exclude []string
}

// NewFilter creates a new Filter dropping paths that match any of the
// exclude globs ("tests/slow/**")
func NewFilter(exclude ...string) *Filter {
	return &Filter{exclude: exclude}
}

// FilterByName filters test files by name pattern.
// Patterns containing a slash are matched against the whole slash-separated
// path with ** support ("tests/**/api_*"); others against the file name
// ("test_user*"). A pattern without wildcards matches as a substring.
func (f *Filter) FilterByName(tests []string, pattern string) []string {
	if pattern == "" {
		return tests
	}

	var filtered []string
	for _, test := range tests {
		if matchName(pattern, test) {
			filtered = append(filtered, test)
		}
	}
	return filtered
}

// Apply removes excluded paths. Globs match the path relative to base,
// or the path itself when base is empty.
func (f *Filter) Apply(base string, tests []string) []string {
	if len(f.exclude) == 0 {
		return tests
	}

	var kept []string
	for _, test := range tests {
		rel := test
		if base != "" {
			if r, err := filepath.Rel(base, test); err == nil {
				rel = r
			}
		}
		if !f.Excluded(rel) {
			kept = append(kept, test)
		}
	}
	return kept
}

// Excluded reports whether path matches an exclude glob
func (f *Filter) Excluded(path string) bool {
	p := filepath.ToSlash(path)
	for _, glob := range f.exclude {
		if ok, err := doublestar.Match(glob, p); err == nil && ok {
			return true
		}
	}
	return false
}

func matchName(pattern, test string) bool {
	path := filepath.ToSlash(test)
	if !strings.ContainsAny(pattern, "*?[") {
		return strings.Contains(filepath.Base(test), pattern)
	}
	if strings.Contains(pattern, "/") {
		ok, err := doublestar.Match(pattern, path)
		return err == nil && ok
	}
	ok, err := doublestar.Match(pattern, filepath.Base(test))
	return err == nil && ok
}
