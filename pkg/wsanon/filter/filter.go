// Package filter decides which directories the workspace scanner may enter.
// Patterns are gobwas/glob expressions using '/' as separator and are matched
// against the slash path relative to the scan root and against its base name.
package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Filter holds compiled exclusion patterns.
type Filter struct {
	// Exclude holds the source patterns, in the order given.
	Exclude []string

	compiled []glob.Glob
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// WithExclude appends exclusion patterns. Empty patterns are ignored.
func WithExclude(patterns ...string) Option {
	return func(f *Filter) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p != "" {
				f.Exclude = append(f.Exclude, p)
			}
		}
	}
}

// New creates a Filter and compiles its patterns.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}

	f.compiled = make([]glob.Glob, 0, len(f.Exclude))
	for _, p := range f.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.compiled = append(f.compiled, g)
	}
	return f, nil
}

// Excluded reports whether the directory at rel (slash-separated, relative
// to the scan root) matches any exclusion pattern. The root itself is never
// excluded. A nil Filter excludes nothing.
func (f *Filter) Excluded(rel string) bool {
	if f == nil || len(f.compiled) == 0 {
		return false
	}
	rel = strings.Trim(rel, "/")
	if rel == "" || rel == "." {
		return false
	}
	base := path.Base(rel)
	for _, g := range f.compiled {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

// Empty reports whether the filter has no patterns.
func (f *Filter) Empty() bool {
	return f == nil || len(f.compiled) == 0
}
