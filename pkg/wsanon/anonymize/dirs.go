package anonymize

import (
	"path"
	"strings"

	"github.com/jamesainslie/wsanon/pkg/wsanon/types"
)

// DirMap maps directory segment names to dir%08d identifiers. A segment
// string gets one identifier wherever it appears in the tree.
type DirMap struct {
	t table
}

// Lookup returns the identifier assigned to segment.
func (m *DirMap) Lookup(segment string) (string, bool) {
	return m.t.lookup(segment)
}

// Len returns the number of assigned segments.
func (m *DirMap) Len() int {
	return len(m.t.entries)
}

// Entries returns the assignments in the order they were made.
func (m *DirMap) Entries() []Entry {
	return m.t.list()
}

// Translate maps the parent directory of a package to its identifier path.
// It returns nil when the package sits directly below the root.
func (m *DirMap) Translate(relDir string) ([]string, bool) {
	segs := ParentSegments(relDir)
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		token, ok := m.t.lookup(s)
		if !ok {
			return nil, false
		}
		out = append(out, token)
	}
	if len(out) == 0 {
		return nil, true
	}
	return out, true
}

// Dirs assigns identifiers to the parent directory segments of every
// registered package, walking packages in registry order and segments from
// the root downwards.
func Dirs(reg *types.Registry) *DirMap {
	m := &DirMap{t: newTable(DirPrefix)}
	for _, pkg := range reg.Packages() {
		for _, s := range ParentSegments(pkg.RelDir) {
			m.t.assign(s)
		}
	}
	return m
}

// ParentSegments splits the parent of the slash path relDir into its
// segments. Packages at or directly below the root have none.
func ParentSegments(relDir string) []string {
	relDir = strings.Trim(relDir, "/")
	if relDir == "" || relDir == "." {
		return nil
	}
	parent := path.Dir(relDir)
	if parent == "." {
		return nil
	}
	return strings.Split(parent, "/")
}
