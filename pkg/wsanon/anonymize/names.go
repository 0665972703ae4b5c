// Package anonymize assigns opaque identifiers to package names and to the
// directory segments above package roots. Both assignments depend only on
// registry order, so equal registries always produce equal maps.
package anonymize

import (
	"fmt"

	"github.com/jamesainslie/wsanon/pkg/wsanon/manifest"
	"github.com/jamesainslie/wsanon/pkg/wsanon/types"
)

// Identifier prefixes and the zero-padded width of their counters.
const (
	PackagePrefix = "package"
	DirPrefix     = "dir"
	Width         = 8
)

// Entry is one assignment from an original string to its identifier.
type Entry struct {
	Original string `json:"original" yaml:"original"`
	Token    string `json:"token" yaml:"token"`
}

// table is an insertion-ordered injective map from strings to sequentially
// numbered identifiers sharing one prefix.
type table struct {
	prefix  string
	tokens  map[string]string
	entries []Entry
}

func newTable(prefix string) table {
	return table{prefix: prefix, tokens: make(map[string]string)}
}

// assign gives s the next identifier unless it already has one.
func (t *table) assign(s string) {
	if _, ok := t.tokens[s]; ok {
		return
	}
	token := Format(t.prefix, len(t.entries)+1)
	t.tokens[s] = token
	t.entries = append(t.entries, Entry{Original: s, Token: token})
}

func (t *table) lookup(s string) (string, bool) {
	token, ok := t.tokens[s]
	return token, ok
}

func (t *table) list() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Format renders identifier n with prefix, e.g. Format("package", 3) is
// "package00000003".
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s%0*d", prefix, Width, n)
}

// NameMap maps original package names to package%08d identifiers.
type NameMap struct {
	t table
}

// Lookup returns the identifier assigned to name.
func (m *NameMap) Lookup(name string) (string, bool) {
	return m.t.lookup(name)
}

// Len returns the number of assigned names.
func (m *NameMap) Len() int {
	return len(m.t.entries)
}

// Entries returns the assignments in the order they were made.
func (m *NameMap) Entries() []Entry {
	return m.t.list()
}

// Names assigns identifiers to every registered package. Packages are taken
// in registry order; right after a package is numbered, the registered
// packages it depends on are numbered in dependency declaration order
// (category order, then order within the category). References to names
// outside the registry never receive an identifier.
func Names(reg *types.Registry) *NameMap {
	m := &NameMap{t: newTable(PackagePrefix)}
	for _, pkg := range reg.Packages() {
		if _, ok := m.t.lookup(pkg.Name); ok {
			continue
		}
		m.t.assign(pkg.Name)
		pkg.Dependencies.Each(func(_ manifest.Category, dep string) {
			if reg.Has(dep) {
				m.t.assign(dep)
			}
		})
	}
	return m
}
