package types

// Registry maps package names to packages, remembering insertion order.
// At most one package is held per name; the first one added wins.
type Registry struct {
	order  []string
	byName map[string]*Package
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Package)}
}

// Add inserts pkg unless a package with the same name is already present.
// It reports whether pkg was inserted.
func (r *Registry) Add(pkg *Package) bool {
	if _, ok := r.byName[pkg.Name]; ok {
		return false
	}
	r.byName[pkg.Name] = pkg
	r.order = append(r.order, pkg.Name)
	return true
}

// Get returns the package registered under name, or nil.
func (r *Registry) Get(name string) *Package {
	return r.byName[name]
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Len returns the number of registered packages.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns the registered names in insertion order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Packages returns the registered packages in insertion order.
func (r *Registry) Packages() []*Package {
	out := make([]*Package, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]
	}
	return out
}
