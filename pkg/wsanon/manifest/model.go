// Package manifest reads and writes catkin package manifests (package.xml).
//
// A manifest carries the package name and its dependency references, split
// into a fixed set of categories. Reading keeps the order in which references
// appear within each category; rendering emits them in category order.
package manifest

// Category is a kind of dependency a manifest can declare.
type Category int

// Dependency categories in enumeration order. The order is significant: the
// anonymizer and the renderer both walk categories in this sequence.
const (
	Depend Category = iota
	BuildTool
	Build
	BuildExport
	Exec
	Test
	Doc
)

// Categories lists every category in enumeration order.
var Categories = []Category{Depend, BuildTool, Build, BuildExport, Exec, Test, Doc}

// Tag returns the XML element name for the category.
func (c Category) Tag() string {
	switch c {
	case Depend:
		return "depend"
	case BuildTool:
		return "buildtool_depend"
	case Build:
		return "build_depend"
	case BuildExport:
		return "build_export_depend"
	case Exec:
		return "exec_depend"
	case Test:
		return "test_depend"
	case Doc:
		return "doc_depend"
	default:
		return "unknown"
	}
}

// String returns the XML element name.
func (c Category) String() string {
	return c.Tag()
}

// Dependencies holds the referenced package names of one manifest,
// one list per category.
type Dependencies struct {
	Depend      []string `json:"depend,omitempty" yaml:"depend,omitempty"`
	BuildTool   []string `json:"buildtool_depend,omitempty" yaml:"buildtool_depend,omitempty"`
	Build       []string `json:"build_depend,omitempty" yaml:"build_depend,omitempty"`
	BuildExport []string `json:"build_export_depend,omitempty" yaml:"build_export_depend,omitempty"`
	Exec        []string `json:"exec_depend,omitempty" yaml:"exec_depend,omitempty"`
	Test        []string `json:"test_depend,omitempty" yaml:"test_depend,omitempty"`
	Doc         []string `json:"doc_depend,omitempty" yaml:"doc_depend,omitempty"`
}

// Get returns the list for the given category.
func (d *Dependencies) Get(c Category) []string {
	if list := d.list(c); list != nil {
		return *list
	}
	return nil
}

// Append adds name to the list for category c.
func (d *Dependencies) Append(c Category, name string) {
	if list := d.list(c); list != nil {
		*list = append(*list, name)
	}
}

func (d *Dependencies) list(c Category) *[]string {
	switch c {
	case Depend:
		return &d.Depend
	case BuildTool:
		return &d.BuildTool
	case Build:
		return &d.Build
	case BuildExport:
		return &d.BuildExport
	case Exec:
		return &d.Exec
	case Test:
		return &d.Test
	case Doc:
		return &d.Doc
	default:
		return nil
	}
}

// Each calls fn for every reference, in category order and then in the
// order the references were declared.
func (d *Dependencies) Each(fn func(c Category, name string)) {
	for _, c := range Categories {
		for _, name := range d.Get(c) {
			fn(c, name)
		}
	}
}

// Len returns the total number of references across all categories.
func (d *Dependencies) Len() int {
	n := 0
	for _, c := range Categories {
		n += len(d.Get(c))
	}
	return n
}

// Manifest is the parsed content of a package.xml file.
type Manifest struct {
	// Format is the value of the root element's format attribute.
	Format string

	// Name is the declared package name.
	Name string

	// Dependencies holds the declared references by category.
	Dependencies Dependencies
}
