package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Placeholder metadata written into every generated manifest.
const (
	PlaceholderVersion     = "1.0.0"
	PlaceholderDescription = "Sample package for benchmark"
	PlaceholderMaintainer  = "Some User"
	PlaceholderEmail       = "someone@somewhere.there"
	PlaceholderLicense     = "BSD"
)

// DefaultBuildTool is the build tool injected when none is configured.
const DefaultBuildTool = "catkin"

// RenderOptions controls manifest generation.
type RenderOptions struct {
	// BuildTool, when non-empty, adds a leading <buildtool_depend> on it.
	BuildTool string
}

// Render produces a format 2 package.xml for name with the given
// dependencies. Element text is XML-escaped.
func Render(name string, deps Dependencies, opts RenderOptions) []byte {
	var b bytes.Buffer

	b.WriteString("<?xml version=\"1.0\"?>\n")
	b.WriteString("<package format=\"2\">\n")
	writeElement(&b, "name", name)
	fmt.Fprintf(&b, "  <version>%s</version>\n", PlaceholderVersion)
	fmt.Fprintf(&b, "  <description>%s</description>\n", PlaceholderDescription)
	fmt.Fprintf(&b, "  <maintainer email=\"%s\">%s</maintainer>\n", PlaceholderEmail, PlaceholderMaintainer)
	fmt.Fprintf(&b, "  <license>%s</license>\n", PlaceholderLicense)

	if opts.BuildTool != "" {
		writeElement(&b, BuildTool.Tag(), opts.BuildTool)
	}

	deps.Each(func(c Category, dep string) {
		writeElement(&b, c.Tag(), dep)
	})

	b.WriteString("</package>\n")
	return b.Bytes()
}

func writeElement(b *bytes.Buffer, tag, value string) {
	fmt.Fprintf(b, "  <%s>", tag)
	_ = xml.EscapeText(b, []byte(value))
	fmt.Fprintf(b, "</%s>\n", tag)
}
