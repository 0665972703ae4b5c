package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrMalformed is returned when a manifest is not a well-formed package document.
var ErrMalformed = errors.New("malformed manifest")

// ErrMissingName is returned when a manifest declares no usable name.
var ErrMissingName = errors.New("manifest has no name")

// ParseError reports a manifest that could not be read.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parsing manifest: %v", e.Err)
	}
	return fmt.Sprintf("parsing manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options tunes how manifests are read.
type Options struct {
	// LegacyRunDepend folds format 1 <run_depend> entries into the
	// exec_depend category, after any explicit exec_depend entries.
	LegacyRunDepend bool
}

// packageXML mirrors the subset of package.xml that matters here.
type packageXML struct {
	XMLName     xml.Name `xml:"package"`
	Format      string   `xml:"format,attr"`
	Names       []string `xml:"name"`
	Depend      []string `xml:"depend"`
	BuildTool   []string `xml:"buildtool_depend"`
	Build       []string `xml:"build_depend"`
	BuildExport []string `xml:"build_export_depend"`
	Exec        []string `xml:"exec_depend"`
	Run         []string `xml:"run_depend"`
	Test        []string `xml:"test_depend"`
	Doc         []string `xml:"doc_depend"`
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string, opts Options) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	m, err := Parse(data, opts)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return m, nil
}

// Parse parses manifest content. The first <name> element wins; dependency
// lists keep their declaration order.
func Parse(data []byte, opts Options) (*Manifest, error) {
	var doc packageXML
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	if len(doc.Names) == 0 {
		return nil, &ParseError{Err: ErrMissingName}
	}
	name := strings.TrimSpace(doc.Names[0])
	if name == "" {
		return nil, &ParseError{Err: fmt.Errorf("%w: empty <name> element", ErrMissingName)}
	}

	m := &Manifest{
		Format: doc.Format,
		Name:   name,
	}

	exec := doc.Exec
	if opts.LegacyRunDepend {
		exec = append(append([]string(nil), doc.Exec...), doc.Run...)
	}

	lists := []struct {
		cat Category
		raw []string
		dst *[]string
	}{
		{Depend, doc.Depend, &m.Dependencies.Depend},
		{BuildTool, doc.BuildTool, &m.Dependencies.BuildTool},
		{Build, doc.Build, &m.Dependencies.Build},
		{BuildExport, doc.BuildExport, &m.Dependencies.BuildExport},
		{Exec, exec, &m.Dependencies.Exec},
		{Test, doc.Test, &m.Dependencies.Test},
		{Doc, doc.Doc, &m.Dependencies.Doc},
	}
	for _, l := range lists {
		names, err := trimAll(l.cat, l.raw)
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		*l.dst = names
	}

	return m, nil
}

// trimAll trims every entry and rejects empty elements.
func trimAll(c Category, raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("%w: empty <%s> element", ErrMalformed, c.Tag())
		}
		out = append(out, s)
	}
	return out, nil
}
