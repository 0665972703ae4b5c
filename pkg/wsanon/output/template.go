package output

import (
	"bytes"
	"sync"
	"text/template"

	"github.com/dustin/go-humanize"
)

// DefaultTemplate prints one "name token target" line per package.
const DefaultTemplate = `{{range .Packages}}{{.Name}}	{{.Token}}	{{.TargetDir}}
{{end}}`

// TemplateFormatter renders the report with a text/template.
type TemplateFormatter struct {
	mu   sync.Mutex
	text string
	tmpl *template.Template
}

// NewTemplateFormatter creates a formatter for the given template text.
func NewTemplateFormatter(text string) *TemplateFormatter {
	return &TemplateFormatter{text: text}
}

// SetTemplate replaces the template text.
func (f *TemplateFormatter) SetTemplate(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.tmpl = nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// {{bytes .Size}}
		"bytes": func(n int64) string { return humanize.IBytes(uint64(n)) },
		// {{comma .Stats.DirsScanned}}
		"comma": func(n int64) string { return humanize.Comma(n) },
	}
}

// Format writes the report to w.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tmpl == nil {
		tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(f.text)
		if err != nil {
			return err
		}
		f.tmpl = tmpl
	}
	return f.tmpl.Execute(w, r)
}

func init() {
	Register("template", func() Formatter { return NewTemplateFormatter(DefaultTemplate) })
}

var _ Formatter = (*TemplateFormatter)(nil)
