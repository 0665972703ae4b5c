package output

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes the report as a YAML document.
type YAMLFormatter struct{}

// Format writes the report to w.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	Register("yaml", func() Formatter { return &YAMLFormatter{} })
}

var _ Formatter = (*YAMLFormatter)(nil)
