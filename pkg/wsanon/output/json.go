package output

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON writes Duration as a Go duration string.
func (s Stats) MarshalJSON() ([]byte, error) {
	type plain Stats
	return json.Marshal(struct {
		plain
		Duration string `json:"duration"`
	}{plain(s), s.Duration.String()})
}

// JSONFormatter writes the whole report as one indented JSON document.
type JSONFormatter struct{}

// Format writes the report to w.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// JSONLFormatter writes one compact JSON object per package.
type JSONLFormatter struct{}

// Format writes the report to w.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := json.NewEncoder(w)
	for i := range r.Packages {
		if err := enc.Encode(&r.Packages[i]); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	Register("json", func() Formatter { return &JSONFormatter{} })
	Register("jsonl", func() Formatter { return &JSONLFormatter{} })
}

var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*JSONLFormatter)(nil)
)
