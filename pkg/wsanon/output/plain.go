package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter writes an aligned, unstyled table of packages.
type PlainFormatter struct{}

// Format writes the report to w.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "NAME\tTOKEN\tSOURCE\tTARGET\tDEPS\tDROPPED"); err != nil {
		return err
	}
	for _, p := range r.Packages {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			p.Name, p.Token, p.SourceDir, p.TargetDir, p.Dependencies, p.Dropped); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter { return &PlainFormatter{} })
}

var _ Formatter = (*PlainFormatter)(nil)
