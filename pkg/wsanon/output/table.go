package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

var tableHeader = []string{"NAME", "TOKEN", "SOURCE", "TARGET", "DEPS", "DROPPED"}

func tableRow(p PackageEntry) []string {
	return []string{
		p.Name,
		p.Token,
		p.SourceDir,
		p.TargetDir,
		strconv.Itoa(p.Dependencies),
		strconv.Itoa(p.Dropped),
	}
}

// TSVFormatter writes packages as tab-separated values with a header row.
type TSVFormatter struct{}

// Format writes the report to w.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(strings.Join(tableHeader, "\t"))
	w.WriteByte('\n')
	for _, p := range r.Packages {
		w.WriteString(strings.Join(tableRow(p), "\t"))
		w.WriteByte('\n')
	}
	return nil
}

// CSVFormatter writes packages as RFC 4180 CSV.
type CSVFormatter struct{}

// Format writes the report to w.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for _, p := range r.Packages {
		if err := cw.Write(tableRow(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarkdownFormatter writes a GitHub-flavored Markdown report.
type MarkdownFormatter struct{}

// Format writes the report to w.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	writeMarkdownTable(w, tableHeader, len(r.Packages), func(i int) []string {
		return tableRow(r.Packages[i])
	})

	if len(r.Directories) > 0 {
		w.WriteString("\n")
		writeMarkdownTable(w, []string{"SEGMENT", "TOKEN"}, len(r.Directories), func(i int) []string {
			return []string{r.Directories[i].Segment, r.Directories[i].Token}
		})
	}

	if r.Digest != "" {
		fmt.Fprintf(w, "\nDigest: `%s`\n", r.Digest)
	}
	return nil
}

func writeMarkdownTable(w *bytes.Buffer, header []string, n int, row func(int) []string) {
	w.WriteString("| " + strings.Join(header, " | ") + " |\n")
	w.WriteString("|" + strings.Repeat("------|", len(header)) + "\n")
	for i := 0; i < n; i++ {
		cells := row(i)
		for j, c := range cells {
			cells[j] = escapeMarkdownPipe(c)
		}
		w.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("tsv", func() Formatter { return &TSVFormatter{} })
	Register("csv", func() Formatter { return &CSVFormatter{} })
	Register("markdown", func() Formatter { return &MarkdownFormatter{} })
}

var (
	_ Formatter = (*TSVFormatter)(nil)
	_ Formatter = (*CSVFormatter)(nil)
	_ Formatter = (*MarkdownFormatter)(nil)
)
