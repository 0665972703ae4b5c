package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter renders a styled terminal report with lipgloss.
type PrettyFormatter struct{}

// Format writes the report to w.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.header(r))
	w.WriteString("\n")

	w.WriteString(f.packages(r))

	if len(r.Directories) > 0 {
		w.WriteString("\n")
		w.WriteString(f.directories(r))
	}
	if len(r.Duplicates) > 0 {
		w.WriteString("\n")
		w.WriteString(f.duplicates(r))
	}

	w.WriteString(f.footer(r))
	w.WriteString("\n")

	if len(r.Warnings) > 0 {
		w.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
		w.WriteString("\n")
		for _, warning := range r.Warnings {
			w.WriteString(WarningStyle.Render("  " + warning))
			w.WriteString("\n")
		}
	}
	return nil
}

func (f *PrettyFormatter) header(r *Result) string {
	layout := "flat"
	if r.PreserveStructure {
		layout = "structure preserved"
	}
	lines := []string{
		field("Source:", r.Source),
		field("Output:", r.Output),
		field("Layout:", layout) + "  " + field("Run:", r.RunID),
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) packages(r *Result) string {
	if len(r.Packages) == 0 {
		return MutedStyle.Render("  No packages found") + "\n"
	}

	nameWidth, srcWidth := len("NAME"), len("SOURCE")
	for _, p := range r.Packages {
		nameWidth = max(nameWidth, len(p.Name))
		srcWidth = max(srcWidth, len(p.SourceDir))
	}

	var sb strings.Builder
	sb.WriteString(SectionStyle.Render("Packages"))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("NAME", nameWidth)),
		TableHeaderStyle.Render(padRight("TOKEN", 15)),
		TableHeaderStyle.Render(padRight("SOURCE", srcWidth)),
		TableHeaderStyle.Render("TARGET"))
	for _, p := range r.Packages {
		fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
			ValueStyle.Render(padRight(p.Name, nameWidth)),
			TokenStyle.Render(padRight(p.Token, 15)),
			MutedStyle.Render(padRight(p.SourceDir, srcWidth)),
			ValueStyle.Render(p.TargetDir))
	}
	return sb.String()
}

func (f *PrettyFormatter) directories(r *Result) string {
	width := 0
	for _, d := range r.Directories {
		width = max(width, len(d.Segment))
	}

	var sb strings.Builder
	sb.WriteString(SectionStyle.Render("Directories"))
	sb.WriteString("\n")
	for _, d := range r.Directories {
		fmt.Fprintf(&sb, "  %s  %s\n", ValueStyle.Render(padRight(d.Segment, width)), TokenStyle.Render(d.Token))
	}
	return sb.String()
}

func (f *PrettyFormatter) duplicates(r *Result) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Duplicates (ignored)"))
	sb.WriteString("\n")
	for _, d := range r.Duplicates {
		fmt.Fprintf(&sb, "  %s %s %s\n",
			WarningStyle.Render(d.Name),
			MutedStyle.Render("at "+d.Dir+", kept"),
			ValueStyle.Render(d.FirstDir))
	}
	return sb.String()
}

func (f *PrettyFormatter) footer(r *Result) string {
	parts := []string{
		field("Packages:", strconv.Itoa(r.Stats.Packages)),
		field("Dropped deps:", strconv.Itoa(r.Stats.Dropped)),
		field("Written:", humanize.IBytes(uint64(r.Stats.Bytes))),
		field("Took:", formatDuration(r.Stats.Duration)),
	}
	if r.Digest != "" {
		parts = append(parts, field("Digest:", r.Digest))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func field(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration renders d as milliseconds below a second, tenths of a
// second below a minute and whole seconds beyond.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

func init() {
	Register("pretty", func() Formatter { return &PrettyFormatter{} })
}

var _ Formatter = (*PrettyFormatter)(nil)
