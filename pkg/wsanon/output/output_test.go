package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResult() *Result {
	return &Result{
		RunID:             "5f0c7f0e-1111-4222-8333-444455556666",
		Source:            "/ws/src",
		Output:            "/out/src",
		PreserveStructure: true,
		Packages: []PackageEntry{
			{Name: "alpha", Token: "package00000001", SourceDir: "teamA/robotics/alpha",
				TargetDir: "src/dir00000001/dir00000002/package00000001", Dependencies: 1, Dropped: 1, Size: 420},
			{Name: "beta|pipe", Token: "package00000002", SourceDir: "teamA/robotics/beta",
				TargetDir: "src/dir00000001/dir00000002/package00000002", Size: 380},
		},
		Directories: []DirEntry{
			{Segment: "teamA", Token: "dir00000001"},
			{Segment: "robotics", Token: "dir00000002"},
		},
		Duplicates: []DuplicateEntry{{Name: "alpha", Dir: "old/alpha", FirstDir: "teamA/robotics/alpha"}},
		Warnings:   []string{"unreadable: /ws/src/locked"},
		Digest:     "0123456789abcdef",
		Stats: Stats{
			Packages:    2,
			Directories: 2,
			Duplicates:  1,
			Dropped:     1,
			DirsScanned: 9,
			Bytes:       800,
			Duration:    1500 * time.Millisecond,
		},
	}
}

func format(t *testing.T, name string, r *Result) string {
	t.Helper()
	out, err := Render(name, r)
	require.NoError(t, err)
	return string(out)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("b", func() Formatter { return &PlainFormatter{} })
	reg.Register("a", func() Formatter { return &JSONFormatter{} })

	assert.Equal(t, []string{"a", "b"}, reg.Available())

	f, err := reg.Get("a")
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)

	_, err = reg.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t,
		[]string{"csv", "json", "jsonl", "markdown", "plain", "pretty", "template", "tsv", "yaml"},
		Available())

	_, err := Render("xml", sampleResult())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestJSONFormatter(t *testing.T) {
	out := format(t, "json", sampleResult())

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, "0123456789abcdef", decoded["digest"])
	stats := decoded["stats"].(map[string]interface{})
	assert.Equal(t, "1.5s", stats["duration"])
	assert.Equal(t, float64(2), stats["packages"])

	pkgs := decoded["packages"].([]interface{})
	require.Len(t, pkgs, 2)
	first := pkgs[0].(map[string]interface{})
	assert.Equal(t, "alpha", first["name"])
	assert.Equal(t, "package00000001", first["token"])
}

func TestJSONLFormatter(t *testing.T) {
	out := format(t, "jsonl", sampleResult())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var entry PackageEntry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "package00000002", entry.Token)
}

func TestYAMLFormatter(t *testing.T) {
	out := format(t, "yaml", sampleResult())

	var decoded struct {
		RunID       string         `yaml:"run_id"`
		Packages    []PackageEntry `yaml:"packages"`
		Directories []DirEntry     `yaml:"directories"`
		Stats       struct {
			Duration string `yaml:"duration"`
		} `yaml:"stats"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, sampleResult().RunID, decoded.RunID)
	assert.Equal(t, sampleResult().Packages, decoded.Packages)
	assert.Equal(t, sampleResult().Directories, decoded.Directories)
	assert.Equal(t, "1.5s", decoded.Stats.Duration)
}

func TestCSVFormatter(t *testing.T) {
	out := format(t, "csv", sampleResult())

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, tableHeader, records[0])
	assert.Equal(t, []string{"alpha", "package00000001", "teamA/robotics/alpha",
		"src/dir00000001/dir00000002/package00000001", "1", "1"}, records[1])
}

func TestTSVFormatter(t *testing.T) {
	out := format(t, "tsv", sampleResult())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "NAME\tTOKEN\tSOURCE\tTARGET\tDEPS\tDROPPED", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "beta|pipe\tpackage00000002\t"))
}

func TestMarkdownFormatter(t *testing.T) {
	out := format(t, "markdown", sampleResult())

	assert.Contains(t, out, "| NAME | TOKEN | SOURCE | TARGET | DEPS | DROPPED |")
	assert.Contains(t, out, `| beta\|pipe | package00000002 |`)
	assert.Contains(t, out, "| teamA | dir00000001 |")
	assert.Contains(t, out, "Digest: `0123456789abcdef`")
}

func TestPlainFormatter(t *testing.T) {
	out := format(t, "plain", sampleResult())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"NAME", "TOKEN", "SOURCE", "TARGET", "DEPS", "DROPPED"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"alpha", "package00000001", "teamA/robotics/alpha",
		"src/dir00000001/dir00000002/package00000001", "1", "1"}, strings.Fields(lines[1]))
}

func TestPrettyFormatter(t *testing.T) {
	out := format(t, "pretty", sampleResult())

	for _, want := range []string{
		"/ws/src", "structure preserved", "package00000001", "teamA/robotics/beta",
		"dir00000002", "Duplicates", "old/alpha", "800 B", "1.5s", "0123456789abcdef",
		"unreadable: /ws/src/locked",
	} {
		assert.Contains(t, out, want)
	}
}

func TestPrettyFormatter_Empty(t *testing.T) {
	out := format(t, "pretty", &Result{Source: "/empty"})
	assert.Contains(t, out, "No packages found")
	assert.Contains(t, out, "flat")
	assert.NotContains(t, out, "Directories")
}

func TestTemplateFormatter(t *testing.T) {
	out := format(t, "template", sampleResult())
	assert.Equal(t,
		"alpha\tpackage00000001\tsrc/dir00000001/dir00000002/package00000001\n"+
			"beta|pipe\tpackage00000002\tsrc/dir00000001/dir00000002/package00000002\n",
		out)

	f := NewTemplateFormatter("{{len .Packages}} packages, {{bytes .Stats.Bytes}}, {{comma .Stats.DirsScanned}} dirs")
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleResult()))
	assert.Equal(t, "2 packages, 800 B, 9 dirs", buf.String())

	f.SetTemplate("{{.Nope")
	assert.Error(t, f.Format(&buf, sampleResult()))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "2.5s", formatDuration(2500*time.Millisecond))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
}
