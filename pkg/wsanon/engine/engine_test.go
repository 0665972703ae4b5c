package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/wsanon/pkg/wsanon/manifest"
	"github.com/jamesainslie/wsanon/pkg/wsanon/writer"
)

type pkgDef struct {
	rel  string
	name string
	deps manifest.Dependencies
}

func buildWorkspace(t *testing.T, pkgs ...pkgDef) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range pkgs {
		dir := filepath.Join(root, filepath.FromSlash(p.rel))
		require.NoError(t, os.MkdirAll(dir, 0o755))

		var b strings.Builder
		fmt.Fprintf(&b, "<package format=\"2\">\n  <name>%s</name>\n  <version>0.1.0</version>\n", p.name)
		p.deps.Each(func(c manifest.Category, dep string) {
			fmt.Fprintf(&b, "  <%s>%s</%s>\n", c.Tag(), dep, c.Tag())
		})
		b.WriteString("</package>\n")

		require.NoError(t, os.WriteFile(filepath.Join(dir, "package.xml"), []byte(b.String()), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "CMakeLists.txt"), nil, 0o644))
	}
	return root
}

// readTree returns every file below root keyed by slash path.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func run(t *testing.T, opts Options) *Result {
	t.Helper()
	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	return res
}

func TestRun_AlphaBeta(t *testing.T) {
	src := buildWorkspace(t,
		pkgDef{rel: "alpha", name: "alpha", deps: manifest.Dependencies{Build: []string{"beta", "external_lib"}}},
		pkgDef{rel: "beta", name: "beta"},
	)
	out := t.TempDir()

	var scanned int
	res := run(t, Options{Source: src, Output: out, OnScanned: func(n int) { scanned = n }})

	assert.Equal(t, 2, scanned)
	assert.NotEmpty(t, res.RunID)
	assert.Nil(t, res.Dirs)

	token, ok := res.Names.Lookup("alpha")
	require.True(t, ok)
	assert.Equal(t, "package00000001", token)
	token, ok = res.Names.Lookup("beta")
	require.True(t, ok)
	assert.Equal(t, "package00000002", token)
	_, ok = res.Names.Lookup("external_lib")
	assert.False(t, ok)

	files := readTree(t, out)
	require.Len(t, files, 2)
	alpha := files["src/package00000001/package.xml"]
	assert.Contains(t, alpha, "<build_depend>package00000002</build_depend>")
	assert.NotContains(t, alpha, "external_lib")
	assert.NotContains(t, alpha, "<buildtool_depend>")
	assert.Contains(t, files, "src/package00000002/package.xml")
	assert.Equal(t, 1, res.Written.Dropped)
}

func TestRun_TeamARobotics(t *testing.T) {
	src := buildWorkspace(t,
		pkgDef{rel: "teamA/robotics/alpha", name: "alpha", deps: manifest.Dependencies{Exec: []string{"beta"}}},
		pkgDef{rel: "teamA/robotics/beta", name: "beta"},
	)
	out := t.TempDir()

	res := run(t, Options{Source: src, Output: out, PreserveStructure: true})

	require.NotNil(t, res.Dirs)
	teamA, _ := res.Dirs.Lookup("teamA")
	robotics, _ := res.Dirs.Lookup("robotics")

	files := readTree(t, out)
	assert.Contains(t, files, "src/"+teamA+"/"+robotics+"/package00000001/package.xml")
	assert.Contains(t, files, "src/"+teamA+"/"+robotics+"/package00000002/package.xml")
	for path := range files {
		assert.NotContains(t, path, "team")
		assert.NotContains(t, path, "robotics")
	}
}

func TestRun_Deterministic(t *testing.T) {
	src := buildWorkspace(t,
		pkgDef{rel: "nav/planner", name: "planner", deps: manifest.Dependencies{
			Depend: []string{"msgs"}, Build: []string{"geometry", "roscpp"}, Test: []string{"gtest_utils"},
		}},
		pkgDef{rel: "nav/msgs", name: "msgs"},
		pkgDef{rel: "core/geometry", name: "geometry", deps: manifest.Dependencies{Exec: []string{"msgs"}}},
		pkgDef{rel: "tools/gtest_utils", name: "gtest_utils"},
		pkgDef{rel: "tools/viz", name: "viz", deps: manifest.Dependencies{Doc: []string{"planner"}}},
	)

	opts := Options{Source: src, PreserveStructure: true, BuildTool: "catkin", Workers: 3}

	opts.Output = t.TempDir()
	first := run(t, opts)
	firstFiles := readTree(t, opts.Output)

	opts.Output = t.TempDir()
	second := run(t, opts)
	secondFiles := readTree(t, opts.Output)

	assert.Equal(t, firstFiles, secondFiles)
	assert.Equal(t, first.Written.Digest, second.Written.Digest)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_PreservesEdges(t *testing.T) {
	defs := []pkgDef{
		{rel: "a", name: "a", deps: manifest.Dependencies{Build: []string{"b", "c", "zlib"}, Exec: []string{"b"}}},
		{rel: "x/b", name: "b", deps: manifest.Dependencies{Depend: []string{"c"}, Test: []string{"a"}}},
		{rel: "x/y/c", name: "c", deps: manifest.Dependencies{BuildExport: []string{"boost"}}},
	}
	src := buildWorkspace(t, defs...)
	out := t.TempDir()
	res := run(t, Options{Source: src, Output: out})

	for _, s := range defs {
		target, ok := res.Plan.Target(s.name)
		require.True(t, ok)

		data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(target.Dir), "package.xml"))
		require.NoError(t, err)
		m, err := manifest.Parse(data, manifest.Options{})
		require.NoError(t, err)
		assert.Equal(t, target.Token, m.Name)

		// every surviving edge maps back to an original edge in the same category
		var want, got []string
		s.deps.Each(func(c manifest.Category, dep string) {
			if token, ok := res.Names.Lookup(dep); ok {
				want = append(want, c.Tag()+"="+token)
			}
		})
		m.Dependencies.Each(func(c manifest.Category, dep string) {
			got = append(got, c.Tag()+"="+dep)
		})
		assert.Equal(t, want, got, s.name)
	}
}

func TestRun_FlatAndPreservedDepth(t *testing.T) {
	src := buildWorkspace(t,
		pkgDef{rel: "top", name: "top"},
		pkgDef{rel: "a/b/c/deep", name: "deep"},
	)

	flat := run(t, Options{Source: src, Output: t.TempDir()})
	for _, target := range flat.Plan.Targets() {
		assert.Equal(t, 2, strings.Count(target.Dir, "/")+1, target.Dir)
	}

	kept := run(t, Options{Source: src, Output: t.TempDir(), PreserveStructure: true})
	depths := map[string]int{}
	for _, target := range kept.Plan.Targets() {
		// container + original depth
		depths[target.Name] = strings.Count(target.Dir, "/") + 1
	}
	assert.Equal(t, map[string]int{"top": 2, "deep": 5}, depths)
}

func TestRun_NestedClaimSuppressed(t *testing.T) {
	src := buildWorkspace(t,
		pkgDef{rel: "outer", name: "outer"},
		pkgDef{rel: "outer/test/fixture", name: "fixture"},
	)
	res := run(t, Options{Source: src, Output: t.TempDir()})

	assert.Equal(t, []string{"outer"}, res.Scan.Registry.Names())
	assert.Equal(t, 1, res.Names.Len())
}

func TestRun_Duplicates(t *testing.T) {
	src := buildWorkspace(t,
		pkgDef{rel: "a/common", name: "common"},
		pkgDef{rel: "b/common", name: "common"},
	)
	res := run(t, Options{Source: src, Output: t.TempDir()})

	report := res.Report()
	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, "b/common", report.Duplicates[0].Dir)
	assert.Equal(t, 1, report.Stats.Packages)
}

func TestRun_Errors(t *testing.T) {
	src := buildWorkspace(t, pkgDef{rel: "a", name: "a"})

	_, err := Run(context.Background(), Options{Source: src, Output: src})
	assert.ErrorIs(t, err, writer.ErrOverlap)

	_, err = Run(context.Background(), Options{Source: src, Output: t.TempDir(), Exclude: []string{"[bad"}})
	assert.Error(t, err)

	bad := filepath.Join(src, "broken")
	require.NoError(t, os.MkdirAll(bad, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "package.xml"), []byte("<package>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "CMakeLists.txt"), nil, 0o644))

	_, err = Run(context.Background(), Options{Source: src, Output: t.TempDir()})
	var pe *manifest.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestRun_WriteErrorIsFatal(t *testing.T) {
	src := buildWorkspace(t, pkgDef{rel: "a", name: "a"})
	out := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(out, nil, 0o644))

	res, err := Run(context.Background(), Options{Source: src, Output: out})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), filepath.Join(out, "src"))
}

func TestResult_Report(t *testing.T) {
	src := buildWorkspace(t,
		pkgDef{rel: "g/late", name: "late"},
		pkgDef{rel: "a/early", name: "early", deps: manifest.Dependencies{Depend: []string{"late", "ext"}}},
	)
	res := run(t, Options{Source: src, Output: t.TempDir(), PreserveStructure: true})
	report := res.Report()

	assert.Equal(t, res.RunID, report.RunID)
	assert.Equal(t, res.Written.Digest, report.Digest)
	assert.True(t, report.PreserveStructure)

	require.Len(t, report.Packages, 2)
	assert.Equal(t, "early", report.Packages[0].Name)
	assert.Equal(t, "package00000001", report.Packages[0].Token)
	assert.Equal(t, 1, report.Packages[0].Dependencies)
	assert.Equal(t, 1, report.Packages[0].Dropped)
	assert.Positive(t, report.Packages[0].Size)

	var segments []string
	for _, d := range report.Directories {
		segments = append(segments, d.Segment)
	}
	sort.Strings(segments)
	assert.Equal(t, []string{"a", "g"}, segments)
	assert.Equal(t, 2, report.Stats.Directories)
	assert.Equal(t, 1, report.Stats.Dropped)
}
