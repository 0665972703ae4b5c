// Package engine runs one anonymization: scan the source tree, assign
// identifiers, plan the output layout and write it. All state lives in the
// returned Result; nothing is kept between runs.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"

	"github.com/jamesainslie/wsanon/pkg/wsanon/anonymize"
	"github.com/jamesainslie/wsanon/pkg/wsanon/filter"
	"github.com/jamesainslie/wsanon/pkg/wsanon/logging"
	"github.com/jamesainslie/wsanon/pkg/wsanon/manifest"
	"github.com/jamesainslie/wsanon/pkg/wsanon/output"
	"github.com/jamesainslie/wsanon/pkg/wsanon/scanner"
	"github.com/jamesainslie/wsanon/pkg/wsanon/types"
	"github.com/jamesainslie/wsanon/pkg/wsanon/writer"
)

var logger = logging.Get("engine")

// Options configures a run.
type Options struct {
	// Source is the workspace source tree to anonymize.
	Source string

	// Output is the directory that receives the container.
	Output string

	// Container is the directory under Output holding all packages.
	Container string

	// PreserveStructure keeps directory nesting with renamed segments.
	PreserveStructure bool

	// BuildTool, when non-empty, is added as a build-tool dependency of
	// every generated manifest.
	BuildTool string

	// ManifestFile and MarkerFile identify package roots.
	ManifestFile string
	MarkerFile   string

	// Exclude holds glob patterns for directories to skip.
	Exclude []string

	// IgnoreMarkers are file names that exclude their directory.
	IgnoreMarkers []string

	// LegacyRunDepend reads format 1 <run_depend> as exec_depend.
	LegacyRunDepend bool

	// Workers is the number of concurrent walk workers.
	Workers int

	// FS is the storage service for the output. Nil uses afs.New().
	FS afs.Service

	// OnScanned, if set, receives the number of packages found.
	OnScanned func(n int)
}

// Result holds everything a run produced.
type Result struct {
	RunID   string
	Scan    *types.ScanResult
	Names   *anonymize.NameMap
	Dirs    *anonymize.DirMap
	Plan    *writer.Plan
	Written *writer.WriteResult
	Elapsed time.Duration
}

// Run performs one anonymization.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.With("run", runID)

	f, err := filter.New(filter.WithExclude(opts.Exclude...))
	if err != nil {
		return nil, err
	}

	log.Info("run started", "source", opts.Source, "output", opts.Output, "preserve", opts.PreserveStructure)

	scanOpts := scanner.DefaultOptions(opts.Source)
	scanOpts.Filter = f
	scanOpts.IgnoreMarkers = opts.IgnoreMarkers
	scanOpts.Manifest = manifest.Options{LegacyRunDepend: opts.LegacyRunDepend}
	if opts.ManifestFile != "" {
		scanOpts.ManifestFile = opts.ManifestFile
	}
	if opts.MarkerFile != "" {
		scanOpts.MarkerFile = opts.MarkerFile
	}
	if opts.Workers > 0 {
		scanOpts.Workers = opts.Workers
	}

	scan, err := scanner.New(scanOpts).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", opts.Source, err)
	}
	if opts.OnScanned != nil {
		opts.OnScanned(scan.Registry.Len())
	}

	names := anonymize.Names(scan.Registry)
	log.Debug("names assigned", "count", names.Len())

	var dirs *anonymize.DirMap
	if opts.PreserveStructure {
		dirs = anonymize.Dirs(scan.Registry)
		log.Debug("directories assigned", "count", dirs.Len())
	}

	plan, err := writer.NewPlan(scan.Registry, names, dirs, writer.PlanOptions{
		Container:         opts.Container,
		PreserveStructure: opts.PreserveStructure,
	})
	if err != nil {
		return nil, fmt.Errorf("planning output: %w", err)
	}

	w := writer.New(writer.Options{
		Output:       opts.Output,
		Source:       scan.Root,
		ManifestFile: scanOpts.ManifestFile,
		BuildTool:    opts.BuildTool,
		FS:           opts.FS,
	})
	written, err := w.Write(ctx, plan)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:   runID,
		Scan:    scan,
		Names:   names,
		Dirs:    dirs,
		Plan:    plan,
		Written: written,
		Elapsed: time.Since(start),
	}
	log.Info("run complete", "packages", plan.Len(), "digest", written.Digest, "elapsed", result.Elapsed)
	return result, nil
}

// Report converts the result into a run report.
func (r *Result) Report() *output.Result {
	rep := &output.Result{
		RunID:             r.RunID,
		Source:            r.Scan.Root,
		Output:            r.Written.Root,
		PreserveStructure: r.Plan.PreserveStructure,
		Digest:            r.Written.Digest,
		Stats: output.Stats{
			Packages:    r.Plan.Len(),
			Duplicates:  len(r.Scan.Duplicates),
			Dropped:     r.Written.Dropped,
			DirsScanned: r.Scan.DirsScanned,
			Bytes:       r.Written.Bytes,
			Duration:    r.Elapsed,
		},
	}

	sizes := make(map[string]int, len(r.Written.Packages))
	for _, w := range r.Written.Packages {
		sizes[w.Name] = w.Size
	}

	// Identifier order, which is the order numbers were handed out.
	for _, e := range r.Names.Entries() {
		t, ok := r.Plan.Target(e.Original)
		if !ok {
			continue
		}
		rep.Packages = append(rep.Packages, output.PackageEntry{
			Name:         t.Name,
			Token:        t.Token,
			SourceDir:    t.SourceDir,
			TargetDir:    t.Dir,
			Dependencies: t.Dependencies.Len(),
			Dropped:      t.Dropped,
			Size:         int64(sizes[t.Name]),
		})
	}

	if r.Dirs != nil {
		for _, e := range r.Dirs.Entries() {
			rep.Directories = append(rep.Directories, output.DirEntry{Segment: e.Original, Token: e.Token})
		}
		rep.Stats.Directories = r.Dirs.Len()
	}

	for _, d := range r.Scan.Duplicates {
		rep.Duplicates = append(rep.Duplicates, output.DuplicateEntry{Name: d.Name, Dir: d.Dir, FirstDir: d.FirstDir})
	}
	for _, e := range r.Scan.Errors {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("skipped %s: %s", e.Path, e.Error))
	}
	return rep
}
