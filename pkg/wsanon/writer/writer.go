package writer

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/viant/afs"

	"github.com/jamesainslie/wsanon/pkg/wsanon/logging"
	"github.com/jamesainslie/wsanon/pkg/wsanon/manifest"
)

var logger = logging.Get("writer")

// ErrOverlap is returned when the output container and the source tree
// contain one another. Resetting the container would then destroy input.
var ErrOverlap = errors.New("output container overlaps source tree")

// digestKey keys the workspace digest. It is fixed so digests are
// comparable across runs and machines.
var digestKey = []byte("wsanon.workspace.digest.key.v1..")

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// Options configures a Writer.
type Options struct {
	// Output is the directory receiving the container. Empty means the
	// current directory.
	Output string

	// Source is the scanned source root, used to refuse overlapping output.
	// Empty skips the check.
	Source string

	// ManifestFile is the manifest file name. Empty means package.xml.
	ManifestFile string

	// BuildTool, when non-empty, is injected as a build-tool dependency of
	// every package.
	BuildTool string

	// FS is the storage service. Nil uses afs.New().
	FS afs.Service
}

// Written describes one generated manifest.
type Written struct {
	Name         string `json:"name" yaml:"name"`
	Token        string `json:"token" yaml:"token"`
	Dir          string `json:"dir" yaml:"dir"`
	Path         string `json:"path" yaml:"path"`
	Size         int    `json:"size" yaml:"size"`
	Dependencies int    `json:"dependencies" yaml:"dependencies"`
	Dropped      int    `json:"dropped" yaml:"dropped"`
}

// WriteResult summarizes a write.
type WriteResult struct {
	// Root is the absolute output container directory.
	Root string `json:"root" yaml:"root"`

	Manifests int   `json:"manifests" yaml:"manifests"`
	Bytes     int64 `json:"bytes" yaml:"bytes"`

	// Dropped counts references removed because they named no package in
	// the workspace.
	Dropped int `json:"dropped" yaml:"dropped"`

	// Digest is a hex HighwayHash-64 over every manifest path and content
	// in write order.
	Digest string `json:"digest" yaml:"digest"`

	Packages []Written `json:"packages" yaml:"packages"`
}

// Writer materializes a Plan.
type Writer struct {
	opts Options
	fs   afs.Service
}

// New creates a Writer.
func New(opts Options) *Writer {
	if opts.ManifestFile == "" {
		opts.ManifestFile = "package.xml"
	}
	if opts.Output == "" {
		opts.Output = "."
	}
	fs := opts.FS
	if fs == nil {
		fs = afs.New()
	}
	return &Writer{opts: opts, fs: fs}
}

// Write deletes and recreates the plan's container below the output
// directory, then writes one manifest per target in plan order.
func (w *Writer) Write(ctx context.Context, plan *Plan) (*WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := filepath.Abs(w.opts.Output)
	if err != nil {
		return nil, fmt.Errorf("resolving output %s: %w", w.opts.Output, err)
	}
	container := filepath.Join(out, filepath.FromSlash(plan.Container))

	if w.opts.Source != "" {
		if err := checkOverlap(container, w.opts.Source); err != nil {
			return nil, err
		}
	}

	if err := w.reset(ctx, container); err != nil {
		return nil, err
	}

	hash, err := highwayhash.New64(digestKey)
	if err != nil {
		return nil, fmt.Errorf("creating digest: %w", err)
	}

	result := &WriteResult{Root: container}
	renderOpts := manifest.RenderOptions{BuildTool: w.opts.BuildTool}

	for _, t := range plan.Targets() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := filepath.Join(out, filepath.FromSlash(t.Dir))
		if err := w.fs.Create(ctx, dir, dirMode, true); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}

		data := manifest.Render(t.Token, t.Dependencies, renderOpts)
		file := filepath.Join(dir, w.opts.ManifestFile)
		if err := w.fs.Upload(ctx, file, fileMode, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", file, err)
		}

		rel := path.Join(t.Dir, w.opts.ManifestFile)
		_, _ = hash.Write([]byte(rel))
		_, _ = hash.Write([]byte{0})
		_, _ = hash.Write(data)
		_, _ = hash.Write([]byte{0})

		if t.Dropped > 0 {
			logger.Debug("dropped external references", "package", t.Token, "count", t.Dropped)
		}

		result.Manifests++
		result.Bytes += int64(len(data))
		result.Dropped += t.Dropped
		result.Packages = append(result.Packages, Written{
			Name:         t.Name,
			Token:        t.Token,
			Dir:          t.Dir,
			Path:         rel,
			Size:         len(data),
			Dependencies: t.Dependencies.Len(),
			Dropped:      t.Dropped,
		})
	}

	result.Digest = hex.EncodeToString(hash.Sum(nil))
	logger.Info("workspace written",
		"root", container,
		"manifests", result.Manifests,
		"bytes", result.Bytes,
		"dropped", result.Dropped,
		"digest", result.Digest)
	return result, nil
}

// reset leaves an empty container directory behind.
func (w *Writer) reset(ctx context.Context, container string) error {
	exists, err := w.fs.Exists(ctx, container)
	if err != nil {
		return fmt.Errorf("checking %s: %w", container, err)
	}
	if exists {
		logger.Debug("removing previous output", "dir", container)
		if err := w.fs.Delete(ctx, container); err != nil {
			return fmt.Errorf("removing %s: %w", container, err)
		}
	}
	if err := w.fs.Create(ctx, container, dirMode, true); err != nil {
		return fmt.Errorf("creating %s: %w", container, err)
	}
	return nil
}

// checkOverlap fails when either directory equals or contains the other.
func checkOverlap(container, source string) error {
	c := canonical(container)
	s := canonical(source)
	if within(c, s) || within(s, c) {
		return fmt.Errorf("%w: %s and %s", ErrOverlap, container, source)
	}
	return nil
}

// canonical returns an absolute, cleaned path with symlinks resolved for
// the longest existing prefix.
func canonical(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	var rest []string
	cur := abs
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// within reports whether p equals dir or lies below it.
func within(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
