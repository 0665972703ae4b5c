package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/wsanon/pkg/wsanon/logging"
	"github.com/jamesainslie/wsanon/pkg/wsanon/manifest"
	"github.com/jamesainslie/wsanon/pkg/wsanon/types"
)

var logger = logging.Get("scanner")

// Scanner walks a source tree with fastwalk and registers every package
// root it finds.
type Scanner struct {
	opts Options
	root string

	dirsScanned atomic.Int64

	// mu guards claimed, candidates and errors during the walk.
	mu         sync.Mutex
	claimed    *types.ClaimedSet
	candidates []string
	errors     []types.ScanError
}

// New creates a Scanner. Options are validated by Scan.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks the tree and returns the registry of discovered packages.
// Package roots are registered in component-wise lexical path order, so the
// result does not depend on walk scheduling.
func (s *Scanner) Scan(ctx context.Context) (*types.ScanResult, error) {
	start := time.Now()

	if err := s.opts.Validate(); err != nil {
		return nil, err
	}
	root, err := resolveRoot(s.opts.Root)
	if err != nil {
		return nil, err
	}

	s.root = root
	s.claimed = types.NewClaimedSet()
	s.candidates = nil
	s.errors = nil
	s.dirsScanned.Store(0)

	logger.Info("scan started", "root", root, "workers", s.opts.Workers)

	if err := s.discover(ctx); err != nil {
		return nil, err
	}

	sort.Slice(s.candidates, func(i, j int) bool {
		return lessPath(s.candidates[i], s.candidates[j])
	})

	result := &types.ScanResult{
		Root:        root,
		Registry:    types.NewRegistry(),
		Claimed:     s.claimed,
		Errors:      s.errors,
		DirsScanned: s.dirsScanned.Load(),
	}

	if err := s.register(ctx, result); err != nil {
		return nil, err
	}

	result.Elapsed = time.Since(start)
	logger.Info("scan complete",
		"packages", result.Registry.Len(),
		"duplicates", len(result.Duplicates),
		"dirs", result.DirsScanned,
		"errors", len(result.Errors),
		"elapsed", result.Elapsed)
	return result, nil
}

func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("scan root %s: %w", abs, fs.ErrInvalid)
	}
	return abs, nil
}

// discover collects the relative paths of all package roots.
func (s *Scanner) discover(ctx context.Context) error {
	if marker, ok := s.ignored(s.root); ok {
		logger.Info("source root ignored", "root", s.root, "marker", marker)
		return nil
	}

	s.dirsScanned.Add(1)
	if s.qualifies(s.root) {
		s.claim(".")
		return nil
	}

	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: s.opts.Workers,
	}
	err := fastwalk.Walk(&conf, s.root, s.visit(ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("walking %s: %w", s.root, err)
	}
	return ctx.Err()
}

func (s *Scanner) visit(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == s.root {
				return err
			}
			s.addError(path, err)
			logger.Warn("skipping unreadable directory", "path", path, "error", err)
			return nil
		}

		if path == s.root || !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			s.addError(path, relErr)
			return fastwalk.SkipDir
		}
		rel = filepath.ToSlash(rel)

		if s.covered(rel) {
			return fastwalk.SkipDir
		}
		if s.opts.Filter.Excluded(rel) {
			logger.Debug("excluded", "dir", rel)
			return fastwalk.SkipDir
		}
		if marker, ok := s.ignored(path); ok {
			logger.Debug("ignored", "dir", rel, "marker", marker)
			return fastwalk.SkipDir
		}

		s.dirsScanned.Add(1)

		if s.qualifies(path) {
			s.claim(rel)
			return fastwalk.SkipDir
		}
		return nil
	}
}

// qualifies reports whether dir holds both the manifest and the marker.
func (s *Scanner) qualifies(dir string) bool {
	return isFile(filepath.Join(dir, s.opts.ManifestFile)) &&
		isFile(filepath.Join(dir, s.opts.MarkerFile))
}

func (s *Scanner) ignored(dir string) (string, bool) {
	for _, m := range s.opts.IgnoreMarkers {
		if _, err := os.Lstat(filepath.Join(dir, m)); err == nil {
			return m, true
		}
	}
	return "", false
}

func (s *Scanner) covered(rel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimed.Covers(rel)
}

func (s *Scanner) claim(rel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimed.Claim(rel)
	s.candidates = append(s.candidates, rel)
}

func (s *Scanner) addError(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, types.ScanError{Path: path, Error: err.Error()})
}

// register parses each candidate manifest in order and fills the registry.
func (s *Scanner) register(ctx context.Context, result *types.ScanResult) error {
	for _, rel := range s.candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := filepath.Join(s.root, filepath.FromSlash(rel))
		m, err := manifest.ParseFile(filepath.Join(dir, s.opts.ManifestFile), s.opts.Manifest)
		if err != nil {
			return err
		}

		pkg := &types.Package{
			Name:         m.Name,
			Dir:          dir,
			RelDir:       rel,
			Dependencies: m.Dependencies,
		}
		if !result.Registry.Add(pkg) {
			first := result.Registry.Get(m.Name)
			result.Duplicates = append(result.Duplicates, types.Duplicate{
				Name:     m.Name,
				Dir:      rel,
				FirstDir: first.RelDir,
			})
			logger.Warn("duplicate package name ignored", "name", m.Name, "dir", rel, "first", first.RelDir)
			continue
		}
		logger.Debug("package found", "name", m.Name, "dir", rel, "deps", m.Dependencies.Len())
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// lessPath orders slash paths segment by segment, which matches a
// depth-first walk that visits directory entries in lexical order.
func lessPath(a, b string) bool {
	if a == "." || b == "." {
		return a == "." && b != "."
	}
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}

// IsCanceled reports whether err stems from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
