// Package output renders the run report of an anonymization: which package
// became which identifier, where it was written, and the directory token
// map. The report is the de-anonymization key, so it is only produced on
// request.
//
// Formatters are looked up by name in a registry:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrUnknownFormat is returned by Get for an unregistered formatter name.
var ErrUnknownFormat = errors.New("unknown format")

// PackageEntry describes one anonymized package.
type PackageEntry struct {
	// Name is the original package name.
	Name string `json:"name" yaml:"name"`

	// Token is the identifier that replaced Name.
	Token string `json:"token" yaml:"token"`

	// SourceDir is the original directory relative to the source root.
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// TargetDir is the new directory relative to the output root.
	TargetDir string `json:"target_dir" yaml:"target_dir"`

	// Dependencies is the number of references kept in the new manifest.
	Dependencies int `json:"dependencies" yaml:"dependencies"`

	// Dropped is the number of references to packages outside the workspace.
	Dropped int `json:"dropped" yaml:"dropped"`

	// Size is the size in bytes of the generated manifest.
	Size int64 `json:"size" yaml:"size"`
}

// DirEntry is one directory segment and its identifier.
type DirEntry struct {
	Segment string `json:"segment" yaml:"segment"`
	Token   string `json:"token" yaml:"token"`
}

// DuplicateEntry is a manifest skipped because its name was taken.
type DuplicateEntry struct {
	Name     string `json:"name" yaml:"name"`
	Dir      string `json:"dir" yaml:"dir"`
	FirstDir string `json:"first_dir" yaml:"first_dir"`
}

// Stats summarizes a run.
type Stats struct {
	Packages    int           `json:"packages" yaml:"packages"`
	Directories int           `json:"directories" yaml:"directories"`
	Duplicates  int           `json:"duplicates" yaml:"duplicates"`
	Dropped     int           `json:"dropped" yaml:"dropped"`
	DirsScanned int64         `json:"dirs_scanned" yaml:"dirs_scanned"`
	Bytes       int64         `json:"bytes" yaml:"bytes"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Result is the report of one run.
type Result struct {
	// RunID identifies the run in logs and reports.
	RunID string `json:"run_id" yaml:"run_id"`

	// Source is the scanned source root.
	Source string `json:"source" yaml:"source"`

	// Output is the generated container directory.
	Output string `json:"output" yaml:"output"`

	// PreserveStructure is true when directory nesting was kept.
	PreserveStructure bool `json:"preserve_structure" yaml:"preserve_structure"`

	// Packages lists packages in identifier order.
	Packages []PackageEntry `json:"packages" yaml:"packages"`

	// Directories lists directory tokens in assignment order.
	Directories []DirEntry `json:"directories,omitempty" yaml:"directories,omitempty"`

	// Duplicates lists skipped manifests.
	Duplicates []DuplicateEntry `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`

	// Warnings holds non-fatal problems, such as unreadable directories.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Digest is the workspace digest of the generated manifests.
	Digest string `json:"digest" yaml:"digest"`

	Stats Stats `json:"stats" yaml:"stats"`
}

// Formatter renders a Result.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps formatter names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a fresh formatter for name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a factory to DefaultRegistry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from DefaultRegistry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available lists the formatters in DefaultRegistry.
func Available() []string {
	return DefaultRegistry.Available()
}

// Render formats r with the named formatter from DefaultRegistry.
func Render(name string, r *Result) ([]byte, error) {
	f, err := Get(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return nil, fmt.Errorf("formatting %s report: %w", name, err)
	}
	return buf.Bytes(), nil
}
