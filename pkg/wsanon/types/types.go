// Package types provides the core data types shared by the workspace
// anonymizer: discovered packages, the insertion-ordered package registry,
// the claimed-directory set, and scan results.
package types

import (
	"time"

	"github.com/jamesainslie/wsanon/pkg/wsanon/manifest"
)

// Package is one discovered package.
type Package struct {
	// Name is the declared package name; it is the registry key.
	Name string `json:"name" yaml:"name"`

	// Dir is the absolute source directory of the package.
	Dir string `json:"dir" yaml:"dir"`

	// RelDir is Dir relative to the scan root, slash-separated.
	// It is "." when the root itself is the package.
	RelDir string `json:"rel_dir" yaml:"rel_dir"`

	// Dependencies holds the references declared by the manifest.
	Dependencies manifest.Dependencies `json:"dependencies" yaml:"dependencies"`
}

// Duplicate records a manifest whose name was already registered.
type Duplicate struct {
	// Name is the declared package name.
	Name string `json:"name" yaml:"name"`

	// Dir is the directory of the ignored manifest (relative, slash-separated).
	Dir string `json:"dir" yaml:"dir"`

	// FirstDir is the directory of the registered package with that name.
	FirstDir string `json:"first_dir" yaml:"first_dir"`
}

// ScanResult contains the outcome of a workspace scan.
type ScanResult struct {
	// Root is the absolute path that was scanned.
	Root string `json:"root"`

	// Registry holds discovered packages in discovery order.
	Registry *Registry `json:"-"`

	// Claimed holds every directory attributed to a package, including
	// directories whose manifest lost to an earlier duplicate.
	Claimed *ClaimedSet `json:"-"`

	// Duplicates lists manifests ignored because their name was taken.
	Duplicates []Duplicate `json:"duplicates,omitempty"`

	// Errors contains directories that could not be read. They are skipped.
	Errors []ScanError `json:"errors,omitempty"`

	// DirsScanned is the number of directories visited.
	DirsScanned int64 `json:"dirs_scanned"`

	// Elapsed is the total time taken by the scan.
	Elapsed time.Duration `json:"elapsed"`
}

// ScanError represents an error encountered during scanning.
type ScanError struct {
	// Path is the directory where the error occurred.
	Path string `json:"path" yaml:"path"`

	// Error is the error message describing what went wrong.
	Error string `json:"error" yaml:"error"`
}
