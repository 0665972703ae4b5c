// Package scanner discovers package roots in a workspace source tree. A
// package root is a directory holding both a manifest and a build marker;
// its whole subtree belongs to that package and is never searched further.
package scanner

import (
	"errors"
	"strings"

	"github.com/jamesainslie/wsanon/pkg/wsanon/filter"
	"github.com/jamesainslie/wsanon/pkg/wsanon/manifest"
	"github.com/jamesainslie/wsanon/pkg/wsanon/tuner"
)

// Default file names identifying a package root.
const (
	DefaultManifestFile = "package.xml"
	DefaultMarkerFile   = "CMakeLists.txt"
)

// ErrNoRoot is returned when Options.Root is empty.
var ErrNoRoot = errors.New("scan root not set")

// Options configures the scanner.
type Options struct {
	// Root is the source tree to scan.
	Root string

	// ManifestFile is the manifest file name. Empty means package.xml.
	ManifestFile string

	// MarkerFile is the build marker file name. Empty means CMakeLists.txt.
	MarkerFile string

	// Filter excludes directories from the walk. Nil excludes nothing.
	Filter *filter.Filter

	// IgnoreMarkers are file names that, when present in a directory,
	// exclude that directory and its subtree. A marker in the root itself
	// yields an empty result.
	IgnoreMarkers []string

	// Manifest configures manifest parsing.
	Manifest manifest.Options

	// Workers is the number of concurrent walk workers, capped by the
	// tuner. Zero or negative lets the tuner choose.
	Workers int
}

// DefaultOptions returns options for scanning root with catkin file names.
func DefaultOptions(root string) Options {
	return Options{
		Root:         root,
		ManifestFile: DefaultManifestFile,
		MarkerFile:   DefaultMarkerFile,
		Workers:      tuner.DefaultWalkWorkers(),
	}
}

// Validate fills defaults for unset fields and reports unusable options.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.Root) == "" {
		return ErrNoRoot
	}
	if o.ManifestFile == "" {
		o.ManifestFile = DefaultManifestFile
	}
	if o.MarkerFile == "" {
		o.MarkerFile = DefaultMarkerFile
	}
	o.Workers = tuner.WalkWorkers(tuner.Detect(), o.Workers)

	var markers []string
	for _, m := range o.IgnoreMarkers {
		if m = strings.TrimSpace(m); m != "" {
			markers = append(markers, m)
		}
	}
	o.IgnoreMarkers = markers
	return nil
}
