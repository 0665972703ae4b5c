// Package writer lays out the anonymized workspace: it decides where every
// package goes, rewrites its dependencies to the new names and stores the
// generated manifests through an afs storage service.
package writer

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/jamesainslie/wsanon/pkg/wsanon/anonymize"
	"github.com/jamesainslie/wsanon/pkg/wsanon/manifest"
	"github.com/jamesainslie/wsanon/pkg/wsanon/types"
)

// DefaultContainer is the directory under the output root that receives
// every package.
const DefaultContainer = "src"

// ErrInvalidContainer is returned for a container that is not a plain
// relative path inside the output root.
var ErrInvalidContainer = errors.New("invalid container")

// PlanOptions controls target path selection.
type PlanOptions struct {
	// Container is the relative directory holding all packages.
	// Empty means DefaultContainer.
	Container string

	// PreserveStructure keeps the original nesting, with every parent
	// directory segment replaced by its identifier.
	PreserveStructure bool
}

// Target is one package placed in the output workspace.
type Target struct {
	// Name is the original package name.
	Name string `json:"name" yaml:"name"`

	// Token is the identifier replacing Name.
	Token string `json:"token" yaml:"token"`

	// SourceDir is the package directory relative to the source root.
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// Dir is the slash-separated target directory relative to the output root.
	Dir string `json:"dir" yaml:"dir"`

	// Dependencies holds the surviving references, already renamed.
	Dependencies manifest.Dependencies `json:"dependencies" yaml:"dependencies"`

	// Dropped counts references to names outside the workspace.
	Dropped int `json:"dropped" yaml:"dropped"`
}

// Plan is the complete layout of the output workspace.
type Plan struct {
	Container         string `json:"container" yaml:"container"`
	PreserveStructure bool   `json:"preserve_structure" yaml:"preserve_structure"`

	targets []*Target
	byName  map[string]*Target
}

// NewPlan places every registered package. In flat mode each package lands
// in <container>/<token>; with PreserveStructure it lands in
// <container>/<dir tokens...>/<token>.
func NewPlan(reg *types.Registry, names *anonymize.NameMap, dirs *anonymize.DirMap, opts PlanOptions) (*Plan, error) {
	container, err := cleanContainer(opts.Container)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Container:         container,
		PreserveStructure: opts.PreserveStructure,
		byName:            make(map[string]*Target, reg.Len()),
	}

	for _, pkg := range reg.Packages() {
		token, ok := names.Lookup(pkg.Name)
		if !ok {
			return nil, fmt.Errorf("package %s has no identifier", pkg.Name)
		}

		parts := []string{container}
		if opts.PreserveStructure {
			if dirs == nil {
				return nil, fmt.Errorf("package %s: preserving structure needs a directory map", pkg.Name)
			}
			tokens, ok := dirs.Translate(pkg.RelDir)
			if !ok {
				return nil, fmt.Errorf("package %s: directory %s has no identifiers", pkg.Name, pkg.RelDir)
			}
			parts = append(parts, tokens...)
		}
		parts = append(parts, token)

		deps, dropped := rename(pkg.Dependencies, names)
		t := &Target{
			Name:         pkg.Name,
			Token:        token,
			SourceDir:    pkg.RelDir,
			Dir:          path.Join(parts...),
			Dependencies: deps,
			Dropped:      dropped,
		}
		p.targets = append(p.targets, t)
		p.byName[pkg.Name] = t
	}
	return p, nil
}

// Targets returns the placements in registry order.
func (p *Plan) Targets() []*Target {
	return p.targets
}

// Target returns the placement of the package originally named name.
func (p *Plan) Target(name string) (*Target, bool) {
	t, ok := p.byName[name]
	return t, ok
}

// Len returns the number of placed packages.
func (p *Plan) Len() int {
	return len(p.targets)
}

// rename maps every reference to its identifier, keeping category and
// declaration order, and drops references without one.
func rename(deps manifest.Dependencies, names *anonymize.NameMap) (manifest.Dependencies, int) {
	var out manifest.Dependencies
	dropped := 0
	deps.Each(func(c manifest.Category, dep string) {
		token, ok := names.Lookup(dep)
		if !ok {
			dropped++
			return
		}
		out.Append(c, token)
	})
	return out, dropped
}

func cleanContainer(c string) (string, error) {
	c = strings.TrimSpace(c)
	if c == "" {
		return DefaultContainer, nil
	}
	c = path.Clean(strings.ReplaceAll(c, "\\", "/"))
	if c == "." || c == ".." || strings.HasPrefix(c, "../") || path.IsAbs(c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidContainer, c)
	}
	return c, nil
}
