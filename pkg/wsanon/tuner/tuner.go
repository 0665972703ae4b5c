// Package tuner picks walk parallelism for the detected machine.
package tuner

import "runtime"

// Walk worker limits.
const (
	// minWalkWorkers is the floor when no override is given. The walk is
	// I/O bound, so it exceeds the core count on small machines.
	minWalkWorkers = 4

	// maxWalkWorkers also caps overrides.
	maxWalkWorkers = 32
)

// Resources describes the machine the walk runs on.
type Resources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int
}

// Detect returns the current machine's resources.
func Detect() Resources {
	return Resources{CPUCores: runtime.NumCPU()}
}

// WalkWorkers returns the walk worker count for r. A positive override wins
// but is still capped.
func WalkWorkers(r Resources, override int) int {
	if override > 0 {
		return min(override, maxWalkWorkers)
	}
	n := max(r.CPUCores, minWalkWorkers)
	return min(n, maxWalkWorkers)
}

// DefaultWalkWorkers is WalkWorkers for the detected machine, no override.
func DefaultWalkWorkers() int {
	return WalkWorkers(Detect(), 0)
}
