package types

import "strings"

// ClaimedSet records directories already attributed to a package.
// Paths are slash-separated and relative to the scan root; "." or ""
// denotes the root. Lookups cost one step per path segment.
type ClaimedSet struct {
	root claimNode
	n    int
}

type claimNode struct {
	claimed  bool
	children map[string]*claimNode
}

// NewClaimedSet creates an empty set.
func NewClaimedSet() *ClaimedSet {
	return &ClaimedSet{}
}

// Claim marks dir as a package root. Claiming twice is a no-op.
func (s *ClaimedSet) Claim(dir string) {
	node := &s.root
	for _, seg := range segments(dir) {
		if node.children == nil {
			node.children = make(map[string]*claimNode)
		}
		child, ok := node.children[seg]
		if !ok {
			child = &claimNode{}
			node.children[seg] = child
		}
		node = child
	}
	if !node.claimed {
		node.claimed = true
		s.n++
	}
}

// Covers reports whether dir or one of its ancestors has been claimed.
func (s *ClaimedSet) Covers(dir string) bool {
	node := &s.root
	if node.claimed {
		return true
	}
	for _, seg := range segments(dir) {
		child, ok := node.children[seg]
		if !ok {
			return false
		}
		if child.claimed {
			return true
		}
		node = child
	}
	return false
}

// Len returns the number of claimed directories.
func (s *ClaimedSet) Len() int {
	return s.n
}

func segments(dir string) []string {
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return nil
	}
	return strings.Split(dir, "/")
}
