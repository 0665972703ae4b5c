package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_InsertionOrder(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Add(&Package{Name: "zeta", RelDir: "z"}))
	require.True(t, r.Add(&Package{Name: "alpha", RelDir: "a"}))
	require.True(t, r.Add(&Package{Name: "mid", RelDir: "m"}))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.Names())
	assert.Equal(t, 3, r.Len())

	pkgs := r.Packages()
	require.Len(t, pkgs, 3)
	assert.Equal(t, "zeta", pkgs[0].Name)
	assert.Equal(t, "mid", pkgs[2].Name)
}

func TestRegistry_FirstWins(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Add(&Package{Name: "dup", RelDir: "first"}))
	assert.False(t, r.Add(&Package{Name: "dup", RelDir: "second"}))

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "first", r.Get("dup").RelDir)
	assert.True(t, r.Has("dup"))
	assert.False(t, r.Has("other"))
	assert.Nil(t, r.Get("other"))
}

func TestRegistry_NamesIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Add(&Package{Name: "a"})
	names := r.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestClaimedSet(t *testing.T) {
	s := NewClaimedSet()
	s.Claim("teamA/robotics/alpha")
	s.Claim("tools")

	tests := []struct {
		dir  string
		want bool
	}{
		{"teamA/robotics/alpha", true},
		{"teamA/robotics/alpha/build/gen", true},
		{"teamA/robotics", false},
		{"teamA/robotics/alphabet", false},
		{"teamA", false},
		{"tools", true},
		{"tools/x", true},
		{"toolsmith", false},
		{".", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Covers(tt.dir))
		})
	}
	assert.Equal(t, 2, s.Len())
}

func TestClaimedSet_Root(t *testing.T) {
	s := NewClaimedSet()
	s.Claim(".")
	s.Claim(".")

	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Covers("."))
	assert.True(t, s.Covers("anything/below"))
}
