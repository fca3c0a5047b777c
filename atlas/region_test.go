package atlas

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegion_IsEmpty(t *testing.T) {
	assert.True(t, Region{}.IsEmpty())
	assert.True(t, Region{X: 3, Y: 4, Width: 0, Height: 9}.IsEmpty())
	assert.True(t, Region{X: 3, Y: 4, Width: 9, Height: 0}.IsEmpty())
	assert.False(t, Region{Width: 1, Height: 1}.IsEmpty())

	assert.False(t, InvalidRegion.IsValid(), "InvalidRegion must not be valid")
	assert.False(t, Region{}.IsValid())
	assert.True(t, Region{X: 1, Y: 1, Width: 2, Height: 2}.IsValid())
}

func TestRegion_AreaDoesNotOverflow(t *testing.T) {
	r := Region{Width: 1 << 20, Height: 1 << 20}
	assert.Equal(t, uint64(1)<<40, r.Area())
}

func TestRegion_Overlaps(t *testing.T) {
	a := Region{X: 0, Y: 0, Width: 10, Height: 10}

	tests := []struct {
		name string
		b    Region
		want bool
	}{
		{"identical", a, true},
		{"inside", Region{X: 2, Y: 2, Width: 3, Height: 3}, true},
		{"touching right edge", Region{X: 10, Y: 0, Width: 5, Height: 10}, false},
		{"touching bottom edge", Region{X: 0, Y: 10, Width: 10, Height: 5}, false},
		{"corner overlap", Region{X: 9, Y: 9, Width: 5, Height: 5}, true},
		{"disjoint", Region{X: 20, Y: 20, Width: 1, Height: 1}, false},
		{"empty inside", Region{X: 2, Y: 2, Width: 0, Height: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(a), "Overlaps must be symmetric")
		})
	}
}

func TestRegion_Contains(t *testing.T) {
	outer := Region{X: 10, Y: 10, Width: 20, Height: 20}
	assert.True(t, outer.Contains(outer))
	assert.True(t, outer.Contains(Region{X: 10, Y: 29, Width: 20, Height: 1}))
	assert.False(t, outer.Contains(Region{X: 9, Y: 10, Width: 2, Height: 2}))
	assert.False(t, outer.Contains(Region{X: 25, Y: 25, Width: 6, Height: 1}))
}

// TestRegion_Orders checks both total orders against a hand-sorted list.
func TestRegion_Orders(t *testing.T) {
	rs := []Region{
		{X: 5, Y: 0, Width: 4, Height: 8},
		{X: 0, Y: 0, Width: 8, Height: 4},
		{X: 0, Y: 9, Width: 4, Height: 8},
		{X: 1, Y: 0, Width: 4, Height: 8},
		{X: 0, Y: 0, Width: 4, Height: 4},
	}

	byWidth := slices.Clone(rs)
	slices.SortFunc(byWidth, Region.CompareByWidth)
	assert.Equal(t, []Region{
		{X: 0, Y: 0, Width: 4, Height: 4},
		{X: 0, Y: 9, Width: 4, Height: 8},
		{X: 1, Y: 0, Width: 4, Height: 8},
		{X: 5, Y: 0, Width: 4, Height: 8},
		{X: 0, Y: 0, Width: 8, Height: 4},
	}, byWidth)

	byHeight := slices.Clone(rs)
	slices.SortFunc(byHeight, Region.CompareByHeight)
	assert.Equal(t, []Region{
		{X: 0, Y: 0, Width: 4, Height: 4},
		{X: 0, Y: 0, Width: 8, Height: 4},
		{X: 1, Y: 0, Width: 4, Height: 8},
		{X: 5, Y: 0, Width: 4, Height: 8},
		{X: 0, Y: 9, Width: 4, Height: 8},
	}, byHeight)

	for _, r := range rs {
		assert.Zero(t, r.CompareByWidth(r))
		assert.Zero(t, r.CompareByHeight(r))
	}
}

func TestRegion_Hash(t *testing.T) {
	a := Region{X: 1, Y: 2, Width: 3, Height: 4}
	assert.Equal(t, a.Hash(), Region{X: 1, Y: 2, Width: 3, Height: 4}.Hash())

	// Swapped fields must not collide for these simple cases.
	seen := map[uint64]Region{}
	for _, r := range []Region{
		a,
		{X: 2, Y: 1, Width: 3, Height: 4},
		{X: 1, Y: 2, Width: 4, Height: 3},
		{X: 3, Y: 4, Width: 1, Height: 2},
	} {
		prev, dup := seen[r.Hash()]
		require.False(t, dup, "%v collides with %v", r, prev)
		seen[r.Hash()] = r
	}
}

func TestRegion_String(t *testing.T) {
	assert.Equal(t, "Region(1,2 3x4)", Region{X: 1, Y: 2, Width: 3, Height: 4}.String())
	assert.Equal(t, "Region(invalid)", InvalidRegion.String())
}
