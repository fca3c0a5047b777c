package atlas

import (
	"cmp"
	"fmt"
	"math"
)

// Region is an axis-aligned rectangle inside an atlas, in texel units.
//
// Regions are plain values: two regions are equal iff all four fields match,
// so Region is usable directly as a map key.
type Region struct {
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// InvalidRegion is written into a caller's Region by Free. It can never be
// returned by Allocate because its origin lies outside any atlas.
var InvalidRegion = Region{
	X:      math.MaxUint32,
	Y:      math.MaxUint32,
	Width:  math.MaxUint32,
	Height: math.MaxUint32,
}

// IsEmpty reports whether the region covers no area.
func (r Region) IsEmpty() bool {
	return r.Width == 0 || r.Height == 0
}

// IsValid reports whether r is a non-empty region that is not InvalidRegion.
func (r Region) IsValid() bool {
	return !r.IsEmpty() && r != InvalidRegion
}

// Area returns Width*Height without overflowing.
func (r Region) Area() uint64 {
	return uint64(r.Width) * uint64(r.Height)
}

// Right returns the exclusive right edge.
func (r Region) Right() uint64 {
	return uint64(r.X) + uint64(r.Width)
}

// Bottom returns the exclusive bottom edge.
func (r Region) Bottom() uint64 {
	return uint64(r.Y) + uint64(r.Height)
}

// Overlaps reports whether r and o share any area. Empty regions overlap nothing.
func (r Region) Overlaps(o Region) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return uint64(r.X) < o.Right() && uint64(o.X) < r.Right() &&
		uint64(r.Y) < o.Bottom() && uint64(o.Y) < r.Bottom()
}

// Contains reports whether o lies entirely inside r.
func (r Region) Contains(o Region) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// CompareByWidth orders regions width-major: (Width, Height, X, Y).
// It returns -1, 0 or +1.
func (r Region) CompareByWidth(o Region) int {
	switch {
	case r.Width != o.Width:
		return cmp.Compare(r.Width, o.Width)
	case r.Height != o.Height:
		return cmp.Compare(r.Height, o.Height)
	case r.X != o.X:
		return cmp.Compare(r.X, o.X)
	default:
		return cmp.Compare(r.Y, o.Y)
	}
}

// CompareByHeight orders regions height-major: (Height, Width, Y, X).
func (r Region) CompareByHeight(o Region) int {
	switch {
	case r.Height != o.Height:
		return cmp.Compare(r.Height, o.Height)
	case r.Width != o.Width:
		return cmp.Compare(r.Width, o.Width)
	case r.Y != o.Y:
		return cmp.Compare(r.Y, o.Y)
	default:
		return cmp.Compare(r.X, o.X)
	}
}

// Hash mixes all four fields into a 64-bit value (FNV-1a over the fields).
func (r Region) Hash() uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for _, v := range [4]uint32{r.X, r.Y, r.Width, r.Height} {
		for i := 0; i < 4; i++ {
			h ^= uint64(byte(v >> (8 * i)))
			h *= prime64
		}
	}
	return h
}

func (r Region) String() string {
	if r == InvalidRegion {
		return "Region(invalid)"
	}
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// lessByWidth and lessByHeight are the btree orderings for the free indices.
func lessByWidth(a, b freeEntry) bool  { return a.region.CompareByWidth(b.region) < 0 }
func lessByHeight(a, b freeEntry) bool { return a.region.CompareByHeight(b.region) < 0 }
