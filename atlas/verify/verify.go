// Package verify provides validation functions for atlas layouts.
// These helpers are used in tests and by atlasctl to check that a set of
// regions is a valid partition of an atlas, independently of the tree that
// produced it.
package verify

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/joshuapare/atlaskit/atlas"
)

// ValidationError describes a single failed check.
type ValidationError struct {
	Type    string
	Message string
	Region  atlas.Region
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Region.IsEmpty() {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s at %v: %s", e.Type, e.Region, e.Message)
}

// AllInvariants validates that free and allocated regions together exactly
// tile bounds. Returns the first error encountered, or nil if all checks pass.
func AllInvariants(bounds atlas.Region, free, allocated []atlas.Region) error {
	all := make([]atlas.Region, 0, len(free)+len(allocated))
	all = append(all, free...)
	all = append(all, allocated...)

	if err := Bounds(bounds, all); err != nil {
		return err
	}
	if err := NoOverlap(all); err != nil {
		return err
	}
	return AreaConservation(bounds, free, allocated)
}

// Manager runs the manager's own consistency check and then validates its
// region snapshots with AllInvariants. It also checks the cached totals the
// manager reports against the snapshots.
func Manager(m *atlas.Manager) error {
	if err := m.CheckConsistency(); err != nil {
		return &ValidationError{Type: "Consistency", Message: err.Error()}
	}

	free := m.FreeRegions()
	allocated := m.AllocatedRegions()

	if len(free) != m.FreeRegionCount() {
		return &ValidationError{
			Type:    "Counts",
			Message: fmt.Sprintf("FreeRegionCount()=%d but %d free regions listed", m.FreeRegionCount(), len(free)),
		}
	}
	if sum := totalArea(free); sum != m.TotalFreeArea() {
		return &ValidationError{
			Type:    "Counts",
			Message: fmt.Sprintf("TotalFreeArea()=%d but free regions sum to %d", m.TotalFreeArea(), sum),
			Details: map[string]interface{}{
				"reported": m.TotalFreeArea(),
				"computed": sum,
			},
		}
	}
	if m.IsEmpty() != (len(allocated) == 0) {
		return &ValidationError{
			Type:    "Counts",
			Message: fmt.Sprintf("IsEmpty()=%t with %d allocations", m.IsEmpty(), len(allocated)),
		}
	}

	return AllInvariants(m.Bounds(), free, allocated)
}

// Bounds validates that every region is non-empty and lies inside bounds.
func Bounds(bounds atlas.Region, regions []atlas.Region) error {
	for _, r := range regions {
		if r.IsEmpty() {
			return &ValidationError{Type: "Bounds", Message: "empty region", Region: r}
		}
		if !bounds.Contains(r) {
			return &ValidationError{
				Type:    "Bounds",
				Message: fmt.Sprintf("region extends outside %v", bounds),
				Region:  r,
			}
		}
	}
	return nil
}

// NoOverlap validates that no two regions share area. Regions are swept in X
// order, so only regions whose X-extents intersect are compared.
func NoOverlap(regions []atlas.Region) error {
	sorted := slices.Clone(regions)
	slices.SortFunc(sorted, func(a, b atlas.Region) int {
		return cmp.Compare(a.X, b.X)
	})

	for i, a := range sorted {
		for _, b := range sorted[i+1:] {
			if uint64(b.X) >= a.Right() {
				break
			}
			if a.Overlaps(b) {
				return &ValidationError{
					Type:    "NoOverlap",
					Message: fmt.Sprintf("overlaps %v", b),
					Region:  a,
					Details: map[string]interface{}{"other": b},
				}
			}
		}
	}
	return nil
}

// AreaConservation validates that free plus allocated area equals the bounds
// area. Combined with Bounds and NoOverlap this means the regions tile the
// atlas exactly.
func AreaConservation(bounds atlas.Region, free, allocated []atlas.Region) error {
	freeArea := totalArea(free)
	allocArea := totalArea(allocated)
	if freeArea+allocArea != bounds.Area() {
		return &ValidationError{
			Type: "AreaConservation",
			Message: fmt.Sprintf(
				"free %d + allocated %d != %d",
				freeArea,
				allocArea,
				bounds.Area(),
			),
			Details: map[string]interface{}{
				"free":      freeArea,
				"allocated": allocArea,
				"bounds":    bounds.Area(),
			},
		}
	}
	return nil
}

func totalArea(regions []atlas.Region) uint64 {
	var sum uint64
	for _, r := range regions {
		sum += r.Area()
	}
	return sum
}
