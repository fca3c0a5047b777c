package atlas

import core "github.com/joshuapare/atlaskit/atlas"

// Snapshot is a point-in-time, JSON-friendly view of an atlas.
type Snapshot struct {
	Width         uint32   `json:"width"`
	Height        uint32   `json:"height"`
	TotalFreeArea uint64   `json:"total_free_area"`
	Occupancy     float64  `json:"occupancy"`
	Fragmentation float64  `json:"fragmentation"`
	Largest       Region   `json:"largest_free"`
	Free          []Region `json:"free"`
	Allocated     []Region `json:"allocated"`
	Stats         Stats    `json:"stats"`
}

func newSnapshot(m *core.Manager) Snapshot {
	return Snapshot{
		Width:         m.Width(),
		Height:        m.Height(),
		TotalFreeArea: m.TotalFreeArea(),
		Occupancy:     m.Occupancy(),
		Fragmentation: m.Fragmentation(),
		Largest:       m.LargestFreeRegion(),
		Free:          m.FreeRegions(),
		Allocated:     m.AllocatedRegions(),
		Stats:         m.Stats(),
	}
}

// SnapshotOf captures a Manager that the caller already serializes.
func SnapshotOf(m *core.Manager) Snapshot {
	return newSnapshot(m)
}
