package atlas

import core "github.com/joshuapare/atlaskit/atlas"

// Re-export core types so users only need to import pkg/atlas.
type (
	Region   = core.Region
	Options  = core.Options
	Stats    = core.Stats
	NodeInfo = core.NodeInfo
)

// Errors (re-exported for errors.Is checks).
var (
	ErrNoSpace     = core.ErrNoSpace
	ErrInvalidSize = core.ErrInvalidSize
	ErrNotEmpty    = core.ErrNotEmpty
)

// InvalidRegion is the value Free writes into a released Region.
var InvalidRegion = core.InvalidRegion

// DefaultOptions returns the options used when New is given nil.
func DefaultOptions() Options { return core.DefaultOptions() }

// Size is a requested width x height for batch allocation.
type Size struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Area returns Width*Height.
func (s Size) Area() uint64 { return uint64(s.Width) * uint64(s.Height) }
