package atlas

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
)

// Manager is a dynamic guillotine allocator over a fixed width x height atlas.
//
// The surface is a tree: every leaf is either free or allocated, and every
// internal node is split into 2 or 3 children that exactly tile it. Free
// leaves are indexed twice (width-major and height-major) for best-fit search;
// allocated leaves are indexed by region for Free.
//
// A Manager is not safe for concurrent use. Each call mutates the tree and all
// three indices as one unit; callers sharing a Manager must serialize access
// (see pkg/atlas for a locked wrapper).
type Manager struct {
	width  uint32
	height uint32

	// Sum of the areas of all free leaves. Cached, never recomputed.
	totalFreeArea uint64

	nodes     *nodeArena
	root      nodeID
	free      *freeIndex
	allocated map[Region]handle

	log      *slog.Logger
	validate bool
	closed   bool

	stats Stats
}

// Stats holds allocator counters for tests and instrumentation.
type Stats struct {
	AllocCalls    int // Total Allocate calls
	AllocFailures int // Allocate calls that returned ErrNoSpace
	ExactFits     int // Allocations that consumed a free leaf whole
	Splits2       int // Donors split into request + one strip
	Splits3       int // Donors split into request + two strips
	FreeCalls     int // Total Free calls
	Merges        int // Sibling groups collapsed back into their parent
	PeakAllocated int // Highest number of simultaneously allocated regions
	Nodes         int // Nodes currently in the tree
}

// New creates a Manager covering width x height with a single free region.
// A nil opts uses DefaultOptions.
func New(width, height uint32, opts *Options) (*Manager, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidSize, width, height)
	}
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	capacity := o.NodeCapacity
	if capacity <= 0 {
		capacity = defaultNodeCapacity
	}

	m := &Manager{
		width:         width,
		height:        height,
		totalFreeArea: uint64(width) * uint64(height),
		nodes:         newNodeArena(capacity),
		free:          newFreeIndex(),
		allocated:     make(map[Region]handle),
		log:           o.logger(),
		validate:      o.Validate || validateEnv,
	}
	m.root = m.nodes.alloc(m.Bounds(), noNode)
	m.free.insert(m.Bounds(), m.nodes.handleOf(m.root))
	return m, nil
}

// Allocate reserves a width x height region. On success the region's origin is
// the origin of the free region it was carved from.
//
// If nothing fits, Allocate returns the empty Region and an error wrapping
// ErrNoSpace, and leaves the atlas unchanged. A zero width or height is a
// caller bug and panics.
func (m *Manager) Allocate(width, height uint32) (Region, error) {
	m.ensureOpen("allocate")
	if width == 0 || height == 0 {
		protocolViolation("allocate", Region{Width: width, Height: height}, "zero-sized request")
	}
	m.stats.AllocCalls++

	donor, ok := m.findDonor(width, height)
	if !ok {
		m.stats.AllocFailures++
		m.log.Debug("atlas: allocation failed",
			"width", width, "height", height,
			"free_area", m.totalFreeArea, "free_regions", m.free.len())
		return Region{}, fmt.Errorf("%w: %dx%d", ErrNoSpace, width, height)
	}

	// Resolve before touching the index so a stale handle fails cleanly.
	m.nodes.resolve(donor.h)
	m.free.remove(donor.region)

	target := donor.h.id
	parts := guillotineSplit(donor.region, width, height)
	switch len(parts) {
	case 0:
		m.stats.ExactFits++
	case 2:
		m.stats.Splits2++
	case 3:
		m.stats.Splits3++
	}
	if len(parts) > 0 {
		ids := m.nodes.split(donor.h.id, parts, m.validate)
		target = ids[0]
		for _, c := range ids[1:] {
			m.free.insert(m.nodes.at(c).region, m.nodes.handleOf(c))
		}
		m.log.Debug("atlas: split", "donor", donor.region, "parts", len(parts))
	}

	t := m.nodes.at(target)
	t.allocated = true
	m.allocated[t.region] = m.nodes.handleOf(target)
	m.totalFreeArea -= t.region.Area()
	if n := len(m.allocated); n > m.stats.PeakAllocated {
		m.stats.PeakAllocated = n
	}

	m.check("allocate")
	return t.region, nil
}

// findDonor picks the best-fit free leaf for a width x height request. Both
// orders are searched; when both yield a candidate the smaller one wins, with
// ties going to the width-major candidate.
func (m *Manager) findDonor(width, height uint32) (freeEntry, bool) {
	byW, okW := m.free.firstByWidth(width, height)
	byH, okH := m.free.firstByHeight(width, height)
	switch {
	case okW && okH:
		if byH.region.Area() < byW.region.Area() {
			return byH, true
		}
		return byW, true
	case okW:
		return byW, true
	case okH:
		return byH, true
	default:
		return freeEntry{}, false
	}
}

// guillotineSplit cuts the donor r into the request (always first) plus zero,
// one or two leftover strips. With leftovers in both dimensions the longer
// dimension is cut first: a wide donor sheds a full-height strip on the right,
// a square or tall one a full-width strip below. The remaining leftover is the
// squarer piece beside the request.
func guillotineSplit(r Region, w, h uint32) []Region {
	extraW, extraH := r.Width-w, r.Height-h
	req := Region{X: r.X, Y: r.Y, Width: w, Height: h}

	switch {
	case extraW == 0 && extraH == 0:
		return nil
	case extraH == 0:
		return []Region{req, {X: r.X + w, Y: r.Y, Width: extraW, Height: h}}
	case extraW == 0:
		return []Region{req, {X: r.X, Y: r.Y + h, Width: w, Height: extraH}}
	case r.Width > r.Height:
		// Vertical cut first: full-height strip to the right.
		return []Region{
			req,
			{X: r.X + w, Y: r.Y, Width: extraW, Height: r.Height},
			{X: r.X, Y: r.Y + h, Width: w, Height: extraH},
		}
	default:
		// Horizontal cut first: full-width strip below.
		return []Region{
			req,
			{X: r.X, Y: r.Y + h, Width: r.Width, Height: extraH},
			{X: r.X + w, Y: r.Y, Width: extraW, Height: h},
		}
	}
}

// Free releases a region previously returned by Allocate and overwrites *r
// with InvalidRegion. Siblings that are all free are merged back into their
// parent, repeatedly, up towards the root.
//
// Freeing a region that is not currently allocated (never allocated, already
// freed, or altered by the caller) panics with a *ProtocolError.
func (m *Manager) Free(r *Region) {
	m.ensureOpen("free")
	if r == nil {
		protocolViolation("free", Region{}, "nil region")
	}
	region := *r
	h, ok := m.allocated[region]
	if !ok {
		protocolViolation("free", region, "region is not allocated (unknown or double free)")
	}
	n := m.nodes.resolve(h)
	m.stats.FreeCalls++

	delete(m.allocated, region)
	n.allocated = false
	m.free.insert(region, h)
	m.totalFreeArea += region.Area()

	merged := 0
	parent := n.parent
	for parent != noNode && m.nodes.canMergeChildren(parent) {
		p := m.nodes.at(parent)
		for _, c := range p.childIDs() {
			m.free.remove(m.nodes.at(c).region)
		}
		m.nodes.mergeChildren(parent)
		m.free.insert(p.region, m.nodes.handleOf(parent))
		merged++
		parent = p.parent
	}
	if merged > 0 {
		m.stats.Merges += merged
		m.log.Debug("atlas: merged", "region", region, "levels", merged)
	}

	*r = InvalidRegion
	m.check("free")
}

// Close ends the manager's lifetime. Every allocation must have been freed;
// otherwise Close returns an error wrapping ErrNotEmpty and the manager stays
// usable.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	if n := len(m.allocated); n > 0 {
		return fmt.Errorf("%w: %d region(s)", ErrNotEmpty, n)
	}
	if root := m.nodes.at(m.root); !root.isFreeLeaf() || m.free.len() != 1 {
		return &InvariantError{
			Invariant: "single free root",
			Region:    root.region,
			Message:   fmt.Sprintf("empty atlas has %d free regions", m.free.len()),
		}
	}
	m.closed = true
	return nil
}

func (m *Manager) ensureOpen(op string) {
	if m.closed {
		protocolViolation(op, Region{}, "manager is closed")
	}
}

func (m *Manager) check(op string) {
	if !m.validate {
		return
	}
	if err := m.CheckConsistency(); err != nil {
		panic(fmt.Errorf("atlas: after %s: %w", op, err))
	}
}

// Width returns the atlas width.
func (m *Manager) Width() uint32 { return m.width }

// Height returns the atlas height.
func (m *Manager) Height() uint32 { return m.height }

// Bounds returns the region covering the whole atlas.
func (m *Manager) Bounds() Region {
	return Region{Width: m.width, Height: m.height}
}

// TotalFreeArea returns the free area, which may be split across many regions.
func (m *Manager) TotalFreeArea() uint64 { return m.totalFreeArea }

// FreeRegionCount returns the number of free leaves.
func (m *Manager) FreeRegionCount() int { return m.free.len() }

// AllocatedCount returns the number of outstanding allocations.
func (m *Manager) AllocatedCount() int { return len(m.allocated) }

// IsEmpty reports whether no allocations are outstanding.
func (m *Manager) IsEmpty() bool { return len(m.allocated) == 0 }

// IsAllocated reports whether r is exactly an outstanding allocation.
func (m *Manager) IsAllocated(r Region) bool {
	_, ok := m.allocated[r]
	return ok
}

// Occupancy returns the allocated fraction of the atlas area, in [0, 1].
func (m *Manager) Occupancy() float64 {
	total := m.Bounds().Area()
	return float64(total-m.totalFreeArea) / float64(total)
}

// LargestFreeRegion returns the free region with the greatest area, or the
// empty Region if the atlas is full. O(free regions).
func (m *Manager) LargestFreeRegion() Region {
	var best Region
	m.free.ascend(func(e freeEntry) bool {
		if e.region.Area() > best.Area() {
			best = e.region
		}
		return true
	})
	return best
}

// Fragmentation returns 1 - largest/total over free area: 0 when all free
// space is one region (or none is free), approaching 1 as it scatters.
func (m *Manager) Fragmentation() float64 {
	if m.totalFreeArea == 0 {
		return 0
	}
	return 1 - float64(m.LargestFreeRegion().Area())/float64(m.totalFreeArea)
}

// FreeRegions returns the free regions sorted by position (Y, then X).
func (m *Manager) FreeRegions() []Region {
	out := make([]Region, 0, m.free.len())
	m.free.ascend(func(e freeEntry) bool {
		out = append(out, e.region)
		return true
	})
	sortByPosition(out)
	return out
}

// AllocatedRegions returns the outstanding allocations sorted by position.
func (m *Manager) AllocatedRegions() []Region {
	out := make([]Region, 0, len(m.allocated))
	for r := range m.allocated {
		out = append(out, r)
	}
	sortByPosition(out)
	return out
}

// Stats returns a snapshot of the allocator counters.
func (m *Manager) Stats() Stats {
	s := m.stats
	s.Nodes = m.nodes.liveCount()
	return s
}

// NodeInfo describes one tree node during Walk.
type NodeInfo struct {
	Region    Region
	Depth     int
	Allocated bool
	Children  int
}

// Walk visits every node depth-first, parents before children, in split
// order. Returning false from fn stops the walk.
func (m *Manager) Walk(fn func(NodeInfo) bool) {
	m.walk(m.root, 0, fn)
}

func (m *Manager) walk(id nodeID, depth int, fn func(NodeInfo) bool) bool {
	n := m.nodes.at(id)
	info := NodeInfo{
		Region:    n.region,
		Depth:     depth,
		Allocated: n.allocated,
		Children:  int(n.nchildren),
	}
	if !fn(info) {
		return false
	}
	for _, c := range n.childIDs() {
		if !m.walk(c, depth+1, fn) {
			return false
		}
	}
	return true
}

func sortByPosition(rs []Region) {
	slices.SortFunc(rs, func(a, b Region) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
}
