package atlas

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	core "github.com/joshuapare/atlaskit/atlas"
)

// Atlas is a goroutine-safe rectangle allocator. It serializes every call
// on one mutex around a core Manager; almost every operation can touch the
// root-to-leaf path and both free indices, so finer-grained locking buys
// nothing.
type Atlas struct {
	mu sync.Mutex
	m  *core.Manager
}

// New creates an Atlas of width x height. A nil opts uses DefaultOptions.
func New(width, height uint32, opts *Options) (*Atlas, error) {
	m, err := core.New(width, height, opts)
	if err != nil {
		return nil, err
	}
	return &Atlas{m: m}, nil
}

// Allocate reserves a width x height region. See core Manager.Allocate.
func (a *Atlas) Allocate(width, height uint32) (Region, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.m.Allocate(width, height)
}

// Free releases r and overwrites it with InvalidRegion. Freeing a region that
// is not allocated panics.
func (a *Atlas) Free(r *Region) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.m.Free(r)
}

// AllocateBatch allocates every size or none of them. Sizes are placed
// largest-area first, which packs noticeably tighter than request order;
// the returned regions are in the order of sizes.
//
// On failure every region allocated by this call is freed again and the
// error wraps ErrNoSpace together with the index of the size that did not fit.
// A zero width or height anywhere in sizes fails with ErrInvalidSize before
// anything is allocated.
func (a *Atlas) AllocateBatch(sizes []Size) ([]Region, error) {
	for i, s := range sizes {
		if s.Width == 0 || s.Height == 0 {
			return nil, fmt.Errorf("batch item %d (%dx%d): %w", i, s.Width, s.Height, ErrInvalidSize)
		}
	}

	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		if c := cmp.Compare(sizes[j].Area(), sizes[i].Area()); c != 0 {
			return c
		}
		return cmp.Compare(max(sizes[j].Width, sizes[j].Height), max(sizes[i].Width, sizes[i].Height))
	})

	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Region, len(sizes))
	for n, i := range order {
		r, err := a.m.Allocate(sizes[i].Width, sizes[i].Height)
		if err != nil {
			for _, done := range order[:n] {
				a.m.Free(&out[done])
			}
			return nil, fmt.Errorf("batch item %d (%dx%d): %w", i, sizes[i].Width, sizes[i].Height, err)
		}
		out[i] = r
	}
	return out, nil
}

// FreeBatch releases every region in rs and marks each InvalidRegion.
func (a *Atlas) FreeBatch(rs []Region) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range rs {
		a.m.Free(&rs[i])
	}
}

// TryAllocate is Allocate without the error: ok is false when nothing fits.
func (a *Atlas) TryAllocate(width, height uint32) (Region, bool) {
	r, err := a.Allocate(width, height)
	if errors.Is(err, ErrNoSpace) {
		return Region{}, false
	}
	return r, err == nil
}

// Width returns the atlas width.
func (a *Atlas) Width() uint32 { return a.m.Width() }

// Height returns the atlas height.
func (a *Atlas) Height() uint32 { return a.m.Height() }

// TotalFreeArea returns the (possibly fragmented) free area.
func (a *Atlas) TotalFreeArea() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.m.TotalFreeArea()
}

// FreeRegionCount returns the number of free regions.
func (a *Atlas) FreeRegionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.m.FreeRegionCount()
}

// IsEmpty reports whether no allocations are outstanding.
func (a *Atlas) IsEmpty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.m.IsEmpty()
}

// Stats returns the allocator counters.
func (a *Atlas) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.m.Stats()
}

// CheckConsistency runs the full structural validator under the lock.
func (a *Atlas) CheckConsistency() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.m.CheckConsistency()
}

// Snapshot captures the current layout and counters.
func (a *Atlas) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return newSnapshot(a.m)
}

// Walk visits every tree node under the lock. fn must not call back into a.
func (a *Atlas) Walk(fn func(NodeInfo) bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.m.Walk(fn)
}

// Close fails with ErrNotEmpty while allocations are outstanding.
func (a *Atlas) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.m.Close()
}
