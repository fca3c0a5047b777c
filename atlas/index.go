package atlas

import "github.com/google/btree"

// btreeDegree keeps nodes around a cache line or two of entries.
const btreeDegree = 16

// freeEntry is one free leaf as seen by an ordered index.
type freeEntry struct {
	region Region
	h      handle
}

// freeIndex keeps every free leaf in two orders over the same set: width-major
// for the width-first search and height-major for the height-first search.
type freeIndex struct {
	byWidth  *btree.BTreeG[freeEntry]
	byHeight *btree.BTreeG[freeEntry]
}

func newFreeIndex() *freeIndex {
	return &freeIndex{
		byWidth:  btree.NewG(btreeDegree, lessByWidth),
		byHeight: btree.NewG(btreeDegree, lessByHeight),
	}
}

func (fi *freeIndex) insert(r Region, h handle) {
	e := freeEntry{region: r, h: h}
	if _, replaced := fi.byWidth.ReplaceOrInsert(e); replaced {
		protocolViolation("index", r, "region already in width index")
	}
	if _, replaced := fi.byHeight.ReplaceOrInsert(e); replaced {
		protocolViolation("index", r, "region already in height index")
	}
}

// remove drops r from both orders. Entries are keyed by region only.
func (fi *freeIndex) remove(r Region) {
	e := freeEntry{region: r}
	_, inWidth := fi.byWidth.Delete(e)
	_, inHeight := fi.byHeight.Delete(e)
	if !inWidth || !inHeight {
		protocolViolation("index", r, "region missing from free index (width=%t height=%t)", inWidth, inHeight)
	}
}

func (fi *freeIndex) len() int {
	return fi.byWidth.Len()
}

// firstByWidth returns the first width-major entry with Width >= w and
// Height >= h: seek to the first wide-enough entry, then advance past the ones
// that are too short.
func (fi *freeIndex) firstByWidth(w, h uint32) (freeEntry, bool) {
	var found freeEntry
	ok := false
	fi.byWidth.AscendGreaterOrEqual(freeEntry{region: Region{Width: w}}, func(e freeEntry) bool {
		if e.region.Height >= h {
			found, ok = e, true
			return false
		}
		return true
	})
	return found, ok
}

// firstByHeight is the height-major mirror of firstByWidth.
func (fi *freeIndex) firstByHeight(w, h uint32) (freeEntry, bool) {
	var found freeEntry
	ok := false
	fi.byHeight.AscendGreaterOrEqual(freeEntry{region: Region{Height: h}}, func(e freeEntry) bool {
		if e.region.Width >= w {
			found, ok = e, true
			return false
		}
		return true
	})
	return found, ok
}

// lookup returns the entries stored for r in each order.
func (fi *freeIndex) lookup(r Region) (byWidth, byHeight freeEntry, inWidth, inHeight bool) {
	e := freeEntry{region: r}
	byWidth, inWidth = fi.byWidth.Get(e)
	byHeight, inHeight = fi.byHeight.Get(e)
	return byWidth, byHeight, inWidth, inHeight
}

// ascend visits free entries in width-major order.
func (fi *freeIndex) ascend(fn func(freeEntry) bool) {
	fi.byWidth.Ascend(fn)
}
