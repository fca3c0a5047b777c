package atlas

import "fmt"

// checkPartition verifies that parts are non-empty, lie inside parent, are
// pairwise disjoint and together cover exactly parent's area.
func checkPartition(parent Region, parts []Region) error {
	var sum uint64
	for i, p := range parts {
		if p.IsEmpty() {
			return fmt.Errorf("part %d %v is empty", i, p)
		}
		if !parent.Contains(p) {
			return fmt.Errorf("part %d %v lies outside %v", i, p, parent)
		}
		for j := i + 1; j < len(parts); j++ {
			if p.Overlaps(parts[j]) {
				return fmt.Errorf("parts %v and %v overlap", p, parts[j])
			}
		}
		sum += p.Area()
	}
	if sum != parent.Area() {
		return fmt.Errorf("parts cover %d of %d", sum, parent.Area())
	}
	return nil
}

// consistencyWalk accumulates what the tree walk saw, for comparison against
// the manager's cached totals and index sizes.
type consistencyWalk struct {
	freeLeaves  int
	allocLeaves int
	freeArea    uint64
	allocArea   uint64
	visited     int
}

// CheckConsistency walks the whole tree and cross-checks it against the
// indices and cached totals. It returns the first *InvariantError found, or nil.
//
// Checked:
//   - an allocated node has no children
//   - a node has 0, 2 or 3 children, which exactly tile it
//   - only leaves are indexed; free leaves are in both free indices, allocated
//     leaves in the allocated index, never both
//   - both free indices have the same size
//   - free leaf area sums to TotalFreeArea, and with allocated area to
//     Width*Height
//
// Cost is O(n log n) in the number of nodes.
func (m *Manager) CheckConsistency() error {
	root := m.nodes.at(m.root)
	if !root.live || root.parent != noNode {
		return &InvariantError{Invariant: "root", Region: root.region, Message: "root is not a live parentless node"}
	}
	if root.region != m.Bounds() {
		return &InvariantError{Invariant: "root", Region: root.region, Message: fmt.Sprintf("root does not cover %v", m.Bounds())}
	}

	var w consistencyWalk
	if err := m.checkNode(m.root, noNode, &w); err != nil {
		return err
	}

	if wl, hl := m.free.byWidth.Len(), m.free.byHeight.Len(); wl != hl {
		return &InvariantError{Invariant: "index parity", Message: fmt.Sprintf("width index has %d entries, height index %d", wl, hl)}
	}
	if w.freeLeaves != m.free.len() {
		return &InvariantError{Invariant: "index parity", Message: fmt.Sprintf("%d free leaves but %d free index entries", w.freeLeaves, m.free.len())}
	}
	if w.allocLeaves != len(m.allocated) {
		return &InvariantError{Invariant: "index parity", Message: fmt.Sprintf("%d allocated leaves but %d allocated index entries", w.allocLeaves, len(m.allocated))}
	}
	if w.freeArea != m.totalFreeArea {
		return &InvariantError{Invariant: "area conservation", Message: fmt.Sprintf("free leaves cover %d, cached total is %d", w.freeArea, m.totalFreeArea)}
	}
	if total := m.Bounds().Area(); m.totalFreeArea+w.allocArea != total {
		return &InvariantError{Invariant: "area conservation", Message: fmt.Sprintf("free %d + allocated %d != %d", m.totalFreeArea, w.allocArea, total)}
	}
	if live := m.nodes.liveCount(); live != w.visited {
		return &InvariantError{Invariant: "arena", Message: fmt.Sprintf("%d live nodes but %d reachable", live, w.visited)}
	}
	return nil
}

func (m *Manager) checkNode(id, parent nodeID, w *consistencyWalk) error {
	n := m.nodes.at(id)
	w.visited++
	if !n.live {
		return &InvariantError{Invariant: "arena", Region: n.region, Message: fmt.Sprintf("node %d is reachable but released", id)}
	}
	if n.parent != parent {
		return &InvariantError{Invariant: "parent link", Region: n.region, Message: fmt.Sprintf("parent is %d, expected %d", n.parent, parent)}
	}

	h := m.nodes.handleOf(id)
	fw, fh, inW, inH := m.free.lookup(n.region)
	ah, inAlloc := m.allocated[n.region]

	if !n.isLeaf() {
		if n.allocated {
			return &InvariantError{Invariant: "allocated leaf", Region: n.region, Message: "allocated node has children"}
		}
		if n.nchildren != 2 && n.nchildren != 3 {
			return &InvariantError{Invariant: "child count", Region: n.region, Message: fmt.Sprintf("%d children", n.nchildren)}
		}
		if inW || inH || inAlloc {
			return &InvariantError{Invariant: "leaf-only index", Region: n.region, Message: "internal node is indexed"}
		}
		parts := make([]Region, 0, maxChildren)
		for _, c := range n.childIDs() {
			parts = append(parts, m.nodes.at(c).region)
		}
		if err := checkPartition(n.region, parts); err != nil {
			return &InvariantError{Invariant: "partition", Region: n.region, Message: err.Error()}
		}
		for _, c := range n.childIDs() {
			if err := m.checkNode(c, id, w); err != nil {
				return err
			}
		}
		return nil
	}

	if n.allocated {
		if !inAlloc || ah != h {
			return &InvariantError{Invariant: "allocated index", Region: n.region, Message: "allocated leaf missing from allocated index"}
		}
		if inW || inH {
			return &InvariantError{Invariant: "allocated index", Region: n.region, Message: "allocated leaf is also in a free index"}
		}
		w.allocLeaves++
		w.allocArea += n.region.Area()
		return nil
	}

	if !inW || !inH {
		return &InvariantError{Invariant: "free index", Region: n.region, Message: fmt.Sprintf("free leaf indexed by width=%t height=%t", inW, inH)}
	}
	if fw.h != h || fh.h != h {
		return &InvariantError{Invariant: "free index", Region: n.region, Message: "free index entry points at another node"}
	}
	if inAlloc {
		return &InvariantError{Invariant: "free index", Region: n.region, Message: "free leaf is also in the allocated index"}
	}
	w.freeLeaves++
	w.freeArea += n.region.Area()
	return nil
}
