package atlas

// nodeID addresses a slot in the node arena.
type nodeID int32

const noNode nodeID = -1

// maxChildren is the widest guillotine split: the request plus two strips.
const maxChildren = 3

// handle is a generation-checked reference to a node. The indices store
// handles, never raw IDs, so a slot reused after a merge cannot be reached
// through a stale index entry.
type handle struct {
	id  nodeID
	gen uint32
}

// node is a tree element. A leaf has nchildren == 0 and is either free or
// allocated; an internal node has 2 or 3 children that exactly tile region.
type node struct {
	region    Region
	parent    nodeID
	children  [maxChildren]nodeID
	nchildren uint8
	allocated bool
	live      bool
	gen       uint32
}

func (n *node) isLeaf() bool     { return n.nchildren == 0 }
func (n *node) isFreeLeaf() bool { return n.nchildren == 0 && !n.allocated }

func (n *node) childIDs() []nodeID {
	return n.children[:n.nchildren]
}

// nodeArena owns every node of the tree. Released slots go onto a free-list
// and have their generation bumped.
type nodeArena struct {
	nodes []node
	free  []nodeID
}

func newNodeArena(capacity int) *nodeArena {
	return &nodeArena{nodes: make([]node, 0, capacity)}
}

func (a *nodeArena) alloc(r Region, parent nodeID) nodeID {
	var id nodeID
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.nodes = append(a.nodes, node{})
		id = nodeID(len(a.nodes) - 1)
	}
	n := &a.nodes[id]
	gen := n.gen
	*n = node{region: r, parent: parent, live: true, gen: gen}
	return id
}

func (a *nodeArena) release(id nodeID) {
	n := &a.nodes[id]
	if !n.live {
		protocolViolation("release", n.region, "node %d already released", id)
	}
	n.live = false
	n.gen++
	n.nchildren = 0
	n.allocated = false
	n.parent = noNode
	a.free = append(a.free, id)
}

func (a *nodeArena) at(id nodeID) *node {
	return &a.nodes[id]
}

func (a *nodeArena) handleOf(id nodeID) handle {
	return handle{id: id, gen: a.nodes[id].gen}
}

// resolve dereferences a handle, panicking if its slot was released or reused.
func (a *nodeArena) resolve(h handle) *node {
	if h.id < 0 || int(h.id) >= len(a.nodes) {
		protocolViolation("resolve", Region{}, "node handle %d out of range", h.id)
	}
	n := &a.nodes[h.id]
	if !n.live || n.gen != h.gen {
		protocolViolation("resolve", n.region, "stale node handle %d (gen %d, slot gen %d)", h.id, h.gen, n.gen)
	}
	return n
}

// liveCount returns the number of nodes currently in the tree.
func (a *nodeArena) liveCount() int {
	return len(a.nodes) - len(a.free)
}

// split turns the free leaf id into an internal node whose children are parts.
// It returns the new child IDs in the order of parts. Indices are untouched.
func (a *nodeArena) split(id nodeID, parts []Region, validate bool) []nodeID {
	n := a.at(id)
	if !n.isFreeLeaf() {
		protocolViolation("split", n.region, "node is not a free leaf")
	}
	if len(parts) < 2 || len(parts) > maxChildren {
		protocolViolation("split", n.region, "split into %d parts", len(parts))
	}
	if validate {
		if err := checkPartition(n.region, parts); err != nil {
			protocolViolation("split", n.region, "%v", err)
		}
	}

	ids := make([]nodeID, len(parts))
	for i, r := range parts {
		ids[i] = a.alloc(r, id)
	}
	// alloc may grow the slice, so reload n.
	n = a.at(id)
	copy(n.children[:], ids)
	n.nchildren = uint8(len(ids))
	return ids
}

// canMergeChildren reports whether id has children and all are free leaves.
func (a *nodeArena) canMergeChildren(id nodeID) bool {
	n := a.at(id)
	if n.isLeaf() {
		return false
	}
	for _, c := range n.childIDs() {
		if !a.at(c).isFreeLeaf() {
			return false
		}
	}
	return true
}

// mergeChildren destroys the sibling group under id, leaving id a free leaf.
func (a *nodeArena) mergeChildren(id nodeID) {
	if !a.canMergeChildren(id) {
		protocolViolation("merge", a.at(id).region, "children are not all free leaves")
	}
	n := a.at(id)
	children := n.children
	count := n.nchildren
	n.nchildren = 0
	for _, c := range children[:count] {
		a.release(c)
	}
}
