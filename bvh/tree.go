package bvh

import "github.com/strata-phys/strata/math32"

// AABBSource computes the current world-space bounding box for a piece
// of data, the callback Update uses to recompute a dirty leaf's box
// without the tree needing to know what a collider is.
type AABBSource[T IndexedData] interface {
	AABBFor(data T) math32.Box3
}

// Tree is a wide quadtree: proxies are tracked T values, internal nodes
// branch four ways. invalid is the sentinel T value used to fill unused
// proxy slots (see IndexedData).
type Tree[T IndexedData] struct {
	Nodes      []Node
	DirtyNodes []uint32
	Proxies    []Proxy[T]

	invalid T
}

// New creates an empty tree. invalid is stored once and used to pad the
// sparse Proxies array whenever ClearAndRebuild sees an index past the
// array's current length.
func New[T IndexedData](invalid T) *Tree[T] {
	return &Tree[T]{invalid: invalid}
}

// PreUpdate marks the leaf holding data as dirty, queuing it for the
// next Update call. A no-op if the leaf is already queued.
func (t *Tree[T]) PreUpdate(data T) {
	id := data.Index()
	if id < 0 || id >= len(t.Proxies) {
		return
	}
	nodeID := t.Proxies[id].Node.Index
	if int(nodeID) >= len(t.Nodes) {
		return
	}
	node := &t.Nodes[nodeID]
	if !node.Dirty {
		node.Dirty = true
		t.DirtyNodes = append(t.DirtyNodes, nodeID)
	}
}

// Update drains the dirty queue, recomputing each dirty node's WAABB
// from its children (via source for leaves, by reading the child node's
// own WAABB for internal nodes). A node's box is only replaced, and its
// parent re-queued, if the newly computed box has grown past what the
// existing dilated box already contains — a moving collider that
// stayed within its dilation margin costs nothing here.
func (t *Tree[T]) Update(source AABBSource[T], dilationFactor float32) {
	for len(t.DirtyNodes) > 0 {
		id := t.DirtyNodes[0]
		t.DirtyNodes = t.DirtyNodes[1:]

		if int(id) >= len(t.Nodes) {
			continue
		}
		node := &t.Nodes[id]

		var newAABBs [laneWidth]math32.Box3
		for lane := 0; lane < laneWidth; lane++ {
			newAABBs[lane] = math32.NewInvalidBox3()
			childID := node.Children[lane]
			if node.Leaf {
				if childID != invalidIndex && int(childID) < len(t.Proxies) {
					newAABBs[lane] = source.AABBFor(t.Proxies[childID].Data)
				}
			} else if int(childID) < len(t.Nodes) {
				newAABBs[lane] = t.Nodes[childID].WAABB.ToMergedAABB()
			}
		}

		newWAABB := WAABBFromBoxes(newAABBs)
		if !node.WAABB.Contains(&newWAABB) {
			node.WAABB = newWAABB
			node.WAABB.DilateByFactor(dilationFactor)

			parentID := node.Parent.Index
			if int(parentID) < len(t.Nodes) && !t.Nodes[parentID].Dirty {
				t.Nodes[parentID].Dirty = true
				t.DirtyNodes = append(t.DirtyNodes, parentID)
			}
		}
		node.Dirty = false
	}
}

// IntersectAABB appends to out every proxy whose current leaf box
// overlaps box, traversing with an explicit stack rather than
// recursion so a deep or degenerate tree (many coincident boxes) never
// overflows the call stack.
func (t *Tree[T]) IntersectAABB(box math32.Box3, out []T) []T {
	if len(t.Nodes) == 0 {
		return out
	}

	stack := []uint32{0}
	waabb := SplatWAABB(box)

	for len(stack) > 0 {
		inode := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &t.Nodes[inode]
		bitmask := node.WAABB.Intersects(&waabb)

		for lane := 0; lane < laneWidth; lane++ {
			if bitmask&(1<<uint(lane)) == 0 {
				continue
			}
			childID := node.Children[lane]
			if node.Leaf {
				if childID != invalidIndex && int(childID) < len(t.Proxies) {
					out = append(out, t.Proxies[childID].Data)
				}
			} else if childID != invalidIndex && int(childID) < len(t.Nodes) {
				stack = append(stack, childID)
			}
		}
	}
	return out
}

// CastRay appends to out every proxy whose current leaf box the ray
// reaches within [0, maxToi], using the same explicit-stack traversal
// as IntersectAABB.
func (t *Tree[T]) CastRay(origin, direction math32.Vector3, maxToi float32, out []T) []T {
	if len(t.Nodes) == 0 {
		return out
	}

	stack := []uint32{0}
	wray := SplatWRay(origin, direction)

	for len(stack) > 0 {
		inode := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &t.Nodes[inode]
		bitmask := node.WAABB.IntersectsRay(&wray, maxToi)

		for lane := 0; lane < laneWidth; lane++ {
			if bitmask&(1<<uint(lane)) == 0 {
				continue
			}
			childID := node.Children[lane]
			if node.Leaf {
				if childID != invalidIndex && int(childID) < len(t.Proxies) {
					out = append(out, t.Proxies[childID].Data)
				}
			} else if childID != invalidIndex && int(childID) < len(t.Nodes) {
				stack = append(stack, childID)
			}
		}
	}
	return out
}
