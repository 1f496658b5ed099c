package bvh

import "github.com/strata-phys/strata/math32"

// Item is one (data, bounding box) pair handed to ClearAndRebuild.
type Item[T IndexedData] struct {
	Data T
	AABB math32.Box3
}

// ClearAndRebuild throws away the current tree and bulk-builds a fresh
// one from items. dilationFactor is the margin applied to every node's
// WAABB so small motions don't immediately dirty it.
//
// Proxies are stored sparsely, indexed by each item's own Data.Index(),
// exactly like the source: a proxy's slot is stable for as long as the
// caller's own identifier is, so Tree.PreUpdate never needs to search
// for it.
func (t *Tree[T]) ClearAndRebuild(items []Item[T], dilationFactor float32) {
	t.Nodes = t.Nodes[:0]
	t.Proxies = t.Proxies[:0]
	t.DirtyNodes = t.DirtyNodes[:0]

	indices, aabbs := sparseIndicesAndAABBs(t, items)

	if len(indices) == 0 {
		return
	}

	root := Node{
		WAABB:    NewInvalidWAABB(),
		Children: [laneWidth]uint32{1, invalidIndex, invalidIndex, invalidIndex},
		Parent:   InvalidNodeIndex(),
		Leaf:     false,
	}
	t.Nodes = append(t.Nodes, root)

	rootID := NodeIndex{Index: 0, Lane: 0}
	_, aabb := t.doRecurseBuild(indices, aabbs, rootID, dilationFactor)

	invalid := math32.NewInvalidBox3()
	t.Nodes[0].WAABB = WAABBFromBoxes([laneWidth]math32.Box3{dilateBox(aabb, dilationFactor), invalid, invalid, invalid})
}

// sparseIndicesAndAABBs pads t.Proxies out to cover every item's own
// Data.Index(), recording each item's box alongside a dense list of the
// indices just touched. Shared by ClearAndRebuild and NewBuilder, which
// differ only in how they turn this flat list into nodes.
func sparseIndicesAndAABBs[T IndexedData](t *Tree[T], items []Item[T]) ([]int, []math32.Box3) {
	indices := make([]int, 0, len(items))
	aabbs := make([]math32.Box3, 0, len(items))

	for _, item := range items {
		idx := item.Data.Index()
		for idx >= len(t.Proxies) {
			t.Proxies = append(t.Proxies, Proxy[T]{Node: InvalidNodeIndex(), Data: t.invalid})
			aabbs = append(aabbs, math32.NewInvalidBox3())
		}
		t.Proxies[idx].Data = item.Data
		aabbs[idx] = item.AABB
		indices = append(indices, idx)
	}
	return indices, aabbs
}

func (t *Tree[T]) doRecurseBuild(indices []int, aabbs []math32.Box3, parent NodeIndex, dilationFactor float32) (uint32, math32.Box3) {
	if len(indices) <= laneWidth {
		myID := uint32(len(t.Nodes))
		myAABB := math32.NewInvalidBox3()

		var leafAABBs [laneWidth]math32.Box3
		var proxyIDs [laneWidth]uint32
		for i := range leafAABBs {
			leafAABBs[i] = math32.NewInvalidBox3()
			proxyIDs[i] = invalidIndex
		}

		for k, idx := range indices {
			box := aabbs[idx]
			myAABB = myAABB.Merged(&box)
			leafAABBs[k] = box
			proxyIDs[k] = uint32(idx)
			t.Proxies[idx].Node = NodeIndex{Index: myID, Lane: uint8(k)}
		}

		node := Node{
			WAABB:    WAABBFromBoxes(leafAABBs),
			Children: proxyIDs,
			Parent:   parent,
			Leaf:     true,
		}
		node.WAABB.DilateByFactor(dilationFactor)
		t.Nodes = append(t.Nodes, node)
		return myID, myAABB
	}

	// Center and per-axis variance of the set, used to pick which two
	// axes to split on: the two with the highest spread. Splitting
	// along the lowest-variance axis tends to produce long, thin,
	// overlap-prone boxes.
	var center, variance math32.Vector3
	denom := 1 / float32(len(indices))

	for _, idx := range indices {
		c := aabbs[idx].Center(nil)
		center.X += c.X * denom
		center.Y += c.Y * denom
		center.Z += c.Z * denom
		variance.X += c.X * c.X * denom
		variance.Y += c.Y * c.Y * denom
		variance.Z += c.Z * c.Z * denom
	}
	variance.X -= center.X * center.X
	variance.Y -= center.Y * center.Y
	variance.Z -= center.Z * center.Z

	minAxis := 0
	if variance.Y < componentAt(&variance, minAxis) {
		minAxis = 1
	}
	if variance.Z < componentAt(&variance, minAxis) {
		minAxis = 2
	}
	subdiv0 := (minAxis + 1) % 3
	subdiv1 := (minAxis + 2) % 3

	left, right := splitIndicesWrtDim(indices, aabbs, &center, subdiv0)
	leftBottom, leftTop := splitIndicesWrtDim(left, aabbs, &center, subdiv1)
	rightBottom, rightTop := splitIndicesWrtDim(right, aabbs, &center, subdiv1)

	id := uint32(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{WAABB: NewInvalidWAABB(), Parent: parent, Leaf: false})

	c0, aabb0 := t.doRecurseBuild(leftBottom, aabbs, NodeIndex{Index: id, Lane: 0}, dilationFactor)
	c1, aabb1 := t.doRecurseBuild(leftTop, aabbs, NodeIndex{Index: id, Lane: 1}, dilationFactor)
	c2, aabb2 := t.doRecurseBuild(rightBottom, aabbs, NodeIndex{Index: id, Lane: 2}, dilationFactor)
	c3, aabb3 := t.doRecurseBuild(rightTop, aabbs, NodeIndex{Index: id, Lane: 3}, dilationFactor)

	t.Nodes[id].Children = [laneWidth]uint32{c0, c1, c2, c3}
	t.Nodes[id].WAABB = WAABBFromBoxes([laneWidth]math32.Box3{aabb0, aabb1, aabb2, aabb3})
	t.Nodes[id].WAABB.DilateByFactor(dilationFactor)

	myAABB := aabb0.Merged(&aabb1)
	myAABB = myAABB.Merged(&aabb2)
	myAABB = myAABB.Merged(&aabb3)
	return id, myAABB
}

func componentAt(v *math32.Vector3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// splitIndicesWrtDim partitions indices in place around splitPoint's
// coordinate along dim: everything at or below goes left, everything
// above goes right. Falls back to a midpoint split if every coordinate
// landed on the same side (all centers equal along dim), so a
// degenerate input never produces one empty half and an unbounded
// recursion.
func splitIndicesWrtDim(indices []int, aabbs []math32.Box3, splitPoint *math32.Vector3, dim int) ([]int, []int) {
	icurr := 0
	ilast := len(indices)
	splitCoord := componentAt(splitPoint, dim)

	for range indices {
		idx := indices[icurr]
		center := aabbs[idx].Center(nil)
		if componentAt(center, dim) > splitCoord {
			ilast--
			indices[icurr], indices[ilast] = indices[ilast], indices[icurr]
		} else {
			icurr++
		}
	}

	if icurr == 0 || icurr == len(indices) {
		half := len(indices) / 2
		return indices[:half], indices[half:]
	}
	return indices[:icurr], indices[icurr:]
}

// builderStep is one pending node: the slice of indices it still needs
// to turn into a leaf or an internal split, and the (node, lane) that
// will point down at whatever it builds.
type builderStep struct {
	indices []int
	parent  NodeIndex
}

// Builder constructs a Tree one node per Step call instead of
// ClearAndRebuild's single recursive pass, for a caller that wants to
// spread a large initial build's cost across several frames.
type Builder[T IndexedData] struct {
	tree           *Tree[T]
	aabbs          []math32.Box3
	dilationFactor float32
	pending        []builderStep
}

// NewBuilder seeds a Builder from items exactly like ClearAndRebuild
// does, but defers turning them into nodes to Step.
func NewBuilder[T IndexedData](invalid T, items []Item[T], dilationFactor float32) *Builder[T] {
	t := New(invalid)
	indices, aabbs := sparseIndicesAndAABBs(t, items)

	b := &Builder[T]{tree: t, aabbs: aabbs, dilationFactor: dilationFactor}
	if len(indices) == 0 {
		return b
	}

	root := Node{
		WAABB:    NewInvalidWAABB(),
		Children: [laneWidth]uint32{1, invalidIndex, invalidIndex, invalidIndex},
		Parent:   InvalidNodeIndex(),
		Leaf:     false,
	}
	t.Nodes = append(t.Nodes, root)
	b.pending = append(b.pending, builderStep{indices: indices, parent: NodeIndex{Index: 0, Lane: 0}})
	return b
}

// Tree returns the tree under construction. Valid to call at any point;
// it is fully built once Done reports true.
func (b *Builder[T]) Tree() *Tree[T] {
	return b.tree
}

// Done reports whether every pending node has been built.
func (b *Builder[T]) Done() bool {
	return len(b.pending) == 0
}

// Step builds exactly one node, leaf or internal, off the pending
// queue — the same two branches as doRecurseBuild, one call at a time
// instead of all the way down in one pass. A no-op once Done reports
// true.
func (b *Builder[T]) Step() {
	if len(b.pending) == 0 {
		return
	}
	n := len(b.pending) - 1
	step := b.pending[n]
	b.pending = b.pending[:n]
	t := b.tree

	if len(step.indices) <= laneWidth {
		id := uint32(len(t.Nodes))
		aabb := math32.NewInvalidBox3()

		var leafAABBs [laneWidth]math32.Box3
		var proxyIDs [laneWidth]uint32
		for i := range leafAABBs {
			leafAABBs[i] = math32.NewInvalidBox3()
			proxyIDs[i] = invalidIndex
		}
		for k, idx := range step.indices {
			box := b.aabbs[idx]
			aabb = aabb.Merged(&box)
			leafAABBs[k] = box
			proxyIDs[k] = uint32(idx)
			t.Proxies[idx].Node = NodeIndex{Index: id, Lane: uint8(k)}
		}

		node := Node{
			WAABB:    WAABBFromBoxes(leafAABBs),
			Children: proxyIDs,
			Parent:   step.parent,
			Leaf:     true,
		}
		node.WAABB.DilateByFactor(b.dilationFactor)
		t.Nodes = append(t.Nodes, node)

		parent := &t.Nodes[step.parent.Index]
		parent.Children[step.parent.Lane] = id
		parent.WAABB.Replace(int(step.parent.Lane), dilateBox(aabb, b.dilationFactor))
		return
	}

	var center, variance math32.Vector3
	denom := 1 / float32(len(step.indices))
	for _, idx := range step.indices {
		c := b.aabbs[idx].Center(nil)
		center.X += c.X * denom
		center.Y += c.Y * denom
		center.Z += c.Z * denom
		variance.X += c.X * c.X * denom
		variance.Y += c.Y * c.Y * denom
		variance.Z += c.Z * c.Z * denom
	}
	variance.X -= center.X * center.X
	variance.Y -= center.Y * center.Y
	variance.Z -= center.Z * center.Z

	minAxis := 0
	if variance.Y < componentAt(&variance, minAxis) {
		minAxis = 1
	}
	if variance.Z < componentAt(&variance, minAxis) {
		minAxis = 2
	}
	subdiv0 := (minAxis + 1) % 3
	subdiv1 := (minAxis + 2) % 3

	left, right := splitIndicesWrtDim(step.indices, b.aabbs, &center, subdiv0)
	leftBottom, leftTop := splitIndicesWrtDim(left, b.aabbs, &center, subdiv1)
	rightBottom, rightTop := splitIndicesWrtDim(right, b.aabbs, &center, subdiv1)

	id := uint32(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{WAABB: NewInvalidWAABB(), Parent: step.parent, Leaf: false})

	b.pending = append(b.pending,
		builderStep{indices: leftBottom, parent: NodeIndex{Index: id, Lane: 0}},
		builderStep{indices: leftTop, parent: NodeIndex{Index: id, Lane: 1}},
		builderStep{indices: rightBottom, parent: NodeIndex{Index: id, Lane: 2}},
		builderStep{indices: rightTop, parent: NodeIndex{Index: id, Lane: 3}},
	)

	// doRecurseBuild assembles all four raw child boxes into one WAABB and
	// dilates it in a single call; Step has no such moment (each lane
	// fills in on its own later Step call), but DilateByFactor treats
	// every lane independently, so dilating each lane's box here before
	// it is written is equivalent and keeps every node in the tree under
	// the same margin, whether built in one pass or incrementally.
	aabb := math32.NewInvalidBox3()
	for _, idx := range step.indices {
		box := b.aabbs[idx]
		aabb = aabb.Merged(&box)
	}

	parent := &t.Nodes[step.parent.Index]
	parent.Children[step.parent.Lane] = id
	parent.WAABB.Replace(int(step.parent.Lane), dilateBox(aabb, b.dilationFactor))
}

// dilateBox grows box outward by factor times its own extent along each
// axis, the single-box equivalent of WAABB.DilateByFactor.
func dilateBox(box math32.Box3, factor float32) math32.Box3 {
	w := SplatWAABB(box)
	w.DilateByFactor(factor)
	return w.Lane(0)
}
