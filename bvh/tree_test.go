package bvh

import (
	"sort"
	"testing"

	"github.com/kr/pretty"
	"github.com/strata-phys/strata/math32"
	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type TreeSuite struct{}

var _ = Suite(&TreeSuite{})

type testID int

func (id testID) Index() int { return int(id) }

const invalidTestID = testID(-1)

type testSource map[testID]math32.Box3

func (s testSource) AABBFor(id testID) math32.Box3 { return s[id] }

func boxAt(x, y, z float32) math32.Box3 {
	min := math32.Vector3{X: x - 0.5, Y: y - 0.5, Z: z - 0.5}
	max := math32.Vector3{X: x + 0.5, Y: y + 0.5, Z: z + 0.5}
	return *math32.NewBox3(&min, &max)
}

func sortedIDs(ids []testID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	sort.Ints(out)
	return out
}

func (s *TreeSuite) TestSmallSetBuildsSingleLeaf(c *C) {

	tree := New(invalidTestID)
	items := []Item[testID]{
		{Data: 0, AABB: boxAt(0, 0, 0)},
		{Data: 1, AABB: boxAt(1, 0, 0)},
	}
	tree.ClearAndRebuild(items, 0.01)

	c.Assert(len(tree.Nodes), Equals, 2) // synthetic root + one leaf
	c.Assert(tree.Nodes[1].Leaf, Equals, true)
}

func (s *TreeSuite) TestIdenticalAABBsDoNotOverflowTheStack(c *C) {

	const n = 20
	items := make([]Item[testID], n)
	for i := 0; i < n; i++ {
		items[i] = Item[testID]{Data: testID(i), AABB: boxAt(0, 0, 0)}
	}

	tree := New(invalidTestID)
	tree.ClearAndRebuild(items, 0.0)

	got := tree.IntersectAABB(boxAt(0, 0, 0), nil)
	want := make([]int, n)
	for i := range want {
		want[i] = i
	}

	gotSorted := sortedIDs(got)
	c.Assert(gotSorted, DeepEquals, want, Commentf("proxies returned: %# v", pretty.Formatter(gotSorted)))
}

func (s *TreeSuite) TestIntersectAABBFindsOverlappingProxiesOnly(c *C) {

	items := []Item[testID]{
		{Data: 0, AABB: boxAt(0, 0, 0)},
		{Data: 1, AABB: boxAt(10, 0, 0)},
		{Data: 2, AABB: boxAt(20, 0, 0)},
	}
	tree := New(invalidTestID)
	tree.ClearAndRebuild(items, 0.01)

	got := tree.IntersectAABB(boxAt(0, 0, 0), nil)
	c.Assert(sortedIDs(got), DeepEquals, []int{0})
}

func (s *TreeSuite) TestCastRayHitsProxyAlongItsPath(c *C) {

	items := []Item[testID]{
		{Data: 0, AABB: boxAt(5, 0, 0)},
		{Data: 1, AABB: boxAt(0, 10, 0)},
	}
	tree := New(invalidTestID)
	tree.ClearAndRebuild(items, 0.01)

	got := tree.CastRay(math32.Vector3{}, math32.Vector3{X: 1, Y: 0, Z: 0}, 100, nil)
	c.Assert(sortedIDs(got), DeepEquals, []int{0})
}

func (s *TreeSuite) TestUpdatePropagatesGrownBoxToParent(c *C) {

	items := []Item[testID]{
		{Data: 0, AABB: boxAt(0, 0, 0)},
		{Data: 1, AABB: boxAt(10, 0, 0)},
		{Data: 2, AABB: boxAt(20, 0, 0)},
		{Data: 3, AABB: boxAt(30, 0, 0)},
		{Data: 4, AABB: boxAt(40, 0, 0)},
	}
	tree := New(invalidTestID)
	tree.ClearAndRebuild(items, 0.0)

	source := testSource{
		0: boxAt(0, 0, 0),
		1: boxAt(10, 0, 0),
		2: boxAt(20, 0, 0),
		3: boxAt(30, 0, 0),
		4: boxAt(1000, 0, 0), // proxy 4 teleports far away
	}

	tree.PreUpdate(4)
	c.Assert(len(tree.DirtyNodes) > 0, Equals, true)

	tree.Update(source, 0.0)
	c.Assert(len(tree.DirtyNodes), Equals, 0)

	root := tree.Nodes[0].WAABB.ToMergedAABB()
	c.Assert(root.Max.X >= 999, Equals, true, Commentf("root box did not grow to cover the moved proxy: %# v", pretty.Formatter(root)))
}

func (s *TreeSuite) TestEmptyTreeQueriesReturnNothing(c *C) {

	tree := New(invalidTestID)
	c.Assert(tree.IntersectAABB(boxAt(0, 0, 0), nil), IsNil)
	c.Assert(tree.CastRay(math32.Vector3{}, math32.Vector3{X: 1}, 10, nil), IsNil)
}

func (s *TreeSuite) TestBuilderProducesTheSameQueryResultsAsClearAndRebuild(c *C) {

	items := []Item[testID]{
		{Data: 0, AABB: boxAt(0, 0, 0)},
		{Data: 1, AABB: boxAt(10, 0, 0)},
		{Data: 2, AABB: boxAt(20, 0, 0)},
		{Data: 3, AABB: boxAt(30, 0, 0)},
		{Data: 4, AABB: boxAt(40, 0, 0)},
	}

	builder := NewBuilder(invalidTestID, items, 0.01)
	steps := 0
	for !builder.Done() {
		builder.Step()
		steps++
		c.Assert(steps < 1000, Equals, true, Commentf("Step never reached Done"))
	}

	built := builder.Tree()
	want := New(invalidTestID)
	want.ClearAndRebuild(items, 0.01)

	for _, box := range []math32.Box3{boxAt(0, 0, 0), boxAt(20, 0, 0), boxAt(40, 0, 0)} {
		c.Assert(sortedIDs(built.IntersectAABB(box, nil)), DeepEquals, sortedIDs(want.IntersectAABB(box, nil)),
			Commentf("box %# v", pretty.Formatter(box)))
	}
}

func (s *TreeSuite) TestBuilderOnEmptyItemsIsImmediatelyDone(c *C) {

	builder := NewBuilder(invalidTestID, nil, 0.01)
	c.Assert(builder.Done(), Equals, true)
	c.Assert(builder.Tree().IntersectAABB(boxAt(0, 0, 0), nil), IsNil)
}
