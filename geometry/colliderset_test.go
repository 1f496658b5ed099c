package geometry

import (
	"testing"

	"github.com/strata-phys/strata/arena"
	"github.com/strata-phys/strata/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBodyActivator struct {
	poses     map[BodyHandle]BodyPose
	activated []BodyHandle
	woken     []BodyHandle
	added     []ColliderHandle
	removed   []ColliderHandle
}

func newFakeBodyActivator() *fakeBodyActivator {
	return &fakeBodyActivator{poses: make(map[BodyHandle]BodyPose)}
}

func (f *fakeBodyActivator) Pose(h BodyHandle) (BodyPose, bool) {
	p, ok := f.poses[h]
	return p, ok
}

func (f *fakeBodyActivator) Activate(h BodyHandle) {
	f.activated = append(f.activated, h)
}

func (f *fakeBodyActivator) WakeUp(h BodyHandle, strong bool) {
	f.woken = append(f.woken, h)
}

func (f *fakeBodyActivator) AddColliderToBody(body BodyHandle, collider ColliderHandle) {
	f.added = append(f.added, collider)
}

func (f *fakeBodyActivator) RemoveColliderFromBody(body BodyHandle, collider ColliderHandle) {
	f.removed = append(f.removed, collider)
}

func TestInsertDerivesWorldPoseFromParent(t *testing.T) {

	cs := NewColliderSet()
	bodies := newFakeBodyActivator()

	parent := arena.Handle{SlotIndex: 1}
	orient := math32.Quaternion{}
	orient.SetIdentity()
	bodies.poses[parent] = BodyPose{
		Position:          math32.Vector3{X: 10, Y: 0, Z: 0},
		Orientation:       orient,
		PredictedPosition: math32.Vector3{X: 10, Y: 0, Z: 0},
	}

	coll := Collider{Delta: math32.Vector3{X: 1, Y: 2, Z: 3}}
	h := cs.Insert(coll, parent, bodies)

	stored, ok := cs.Get(h)
	require.True(t, ok)
	assert.Equal(t, float32(11), stored.Position.X)
	assert.Equal(t, float32(2), stored.Position.Y)
	assert.Equal(t, float32(3), stored.Position.Z)
	assert.Equal(t, parent, stored.Parent)
	assert.Equal(t, -1, stored.ProxyIndex())

	assert.Contains(t, bodies.added, h)
	assert.Contains(t, bodies.activated, parent)
}

func TestInsertPanicsWhenParentMissing(t *testing.T) {

	cs := NewColliderSet()
	bodies := newFakeBodyActivator()

	assert.Panics(t, func() {
		cs.Insert(Collider{}, arena.Handle{SlotIndex: 99}, bodies)
	})
}

func TestRemovePublishesToEveryRegisteredConsumer(t *testing.T) {

	cs := NewColliderSet()
	bodies := newFakeBodyActivator()

	parent := arena.Handle{SlotIndex: 1}
	orient := math32.Quaternion{}
	orient.SetIdentity()
	bodies.poses[parent] = BodyPose{Orientation: orient}

	h := cs.Insert(Collider{}, parent, bodies)

	c1 := cs.RegisterRemovalConsumer()
	c2 := cs.RegisterRemovalConsumer()

	removed, ok := cs.Remove(h, bodies)
	require.True(t, ok)
	assert.Equal(t, parent, removed.Parent)
	assert.Contains(t, bodies.removed, h)
	assert.Contains(t, bodies.woken, parent)

	msgs1 := cs.DrainRemovals(c1)
	msgs2 := cs.DrainRemovals(c2)
	require.Len(t, msgs1, 1)
	require.Len(t, msgs2, 1)
	assert.Equal(t, h, msgs1[0].Handle)
	assert.Equal(t, h, msgs2[0].Handle)
}

func TestRemoveMessageCarriesBroadPhaseAssignedProxyIndex(t *testing.T) {

	cs := NewColliderSet()
	bodies := newFakeBodyActivator()

	parent := arena.Handle{SlotIndex: 1}
	orient := math32.Quaternion{}
	orient.SetIdentity()
	bodies.poses[parent] = BodyPose{Orientation: orient}

	h := cs.Insert(Collider{}, parent, bodies)

	// A broad-phase collaborator assigns the slot it gave this collider
	// in its own spatial index after insertion.
	stored, ok := cs.Get(h)
	require.True(t, ok)
	stored.SetProxyIndex(42)

	consumer := cs.RegisterRemovalConsumer()
	_, ok = cs.Remove(h, bodies)
	require.True(t, ok)

	msgs := cs.DrainRemovals(consumer)
	require.Len(t, msgs, 1)
	assert.Equal(t, 42, msgs[0].ProxyIndex)
}

func TestRemovalConsumerHasNoRetroactiveVisibility(t *testing.T) {

	cs := NewColliderSet()
	bodies := newFakeBodyActivator()
	parent := arena.Handle{SlotIndex: 1}
	orient := math32.Quaternion{}
	orient.SetIdentity()
	bodies.poses[parent] = BodyPose{Orientation: orient}

	h1 := cs.Insert(Collider{}, parent, bodies)
	cs.Remove(h1, bodies)

	late := cs.RegisterRemovalConsumer()
	assert.Empty(t, cs.DrainRemovals(late))
}
