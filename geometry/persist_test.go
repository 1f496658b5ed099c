package geometry

import (
	"testing"

	"github.com/strata-phys/strata/arena"
	"github.com/strata-phys/strata/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColliderSetSnapshotRestoreRoundTrip(t *testing.T) {

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

	h := cs.Insert(Collider{Delta: math32.Vector3{X: 1, Y: 2, Z: 3}}, parent, bodies)

	restored := RestoreColliderSet(cs.Snapshot())
	assert.Equal(t, cs.Len(), restored.Len())

	orig, ok := cs.Get(h)
	require.True(t, ok)
	coll, ok := restored.Get(h)
	require.True(t, ok)

	assert.Equal(t, orig.Position, coll.Position)
	assert.Equal(t, orig.PredictedPosition, coll.PredictedPosition)
	assert.Equal(t, orig.Delta, coll.Delta)
	assert.Equal(t, orig.Parent, coll.Parent)
	assert.Equal(t, orig.ProxyIndex(), coll.ProxyIndex())
	assert.Nil(t, coll.Shape)
}

func TestRestoreColliderSetRebuildsRemovalBusEmpty(t *testing.T) {

	cs := NewColliderSet()
	bodies := newFakeBodyActivator()
	parent := arena.Handle{SlotIndex: 1}
	orient := math32.Quaternion{}
	orient.SetIdentity()
	bodies.poses[parent] = BodyPose{Orientation: orient}

	h := cs.Insert(Collider{}, parent, bodies)
	cs.Remove(h, bodies)

	restored := RestoreColliderSet(cs.Snapshot())
	consumer := restored.RegisterRemovalConsumer()
	assert.Empty(t, restored.DrainRemovals(consumer))
}

func TestColliderSetSnapshotPreservesStaleHandleGenerations(t *testing.T) {

	cs := NewColliderSet()
	bodies := newFakeBodyActivator()
	parent := arena.Handle{SlotIndex: 1}
	orient := math32.Quaternion{}
	orient.SetIdentity()
	bodies.poses[parent] = BodyPose{Orientation: orient}

	h1 := cs.Insert(Collider{}, parent, bodies)
	cs.Remove(h1, bodies)
	h2 := cs.Insert(Collider{}, parent, bodies)

	restored := RestoreColliderSet(cs.Snapshot())
	assert.False(t, restored.Contains(h1))
	assert.True(t, restored.Contains(h2))
}
