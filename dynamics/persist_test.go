package dynamics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodySetSnapshotRestoreRoundTrip(t *testing.T) {

	bs := NewBodySet[struct{}]()
	h1 := bs.Insert(*NewRigidBody(Dynamic, 0.01))
	h2 := bs.Insert(*NewRigidBody(Dynamic, 0.01))
	bs.Insert(*NewRigidBody(Kinematic, 0.01))

	bs.MustGet(h1).LinearVelocity.Set(1, 0, 0)
	bs.MustGet(h2).LinearVelocity.Set(1, 0, 0)

	bs.UpdateActiveSetWithContacts(fakeColliderLookup{}, fakeNarrowPhase{}, noJoints(), 1)

	snap := bs.Snapshot()
	restored := RestoreBodySet[struct{}](snap)

	assert.Equal(t, bs.Len(), restored.Len())
	assert.Equal(t, bs.activeDynamic, restored.activeDynamic)
	assert.Equal(t, bs.activeKinematic, restored.activeKinematic)
	assert.Equal(t, bs.modifiedInactive, restored.modifiedInactive)
	assert.Equal(t, bs.activeIslands, restored.activeIslands)
	assert.Equal(t, bs.activeSetTimestamp, restored.activeSetTimestamp)

	orig1, ok := bs.Get(h1)
	require.True(t, ok)
	rb1, ok := restored.Get(h1)
	require.True(t, ok)
	assert.Equal(t, orig1.activeSetID, rb1.activeSetID)
	assert.Equal(t, orig1.activeIslandID, rb1.activeIslandID)
	assert.Equal(t, orig1.activeSetOffset, rb1.activeSetOffset)
	assert.Equal(t, orig1.activeSetTimestamp, rb1.activeSetTimestamp)
	assert.Equal(t, orig1.LinearVelocity, rb1.LinearVelocity)
	assert.Equal(t, orig1.Activation, rb1.Activation)
}

func TestRestoreBodySetRebuildsScratchAndChannelEmpty(t *testing.T) {

	bs := NewBodySet[struct{}]()
	h := bs.Insert(*NewRigidBody(Dynamic, 0.01))
	bs.Mutate(h, func(rb *RigidBody) { rb.Sleep() })
	bs.Mutate(h, func(rb *RigidBody) { rb.WakeUp(true) })

	snap := bs.Snapshot()
	restored := RestoreBodySet[struct{}](snap)

	assert.Empty(t, restored.canSleep)
	assert.Empty(t, restored.stack)
	assert.Empty(t, restored.activation.Drain(restored.activationConsumer))
}

func TestBodySetSnapshotCollidersSurviveRoundTrip(t *testing.T) {

	bs := NewBodySet[struct{}]()
	h := bs.Insert(*NewRigidBody(Dynamic, 0.01))
	bs.AddColliderToBody(h, ColliderHandle{SlotIndex: 7})

	restored := RestoreBodySet[struct{}](bs.Snapshot())
	rb, ok := restored.Get(h)
	require.True(t, ok)
	assert.Equal(t, []ColliderHandle{{SlotIndex: 7}}, rb.Colliders)
}
