package geometry

import (
	"github.com/strata-phys/strata/arena"
	"github.com/strata-phys/strata/core"
	"github.com/strata-phys/strata/math32"
)

// RemovedCollider is published on a ColliderSet's removal bus whenever a
// collider is removed, carrying enough information for a spatial index
// to drop the matching proxy without holding a reference back into this
// set.
type RemovedCollider struct {
	Handle     ColliderHandle
	ProxyIndex int
}

// BodyPose is the subset of a rigid body's state needed to place a newly
// inserted collider: its world position, orientation and predicted
// (next-step) position.
type BodyPose struct {
	Position          math32.Vector3
	Orientation       math32.Quaternion
	PredictedPosition math32.Vector3
}

// BodyActivator is the slice of dynamics.BodySet that ColliderSet needs:
// reading a body's pose to place a newly-inserted collider, activating a
// body when one of its colliders is added, and waking/unregistering it
// when one is removed.
type BodyActivator interface {
	Pose(h BodyHandle) (BodyPose, bool)
	Activate(h BodyHandle)
	WakeUp(h BodyHandle, strong bool)
	AddColliderToBody(body BodyHandle, collider ColliderHandle)
	RemoveColliderFromBody(body BodyHandle, collider ColliderHandle)
}

// ColliderSet owns every collider in a simulation.
type ColliderSet struct {
	colliders *arena.Arena[Collider]
	removed   *core.Bus[RemovedCollider]
}

// NewColliderSet creates an empty collider set.
func NewColliderSet() *ColliderSet {
	return &ColliderSet{
		colliders: arena.New[Collider](),
		removed:   core.NewBus[RemovedCollider](),
	}
}

// InvalidHandle is the reserved handle that never names a live collider.
func InvalidHandle() ColliderHandle {
	return arena.InvalidHandle()
}

// Len returns the number of colliders in the set.
func (cs *ColliderSet) Len() int {
	return cs.colliders.Len()
}

// Contains reports whether h names a live collider.
func (cs *ColliderSet) Contains(h ColliderHandle) bool {
	return cs.colliders.Contains(h)
}

// Get returns the collider named by h, or false if h is stale or
// invalid.
func (cs *ColliderSet) Get(h ColliderHandle) (*Collider, bool) {
	return cs.colliders.Get(h)
}

// GetUnknownGen recovers a collider and its current handle from a slot
// index alone, ignoring generation.
func (cs *ColliderSet) GetUnknownGen(slotIndex uint32) (*Collider, ColliderHandle, bool) {
	return cs.colliders.GetUnknownGen(slotIndex)
}

// ParentOf returns the owning body of the collider named by h. Part of
// dynamics.ColliderParentLookup.
func (cs *ColliderSet) ParentOf(h ColliderHandle) BodyHandle {
	c, ok := cs.colliders.Get(h)
	if !ok {
		return arena.InvalidHandle()
	}
	return c.Parent
}

// Iter calls fn for every collider in the set, stopping early if fn
// returns false.
func (cs *ColliderSet) Iter(fn func(ColliderHandle, *Collider) bool) {
	cs.colliders.Iter(fn)
}

// RegisterRemovalConsumer registers a new reader of the removed-collider
// bus, typically a spatial index that needs to drop matching proxies.
// There is no retroactive subscription: a consumer only sees removals
// published after it registers.
func (cs *ColliderSet) RegisterRemovalConsumer() core.ConsumerID {
	return cs.removed.Register()
}

// DrainRemovals returns every RemovedCollider message published since
// consumer's last drain.
func (cs *ColliderSet) DrainRemovals(consumer core.ConsumerID) []RemovedCollider {
	return cs.removed.Drain(consumer)
}

// Insert adds coll as a child of parentHandle, deriving its world pose
// from the parent's pose composed with coll.Delta, registers it with the
// parent, and activates the parent. Panics if parentHandle does not name
// a live body — a collider can never be inserted without its parent
// already existing.
func (cs *ColliderSet) Insert(coll Collider, parentHandle BodyHandle, bodies BodyActivator) ColliderHandle {
	coll.resetInternalReferences()
	coll.Parent = parentHandle

	pose, ok := bodies.Pose(parentHandle)
	if !ok {
		panic("geometry.ColliderSet.Insert: parent rigid body not found")
	}
	coll.Position = composePose(pose.Position, pose.Orientation, coll.Delta)
	coll.PredictedPosition = composePose(pose.PredictedPosition, pose.Orientation, coll.Delta)

	handle := cs.colliders.Insert(coll)
	bodies.AddColliderToBody(parentHandle, handle)
	bodies.Activate(parentHandle)

	return handle
}

// composePose applies the parent's orientation to delta and adds it to
// the parent's world position, matching the source's `parent.position *
// coll.delta` isometry composition.
func composePose(parentPos math32.Vector3, parentOrient math32.Quaternion, delta math32.Vector3) math32.Vector3 {
	d := delta
	d.ApplyQuaternion(&parentOrient)
	return *d.Add(&parentPos)
}

// Remove removes the collider named by h, unregisters it from its
// parent, strong-wakes the parent, and publishes a RemovedCollider
// message to every registered consumer. Returns the removed collider, or
// false if h was already stale or invalid.
func (cs *ColliderSet) Remove(h ColliderHandle, bodies BodyActivator) (*Collider, bool) {
	coll, ok := cs.colliders.Remove(h)
	if !ok {
		return nil, false
	}

	bodies.RemoveColliderFromBody(coll.Parent, h)
	bodies.WakeUp(coll.Parent, true)

	cs.removed.Publish(RemovedCollider{
		Handle:     h,
		ProxyIndex: coll.proxyIndex,
	})

	return &coll, true
}
