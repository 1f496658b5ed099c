package dynamics

import (
	"github.com/strata-phys/strata/arena"
	"github.com/strata-phys/strata/core"
	"github.com/strata-phys/strata/geometry"
)

// BodySet owns every rigid body in a simulation and maintains the active
// set: the subset of bodies a solver must actually visit this step,
// partitioned into contiguous islands for parallel solving. J is the
// joint payload type carried by the caller's joint graph.
type BodySet[J any] struct {
	bodies *arena.Arena[RigidBody]

	activeDynamic    []BodyHandle
	activeKinematic  []BodyHandle
	modifiedInactive []BodyHandle
	activeIslands    []int

	activeSetTimestamp uint32

	canSleep []BodyHandle // scratch, reused across calls
	stack    []BodyHandle // scratch, reused across calls

	activation         *core.Bus[BodyHandle]
	activationConsumer core.ConsumerID
}

// NewBodySet creates an empty body set.
func NewBodySet[J any]() *BodySet[J] {
	bus := core.NewBus[BodyHandle]()
	return &BodySet[J]{
		bodies:             arena.New[RigidBody](),
		activeIslands:      []int{0},
		activation:         bus,
		activationConsumer: bus.Register(),
	}
}

// InvalidHandle is the reserved handle that never names a live body.
func InvalidHandle() BodyHandle {
	return arena.InvalidHandle()
}

// Len returns the number of bodies in the set.
func (bs *BodySet[J]) Len() int {
	return bs.bodies.Len()
}

// Contains reports whether h names a live body.
func (bs *BodySet[J]) Contains(h BodyHandle) bool {
	return bs.bodies.Contains(h)
}

// Get returns the body named by h, or false if h is stale or invalid.
func (bs *BodySet[J]) Get(h BodyHandle) (*RigidBody, bool) {
	return bs.bodies.Get(h)
}

// GetUnknownGen recovers a body and its current handle from a slot index
// alone, ignoring generation.
func (bs *BodySet[J]) GetUnknownGen(slotIndex uint32) (*RigidBody, BodyHandle, bool) {
	return bs.bodies.GetUnknownGen(slotIndex)
}

// MustGet returns the body named by h, panicking if h is stale or
// invalid.
func (bs *BodySet[J]) MustGet(h BodyHandle) *RigidBody {
	return bs.bodies.MustGet(h)
}

// Pose returns the placement data a collider needs from its parent body,
// or false if h is stale or invalid. Satisfies geometry.BodyActivator.
func (bs *BodySet[J]) Pose(h BodyHandle) (geometry.BodyPose, bool) {
	rb, ok := bs.bodies.Get(h)
	if !ok {
		return geometry.BodyPose{}, false
	}
	return geometry.BodyPose{
		Position:          rb.Position,
		Orientation:       rb.Orientation,
		PredictedPosition: rb.PredictedPosition,
	}, true
}

// RemoveColliderFromBody detaches collider from body's collider list.
// A no-op if body is stale/invalid or does not list collider, so it is
// always safe to call during body removal (where the body may already
// be gone from the arena).
func (bs *BodySet[J]) RemoveColliderFromBody(body BodyHandle, collider ColliderHandle) {
	rb, ok := bs.bodies.Get(body)
	if !ok {
		return
	}
	for i, ch := range rb.Colliders {
		if ch == collider {
			rb.Colliders = append(rb.Colliders[:i], rb.Colliders[i+1:]...)
			return
		}
	}
}

// AddColliderToBody registers collider as belonging to body, used by
// geometry.ColliderSet.Insert once the collider handle is known.
func (bs *BodySet[J]) AddColliderToBody(body BodyHandle, collider ColliderHandle) {
	rb, ok := bs.bodies.Get(body)
	if !ok {
		return
	}
	rb.Colliders = append(rb.Colliders, collider)
}

// Mutate applies fn to the body named by h through a scoped view: if the
// body was sleeping before fn runs and is not sleeping after, a wake
// event is published on the activation channel so the next
// MaintainActiveSet call reinstates it. Returns false if h is stale or
// invalid.
func (bs *BodySet[J]) Mutate(h BodyHandle, fn func(*RigidBody)) bool {
	rb, ok := bs.bodies.Get(h)
	if !ok {
		return false
	}
	wasSleeping := rb.IsSleeping()
	fn(rb)
	if wasSleeping && !rb.IsSleeping() {
		bs.activation.Publish(h)
	}
	return true
}

// Iter calls fn for every body in the set, stopping early if fn returns
// false.
func (bs *BodySet[J]) Iter(fn func(BodyHandle, *RigidBody) bool) {
	bs.bodies.Iter(fn)
}

// IterActiveDynamic calls fn for every body in the active dynamic set, in
// active-set order. A handle in the active set that no longer names a
// live body cannot occur by construction; the membership check is kept
// anyway as a defensive filter that silently skips such a handle rather
// than panicking.
func (bs *BodySet[J]) IterActiveDynamic(fn func(BodyHandle, *RigidBody) bool) {
	for _, h := range bs.activeDynamic {
		rb, ok := bs.bodies.Get(h)
		if !ok {
			continue
		}
		if !fn(h, rb) {
			return
		}
	}
}

// IterActiveKinematic calls fn for every body in the active kinematic
// set.
func (bs *BodySet[J]) IterActiveKinematic(fn func(BodyHandle, *RigidBody) bool) {
	for _, h := range bs.activeKinematic {
		rb, ok := bs.bodies.Get(h)
		if !ok {
			continue
		}
		if !fn(h, rb) {
			return
		}
	}
}

// NumIslands returns the number of islands produced by the most recent
// UpdateActiveSetWithContacts call.
func (bs *BodySet[J]) NumIslands() int {
	return len(bs.activeIslands) - 1
}

// ActiveIslandRange returns the [start, end) slice bounds of islandID
// within the active-dynamic vector, suitable for a caller that wants to
// hand each island to its own worker.
func (bs *BodySet[J]) ActiveIslandRange(islandID int) (int, int) {
	return bs.activeIslands[islandID], bs.activeIslands[islandID+1]
}

// ActiveIsland returns the handles making up islandID.
func (bs *BodySet[J]) ActiveIsland(islandID int) []BodyHandle {
	start, end := bs.ActiveIslandRange(islandID)
	return bs.activeDynamic[start:end]
}

// activate pushes h onto the active set appropriate for its status,
// unless it is already there. Static bodies route through
// modifiedInactive exclusively rather than being lumped into the active
// dynamic set.
func (bs *BodySet[J]) activate(h BodyHandle) {
	rb, ok := bs.bodies.Get(h)
	if !ok {
		return
	}
	switch rb.Status {
	case Dynamic:
		if !setContainsAt(bs.activeDynamic, rb.activeSetID, h) {
			rb.activeSetID = len(bs.activeDynamic)
			bs.activeDynamic = append(bs.activeDynamic, h)
		}
	case Kinematic:
		if !setContainsAt(bs.activeKinematic, rb.activeSetID, h) {
			rb.activeSetID = len(bs.activeKinematic)
			bs.activeKinematic = append(bs.activeKinematic, h)
		}
	case Static:
		bs.modifiedInactive = append(bs.modifiedInactive, h)
	}
}

// Activate is the public entry point geometry.ColliderSet uses to mark a
// collider's parent body active after insertion.
func (bs *BodySet[J]) Activate(h BodyHandle) {
	bs.activate(h)
}

func setContainsAt(set []BodyHandle, id int, h BodyHandle) bool {
	return id >= 0 && id < len(set) && set[id] == h
}

// Insert adds rb to the set and returns its handle. Internal bookkeeping
// fields carried over from cloning another body are reset first.
func (bs *BodySet[J]) Insert(rb RigidBody) BodyHandle {
	rb.resetInternalReferences()
	h := bs.bodies.Insert(rb)
	stored, _ := bs.bodies.Get(h)

	if !stored.IsSleeping() && stored.IsDynamic() {
		stored.activeSetID = len(bs.activeDynamic)
		bs.activeDynamic = append(bs.activeDynamic, h)
	}
	if stored.IsKinematic() {
		stored.activeSetID = len(bs.activeKinematic)
		bs.activeKinematic = append(bs.activeKinematic, h)
	}
	if !stored.IsDynamic() {
		bs.modifiedInactive = append(bs.modifiedInactive, h)
	}
	return h
}

// Remove removes the body named by h along with its membership in the
// active sets. removeCollider is invoked once per collider the body
// owned, in iteration order, so the caller's geometry.ColliderSet can
// detach them; joints.RemoveRigidBody detaches any joints. Returns the
// removed body, or false if h was already stale or invalid.
func (bs *BodySet[J]) Remove(h BodyHandle, removeCollider func(ColliderHandle), joints JointSet[J]) (*RigidBody, bool) {
	rb, ok := bs.bodies.Remove(h)
	if !ok {
		return nil, false
	}

	swapRemoveFromActive(&bs.activeDynamic, rb.activeSetID, h, bs.bodies)
	swapRemoveFromActive(&bs.activeKinematic, rb.activeSetID, h, bs.bodies)

	for _, ch := range rb.Colliders {
		if removeCollider != nil {
			removeCollider(ch)
		}
	}

	if joints != nil {
		joints.RemoveRigidBody(rb.JointGraphIndex, bs)
	}

	return &rb, true
}

// swapRemoveFromActive removes h from set at position id if it is
// actually there, then fixes up the active_set_id of whatever handle the
// swap-remove moved into that slot.
func swapRemoveFromActive(set *[]BodyHandle, id int, h BodyHandle, bodies *arena.Arena[RigidBody]) {
	s := *set
	if id < 0 || id >= len(s) || s[id] != h {
		return
	}
	last := len(s) - 1
	s[id] = s[last]
	s = s[:last]
	*set = s
	if id < len(s) {
		if replacement, ok := bodies.Get(s[id]); ok {
			replacement.activeSetID = id
		}
	}
}

// WakeUp wakes the body named by h if it is dynamic, pushing it onto the
// active dynamic set if it is not already there. If strong is true the
// body is given fresh activation energy so it does not immediately
// re-sleep on the next update.
func (bs *BodySet[J]) WakeUp(h BodyHandle, strong bool) {
	rb, ok := bs.bodies.Get(h)
	if !ok {
		return
	}
	if !rb.IsDynamic() {
		return
	}
	rb.WakeUp(strong)
	if !setContainsAt(bs.activeDynamic, rb.activeSetID, h) {
		rb.activeSetID = len(bs.activeDynamic)
		bs.activeDynamic = append(bs.activeDynamic, h)
	}
}

// MaintainActiveSet drains every wake event published since the previous
// call and reinstates each body into the active dynamic set if it is not
// already there. Duplicate events for the same body are harmless: the
// membership check absorbs them.
func (bs *BodySet[J]) MaintainActiveSet() {
	for _, h := range bs.activation.Drain(bs.activationConsumer) {
		rb, ok := bs.bodies.Get(h)
		if !ok {
			continue
		}
		if !rb.IsSleeping() && rb.IsDynamic() && !setContainsAt(bs.activeDynamic, rb.activeSetID, h) {
			rb.activeSetID = len(bs.activeDynamic)
			bs.activeDynamic = append(bs.activeDynamic, h)
		}
	}
}

// pushContactingBodies pushes onto stack the parent body of every
// collider in contact with one of rb's colliders, provided at least one
// manifold of that contact is currently generating force.
func pushContactingBodies(rb *RigidBody, colliders ColliderParentLookup, narrowPhase NarrowPhase, stack []BodyHandle) []BodyHandle {
	for _, ch := range rb.Colliders {
		contacts, ok := narrowPhase.ContactsWith(ch)
		if !ok {
			continue
		}
		for _, inter := range contacts {
			for _, manifold := range inter.Contacts.Manifolds {
				if manifold.NumActiveContacts() > 0 {
					other := inter.Collider1
					if other == ch {
						other = inter.Collider2
					}
					if parent := colliders.ParentOf(other); !parent.IsInvalid() {
						stack = append(stack, parent)
					}
					break
				}
			}
		}
	}
	return stack
}

// UpdateActiveSetWithContacts recomputes the active dynamic set and its
// island partition for the current step. minIslandSize is a lower bound
// on island size, not a hard cap: a new island boundary is only opened
// once the current one has reached at least that many bodies, so a
// single connected component larger than the bound never gets split.
//
// Candidate sleep/wake split, kinematic-driven wake seeding, graph
// traversal with per-body timestamp deduplication, and final sleep
// commit for bodies the traversal never reached, in that order.
func (bs *BodySet[J]) UpdateActiveSetWithContacts(colliders ColliderParentLookup, narrowPhase NarrowPhase, jointGraph InteractionGraph[J], minIslandSize int) {
	if minIslandSize < 1 {
		panic("dynamics.BodySet.UpdateActiveSetWithContacts: minIslandSize must be at least 1")
	}

	bs.activeSetTimestamp++
	bs.stack = bs.stack[:0]
	bs.canSleep = bs.canSleep[:0]

	// Candidate split: drain active_dynamic in reverse so island layout
	// stays stable frame-to-frame when topology doesn't change.
	for i := len(bs.activeDynamic) - 1; i >= 0; i-- {
		h := bs.activeDynamic[i]
		rb := bs.bodies.MustGet(h)
		rb.UpdateEnergy()
		if rb.Activation.Energy <= rb.Activation.Threshold {
			rb.Activation.Sleeping = true
			bs.canSleep = append(bs.canSleep, h)
		} else {
			bs.stack = append(bs.stack, h)
		}
	}
	bs.activeDynamic = bs.activeDynamic[:0]

	// Kinematic seeding: a moving kinematic body wakes whatever it
	// touches.
	for _, h := range bs.activeKinematic {
		rb := bs.bodies.MustGet(h)
		if !rb.IsMoving() {
			continue
		}
		bs.stack = pushContactingBodies(rb, colliders, narrowPhase, bs.stack)
	}

	bs.activeIslands = bs.activeIslands[:0]
	bs.activeIslands = append(bs.activeIslands, 0)

	islandMarker := len(bs.stack)
	if islandMarker > 0 {
		islandMarker--
	}

	for len(bs.stack) > 0 {
		h := bs.stack[len(bs.stack)-1]
		bs.stack = bs.stack[:len(bs.stack)-1]

		rb := bs.bodies.MustGet(h)
		if rb.activeSetTimestamp == bs.activeSetTimestamp || !rb.IsDynamic() {
			continue
		}

		if len(bs.stack) < islandMarker {
			if len(bs.activeDynamic)-bs.activeIslands[len(bs.activeIslands)-1] >= minIslandSize {
				bs.activeIslands = append(bs.activeIslands, len(bs.activeDynamic))
			}
			islandMarker = len(bs.stack)
		}

		rb.WakeUp(false)
		rb.activeIslandID = len(bs.activeIslands) - 1
		rb.activeSetID = len(bs.activeDynamic)
		rb.activeSetOffset = rb.activeSetID - bs.activeIslands[rb.activeIslandID]
		rb.activeSetTimestamp = bs.activeSetTimestamp
		bs.activeDynamic = append(bs.activeDynamic, h)

		bs.stack = pushContactingBodies(rb, colliders, narrowPhase, bs.stack)

		for _, inter := range jointGraph.InteractionsWith(rb.JointGraphIndex) {
			other := inter.Body1
			if other == h {
				other = inter.Body2
			}
			bs.stack = append(bs.stack, other)
		}
	}

	bs.activeIslands = append(bs.activeIslands, len(bs.activeDynamic))

	for _, h := range bs.canSleep {
		rb := bs.bodies.MustGet(h)
		if rb.Activation.Sleeping {
			rb.Sleep()
		}
	}
}
