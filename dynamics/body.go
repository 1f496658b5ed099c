// Package dynamics implements the active-set and activation engine: the
// rigid-body store, sleep/wake state machine, and island partitioning
// that feed an external constraint solver.
package dynamics

import (
	"github.com/strata-phys/strata/arena"
	"github.com/strata-phys/strata/math32"
)

// BodyHandle identifies a rigid body owned by a BodySet.
type BodyHandle = arena.Handle

// ColliderHandle identifies a collider owned by a geometry.ColliderSet.
// It is an alias of arena.Handle, the same type as
// geometry.ColliderHandle, so handles pass between the two packages
// without conversion.
type ColliderHandle = arena.Handle

// BodyStatus specifies how a body is affected during simulation. Named
// BodyStatus rather than BodyType to avoid colliding with the collider
// type hierarchy, which has its own notion of "type."
type BodyStatus int

const (
	// Dynamic bodies are fully simulated: they have finite mass, respond
	// to forces, and can collide with any other body type.
	Dynamic BodyStatus = iota

	// Kinematic bodies move according to a velocity set by the caller.
	// They behave as if they had infinite mass and are never made sleep
	// candidates by the active-set update; like every non-dynamic body,
	// NewRigidBody creates them with the Sleeping flag set.
	Kinematic

	// Static bodies never move during simulation. They behave as if
	// they had infinite mass and are always considered asleep.
	Static
)

// ActivationState tracks how close a body is to falling asleep.
type ActivationState struct {
	// Energy is an exponentially-smoothed measure of recent kinetic
	// energy. A body sleeps once Energy drops to or below Threshold.
	Energy float32

	// Threshold is the energy level below which the body is a sleep
	// candidate. Set once at construction from engine configuration.
	Threshold float32

	// Sleeping mirrors the body's current sleep state. It is also used
	// as scratch during island traversal: UpdateActiveSetWithContacts
	// tentatively marks a body sleeping, then clears the flag if graph
	// traversal reaches it.
	Sleeping bool
}

// wakeUpEnergy is the least energy a strong wake gives a body; a body
// whose threshold is higher gets twice its threshold instead, so either
// way it survives at least one energy-decay pass before it can become a
// sleep candidate again.
const wakeUpEnergy float32 = 1.0

const invalidGraphIndex = ^uint32(0)

// RigidBody is a single entry in a BodySet.
type RigidBody struct {
	Status     BodyStatus
	Activation ActivationState

	Position          math32.Vector3
	Orientation       math32.Quaternion
	PredictedPosition math32.Vector3

	LinearVelocity  math32.Vector3
	AngularVelocity math32.Vector3

	Colliders []ColliderHandle

	JointGraphIndex uint32

	activeSetID        int
	activeIslandID     int
	activeSetOffset    int
	activeSetTimestamp uint32
}

// NewRigidBody returns a body of the given status, initialized with
// identity pose and zero velocity, ready for BodySet.Insert.
func NewRigidBody(status BodyStatus, threshold float32) *RigidBody {
	rb := &RigidBody{
		Status:          status,
		JointGraphIndex: invalidGraphIndex,
	}
	rb.Orientation.SetIdentity()
	rb.Activation.Threshold = threshold
	if status != Dynamic {
		rb.Activation.Sleeping = true
	}
	return rb
}

// IsDynamic reports whether the body is fully simulated.
func (rb *RigidBody) IsDynamic() bool {
	return rb.Status == Dynamic
}

// IsKinematic reports whether the body is velocity-driven.
func (rb *RigidBody) IsKinematic() bool {
	return rb.Status == Kinematic
}

// IsStatic reports whether the body never moves.
func (rb *RigidBody) IsStatic() bool {
	return rb.Status == Static
}

// IsSleeping reports whether the body is currently asleep. Static bodies
// are always considered asleep.
func (rb *RigidBody) IsSleeping() bool {
	return rb.Status == Static || rb.Activation.Sleeping
}

// IsMoving reports whether a kinematic body has nonzero velocity. Used to
// decide whether a kinematic body needs to propagate wakefulness to the
// dynamic bodies it touches.
func (rb *RigidBody) IsMoving() bool {
	return rb.LinearVelocity.LengthSq() != 0 || rb.AngularVelocity.LengthSq() != 0
}

// WakeUp wakes the body, clearing its sleeping flag. If strong is true,
// its activation energy is also reset high enough that it survives at
// least one more energy-decay pass before becoming a sleep candidate
// again; if false, the caller is asserting the body is awake for other
// reasons (graph traversal already reached it) and only the flag clears.
func (rb *RigidBody) WakeUp(strong bool) {
	rb.Activation.Sleeping = false
	if strong {
		rb.Activation.Energy = math32.Max(wakeUpEnergy, 2*rb.Activation.Threshold)
	}
}

// Sleep forces the body to sleep immediately, zeroing its velocities.
// Matches the energy law from the testable-properties contract: a
// sleeping body always has zero velocity.
func (rb *RigidBody) Sleep() {
	rb.Activation.Sleeping = true
	rb.Activation.Energy = 0
	rb.LinearVelocity.Set(0, 0, 0)
	rb.AngularVelocity.Set(0, 0, 0)
}

// UpdateEnergy folds the current kinetic energy into the smoothed
// activation energy. Called once per active body at the start of
// BodySet.UpdateActiveSetWithContacts.
func (rb *RigidBody) UpdateEnergy() {
	kinetic := rb.LinearVelocity.LengthSq() + rb.AngularVelocity.LengthSq()
	const decay = 0.9
	rb.Activation.Energy = rb.Activation.Energy*decay + kinetic*(1-decay)
}

// resetInternalReferences clears bookkeeping fields a caller must not be
// allowed to carry over from a body obtained by copying another one.
func (rb *RigidBody) resetInternalReferences() {
	rb.activeSetID = 0
	rb.activeIslandID = 0
	rb.activeSetOffset = 0
	rb.activeSetTimestamp = 0
	rb.Colliders = nil
	rb.JointGraphIndex = invalidGraphIndex
}
