package dynamics

import (
	"github.com/strata-phys/strata/arena"
	"github.com/strata-phys/strata/core"
	"github.com/strata-phys/strata/math32"
)

// BodySnapshot is the serializable form of a single rigid body. It adds
// the active-set bookkeeping fields RigidBody itself keeps unexported
// (activeSetID, activeIslandID, activeSetOffset, activeSetTimestamp),
// since a restored body must rejoin its set at the same offset it left
// at rather than being re-discovered by MaintainActiveSet.
type BodySnapshot struct {
	Status     BodyStatus      `msgpack:"status"`
	Activation ActivationState `msgpack:"activation"`

	Position          math32.Vector3    `msgpack:"position"`
	Orientation       math32.Quaternion `msgpack:"orientation"`
	PredictedPosition math32.Vector3    `msgpack:"predictedPosition"`

	LinearVelocity  math32.Vector3 `msgpack:"linearVelocity"`
	AngularVelocity math32.Vector3 `msgpack:"angularVelocity"`

	Colliders []ColliderHandle `msgpack:"colliders"`

	JointGraphIndex uint32 `msgpack:"jointGraphIndex"`

	ActiveSetID        int    `msgpack:"activeSetId"`
	ActiveIslandID     int    `msgpack:"activeIslandId"`
	ActiveSetOffset    int    `msgpack:"activeSetOffset"`
	ActiveSetTimestamp uint32 `msgpack:"activeSetTimestamp"`
}

// BodySetSnapshot is the serializable form of a BodySet: every body plus
// the active-set index vectors. The activation channel and its consumer
// cursor, and the canSleep/stack scratch slices, are not part of this
// type — they carry no state worth persisting and RestoreBodySet
// rebuilds them empty, same as NewBodySet.
type BodySetSnapshot[J any] struct {
	Bodies             []arena.Snapshot[BodySnapshot] `msgpack:"bodies"`
	ActiveDynamic      []BodyHandle                   `msgpack:"activeDynamic"`
	ActiveKinematic    []BodyHandle                   `msgpack:"activeKinematic"`
	ModifiedInactive   []BodyHandle                   `msgpack:"modifiedInactive"`
	ActiveIslands      []int                          `msgpack:"activeIslands"`
	ActiveSetTimestamp uint32                         `msgpack:"activeSetTimestamp"`
}

// Snapshot captures bs's entire persistable state.
func (bs *BodySet[J]) Snapshot() BodySetSnapshot[J] {
	raw := bs.bodies.Export()
	bodies := make([]arena.Snapshot[BodySnapshot], len(raw))
	for i, s := range raw {
		bodies[i] = arena.Snapshot[BodySnapshot]{
			Generation: s.Generation,
			Occupied:   s.Occupied,
			Value: BodySnapshot{
				Status:             s.Value.Status,
				Activation:         s.Value.Activation,
				Position:           s.Value.Position,
				Orientation:        s.Value.Orientation,
				PredictedPosition:  s.Value.PredictedPosition,
				LinearVelocity:     s.Value.LinearVelocity,
				AngularVelocity:    s.Value.AngularVelocity,
				Colliders:          append([]ColliderHandle(nil), s.Value.Colliders...),
				JointGraphIndex:    s.Value.JointGraphIndex,
				ActiveSetID:        s.Value.activeSetID,
				ActiveIslandID:     s.Value.activeIslandID,
				ActiveSetOffset:    s.Value.activeSetOffset,
				ActiveSetTimestamp: s.Value.activeSetTimestamp,
			},
		}
	}
	return BodySetSnapshot[J]{
		Bodies:             bodies,
		ActiveDynamic:      append([]BodyHandle(nil), bs.activeDynamic...),
		ActiveKinematic:    append([]BodyHandle(nil), bs.activeKinematic...),
		ModifiedInactive:   append([]BodyHandle(nil), bs.modifiedInactive...),
		ActiveIslands:      append([]int(nil), bs.activeIslands...),
		ActiveSetTimestamp: bs.activeSetTimestamp,
	}
}

// RestoreBodySet rebuilds a BodySet from a snapshot taken by Snapshot.
// The activation channel and its consumer cursor are created fresh, as
// are the canSleep and stack scratch slices: none of the three carry
// state a restored simulation needs to recover.
func RestoreBodySet[J any](snap BodySetSnapshot[J]) *BodySet[J] {
	raw := make([]arena.Snapshot[RigidBody], len(snap.Bodies))
	for i, s := range snap.Bodies {
		raw[i] = arena.Snapshot[RigidBody]{
			Generation: s.Generation,
			Occupied:   s.Occupied,
			Value: RigidBody{
				Status:             s.Value.Status,
				Activation:         s.Value.Activation,
				Position:           s.Value.Position,
				Orientation:        s.Value.Orientation,
				PredictedPosition:  s.Value.PredictedPosition,
				LinearVelocity:     s.Value.LinearVelocity,
				AngularVelocity:    s.Value.AngularVelocity,
				Colliders:          s.Value.Colliders,
				JointGraphIndex:    s.Value.JointGraphIndex,
				activeSetID:        s.Value.ActiveSetID,
				activeIslandID:     s.Value.ActiveIslandID,
				activeSetOffset:    s.Value.ActiveSetOffset,
				activeSetTimestamp: s.Value.ActiveSetTimestamp,
			},
		}
	}
	bus := core.NewBus[BodyHandle]()
	return &BodySet[J]{
		bodies:             arena.Restore(raw),
		activeDynamic:      snap.ActiveDynamic,
		activeKinematic:    snap.ActiveKinematic,
		modifiedInactive:   snap.ModifiedInactive,
		activeIslands:      snap.ActiveIslands,
		activeSetTimestamp: snap.ActiveSetTimestamp,
		activation:         bus,
		activationConsumer: bus.Register(),
	}
}
