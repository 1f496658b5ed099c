package geometry

import (
	"github.com/strata-phys/strata/arena"
	"github.com/strata-phys/strata/core"
	"github.com/strata-phys/strata/math32"
)

// ColliderSnapshot is the serializable form of a single collider. Shape
// is deliberately absent: this package never depends on a concrete
// shape representation (sphere, box, convex hull, ...), so persisting
// one is out of scope here the same way computing a narrow-phase
// contact is. A caller that needs shapes to survive a save/load cycle
// re-attaches them itself, keyed by the restored ColliderHandle.
type ColliderSnapshot struct {
	Parent BodyHandle `msgpack:"parent"`

	Position          math32.Vector3 `msgpack:"position"`
	PredictedPosition math32.Vector3 `msgpack:"predictedPosition"`
	Delta             math32.Vector3 `msgpack:"delta"`

	ProxyIndex int `msgpack:"proxyIndex"`
}

// ColliderSetSnapshot is the serializable form of a ColliderSet. The
// removal bus and its consumer cursors carry no state worth persisting;
// RestoreColliderSet rebuilds it empty, same as NewColliderSet.
type ColliderSetSnapshot struct {
	Colliders []arena.Snapshot[ColliderSnapshot] `msgpack:"colliders"`
}

// Snapshot captures cs's entire persistable state.
func (cs *ColliderSet) Snapshot() ColliderSetSnapshot {
	raw := cs.colliders.Export()
	out := make([]arena.Snapshot[ColliderSnapshot], len(raw))
	for i, s := range raw {
		out[i] = arena.Snapshot[ColliderSnapshot]{
			Generation: s.Generation,
			Occupied:   s.Occupied,
			Value: ColliderSnapshot{
				Parent:            s.Value.Parent,
				Position:          s.Value.Position,
				PredictedPosition: s.Value.PredictedPosition,
				Delta:             s.Value.Delta,
				ProxyIndex:        s.Value.proxyIndex,
			},
		}
	}
	return ColliderSetSnapshot{Colliders: out}
}

// RestoreColliderSet rebuilds a ColliderSet from a snapshot taken by
// Snapshot. Every restored collider's Shape is nil; a caller that
// persisted shapes alongside must re-attach them after this call.
func RestoreColliderSet(snap ColliderSetSnapshot) *ColliderSet {
	raw := make([]arena.Snapshot[Collider], len(snap.Colliders))
	for i, s := range snap.Colliders {
		raw[i] = arena.Snapshot[Collider]{
			Generation: s.Generation,
			Occupied:   s.Occupied,
			Value: Collider{
				Parent:            s.Value.Parent,
				Position:          s.Value.Position,
				PredictedPosition: s.Value.PredictedPosition,
				Delta:             s.Value.Delta,
				proxyIndex:        s.Value.ProxyIndex,
			},
		}
	}
	return &ColliderSet{
		colliders: arena.Restore(raw),
		removed:   core.NewBus[RemovedCollider](),
	}
}
