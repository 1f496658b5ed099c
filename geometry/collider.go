// Package geometry implements the collider set: the proxies narrow-phase
// and broad-phase collaborators actually operate on, each owned by
// exactly one rigid body.
package geometry

import (
	"github.com/strata-phys/strata/arena"
	"github.com/strata-phys/strata/math32"
)

// ColliderHandle identifies a collider owned by a ColliderSet. A plain
// alias of arena.Handle, matching dynamics.ColliderHandle so the two
// packages can pass handles to each other without conversion.
type ColliderHandle = arena.Handle

// BodyHandle identifies the owning rigid body, defined locally for the
// same reason as ColliderHandle.
type BodyHandle = arena.Handle

// Shape is the narrow-phase geometry a collider wraps. Its concrete
// representation (sphere, box, convex hull, ...) is out of scope for
// this package; Shape only needs to answer its own local-space AABB.
type Shape interface {
	LocalAABB() math32.Box3
}

// Collider is a single entry in a ColliderSet.
type Collider struct {
	Parent BodyHandle

	Shape Shape

	// Position and PredictedPosition are derived from the parent body's
	// pose composed with Delta at insertion time, and kept up to date by
	// the caller thereafter (this package never recomputes them itself).
	Position          math32.Vector3
	PredictedPosition math32.Vector3
	Delta             math32.Vector3

	proxyIndex int
}

// ProxyIndex is this collider's slot in the owning spatial index (the
// W-tree), recorded here so ColliderSet.Remove can publish it alongside
// the handle.
func (c *Collider) ProxyIndex() int {
	return c.proxyIndex
}

// SetProxyIndex records this collider's slot in the owning spatial
// index. The broad-phase collaborator that inserts a collider's AABB
// into its index calls this with the slot it assigned, so a later
// ColliderSet.Remove can publish that slot in RemovedCollider and let
// the same collaborator reclaim it.
func (c *Collider) SetProxyIndex(idx int) {
	c.proxyIndex = idx
}

// ComputeAABB returns the collider's current world-space bounding box:
// its shape's local AABB translated to Position.
func (c *Collider) ComputeAABB() math32.Box3 {
	if c.Shape == nil {
		return math32.NewInvalidBox3()
	}
	box := c.Shape.LocalAABB()
	box.Translate(&c.Position)
	return box
}

func (c *Collider) resetInternalReferences() {
	c.proxyIndex = -1
}
