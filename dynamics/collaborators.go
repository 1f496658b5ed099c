package dynamics

// ColliderParentLookup is the slice of a geometry.ColliderSet that
// BodySet needs during island traversal: given a collider handle on the
// far side of a contact, find the body it belongs to.
type ColliderParentLookup interface {
	ParentOf(h ColliderHandle) BodyHandle
}

// ContactManifold reports how many of its contact points are currently
// generating a force. A manifold with zero active contacts does not keep
// its two bodies awake.
type ContactManifold interface {
	NumActiveContacts() int
}

// ContactPair is the narrow-phase output for a single colliding pair:
// zero or more manifolds, each possibly touching or separating.
type ContactPair struct {
	Manifolds []ContactManifold
}

// NarrowPhaseContact names the two colliders a ContactPair was computed
// for, alongside the contacts themselves.
type NarrowPhaseContact struct {
	Collider1 ColliderHandle
	Collider2 ColliderHandle
	Contacts  ContactPair
}

// NarrowPhase is the external narrow-phase collaborator: given a
// collider, it reports every contact pair currently touching it.
type NarrowPhase interface {
	ContactsWith(h ColliderHandle) ([]NarrowPhaseContact, bool)
}

// Interaction is one edge of a joint interaction graph: a joint of type
// J connecting two bodies.
type Interaction[J any] struct {
	Body1 BodyHandle
	Body2 BodyHandle
	Joint J
}

// InteractionGraph is the external joint graph collaborator: given a
// body's joint-graph index, it reports every joint edge touching it.
type InteractionGraph[J any] interface {
	InteractionsWith(graphIndex uint32) []Interaction[J]
}

// JointSet is the external joint-storage collaborator, invoked when a
// body is removed so any joints attached to it are detached too.
type JointSet[J any] interface {
	RemoveRigidBody(jointGraphIndex uint32, bodies *BodySet[J])
}
