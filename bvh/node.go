package bvh

// invalidIndex marks an empty child slot, an unset proxy, or a
// nonexistent parent.
const invalidIndex = ^uint32(0)

// IndexedData is the data a Tree stores in its leaves. Index must
// return a dense, caller-stable identifier: the tree uses it directly
// as a slot into its sparse proxies array, the way an arena.Handle's
// slot index would. Unlike the Rust ancestor's IndexedData trait (whose
// `default()` static method Go generics have no way to call through a
// type parameter alone), the zero/invalid value of T is supplied
// explicitly by the caller to New, not derived from the type itself.
type IndexedData interface {
	Index() int
}

// NodeIndex addresses one of the four lanes of a specific node.
type NodeIndex struct {
	Index uint32 `msgpack:"index"`
	Lane  uint8  `msgpack:"lane"`
}

// InvalidNodeIndex is the sentinel stored in a root node's parent
// field and in an unused proxy.
func InvalidNodeIndex() NodeIndex {
	return NodeIndex{Index: invalidIndex}
}

// IsInvalid reports whether n is the sentinel index.
func (n NodeIndex) IsInvalid() bool {
	return n.Index == invalidIndex
}

// Node is one entry of a Tree's node array. Leaf nodes store up to four
// proxy slots in Children; internal nodes store up to four child node
// indices.
type Node struct {
	WAABB    WAABB             `msgpack:"waabb"`
	Children [laneWidth]uint32 `msgpack:"children"`
	Parent   NodeIndex         `msgpack:"parent"`
	Leaf     bool              `msgpack:"leaf"`
	Dirty    bool              `msgpack:"dirty"`
}

// Proxy is one tracked item: the data the caller cares about, plus the
// node/lane it currently lives at.
type Proxy[T IndexedData] struct {
	Node NodeIndex `msgpack:"node"`
	Data T         `msgpack:"data"`
}
