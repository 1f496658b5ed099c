// Package persist serializes the durable state of a running simulation:
// every rigid body, every collider, and the spatial index built over
// them. It deliberately excludes anything that is pure runtime plumbing
// — the activation channel, the canSleep/stack scratch slices, the
// removal bus — all of which a restored simulation rebuilds empty
// rather than needing to recover.
package persist

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/strata-phys/strata/bvh"
	"github.com/strata-phys/strata/dynamics"
	"github.com/strata-phys/strata/geometry"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	magic         = "STRW"
	formatVersion = uint16(1)
	headerSize    = 4 + 2 + 8 + 4 // Magic + Version + DataLen + Checksum
)

// header frames the msgpack payload the same way the pack's reference
// binary codec does: a fixed-size preamble an implementation on another
// platform can validate before touching the variable-length body.
type header struct {
	Magic    [4]byte
	Version  uint16
	DataLen  uint64
	Checksum uint32
}

var (
	ErrBadMagic           = errors.New("persist: bad magic bytes")
	ErrUnsupportedVersion = errors.New("persist: unsupported format version")
	ErrChecksumMismatch   = errors.New("persist: checksum mismatch")
	ErrTruncated          = errors.New("persist: data too short")
)

// TreeSnapshot is the serializable form of a bvh.Tree: its three
// exported slices, whose element types already carry msgpack tags. The
// invalid sentinel used to pad sparse proxy slots is not part of this,
// same as it is not part of bvh.Tree's own exported state — RestoreTree
// takes it as an argument, mirroring bvh.New.
type TreeSnapshot[T bvh.IndexedData] struct {
	Nodes      []bvh.Node     `msgpack:"nodes"`
	DirtyNodes []uint32       `msgpack:"dirtyNodes"`
	Proxies    []bvh.Proxy[T] `msgpack:"proxies"`
}

// SnapshotTree captures t's entire persistable state.
func SnapshotTree[T bvh.IndexedData](t *bvh.Tree[T]) TreeSnapshot[T] {
	return TreeSnapshot[T]{
		Nodes:      append([]bvh.Node(nil), t.Nodes...),
		DirtyNodes: append([]uint32(nil), t.DirtyNodes...),
		Proxies:    append([]bvh.Proxy[T](nil), t.Proxies...),
	}
}

// RestoreTree rebuilds a bvh.Tree from a snapshot taken by SnapshotTree.
func RestoreTree[T bvh.IndexedData](snap TreeSnapshot[T], invalid T) *bvh.Tree[T] {
	t := bvh.New(invalid)
	t.Nodes = snap.Nodes
	t.DirtyNodes = snap.DirtyNodes
	t.Proxies = snap.Proxies
	return t
}

// World is the full persisted-state contract: every body, every
// collider, and the spatial index tracking them. T is whatever a
// caller's spatial index tracks (ordinarily a small wrapper around a
// geometry.ColliderHandle satisfying bvh.IndexedData); J is the joint
// payload type carried by the caller's joint graph.
type World[T bvh.IndexedData, J any] struct {
	Bodies    dynamics.BodySetSnapshot[J]  `msgpack:"bodies"`
	Colliders geometry.ColliderSetSnapshot `msgpack:"colliders"`
	Tree      TreeSnapshot[T]              `msgpack:"tree"`
}

// Snapshot captures the full persisted state of a running simulation.
func Snapshot[T bvh.IndexedData, J any](bodies *dynamics.BodySet[J], colliders *geometry.ColliderSet, tree *bvh.Tree[T]) World[T, J] {
	return World[T, J]{
		Bodies:    bodies.Snapshot(),
		Colliders: colliders.Snapshot(),
		Tree:      SnapshotTree(tree),
	}
}

// Restore rebuilds the three stores a World snapshot covers.
// invalidProxy is the caller's bvh.IndexedData sentinel, the same value
// it would otherwise pass to bvh.New.
func Restore[T bvh.IndexedData, J any](w World[T, J], invalidProxy T) (*dynamics.BodySet[J], *geometry.ColliderSet, *bvh.Tree[T]) {
	bodies := dynamics.RestoreBodySet[J](w.Bodies)
	colliders := geometry.RestoreColliderSet(w.Colliders)
	tree := RestoreTree(w.Tree, invalidProxy)
	return bodies, colliders, tree
}

// Encode serializes w as a fixed header (magic, format version, payload
// length, checksum) followed by its msgpack payload.
func Encode[T bvh.IndexedData, J any](w World[T, J]) ([]byte, error) {
	data, err := msgpack.Marshal(w)
	if err != nil {
		return nil, err
	}

	h := header{
		Version:  formatVersion,
		DataLen:  uint64(len(data)),
		Checksum: checksum(data),
	}
	copy(h.Magic[:], magic)

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	buf.Write(data)
	return buf.Bytes(), nil
}

// Decode parses the format Encode produces, validating the magic bytes,
// format version, and checksum before handing the payload to msgpack.
func Decode[T bvh.IndexedData, J any](raw []byte) (World[T, J], error) {
	var w World[T, J]

	if len(raw) < headerSize {
		return w, ErrTruncated
	}

	var h header
	if err := binary.Read(bytes.NewReader(raw[:headerSize]), binary.LittleEndian, &h); err != nil {
		return w, err
	}
	if string(h.Magic[:]) != magic {
		return w, ErrBadMagic
	}
	if h.Version > formatVersion {
		return w, ErrUnsupportedVersion
	}

	data := raw[headerSize:]
	if uint64(len(data)) != h.DataLen {
		return w, ErrTruncated
	}
	if checksum(data) != h.Checksum {
		return w, ErrChecksumMismatch
	}

	if err := msgpack.Unmarshal(data, &w); err != nil {
		return w, err
	}
	return w, nil
}

func checksum(data []byte) uint32 {
	var sum uint32
	for _, b := range data {
		sum = sum*31 + uint32(b)
	}
	return sum
}
