// Package bvh implements a wide quadtree (W-tree): a bounding volume
// hierarchy whose internal nodes test four children at once instead of
// recursing into them one at a time. Proxies are keyed by the caller's
// own dense index, so a removal never has to compact the tree.
package bvh

import (
	"github.com/klauspost/cpuid/v2"
	"github.com/strata-phys/strata/math32"
)

// laneWidth is the branching factor: every node tests its four children
// (or four leaf proxies) in one pass.
const laneWidth = 4

// simdCapable records once, at package init, whether the host has a
// feature set wide enough to carry four packed float32 lanes through a
// single vector register (AVX2, or SSE4.1 as a narrower fallback). bvh
// has no hand-written assembly to gate behind this: Go offers no
// portable SIMD intrinsics short of writing and trusting unverified
// .s files, which is out of scope here. The flag is exposed so a
// caller building a release profile can log or assert on it; the
// 4-lane loops themselves are always the same tight, branch-light Go
// that the compiler is free to autovectorize on a capable host.
var simdCapable = cpuid.CPU.Supports(cpuid.AVX2) || cpuid.CPU.Supports(cpuid.SSE41)

// WAABB packs four axis-aligned bounding boxes into struct-of-arrays
// form so the four-wide tests below touch one lane of each component at
// a time instead of four separate boxes.
type WAABB struct {
	MinX [laneWidth]float32 `msgpack:"minX"`
	MinY [laneWidth]float32 `msgpack:"minY"`
	MinZ [laneWidth]float32 `msgpack:"minZ"`
	MaxX [laneWidth]float32 `msgpack:"maxX"`
	MaxY [laneWidth]float32 `msgpack:"maxY"`
	MaxZ [laneWidth]float32 `msgpack:"maxZ"`
}

// NewInvalidWAABB returns a WAABB whose every lane is the empty box: it
// intersects nothing and is absorbed by any merge.
func NewInvalidWAABB() WAABB {
	var w WAABB
	for i := 0; i < laneWidth; i++ {
		inv := math32.NewInvalidBox3()
		w.MinX[i], w.MinY[i], w.MinZ[i] = inv.Min.X, inv.Min.Y, inv.Min.Z
		w.MaxX[i], w.MaxY[i], w.MaxZ[i] = inv.Max.X, inv.Max.Y, inv.Max.Z
	}
	return w
}

// WAABBFromBoxes packs four boxes into one WAABB, one per lane.
func WAABBFromBoxes(boxes [laneWidth]math32.Box3) WAABB {
	var w WAABB
	for i, b := range boxes {
		w.MinX[i], w.MinY[i], w.MinZ[i] = b.Min.X, b.Min.Y, b.Min.Z
		w.MaxX[i], w.MaxY[i], w.MaxZ[i] = b.Max.X, b.Max.Y, b.Max.Z
	}
	return w
}

// SplatWAABB replicates a single box across all four lanes, used to
// broadcast a query box before testing it against a node's four
// children in one pass.
func SplatWAABB(box math32.Box3) WAABB {
	return WAABBFromBoxes([laneWidth]math32.Box3{box, box, box, box})
}

// Replace overwrites a single lane with box, used by the incremental
// builder when it fills in one child of an already-pushed node.
func (w *WAABB) Replace(lane int, box math32.Box3) {
	w.MinX[lane], w.MinY[lane], w.MinZ[lane] = box.Min.X, box.Min.Y, box.Min.Z
	w.MaxX[lane], w.MaxY[lane], w.MaxZ[lane] = box.Max.X, box.Max.Y, box.Max.Z
}

// Lane extracts lane as a plain Box3.
func (w *WAABB) Lane(lane int) math32.Box3 {
	return math32.Box3{
		Min: math32.Vector3{X: w.MinX[lane], Y: w.MinY[lane], Z: w.MinZ[lane]},
		Max: math32.Vector3{X: w.MaxX[lane], Y: w.MaxY[lane], Z: w.MaxZ[lane]},
	}
}

// Intersects tests each of w's four lanes against the matching lane of
// other and returns a bitmask with bit i set iff lane i overlaps.
// Calling code broadcasts a single query box into all four lanes of
// other via SplatWAABB first.
func (w *WAABB) Intersects(other *WAABB) uint8 {
	var mask uint8
	for i := 0; i < laneWidth; i++ {
		if w.MinX[i] <= other.MaxX[i] && w.MaxX[i] >= other.MinX[i] &&
			w.MinY[i] <= other.MaxY[i] && w.MaxY[i] >= other.MinY[i] &&
			w.MinZ[i] <= other.MaxZ[i] && w.MaxZ[i] >= other.MinZ[i] {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// Contains reports whether every lane of w contains the matching lane
// of other, the lane-wise equivalent of Box3.ContainsBox.
func (w *WAABB) Contains(other *WAABB) bool {
	for i := 0; i < laneWidth; i++ {
		if other.MinX[i] < w.MinX[i] || other.MinY[i] < w.MinY[i] || other.MinZ[i] < w.MinZ[i] ||
			other.MaxX[i] > w.MaxX[i] || other.MaxY[i] > w.MaxY[i] || other.MaxZ[i] > w.MaxZ[i] {
			return false
		}
	}
	return true
}

// DilateByFactor grows every lane outward by factor times its own
// extent, the margin that lets a refit skip re-propagating a moved
// collider's AABB every single step.
func (w *WAABB) DilateByFactor(factor float32) {
	for i := 0; i < laneWidth; i++ {
		dx := (w.MaxX[i] - w.MinX[i]) * factor
		dy := (w.MaxY[i] - w.MinY[i]) * factor
		dz := (w.MaxZ[i] - w.MinZ[i]) * factor
		w.MinX[i] -= dx
		w.MaxX[i] += dx
		w.MinY[i] -= dy
		w.MaxY[i] += dy
		w.MinZ[i] -= dz
		w.MaxZ[i] += dz
	}
}

// ToMergedAABB returns the union of all four lanes, used when a node's
// WAABB itself needs to be folded into its parent's candidate box.
func (w *WAABB) ToMergedAABB() math32.Box3 {
	merged := math32.NewInvalidBox3()
	for i := 0; i < laneWidth; i++ {
		lane := w.Lane(i)
		merged = merged.Merged(&lane)
	}
	return merged
}

// SIMDCapable reports whether cpuid detected a wide-enough feature set
// on this host to carry the four lanes above through a single vector
// register. Purely informational: every code path above runs
// identically regardless of its value.
func SIMDCapable() bool {
	return simdCapable
}
