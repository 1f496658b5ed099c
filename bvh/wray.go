package bvh

import "github.com/strata-phys/strata/math32"

// WRay splats a single ray across all four lanes so a node's WAABB can
// be tested against it in one pass, the ray-query counterpart to
// SplatWAABB.
type WRay struct {
	OX, OY, OZ [laneWidth]float32
	DX, DY, DZ [laneWidth]float32
}

// SplatWRay broadcasts origin/direction into every lane.
func SplatWRay(origin, direction math32.Vector3) WRay {
	var w WRay
	for i := 0; i < laneWidth; i++ {
		w.OX[i], w.OY[i], w.OZ[i] = origin.X, origin.Y, origin.Z
		w.DX[i], w.DY[i], w.DZ[i] = direction.X, direction.Y, direction.Z
	}
	return w
}

// IntersectsRay tests each of w's four lanes against ray and returns a
// bitmask with bit i set iff the ray reaches lane i's box at a
// parameter t in [0, maxToi]. Each lane runs the same slab test as
// math32.Ray.IntersectBox, clamped to maxToi instead of an unbounded
// ray.
func (w *WAABB) IntersectsRay(ray *WRay, maxToi float32) uint8 {
	var mask uint8
	for i := 0; i < laneWidth; i++ {
		if rayHitsLane(w, i, ray, maxToi) {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

func rayHitsLane(w *WAABB, lane int, ray *WRay, maxToi float32) bool {
	tmin := float32(0)
	tmax := maxToi

	mins := [3]float32{w.MinX[lane], w.MinY[lane], w.MinZ[lane]}
	maxs := [3]float32{w.MaxX[lane], w.MaxY[lane], w.MaxZ[lane]}
	origin := [3]float32{ray.OX[lane], ray.OY[lane], ray.OZ[lane]}
	dir := [3]float32{ray.DX[lane], ray.DY[lane], ray.DZ[lane]}

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < mins[axis] || origin[axis] > maxs[axis] {
				return false
			}
			continue
		}
		inv := 1 / dir[axis]
		t1 := (mins[axis] - origin[axis]) * inv
		t2 := (maxs[axis] - origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return false
		}
	}
	return true
}
