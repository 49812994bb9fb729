package spatialmath

import "math"

// SegmentCrossesRect determines whether a 3D segment, already known to cross the infinite
// plane of a rectangular face at parameter t, crosses within the face itself. (u1, v1) and
// (u2, v2) are the segment endpoints projected onto the face's in-plane coordinates, and a and
// b are the face's half extents along u and v. The in-plane crossing coordinates are returned
// alongside the result.
func SegmentCrossesRect(t, u1, v1, u2, v2, a, b float64) (bool, float64, float64) {
	if t < 0 || t > 1 {
		return false, 0, 0
	}
	u := u1 + t*(u2-u1)
	v := v1 + t*(v2-v1)
	if math.Abs(u) <= a && math.Abs(v) <= b {
		return true, u, v
	}
	return false, 0, 0
}
