// Package spatialmath defines spatial mathematical operations: rigid poses,
// orientations, triangle meshes, and the geometric queries grasp generation needs.
package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// If two angles differ by less than this amount, we consider them the same for the purpose of doing
// math around the poles of orientation.
const angleEpsilon = 1e-4 // radians

// Orientation is an interface used to express the different parameterizations of the orientation
// of a rigid object in 3D Euclidean space.
type Orientation interface {
	Quaternion() quat.Number
	AxisAngles() *R4AA
	EulerAngles() *EulerAngles
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return Quaternion{Real: 1}
}

// Quaternion is an orientation in quaternion representation.
type Quaternion quat.Number

// Quaternion returns the orientation in quaternion representation.
func (q Quaternion) Quaternion() quat.Number {
	return quat.Number(q)
}

// AxisAngles returns the orientation in axis angle representation.
func (q Quaternion) AxisAngles() *R4AA {
	return QuatToR4AA(quat.Number(q))
}

// EulerAngles returns the orientation in Euler angle representation.
func (q Quaternion) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(quat.Number(q))
}

// OrientationBetween returns the orientation representing the rotation taking o1 to o2.
func OrientationBetween(o1, o2 Orientation) Orientation {
	return Quaternion(quat.Mul(quat.Conj(o1.Quaternion()), o2.Quaternion()))
}

// OrientationAlmostEqual will return a bool describing whether 2 orientations are within the
// angleEpsilon of one another.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuatToR4AA(OrientationBetween(o1, o2).Quaternion()).Theta < angleEpsilon
}

// QuatToR4AA converts a quaternion to an R4 axis angle in the same way the C++ Eigen library does.
// The returned angle is in [0, pi].
func QuatToR4AA(q quat.Number) *R4AA {
	q = normalizeQuat(q)
	// Keep the shortest arc; q and -q represent the same rotation.
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	denom := math.Sqrt(1 - q.Real*q.Real)
	theta := 2 * math.Acos(clamp(q.Real, -1, 1))
	if denom < 1e-10 {
		// Rotation is nearly zero, axis is arbitrary.
		return &R4AA{theta, 0, 0, 1}
	}
	return &R4AA{theta, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}

// QuatToEulerAngles converts a quaternion to the roll/pitch/yaw Tait-Bryan representation.
func QuatToEulerAngles(q quat.Number) *EulerAngles {
	q = normalizeQuat(q)
	ea := &EulerAngles{}
	ea.Roll = math.Atan2(2*(q.Real*q.Imag+q.Jmag*q.Kmag), 1-2*(q.Imag*q.Imag+q.Jmag*q.Jmag))
	ea.Pitch = math.Asin(clamp(2*(q.Real*q.Jmag-q.Kmag*q.Imag), -1, 1))
	ea.Yaw = math.Atan2(2*(q.Real*q.Kmag+q.Imag*q.Jmag), 1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag))
	return ea
}

func normalizeQuat(q quat.Number) quat.Number {
	length := quat.Abs(q)
	if length == 0 {
		return quat.Number{Real: 1}
	}
	if length == 1 {
		return q
	}
	return quat.Scale(1/length, q)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
