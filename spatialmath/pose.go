package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Maximum distance in meters for two poses to be considered coincident.
const defaultDistanceEpsilon = 1e-8

// Pose represents a rigid 3D transform: a position and an orientation. Poses are immutable
// value types and may be copied and shared freely.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose creates a new pose from a point and an orientation.
func NewPose(p r3.Vector, o Orientation) Pose {
	q := newDualQuaternion()
	if o != nil {
		q.Real = normalizeQuat(o.Quaternion())
	}
	q.setTranslation(p)
	return q
}

// NewPoseFromPoint creates a new pose from a point with no rotation.
func NewPoseFromPoint(p r3.Vector) Pose {
	q := newDualQuaternion()
	q.setTranslation(p)
	return q
}

// NewPoseFromOrientation creates a new pose at the origin with the given orientation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// Compose returns the pose of b within the frame of a, the product a * b.
func Compose(a, b Pose) Pose {
	result := &dualQuaternion{dualquat.Mul(newDualQuaternionFromPose(a).Number, newDualQuaternionFromPose(b).Number)}
	// Floating point errors accumulate in the real part; keep it unit length.
	if length := quat.Abs(result.Real); length != 1 {
		result.Number = dualquat.Scale(1/length, result.Number)
	}
	return result
}

// PoseInverse returns the inverse of the given pose, such that Compose(p, PoseInverse(p)) is
// the identity.
func PoseInverse(p Pose) Pose {
	return newDualQuaternionFromPose(p).invert()
}

// PoseBetween returns the pose of b relative to a, the transform taking a to b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// TransformPoint applies the rigid transform p to the point pt.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	q := p.Orientation().Quaternion()
	v := quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}
	rotated := quat.Mul(quat.Mul(q, v), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}.Add(p.Point())
}

// PoseAlmostCoincident checks if two poses approximately occupy the same position, ignoring
// orientation.
func PoseAlmostCoincident(a, b Pose) bool {
	return PoseAlmostCoincidentEps(a, b, defaultDistanceEpsilon)
}

// PoseAlmostCoincidentEps checks if two poses occupy positions within epsilon of one another.
func PoseAlmostCoincidentEps(a, b Pose, epsilon float64) bool {
	return a.Point().Sub(b.Point()).Norm2() < epsilon
}

// PoseAlmostEqual checks if two poses are approximately the same in both position and
// orientation.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostCoincident(a, b) && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}
