package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// dualQuaternion defines a rigid 3D transformation backed by a unit dual quaternion. The real
// part holds the rotation and the dual part encodes half the translation against the rotation.
type dualQuaternion struct {
	dualquat.Number
}

// newDualQuaternion returns a pointer to a new dualQuaternion object whose real part is an
// identity quaternion. Since the real part of a dual quaternion should be a unit quaternion,
// not all zeroes, this should be used instead of &dualQuaternion{}.
func newDualQuaternion() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// newDualQuaternionFromPose lossily converts a Pose to its dual quaternion backing. Poses are
// immutable, so an existing dualQuaternion may be shared rather than copied.
func newDualQuaternionFromPose(p Pose) *dualQuaternion {
	if q, ok := p.(*dualQuaternion); ok {
		return q
	}
	q := newDualQuaternion()
	q.Real = normalizeQuat(p.Orientation().Quaternion())
	q.setTranslation(p.Point())
	return q
}

// Point returns the translation of the transform.
func (q *dualQuaternion) Point() r3.Vector {
	tq := quat.Scale(2, quat.Mul(q.Dual, quat.Conj(q.Real)))
	return r3.Vector{X: tq.Imag, Y: tq.Jmag, Z: tq.Kmag}
}

// Orientation returns the rotation of the transform.
func (q *dualQuaternion) Orientation() Orientation {
	return Quaternion(q.Real)
}

// setTranslation correctly sets the translation quaternion against the rotation.
func (q *dualQuaternion) setTranslation(pt r3.Vector) {
	tq := quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}
	q.Dual = quat.Scale(0.5, quat.Mul(tq, q.Real))
}

// invert returns the inverse transform. Valid only because the real part is kept unit length.
func (q *dualQuaternion) invert() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Conj(q.Real),
		Dual: quat.Conj(q.Dual),
	}}
}
