package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// R4AA represents an R4 axis angle: a rotation of Theta radians about the unit axis (RX, RY, RZ).
type R4AA struct {
	Theta float64
	RX    float64
	RY    float64
	RZ    float64
}

// NewR4AA creates an empty R4AA struct representing a zero rotation.
func NewR4AA() *R4AA {
	return &R4AA{0, 0, 0, 1}
}

// AxisAngles returns the orientation in axis angle representation.
func (r4 *R4AA) AxisAngles() *R4AA {
	return r4
}

// Quaternion returns the orientation in quaternion representation.
func (r4 *R4AA) Quaternion() quat.Number {
	r4Normalized := *r4
	if r4.Theta == 0 {
		return quat.Number{Real: 1}
	}
	r4Normalized.Normalize()
	half := r4Normalized.Theta / 2
	s := math.Sin(half)
	return quat.Number{
		Real: math.Cos(half),
		Imag: s * r4Normalized.RX,
		Jmag: s * r4Normalized.RY,
		Kmag: s * r4Normalized.RZ,
	}
}

// EulerAngles returns the orientation in Euler angle representation.
func (r4 *R4AA) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(r4.Quaternion())
}

// Normalize scales the axis such that it is a unit vector.
func (r4 *R4AA) Normalize() {
	length := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if length == 0 {
		r4.RZ = 1
		return
	}
	r4.RX /= length
	r4.RY /= length
	r4.RZ /= length
}

// ToR3 returns the axis of the rotation as a vector.
func (r4 *R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX, Y: r4.RY, Z: r4.RZ}
}
