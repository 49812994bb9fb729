package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Extent in meters along a principal axis below which a mesh is considered degenerate.
const minBoundingBoxExtent = 1e-9

// BoundingBoxFromMesh computes an oriented bounding box approximating an arbitrary mesh. The
// box axes are the principal axes of the mesh's vertex cloud, ordered by decreasing variance,
// so the returned dims hold the full extents along the returned pose's local x, y and z. The
// returned pose is expressed in the frame the mesh's own pose is expressed in. Fails if the
// mesh has no vertices or has no volume along any principal axis.
func BoundingBoxFromMesh(mesh *Mesh) (Pose, r3.Vector, error) {
	var vertices []r3.Vector
	for _, triangle := range mesh.Triangles() {
		vertices = append(vertices, triangle.Points()...)
	}
	if len(vertices) == 0 {
		return nil, r3.Vector{}, errors.New("cannot compute the bounding box of an empty mesh")
	}

	centroid := r3.Vector{}
	for _, vertex := range vertices {
		centroid = centroid.Add(vertex)
	}
	centroid = centroid.Mul(1 / float64(len(vertices)))

	// Principal axes of the vertex cloud, via the eigendecomposition of its covariance.
	var xx, xy, xz, yy, yz, zz float64
	for _, vertex := range vertices {
		d := vertex.Sub(centroid)
		xx += d.X * d.X
		xy += d.X * d.Y
		xz += d.X * d.Z
		yy += d.Y * d.Y
		yz += d.Y * d.Z
		zz += d.Z * d.Z
	}
	covariance := mat.NewSymDense(3, []float64{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	})
	var eig mat.EigenSym
	if !eig.Factorize(covariance, true) {
		return nil, r3.Vector{}, errors.New("eigendecomposition of mesh covariance failed")
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues come back in ascending order; the largest-variance axis becomes local x.
	xAxis := r3.Vector{X: vectors.At(0, 2), Y: vectors.At(1, 2), Z: vectors.At(2, 2)}.Normalize()
	yAxis := r3.Vector{X: vectors.At(0, 1), Y: vectors.At(1, 1), Z: vectors.At(2, 1)}.Normalize()
	zAxis := xAxis.Cross(yAxis) // force a right-handed frame

	minExtent := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	maxExtent := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, vertex := range vertices {
		d := vertex.Sub(centroid)
		projected := r3.Vector{X: d.Dot(xAxis), Y: d.Dot(yAxis), Z: d.Dot(zAxis)}
		minExtent = r3.Vector{X: math.Min(minExtent.X, projected.X), Y: math.Min(minExtent.Y, projected.Y), Z: math.Min(minExtent.Z, projected.Z)}
		maxExtent = r3.Vector{X: math.Max(maxExtent.X, projected.X), Y: math.Max(maxExtent.Y, projected.Y), Z: math.Max(maxExtent.Z, projected.Z)}
	}
	dims := maxExtent.Sub(minExtent)
	if dims.X < minBoundingBoxExtent || dims.Y < minBoundingBoxExtent || dims.Z < minBoundingBoxExtent {
		return nil, r3.Vector{}, errors.Errorf("mesh is degenerate, bounding box extents are %v", dims)
	}

	middle := minExtent.Add(maxExtent).Mul(0.5)
	center := centroid.Add(xAxis.Mul(middle.X)).Add(yAxis.Mul(middle.Y)).Add(zAxis.Mul(middle.Z))
	boxInMesh := NewPose(center, NewRotationMatrixFromAxes(xAxis, yAxis, zAxis))
	return Compose(mesh.Pose(), boxInMesh), dims, nil
}
