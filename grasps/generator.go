package grasps

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/sbgisen/moveit-grasps/spatialmath"
)

// Orientation deviation is weighted this much more heavily than position deviation when
// scoring candidates against the ideal pose.
const orientationDistanceScaling = 10.

// GraspGenerator enumerates candidate end-effector poses around a cuboid object. Each
// candidate approaches a face or corner with the fingers clear of the cuboid body, and is
// scored against a caller-configured ideal reference pose.
type GraspGenerator struct {
	logger         golog.Logger
	idealGraspPose spatialmath.Pose
	verbose        bool
}

// NewGraspGenerator returns a generator with a zero ideal grasp pose.
func NewGraspGenerator(logger golog.Logger) *GraspGenerator {
	return &GraspGenerator{
		logger:         logger,
		idealGraspPose: spatialmath.NewZeroPose(),
	}
}

// SetIdealGraspPose sets the reference pose candidates are scored against.
func (g *GraspGenerator) SetIdealGraspPose(pose spatialmath.Pose) {
	g.idealGraspPose = pose
}

// IdealGraspPose returns the reference pose candidates are scored against.
func (g *GraspGenerator) IdealGraspPose() spatialmath.Pose {
	return g.idealGraspPose
}

// SetVerbose enables extra per-candidate logging.
func (g *GraspGenerator) SetVerbose(verbose bool) {
	g.verbose = verbose
}

// GenerateGraspsFromMesh approximates the mesh with its oriented bounding box and generates
// grasps around that box.
func (g *GraspGenerator) GenerateGraspsFromMesh(mesh *spatialmath.Mesh, maxGraspSize float64, data *GraspData) ([]*Grasp, error) {
	boxPose, dims, err := spatialmath.BoundingBoxFromMesh(mesh)
	if err != nil {
		return nil, errors.Wrap(err, "cannot generate grasps for mesh")
	}
	return g.GenerateGrasps(boxPose, dims.X, dims.Y, dims.Z, maxGraspSize, data)
}

// GenerateGrasps enumerates grasp candidates around a cuboid of the given pose and extents.
// maxGraspSize is the widest opening of the gripper in meters; at least one cuboid dimension
// must fit within it. Candidates are returned in generation order.
func (g *GraspGenerator) GenerateGrasps(
	cuboidPose spatialmath.Pose,
	depth, width, height, maxGraspSize float64,
	data *GraspData,
) ([]*Grasp, error) {
	if data == nil {
		return nil, errors.New("no grasp data provided")
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if maxGraspSize <= 0 {
		return nil, errors.Errorf("max grasp size must be positive, got %f", maxGraspSize)
	}
	if depth > maxGraspSize && width > maxGraspSize && height > maxGraspSize {
		return nil, errors.Errorf(
			"gripper span %.3fm cannot reach around any axis of a %.3fx%.3fx%.3fm cuboid",
			maxGraspSize, depth, width, height)
	}

	var grasps []*Grasp
	for _, axis := range []Axis{XAxis, YAxis, ZAxis} {
		grasps = g.generateCuboidAxisGrasps(grasps, cuboidPose, [3]float64{depth, width, height}, axis, maxGraspSize, data)
	}
	g.logger.Debugf("generated %d grasp candidates", len(grasps))
	return grasps, nil
}

// generateCuboidAxisGrasps adds all candidates for which the gripper closes over the given
// cuboid axis. With cyclic partners (a, b, c), face grasps approach along the c axis onto the
// two faces perpendicular to it, sweeping a grid along b and along the approach depth; corner
// fans surround the four cuboid edges parallel to a.
func (g *GraspGenerator) generateCuboidAxisGrasps(
	grasps []*Grasp,
	cuboidPose spatialmath.Pose,
	dims [3]float64,
	axis Axis,
	maxGraspSize float64,
	data *GraspData,
) []*Grasp {
	a := int(axis)
	b := (a + 1) % 3
	c := (a + 2) % 3

	if dims[a] <= maxGraspSize {
		for _, sign := range []float64{1, -1} {
			normal := axisVector(c).Mul(sign)
			grasps = g.addFaceGrasps(grasps, cuboidPose, dims, a, b, c, normal, maxGraspSize, data)
		}
	} else if g.verbose {
		g.logger.Debugf("%s extent %.3fm exceeds gripper span %.3fm, skipping face grasps", axis, dims[a], maxGraspSize)
	}

	for _, signB := range []float64{1, -1} {
		for _, signC := range []float64{1, -1} {
			grasps = g.addCornerGrasps(grasps, cuboidPose, dims, a, b, c, signB, signC, data)
		}
	}
	return grasps
}

// addFaceGrasps sweeps a centered grid of poses across one cuboid face. normal is the
// outward normal of that face in the cuboid frame. Poses whose fingers would pass through
// the cuboid body are discarded; a face too small for a single grid step yields no poses.
func (g *GraspGenerator) addFaceGrasps(
	grasps []*Grasp,
	cuboidPose spatialmath.Pose,
	dims [3]float64,
	a, b, c int,
	normal r3.Vector,
	maxGraspSize float64,
	data *GraspData,
) []*Grasp {
	sweepCount := int(dims[b] / data.DeltaBetweenGrasps)
	usableDepth := math.Min(dims[c], data.GraspDepth)
	depthCount := int(usableDepth / data.DeltaBetweenDepthGrasps)
	if sweepCount == 0 || depthCount == 0 {
		return grasps
	}

	// Gripper frame: x closes over the grasp axis, z approaches along the inward face normal.
	zAxis := normal.Mul(-1)
	xAxis := axisVector(a)
	orientation := spatialmath.NewRotationMatrixFromAxes(xAxis, zAxis.Cross(xAxis), zAxis)

	sweepStart := -data.DeltaBetweenGrasps * float64(sweepCount-1) / 2
	for i := 0; i < sweepCount; i++ {
		alongFace := sweepStart + float64(i)*data.DeltaBetweenGrasps
		for j := 0; j < depthCount; j++ {
			fingerWrap := float64(j) * data.DeltaBetweenDepthGrasps
			standoff := dims[c]/2 + data.FingerLength - fingerWrap
			point := axisVector(b).Mul(alongFace).Add(normal.Mul(standoff))
			pose := spatialmath.Compose(cuboidPose, spatialmath.NewPose(point, orientation))
			if g.graspIntersects(cuboidPose, dims[0], dims[1], dims[2], pose, maxGraspSize, data) {
				if g.verbose {
					g.logger.Debugf("discarding face grasp at %v, fingers intersect the cuboid", pose.Point())
				}
				continue
			}
			grasps = g.addGrasp(grasps, pose, Axis(a), FaceGrasp, data)
		}
	}
	return grasps
}

// addCornerGrasps fans a fixed number of poses around one cuboid edge parallel to the grasp
// axis, at uniform angular steps strictly inside the exterior quadrant between the two
// adjacent face normals. The fan always yields NumRadialGrasps poses regardless of cuboid
// size; each stands off far enough that the fingertips just reach the edge.
func (g *GraspGenerator) addCornerGrasps(
	grasps []*Grasp,
	cuboidPose spatialmath.Pose,
	dims [3]float64,
	a, b, c int,
	signB, signC float64,
	data *GraspData,
) []*Grasp {
	edge := axisVector(b).Mul(signB * dims[b] / 2).Add(axisVector(c).Mul(signC * dims[c] / 2))
	normalB := axisVector(b).Mul(signB)
	normalC := axisVector(c).Mul(signC)

	xAxis := axisVector(a)
	step := (math.Pi / 2) / float64(data.NumRadialGrasps+1)
	for k := 0; k < data.NumRadialGrasps; k++ {
		angle := step * float64(k+1)
		outward := normalB.Mul(math.Cos(angle)).Add(normalC.Mul(math.Sin(angle))).Normalize()
		zAxis := outward.Mul(-1) // approach faces the edge
		point := edge.Add(outward.Mul(data.FingerLength))
		local := spatialmath.NewPose(point, spatialmath.NewRotationMatrixFromAxes(xAxis, zAxis.Cross(xAxis), zAxis))
		grasps = g.addGrasp(grasps, spatialmath.Compose(cuboidPose, local), Axis(a), CornerGrasp, data)
	}
	return grasps
}

// addGrasp packages a pose as a scored candidate, preserving insertion order.
func (g *GraspGenerator) addGrasp(grasps []*Grasp, pose spatialmath.Pose, axis Axis, graspType GraspType, data *GraspData) []*Grasp {
	return append(grasps, &Grasp{
		ID:    uuid.NewString(),
		Pose:  pose,
		Axis:  axis,
		Type:  graspType,
		Score: scoreGrasp(pose, g.idealGraspPose),
		Data:  data,
	})
}

// scoreGrasp rates how closely a candidate matches the ideal reference pose. The score is
// deterministic and strictly decreasing in both position and orientation deviation. Note
// that ChooseBestGrasp does not consult this score; the two metrics are independent.
func scoreGrasp(pose, ideal spatialmath.Pose) float64 {
	positionDist := pose.Point().Sub(ideal.Point()).Norm()
	orientationDist := spatialmath.QuatToR4AA(
		quat.Mul(quat.Conj(ideal.Orientation().Quaternion()), pose.Orientation().Quaternion())).Theta
	return 1 / (1 + positionDist + orientationDistanceScaling*orientationDist)
}

// graspIntersects reports whether either finger of a gripper at graspPose would sweep
// through the cuboid body. Each fingertip travels from the palm plane along the approach
// direction; the pose is rejected if either travel segment crosses any cuboid face.
func (g *GraspGenerator) graspIntersects(
	cuboidPose spatialmath.Pose,
	depth, width, height float64,
	graspPose spatialmath.Pose,
	maxGraspSize float64,
	data *GraspData,
) bool {
	local := spatialmath.PoseBetween(cuboidPose, graspPose)
	rotation := spatialmath.NewPoseFromOrientation(local.Orientation())
	closing := spatialmath.TransformPoint(rotation, r3.Vector{X: 1})
	approach := spatialmath.TransformPoint(rotation, r3.Vector{Z: 1})

	halfExtents := r3.Vector{X: depth / 2, Y: width / 2, Z: height / 2}
	for _, side := range []float64{1, -1} {
		start := local.Point().Add(closing.Mul(side * maxGraspSize / 2))
		end := start.Add(approach.Mul(data.FingerLength))
		if segmentCrossesCuboid(start, end, halfExtents) {
			return true
		}
	}
	return false
}

// segmentCrossesCuboid checks a segment, given in the cuboid's frame, against all six faces
// of an origin-centered cuboid with the given half extents.
func segmentCrossesCuboid(start, end, halfExtents r3.Vector) bool {
	startCoords := [3]float64{start.X, start.Y, start.Z}
	endCoords := [3]float64{end.X, end.Y, end.Z}
	extents := [3]float64{halfExtents.X, halfExtents.Y, halfExtents.Z}

	inside := func(coords [3]float64) bool {
		return math.Abs(coords[0]) <= extents[0] && math.Abs(coords[1]) <= extents[1] && math.Abs(coords[2]) <= extents[2]
	}
	if inside(startCoords) || inside(endCoords) {
		return true
	}

	for axis := 0; axis < 3; axis++ {
		u := (axis + 1) % 3
		v := (axis + 2) % 3
		span := endCoords[axis] - startCoords[axis]
		if math.Abs(span) < 1e-12 {
			continue
		}
		for _, side := range []float64{1, -1} {
			t := (side*extents[axis] - startCoords[axis]) / span
			crosses, _, _ := spatialmath.SegmentCrossesRect(
				t, startCoords[u], startCoords[v], endCoords[u], endCoords[v], extents[u], extents[v])
			if crosses {
				return true
			}
		}
	}
	return false
}

func axisVector(axis int) r3.Vector {
	switch axis {
	case 0:
		return r3.Vector{X: 1}
	case 1:
		return r3.Vector{Y: 1}
	default:
		return r3.Vector{Z: 1}
	}
}
