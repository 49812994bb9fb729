package grasps

import (
	"github.com/golang/geo/r3"

	"github.com/sbgisen/moveit-grasps/spatialmath"
)

// Axis identifies which cuboid axis the gripper closes over for a candidate.
type Axis int

// The three local axes of a cuboid.
const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

func (a Axis) String() string {
	switch a {
	case XAxis:
		return "x"
	case YAxis:
		return "y"
	case ZAxis:
		return "z"
	}
	return "unknown"
}

// GraspType identifies whether a candidate came from a face sweep or a corner fan.
type GraspType int

// The two families of generated candidates.
const (
	FaceGrasp GraspType = iota
	CornerGrasp
)

func (t GraspType) String() string {
	switch t {
	case FaceGrasp:
		return "face"
	case CornerGrasp:
		return "corner"
	}
	return "unknown"
}

// Grasp is one candidate end-effector pose, tagged with its originating cuboid axis and
// candidate family and an advisory quality score. Candidates are read-only once generated;
// their order within a batch is generation order, not score order.
type Grasp struct {
	ID    string
	Pose  spatialmath.Pose
	Axis  Axis
	Type  GraspType
	Score float64
	Data  *GraspData
}

// PreGraspDirection returns the unit direction from the grasp pose toward its pre-grasp
// standoff: the gripper's configured approach direction, negated and rotated from the frame
// of the gripper's parent link into the world frame.
func (g *Grasp) PreGraspDirection() r3.Vector {
	retreat := g.Data.ApproachDirection.Mul(-1)
	rotation := spatialmath.NewPoseFromOrientation(g.Pose.Orientation())
	return spatialmath.TransformPoint(rotation, retreat).Normalize()
}

// PreGraspPose returns the grasp pose translated backward along the approach direction by
// the gripper's configured approach distance. Orientation is unchanged.
func (g *Grasp) PreGraspPose() spatialmath.Pose {
	offset := g.PreGraspDirection().Mul(g.Data.ApproachDistance)
	return spatialmath.NewPose(g.Pose.Point().Add(offset), g.Pose.Orientation())
}
