package grasps

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Minimum spacing in meters between generated grasps.
const minGraspDistance = 0.001

// GraspData holds the constants describing one gripper: its finger geometry, its approach
// conventions, and the discretization used when sweeping candidate poses. It is read-only
// input to grasp generation and is carried on every candidate it produces.
type GraspData struct {
	// EEParentLink is the arm link the end effector is attached to.
	EEParentLink string `json:"ee_parent_link"`
	// FingerLength is the distance in meters from the gripper palm to the fingertips.
	FingerLength float64 `json:"finger_length"`
	// GraspDepth is how far in meters the object may sit within the fingers. Must not
	// exceed FingerLength.
	GraspDepth float64 `json:"grasp_depth"`
	// ApproachDirection is the unit direction, in the gripper frame, the gripper travels
	// along when approaching the object.
	ApproachDirection r3.Vector `json:"approach_direction"`
	// ApproachDistance is how far in meters the pre-grasp pose stands off from the grasp
	// pose along the negated approach direction.
	ApproachDistance float64 `json:"approach_distance"`
	// DeltaBetweenGrasps is the grid spacing in meters when sweeping across a face.
	DeltaBetweenGrasps float64 `json:"delta_between_grasps"`
	// DeltaBetweenDepthGrasps is the grid spacing in meters along the approach depth.
	DeltaBetweenDepthGrasps float64 `json:"delta_between_depth_grasps"`
	// NumRadialGrasps is the fixed number of poses fanned around each cuboid corner.
	NumRadialGrasps int `json:"num_radial_grasps"`
	// IKTimeout is the default per-solve IK timeout in seconds, used when the joint group
	// does not configure its own.
	IKTimeout float64 `json:"ik_timeout_sec"`
}

// Validate checks that the gripper constants describe a usable gripper.
func (gd *GraspData) Validate() error {
	var err error
	if gd.FingerLength <= 0 {
		err = multierr.Combine(err, errors.New("finger_length must be positive"))
	}
	if gd.GraspDepth <= 0 || gd.GraspDepth > gd.FingerLength {
		err = multierr.Combine(err, errors.New("grasp_depth must be positive and no longer than finger_length"))
	}
	if gd.ApproachDirection.Norm() == 0 {
		err = multierr.Combine(err, errors.New("approach_direction must be a non-zero vector"))
	}
	if gd.ApproachDistance <= 0 {
		err = multierr.Combine(err, errors.New("approach_distance must be positive"))
	}
	if gd.DeltaBetweenGrasps < minGraspDistance {
		err = multierr.Combine(err, errors.Errorf("delta_between_grasps must be at least %.3fm", minGraspDistance))
	}
	if gd.DeltaBetweenDepthGrasps < minGraspDistance {
		err = multierr.Combine(err, errors.Errorf("delta_between_depth_grasps must be at least %.3fm", minGraspDistance))
	}
	if gd.NumRadialGrasps <= 0 {
		err = multierr.Combine(err, errors.New("num_radial_grasps must be positive"))
	}
	return err
}

// LoadGraspData reads gripper constants from a JSON file and validates them. An omitted
// approach direction defaults to the gripper's +z axis.
func LoadGraspData(path string) (*GraspData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read grasp data %q", path)
	}
	var gd GraspData
	if err := json.Unmarshal(raw, &gd); err != nil {
		return nil, errors.Wrapf(err, "cannot parse grasp data %q", path)
	}
	if gd.ApproachDirection.Norm() == 0 {
		gd.ApproachDirection = r3.Vector{Z: 1}
	}
	if err := gd.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid grasp data %q", path)
	}
	return &gd, nil
}
