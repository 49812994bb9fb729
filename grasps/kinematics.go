// Package grasps generates and filters candidate grasp poses for a parallel gripper
// approaching a cuboid object. Candidates flow through a fixed pipeline: generation,
// parallel inverse-kinematics filtering, collision filtering, then best-grasp selection.
package grasps

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sbgisen/moveit-grasps/spatialmath"
)

// Per-candidate IK failures. These prune a single candidate and never abort a filtering
// batch; any other error returned by an IKSolver is treated as a solver error and also
// prunes only the one candidate.
var (
	// ErrNoIKSolution indicates the solver found no joint configuration for the pose.
	ErrNoIKSolution = errors.New("no ik solution found for pose")
	// ErrIKTimedOut indicates the solver gave up after its per-solve timeout.
	ErrIKTimedOut = errors.New("ik solve timed out")
)

// IKSolver searches for joint configurations that place the end effector at a desired pose.
// Solvers are not assumed to be safe for concurrent use; the filter gives each worker its
// own instance.
type IKSolver interface {
	// SearchPositionIK attempts to solve for the given pose within the timeout, starting
	// the search from the seed configuration.
	SearchPositionIK(ctx context.Context, pose spatialmath.Pose, seed []float64, timeout time.Duration) ([]float64, error)
	// BaseFrame reports the name of the frame solved poses must be expressed in.
	BaseFrame() string
}

// JointGroup describes a named group of joints, such as a manipulator arm, along with the
// end-effector groups attached to it and the means of instantiating IK solvers for it.
type JointGroup interface {
	Name() string
	// DoF returns the number of joint variables in the group.
	DoF() int
	// AttachedEndEffectors returns the names of end-effector groups attached to this group.
	AttachedEndEffectors() []string
	// DefaultIKTimeout returns the configured per-solve timeout, or zero if unset.
	DefaultIKTimeout() time.Duration
	// NewSolver instantiates a fresh IK solver for this group.
	NewSolver() (IKSolver, error)
}

// KinematicState is a mutable joint-configuration container supporting forward-kinematics
// queries. Implementations need not be safe for concurrent use; callers clone before mutating.
type KinematicState interface {
	// ModelFrame returns the name of the kinematic model's own root frame.
	ModelFrame() string
	// LinkTransform returns the pose of the named link in the model frame.
	LinkTransform(linkName string) (spatialmath.Pose, error)
	// SetJointGroupPositions sets the joint values of the named group.
	SetJointGroupPositions(group string, positions []float64)
	// Clone returns an independent copy of the state.
	Clone() KinematicState
}

// SceneMonitor provides consistent snapshots of the planning environment.
type SceneMonitor interface {
	// ClonedScene takes an exclusively read-locked snapshot of the current environment and
	// returns a clone of it that will not be mutated by other system components.
	ClonedScene() (CollisionScene, error)
}

// CollisionScene is a point-in-time copy of the environment used for collision queries.
type CollisionScene interface {
	IsStateColliding(state KinematicState, group string, verbose bool) bool
}
