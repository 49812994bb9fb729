package grasps

import "github.com/pkg/errors"

// FilterGraspsInCollision removes grasp solutions whose grasp joint configuration collides
// with the environment. One consistent scene snapshot is cloned for the whole pass, and
// solutions are checked in their original order against an exclusively owned copy of the
// seed state. Pre-grasp configurations are checked only when SetCheckPregraspCollisions was
// enabled. If the pass prunes everything and the caller did not ask for verbose mode, the
// whole pass is re-run once in verbose mode on the original input and that result is final.
func (f *GraspFilter) FilterGraspsInCollision(
	solutions []*GraspSolution,
	monitor SceneMonitor,
	arm JointGroup,
	seedState KinematicState,
	verbose bool,
) ([]*GraspSolution, error) {
	if len(solutions) == 0 {
		return nil, errors.New("unable to filter grasps for collision, no solutions were passed in")
	}
	if monitor == nil {
		return nil, errors.New("unable to filter grasps for collision without a scene monitor")
	}

	if verbose {
		return f.filterCollisionOnce(solutions, monitor, arm, seedState, true)
	}
	return retryEmptyVerbose(f.logger, "collision filter", func(v bool) ([]*GraspSolution, error) {
		return f.filterCollisionOnce(solutions, monitor, arm, seedState, v)
	})
}

func (f *GraspFilter) filterCollisionOnce(
	solutions []*GraspSolution,
	monitor SceneMonitor,
	arm JointGroup,
	seedState KinematicState,
	verbose bool,
) ([]*GraspSolution, error) {
	// Working copy of the current state; collision checks must not disturb the caller's.
	state := seedState.Clone()

	scene, err := monitor.ClonedScene()
	if err != nil {
		return nil, errors.Wrap(err, "cannot snapshot planning scene")
	}

	f.logger.Debugf("collision checking %d grasp solutions", len(solutions))
	kept := make([]*GraspSolution, 0, len(solutions))
	for _, solution := range solutions {
		state.SetJointGroupPositions(arm.Name(), solution.GraspConfiguration)
		if scene.IsStateColliding(state, arm.Name(), verbose) {
			if verbose {
				f.logger.Infof("grasp solution %s colliding", solution.Grasp.ID)
			}
			continue
		}

		if f.checkPregraspCollisions && len(solution.PregraspConfiguration) > 0 {
			state.SetJointGroupPositions(arm.Name(), solution.PregraspConfiguration)
			if scene.IsStateColliding(state, arm.Name(), verbose) {
				if verbose {
					f.logger.Infof("pre-grasp solution %s colliding", solution.Grasp.ID)
				}
				continue
			}
		}

		kept = append(kept, solution)
	}

	f.logger.Infof("after collision checking %d of %d grasps remain valid", len(kept), len(solutions))
	return kept, nil
}
