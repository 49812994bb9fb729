package grasps

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// ChooseBestGrasp selects one final solution from a set of surviving grasps: the one whose
// grasp orientation maximizes the yaw-like projection asin(-2*(x*z - w*y)) of its
// quaternion, i.e. the most upright candidate by that single angle. Ties go to the
// first-seen solution. This deliberately does not reuse the quality score assigned at
// generation time; the two metrics are independent.
func ChooseBestGrasp(logger golog.Logger, solutions []*GraspSolution) (*GraspSolution, error) {
	if len(solutions) == 0 {
		return nil, errors.New("there are no grasps to choose from")
	}

	best := solutions[0]
	bestQuality := math.Inf(-1)
	for _, solution := range solutions {
		q := solution.Grasp.Pose.Orientation().Quaternion()
		quality := math.Asin(clampUnit(-2 * (q.Imag*q.Kmag - q.Real*q.Jmag)))
		if quality > bestQuality {
			bestQuality = quality
			best = solution
		}
	}

	logger.Infof("chose grasp %s with quality %f", best.Grasp.ID, bestQuality)
	return best, nil
}

func clampUnit(value float64) float64 {
	return math.Max(-1, math.Min(1, value))
}
