package grasps

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/sbgisen/moveit-grasps/spatialmath"
)

func pitchedSolution(id string, pitch float64) *GraspSolution {
	return &GraspSolution{
		Grasp: &Grasp{
			ID:   id,
			Pose: spatialmath.NewPose(r3.Vector{X: 0.3}, &spatialmath.EulerAngles{Pitch: pitch}),
			Data: testGraspData(),
		},
		GraspConfiguration: []float64{0, 0, 0, 0, 0, 0},
	}
}

func TestChooseBestGraspEmpty(t *testing.T) {
	logger := golog.NewTestLogger(t)
	_, err := ChooseBestGrasp(logger, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestChooseBestGraspPrefersSteepestPitch(t *testing.T) {
	logger := golog.NewTestLogger(t)
	shallow := pitchedSolution("shallow", 0.3)
	steep := pitchedSolution("steep", 0.7)

	best, err := ChooseBestGrasp(logger, []*GraspSolution{shallow, steep})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, best, test.ShouldEqual, steep)

	best, err = ChooseBestGrasp(logger, []*GraspSolution{steep, shallow})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, best, test.ShouldEqual, steep)
}

func TestChooseBestGraspTieKeepsFirst(t *testing.T) {
	logger := golog.NewTestLogger(t)
	first := pitchedSolution("first", 0.5)
	second := pitchedSolution("second", 0.5)

	best, err := ChooseBestGrasp(logger, []*GraspSolution{first, second})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, best, test.ShouldEqual, first)
}

func TestChooseBestGraspIgnoresScore(t *testing.T) {
	logger := golog.NewTestLogger(t)
	lowScore := pitchedSolution("low-score", 0.7)
	lowScore.Grasp.Score = 0.01
	highScore := pitchedSolution("high-score", 0.2)
	highScore.Grasp.Score = 0.99

	best, err := ChooseBestGrasp(logger, []*GraspSolution{highScore, lowScore})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, best, test.ShouldEqual, lowScore)
}
