package grasps

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/sbgisen/moveit-grasps/spatialmath"
)

type injectSolver struct {
	searchFunc func(ctx context.Context, pose spatialmath.Pose, seed []float64, timeout time.Duration) ([]float64, error)
	baseFrame  string
}

func (s *injectSolver) SearchPositionIK(
	ctx context.Context, pose spatialmath.Pose, seed []float64, timeout time.Duration,
) ([]float64, error) {
	return s.searchFunc(ctx, pose, seed, timeout)
}

func (s *injectSolver) BaseFrame() string {
	if s.baseFrame == "" {
		return "model"
	}
	return s.baseFrame
}

type injectJointGroup struct {
	name          string
	dof           int
	endEffectors  []string
	ikTimeout     time.Duration
	newSolverFunc func() (IKSolver, error)
}

func (j *injectJointGroup) Name() string                    { return j.name }
func (j *injectJointGroup) DoF() int                        { return j.dof }
func (j *injectJointGroup) AttachedEndEffectors() []string  { return j.endEffectors }
func (j *injectJointGroup) DefaultIKTimeout() time.Duration { return j.ikTimeout }
func (j *injectJointGroup) NewSolver() (IKSolver, error)    { return j.newSolverFunc() }

func newTestJointGroup(
	solve func(ctx context.Context, pose spatialmath.Pose, seed []float64, timeout time.Duration) ([]float64, error),
) *injectJointGroup {
	return &injectJointGroup{
		name:         "arm",
		dof:          6,
		endEffectors: []string{"gripper"},
		ikTimeout:    50 * time.Millisecond,
		newSolverFunc: func() (IKSolver, error) {
			return &injectSolver{searchFunc: solve}, nil
		},
	}
}

type injectState struct {
	modelFrame     string
	linkTransforms map[string]spatialmath.Pose
	positions      map[string][]float64
}

func newInjectState() *injectState {
	return &injectState{
		modelFrame:     "model",
		linkTransforms: map[string]spatialmath.Pose{},
		positions:      map[string][]float64{},
	}
}

func (s *injectState) ModelFrame() string { return s.modelFrame }

func (s *injectState) LinkTransform(linkName string) (spatialmath.Pose, error) {
	pose, ok := s.linkTransforms[linkName]
	if !ok {
		return nil, errors.Errorf("no link named %q", linkName)
	}
	return pose, nil
}

func (s *injectState) SetJointGroupPositions(group string, positions []float64) {
	s.positions[group] = positions
}

func (s *injectState) Clone() KinematicState {
	clone := newInjectState()
	clone.modelFrame = s.modelFrame
	for name, pose := range s.linkTransforms {
		clone.linkTransforms[name] = pose
	}
	for group, positions := range s.positions {
		clone.positions[group] = append([]float64{}, positions...)
	}
	return clone
}

type injectMonitor struct {
	clonedFunc func() (CollisionScene, error)
	calls      int
}

func (m *injectMonitor) ClonedScene() (CollisionScene, error) {
	m.calls++
	return m.clonedFunc()
}

type injectScene struct {
	collidingFunc func(state KinematicState, group string, verbose bool) bool
}

func (s *injectScene) IsStateColliding(state KinematicState, group string, verbose bool) bool {
	return s.collidingFunc(state, group, verbose)
}

func solveSuccessfully(
	context.Context, spatialmath.Pose, []float64, time.Duration,
) ([]float64, error) {
	return []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, nil
}

func makeTestGrasps(n int, data *GraspData) []*Grasp {
	grasps := make([]*Grasp, 0, n)
	for i := 0; i < n; i++ {
		grasps = append(grasps, &Grasp{
			ID:   string(rune('a' + i)),
			Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: float64(i) * 0.01}),
			Axis: XAxis,
			Type: FaceGrasp,
			Data: data,
		})
	}
	return grasps
}

func TestFilterGraspsPreconditions(t *testing.T) {
	logger := golog.NewTestLogger(t)
	filter := NewGraspFilter(logger, newInjectState())
	grasps := makeTestGrasps(3, testGraspData())

	_, err := filter.FilterGrasps(context.Background(), nil, false, newTestJointGroup(solveSuccessfully))
	test.That(t, err, test.ShouldNotBeNil)

	noEE := newTestJointGroup(solveSuccessfully)
	noEE.endEffectors = nil
	_, err = filter.FilterGrasps(context.Background(), grasps, false, noEE)
	test.That(t, err, test.ShouldNotBeNil)

	twoEE := newTestJointGroup(solveSuccessfully)
	twoEE.endEffectors = []string{"left", "right"}
	_, err = filter.FilterGrasps(context.Background(), grasps, false, twoEE)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFilterGraspsAllReachable(t *testing.T) {
	logger := golog.NewTestLogger(t)
	filter := NewGraspFilter(logger, newInjectState())
	grasps := makeTestGrasps(20, testGraspData())

	solutions, err := filter.FilterGrasps(context.Background(), grasps, false, newTestJointGroup(solveSuccessfully))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(solutions), test.ShouldEqual, len(grasps))
	for _, solution := range solutions {
		test.That(t, len(solution.GraspConfiguration), test.ShouldEqual, 6)
		test.That(t, len(solution.PregraspConfiguration), test.ShouldEqual, 0)
	}
}

func TestFilterGraspsPregraspSolutions(t *testing.T) {
	logger := golog.NewTestLogger(t)
	filter := NewGraspFilter(logger, newInjectState())
	grasps := makeTestGrasps(8, testGraspData())

	solutions, err := filter.FilterGrasps(context.Background(), grasps, true, newTestJointGroup(solveSuccessfully))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(solutions), test.ShouldEqual, len(grasps))
	for _, solution := range solutions {
		test.That(t, len(solution.PregraspConfiguration), test.ShouldEqual, 6)
	}
}

func TestFilterGraspsPregraspFailureDiscardsCandidate(t *testing.T) {
	logger := golog.NewTestLogger(t)
	filter := NewGraspFilter(logger, newInjectState())
	grasps := makeTestGrasps(5, testGraspData())

	// Grasps sit at z=0 and all solve; their pre-grasp poses retreat to z=-0.1 and never do.
	solve := func(ctx context.Context, pose spatialmath.Pose, seed []float64, timeout time.Duration) ([]float64, error) {
		if pose.Point().Z < -0.05 {
			return nil, ErrNoIKSolution
		}
		return solveSuccessfully(ctx, pose, seed, timeout)
	}
	solutions, err := filter.FilterGrasps(context.Background(), grasps, true, newTestJointGroup(solve))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solutions, test.ShouldBeEmpty)
}

func TestFilterGraspsNoSolutionsIsNotFatal(t *testing.T) {
	logger := golog.NewTestLogger(t)
	filter := NewGraspFilter(logger, newInjectState())
	grasps := makeTestGrasps(7, testGraspData())

	var calls atomic.Int64
	solve := func(context.Context, spatialmath.Pose, []float64, time.Duration) ([]float64, error) {
		calls.Add(1)
		return nil, ErrNoIKSolution
	}
	solutions, err := filter.FilterGrasps(context.Background(), grasps, false, newTestJointGroup(solve))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solutions, test.ShouldBeEmpty)
	// Every candidate is attempted once per pass, and the empty result forces the verbose retry.
	test.That(t, calls.Load(), test.ShouldEqual, int64(2*len(grasps)))
}

func TestFilterGraspsSolverErrorsPruneOnly(t *testing.T) {
	logger := golog.NewTestLogger(t)
	filter := NewGraspFilter(logger, newInjectState())
	grasps := makeTestGrasps(4, testGraspData())

	solve := func(context.Context, spatialmath.Pose, []float64, time.Duration) ([]float64, error) {
		return nil, errors.New("actuator fault")
	}
	solutions, err := filter.FilterGrasps(context.Background(), grasps, false, newTestJointGroup(solve))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solutions, test.ShouldBeEmpty)
}

func TestFilterGraspsSolverCacheMiss(t *testing.T) {
	logger := golog.NewTestLogger(t)
	filter := NewGraspFilter(logger, newInjectState())
	grasps := makeTestGrasps(3, testGraspData())

	group := newTestJointGroup(solveSuccessfully)
	group.newSolverFunc = func() (IKSolver, error) {
		return nil, errors.New("no solver plugin for this group")
	}
	_, err := filter.FilterGrasps(context.Background(), grasps, false, group)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFilterGraspsAppliesLinkTransform(t *testing.T) {
	logger := golog.NewTestLogger(t)
	state := newInjectState()
	state.linkTransforms["ik_base"] = spatialmath.NewPoseFromPoint(r3.Vector{X: 1})
	filter := NewGraspFilter(logger, state)

	var mu sync.Mutex
	var received []spatialmath.Pose
	solve := func(ctx context.Context, pose spatialmath.Pose, seed []float64, timeout time.Duration) ([]float64, error) {
		mu.Lock()
		received = append(received, pose)
		mu.Unlock()
		return solveSuccessfully(ctx, pose, seed, timeout)
	}
	group := newTestJointGroup(solve)
	group.newSolverFunc = func() (IKSolver, error) {
		return &injectSolver{searchFunc: solve, baseFrame: "/ik_base"}, nil
	}

	grasps := []*Grasp{{
		ID:   "a",
		Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5}),
		Data: testGraspData(),
	}}
	solutions, err := filter.FilterGrasps(context.Background(), grasps, false, group)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(solutions), test.ShouldEqual, 1)
	test.That(t, len(received), test.ShouldEqual, 1)
	test.That(t, received[0].Point().Sub(r3.Vector{X: -0.5}).Norm(), test.ShouldBeLessThan, 1e-9)
}

func TestFilterGraspsSeedsWithPreviousSolution(t *testing.T) {
	logger := golog.NewTestLogger(t)
	filter := NewGraspFilter(logger, newInjectState())
	grasps := makeTestGrasps(3, testGraspData())

	var seeds [][]float64
	var solveCount int
	solve := func(ctx context.Context, pose spatialmath.Pose, seed []float64, timeout time.Duration) ([]float64, error) {
		seeds = append(seeds, append([]float64{}, seed...))
		solveCount++
		return []float64{float64(solveCount)}, nil
	}

	// Verbose mode pins the pass to a single worker so the seeding order is observable.
	solutions, err := filter.filterGraspsOnce(context.Background(), grasps, false, newTestJointGroup(solve), true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(solutions), test.ShouldEqual, 3)
	test.That(t, seeds[0], test.ShouldResemble, []float64{0, 0, 0, 0, 0, 0})
	test.That(t, seeds[1], test.ShouldResemble, []float64{1})
	test.That(t, seeds[2], test.ShouldResemble, []float64{2})
}
