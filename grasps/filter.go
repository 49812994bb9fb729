package grasps

import (
	"context"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/sbgisen/moveit-grasps/spatialmath"
)

// Timeout used when neither the joint group nor the gripper data configures one.
const defaultIKTimeout = 100 * time.Millisecond

// GraspSolution is a grasp candidate that passed kinematic filtering, together with the
// joint configuration realizing its grasp pose. The pre-grasp configuration is populated
// only when pre-grasp filtering was requested, in which case it also succeeded.
type GraspSolution struct {
	Grasp                 *Grasp
	GraspConfiguration    []float64
	PregraspConfiguration []float64
}

// filterJob is one worker's share of a filtering pass: a contiguous sub-range of the
// candidate list, a dedicated solver, the frame transform to apply, and the shared
// lock-protected output. It is owned exclusively by its worker while the pass runs.
type filterJob struct {
	grasps         []*Grasp
	solver         IKSolver
	linkTransform  spatialmath.Pose
	filterPregrasp bool
	timeout        time.Duration
	dof            int
	verbose        bool
	out            *[]*GraspSolution
	mu             *sync.Mutex
}

// GraspFilter prunes grasp candidates down to those that are kinematically reachable and
// collision-free. It keeps a private copy of the kinematic state so outside mutation cannot
// corrupt a filtering pass, and caches one IK solver per worker keyed by joint group. A
// GraspFilter is not safe for concurrent use; each filtering call runs its own worker pool
// internally and returns only once all workers have finished.
type GraspFilter struct {
	logger                  golog.Logger
	state                   KinematicState
	solvers                 map[string][]IKSolver
	checkPregraspCollisions bool
}

// NewGraspFilter returns a filter seeded with a copy of the given kinematic state.
func NewGraspFilter(logger golog.Logger, state KinematicState) *GraspFilter {
	return &GraspFilter{
		logger:  logger,
		state:   state.Clone(),
		solvers: map[string][]IKSolver{},
	}
}

// SetCheckPregraspCollisions controls whether FilterGraspsInCollision also collision-checks
// pre-grasp configurations. Off by default; only the grasp pose itself is checked.
func (f *GraspFilter) SetCheckPregraspCollisions(check bool) {
	f.checkPregraspCollisions = check
}

// FilterGrasps reduces a candidate list to those with an IK solution, testing candidates in
// parallel across workers that each own one solver instance. If filterPregrasp is set, each
// candidate's pre-grasp pose must also solve for the candidate to survive. The arm group
// must have exactly one attached end-effector group. If the first pass fails or prunes every
// candidate, the whole filter is re-run once single-threaded in verbose mode before an empty
// result is accepted. Output order is not guaranteed to match input order.
func (f *GraspFilter) FilterGrasps(ctx context.Context, grasps []*Grasp, filterPregrasp bool, arm JointGroup) ([]*GraspSolution, error) {
	if len(grasps) == 0 {
		return nil, errors.New("unable to filter grasps, candidate list is empty")
	}
	endEffectors := arm.AttachedEndEffectors()
	if len(endEffectors) == 0 {
		return nil, errors.Errorf("no end effectors attached to joint group %q", arm.Name())
	}
	if len(endEffectors) > 1 {
		return nil, errors.Errorf("more than one end effector attached to joint group %q", arm.Name())
	}

	return retryEmptyVerbose(f.logger, "ik filter", func(verbose bool) ([]*GraspSolution, error) {
		return f.filterGraspsOnce(ctx, grasps, filterPregrasp, arm, verbose)
	})
}

func (f *GraspFilter) filterGraspsOnce(
	ctx context.Context,
	grasps []*Grasp,
	filterPregrasp bool,
	arm JointGroup,
	verbose bool,
) ([]*GraspSolution, error) {
	numWorkers := runtime.NumCPU()
	if numWorkers > len(grasps) {
		numWorkers = len(grasps)
	}
	if verbose {
		numWorkers = 1
		f.logger.Warnf("running ik filter with a single worker in verbose mode")
	}
	f.logger.Debugf("filtering %d grasps with %d workers", len(grasps), numWorkers)

	solvers, err := f.solversFor(arm, numWorkers)
	if err != nil {
		return nil, err
	}

	timeout := arm.DefaultIKTimeout()
	if timeout <= 0 {
		timeout = time.Duration(grasps[0].Data.IKTimeout * float64(time.Second))
	}
	if timeout <= 0 {
		timeout = defaultIKTimeout
	}

	// One transform from the solver's base frame to the model frame per pass; it is applied
	// to each candidate pose independently inside the workers.
	linkTransform := spatialmath.NewZeroPose()
	ikFrame := strings.TrimPrefix(solvers[0].BaseFrame(), "/")
	if ikFrame != f.state.ModelFrame() {
		frameTransform, err := f.state.LinkTransform(ikFrame)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot transform between ik frame %q and model frame %q", ikFrame, f.state.ModelFrame())
		}
		linkTransform = spatialmath.PoseInverse(frameTransform)
	}

	filtered := make([]*GraspSolution, 0, len(grasps))
	var resultMu sync.Mutex
	var workers sync.WaitGroup
	graspsPerWorker := float64(len(grasps)) / float64(numWorkers)
	end := 0
	for i := 0; i < numWorkers; i++ {
		start := end
		end = int(math.Ceil(graspsPerWorker * float64(i+1)))
		if end > len(grasps) {
			end = len(grasps)
		}
		job := filterJob{
			grasps:         grasps[start:end],
			solver:         solvers[i],
			linkTransform:  linkTransform,
			filterPregrasp: filterPregrasp,
			timeout:        timeout,
			dof:            arm.DoF(),
			verbose:        verbose,
			out:            &filtered,
			mu:             &resultMu,
		}
		workers.Add(1)
		utils.PanicCapturingGo(func() {
			defer workers.Done()
			f.runFilterJob(ctx, job)
		})
	}
	workers.Wait()

	f.logger.Infof("grasp filter complete, found %d ik solutions out of %d candidates", len(filtered), len(grasps))
	return filtered, nil
}

// solversFor lazily instantiates count solvers for the joint group, reusing cached instances
// from earlier passes when the worker count matches.
func (f *GraspFilter) solversFor(arm JointGroup, count int) ([]IKSolver, error) {
	cached := f.solvers[arm.Name()]
	if len(cached) == count {
		return cached, nil
	}
	solvers := make([]IKSolver, 0, count)
	for i := 0; i < count; i++ {
		solver, err := arm.NewSolver()
		if err != nil {
			return nil, errors.Wrapf(err, "no kinematic solver available for joint group %q", arm.Name())
		}
		if solver == nil {
			return nil, errors.Errorf("no kinematic solver available for joint group %q", arm.Name())
		}
		solvers = append(solvers, solver)
	}
	f.solvers[arm.Name()] = solvers
	return solvers, nil
}

// runFilterJob tests one worker's share of candidates. Per-candidate failures only exclude
// that candidate; they never propagate past this worker.
func (f *GraspFilter) runFilterJob(ctx context.Context, job filterJob) {
	// The first solve is seeded from the zero configuration; afterwards each solve is seeded
	// with the previous solution, which converges faster for spatially close candidates.
	seed := make([]float64, job.dof)
	for _, grasp := range job.grasps {
		pose := spatialmath.Compose(job.linkTransform, grasp.Pose)
		solution, err := job.solver.SearchPositionIK(ctx, pose, seed, job.timeout)
		if err != nil {
			f.logIKFailure("grasp", grasp, err, job.verbose)
			continue
		}
		seed = solution

		var pregraspSolution []float64
		if job.filterPregrasp {
			pregraspPose := spatialmath.Compose(job.linkTransform, grasp.PreGraspPose())
			pregraspSolution, err = job.solver.SearchPositionIK(ctx, pregraspPose, solution, job.timeout)
			if err != nil {
				// The grasp was reachable but the pre-grasp was not; discard the pair.
				f.logIKFailure("pre-grasp", grasp, err, job.verbose)
				continue
			}
		}

		job.mu.Lock()
		*job.out = append(*job.out, &GraspSolution{
			Grasp:                 grasp,
			GraspConfiguration:    solution,
			PregraspConfiguration: pregraspSolution,
		})
		job.mu.Unlock()
	}
}

func (f *GraspFilter) logIKFailure(stage string, grasp *Grasp, err error, verbose bool) {
	switch {
	case errors.Is(err, ErrNoIKSolution), errors.Is(err, ErrIKTimedOut):
		if verbose {
			f.logger.Debugf("%s ik failed for candidate %s: %v", stage, grasp.ID, err)
		}
	default:
		f.logger.Infof("%s ik solver error for candidate %s: %v", stage, grasp.ID, err)
	}
}
