package grasps

import "github.com/edaniels/golog"

// retryEmptyVerbose runs one filtering pass quietly and, if it fails or prunes every
// candidate, runs it exactly once more in verbose diagnostic mode. Whatever the second pass
// yields is final; an empty result after the retry means no valid grasp was found, not a
// system fault.
func retryEmptyVerbose[T any](logger golog.Logger, stage string, pass func(verbose bool) ([]T, error)) ([]T, error) {
	out, err := pass(false)
	if err == nil && len(out) > 0 {
		return out, nil
	}
	if err != nil {
		logger.Errorf("%s failed (%v), re-running in verbose mode", stage, err)
	} else {
		logger.Warnf("%s pruned every candidate, re-running in verbose mode", stage)
	}
	return pass(true)
}
