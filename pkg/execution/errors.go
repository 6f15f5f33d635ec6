package execution

import (
	"fmt"

	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
)

// DeviceBusyError reports that a traversal is already in flight for the
// device. The rejected call had zero side effects; the caller decides
// whether and when to retry.
type DeviceBusyError struct {
	DeviceID string
}

func (e *DeviceBusyError) Error() string {
	return fmt.Sprintf("device %q is busy with another traversal", e.DeviceID)
}

// VerificationFailure wraps a verification that evaluated cleanly but did
// not pass. It is a semantic result, never retried by the engine.
type VerificationFailure struct {
	Result controller.VerificationResult
}

func (e *VerificationFailure) Error() string {
	if e.Result.Threshold > 0 {
		return fmt.Sprintf("verification failed: %s (score %.2f, threshold %.2f)",
			e.Result.Verification, e.Result.Score, e.Result.Threshold)
	}
	return fmt.Sprintf("verification failed: %s", e.Result.Verification)
}

// StepError reports the step a traversal failed on, wrapping the causing
// action or verification error.
type StepError struct {
	Index int
	Edge  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Edge, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
