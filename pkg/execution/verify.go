package execution

import (
	"context"
	"fmt"

	"github.com/angelstreet/virtualpytest-sub017/pkg/artifacts"
	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

// ExecuteVerification captures current device state and evaluates one
// verification against it. The capture is persisted through store (when one
// is given) and its reference attached to the result as evidence.
//
// Verification never mutates device state and is never retried here: a
// failed verification is a semantic result, not a transient fault. The
// returned error covers evaluation problems only (missing capability,
// capture failure, unsupported kind); a clean-but-failed check comes back
// with Passed=false and a nil error.
func ExecuteVerification(ctx context.Context, ctrl controller.Controller, v navgraph.Verification, store artifacts.Store) (controller.VerificationResult, error) {
	verifier, err := controller.VerifierOf(ctrl)
	if err != nil {
		return controller.VerificationResult{}, err
	}

	// Hardware calls run to completion even if the traversal is cancelled.
	hwCtx := context.WithoutCancel(ctx)

	artifact, err := verifier.Capture(hwCtx, v.CaptureSource())
	if err != nil {
		return controller.VerificationResult{}, fmt.Errorf("capture %q: %w", v.CaptureSource(), err)
	}

	result, err := verifier.Check(hwCtx, artifact, v)
	if err != nil {
		return controller.VerificationResult{}, err
	}
	if result.CapturedAt.IsZero() {
		result.CapturedAt = artifact.CapturedAt
	}

	if store != nil {
		// Evidence survives cancellation: the capture already happened.
		ref, err := store.Save(hwCtx, artifact)
		if err != nil {
			return result, fmt.Errorf("store evidence: %w", err)
		}
		result.EvidenceRef = ref
	}
	return result, nil
}
