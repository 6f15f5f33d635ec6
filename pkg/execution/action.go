package execution

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

// ExecuteAction performs one action against a controller, honoring the
// retry policy. Every attempt is recorded with its latency. The controller
// call receives a context stripped of cancellation: an action dispatched to
// hardware always runs to its own completion or timeout, because aborting
// mid-operation can leave the device in an undefined state. Retry sleeps
// likewise run to completion; cancellation is honored between edges by the
// navigator, not here.
func ExecuteAction(ctx context.Context, ctrl controller.Controller, action navgraph.Action, policy RetryPolicy) ActionOutcome {
	outcome := ActionOutcome{
		Action: action.Describe(),
		Kind:   action.Kind(),
	}

	perform, err := dispatcher(ctrl, action)
	if err != nil {
		outcome.ErrorKind = controller.ErrKindUnsupported
		outcome.Error = err.Error()
		return outcome
	}

	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	hwCtx := context.WithoutCancel(ctx)
	sched := policy.schedule()
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		attemptStart := time.Now()
		err := perform(hwCtx)
		record := Attempt{
			Number:     attempt,
			DurationMs: time.Since(attemptStart).Milliseconds(),
		}
		if err != nil {
			record.Error = err.Error()
		}
		outcome.Attempts = append(outcome.Attempts, record)

		if err == nil {
			outcome.Success = true
			lastErr = nil
			break
		}
		lastErr = err
		if !policy.ShouldRetry(attempt, err) {
			break
		}
		if wait := sched.NextBackOff(); wait > 0 && wait != backoff.Stop {
			time.Sleep(wait)
		}
	}

	outcome.DurationMs = time.Since(start).Milliseconds()
	if lastErr != nil {
		outcome.ErrorKind = controller.KindOf(lastErr)
		outcome.Error = lastErr.Error()
		outcome.AmbiguousApplied = !action.Kind().Idempotent() && mayHaveApplied(outcome.ErrorKind)
	}
	return outcome
}

// dispatcher resolves the capability an action needs and returns the call
// that performs it. Power actions route to the Power capability; everything
// else goes through Remote.
func dispatcher(ctrl controller.Controller, action navgraph.Action) (func(context.Context) error, error) {
	if pt, ok := action.(navgraph.PowerToggleAction); ok {
		power, err := controller.PowerOf(ctrl)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return power.SetPower(ctx, pt.State)
		}, nil
	}

	remote, err := controller.RemoteOf(ctrl)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		return remote.Perform(ctx, action)
	}, nil
}

// mayHaveApplied reports whether an error kind leaves the device state
// unknown: the command may have reached the device even though the
// controller reported failure.
func mayHaveApplied(kind controller.ErrorKind) bool {
	switch kind {
	case controller.ErrKindTimeout, controller.ErrKindDisconnected, controller.ErrKindInternal:
		return true
	default:
		return false
	}
}
