package execution

import (
	"time"

	"github.com/cenkalti/backoff"

	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

// RetryPolicy bounds how the action executor reattempts a failed action.
// It is a plain value so callers can test and tune policy without hardware.
type RetryPolicy struct {
	MaxAttempts       int
	BackoffInitial    time.Duration
	BackoffMultiplier float64
	// RetryableErrorKinds lists the error kinds worth another attempt.
	// A disconnected device is never retried regardless of this list.
	RetryableErrorKinds []controller.ErrorKind
}

// DefaultRetryableKinds are the transient error kinds retried by default.
var DefaultRetryableKinds = []controller.ErrorKind{
	controller.ErrKindTimeout,
	controller.ErrKindElementNotFound,
	controller.ErrKindInternal,
}

// DefaultBackoffInitial is the stock first retry delay.
const DefaultBackoffInitial = 200 * time.Millisecond

// DefaultPolicyFor returns the stock policy for an action kind: a single
// attempt for non-idempotent kinds, three attempts with exponential backoff
// for idempotent ones.
func DefaultPolicyFor(kind navgraph.ActionKind) RetryPolicy {
	if !kind.Idempotent() {
		return RetryPolicy{MaxAttempts: 1}
	}
	return RetryPolicy{
		MaxAttempts:         3,
		BackoffInitial:      DefaultBackoffInitial,
		BackoffMultiplier:   2.0,
		RetryableErrorKinds: DefaultRetryableKinds,
	}
}

// PolicyForEdge resolves the effective policy for one action on one edge.
// An edge retry override replaces the attempt budget for every action on the
// edge; declaring one is the explicit opt-in that lets non-idempotent
// actions retry.
func PolicyForEdge(edge *navgraph.Edge, kind navgraph.ActionKind) RetryPolicy {
	policy := DefaultPolicyFor(kind)
	if edge == nil || edge.Retry == nil {
		return policy
	}

	o := edge.Retry
	policy.MaxAttempts = o.MaxAttempts
	if o.BackoffInitialMs > 0 {
		policy.BackoffInitial = time.Duration(o.BackoffInitialMs) * time.Millisecond
	} else if policy.BackoffInitial == 0 {
		policy.BackoffInitial = DefaultBackoffInitial
	}
	if o.BackoffMultiplier >= 1 {
		policy.BackoffMultiplier = o.BackoffMultiplier
	} else if policy.BackoffMultiplier == 0 {
		policy.BackoffMultiplier = 2.0
	}
	if len(policy.RetryableErrorKinds) == 0 {
		policy.RetryableErrorKinds = DefaultRetryableKinds
	}
	return policy
}

// ShouldRetry reports whether another attempt is allowed after err failed
// the given 1-based attempt.
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	kind := controller.KindOf(err)
	if kind == controller.ErrKindDisconnected {
		return false
	}
	for _, k := range p.RetryableErrorKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// schedule builds the wait sequence between attempts. Randomization is
// disabled so runs are reproducible.
func (p RetryPolicy) schedule() backoff.BackOff {
	if p.BackoffInitial <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BackoffInitial
	b.RandomizationFactor = 0
	b.Multiplier = p.BackoffMultiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
