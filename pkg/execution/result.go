// Package execution orchestrates traversals over a navigation graph: path
// resolution, per-edge action dispatch with bounded retry, destination
// verification, and per-device serialization. Its output contract is the
// Result record; persistence and reporting live behind the Sink interface.
package execution

import (
	"context"
	"time"

	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

// Status represents a traversal or step state.
type Status string

// Status values. Traversals move idle -> path_resolved -> stepping ->
// (completed | failed); individual steps end passed, failed, or skipped.
const (
	StatusIdle         Status = "idle"
	StatusPathResolved Status = "path_resolved"
	StatusStepping     Status = "stepping"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusPassed       Status = "passed"
	StatusSkipped      Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPassed || s == StatusSkipped
}

// Request describes one navigation call.
type Request struct {
	DeviceID string `json:"deviceId"`
	// From is the caller-declared current node. The engine trusts it and
	// does not track device position across calls.
	From string `json:"from"`
	To   string `json:"to"`
}

// Result is the single record a traversal produces. It always names the
// furthest node the device verifiably reached and, on failure, the precise
// failing step.
type Result struct {
	TraversalID  string `json:"traversalId"`
	GraphName    string `json:"graphName"`
	GraphVersion string `json:"graphVersion"`
	DeviceID     string `json:"deviceId"`
	From         string `json:"from"`
	To           string `json:"to"`
	Status       Status `json:"status"`
	// FurthestReached starts at From and advances after every passed step.
	FurthestReached string        `json:"furthestReached"`
	Steps           []StepOutcome `json:"steps"`
	// FailedStep indexes into Steps when a step caused the failure;
	// -1 otherwise.
	FailedStep int       `json:"failedStep"`
	Error      string    `json:"error,omitempty"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	DurationMs int64     `json:"durationMs"`
}

// StepOutcome records one step: the actions of one edge plus the destination
// node's verifications. A verification-only pass (navigating to the node the
// device is already on) produces a single step with no actions.
type StepOutcome struct {
	Index int    `json:"index"`
	From  string `json:"from"`
	To    string `json:"to"`
	Edge  string `json:"edge"`
	// Status is passed, failed, or skipped (planned but never executed).
	Status        Status                          `json:"status"`
	Actions       []ActionOutcome                 `json:"actions,omitempty"`
	Verifications []controller.VerificationResult `json:"verifications,omitempty"`
	StartTime     time.Time                       `json:"startTime"`
	DurationMs    int64                           `json:"durationMs"`
	Error         string                          `json:"error,omitempty"`
}

// ActionOutcome records the execution of one action, every attempt included.
type ActionOutcome struct {
	Action     string              `json:"action"`
	Kind       navgraph.ActionKind `json:"kind"`
	Success    bool                `json:"success"`
	Attempts   []Attempt           `json:"attempts"`
	DurationMs int64               `json:"durationMs"`
	// AmbiguousApplied marks a failed non-idempotent action that may still
	// have reached the device, e.g. a timed-out text entry.
	AmbiguousApplied bool                 `json:"ambiguousApplied,omitempty"`
	ErrorKind        controller.ErrorKind `json:"errorKind,omitempty"`
	Error            string               `json:"error,omitempty"`
}

// Attempt records a single try of one action.
type Attempt struct {
	Number     int    `json:"number"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// Sink receives the Result record each traversal produces. Implementations
// persist or forward it; the engine only guarantees the record itself.
type Sink interface {
	Publish(ctx context.Context, result *Result) error
}
