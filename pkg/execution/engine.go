package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/angelstreet/virtualpytest-sub017/pkg/artifacts"
	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
	"github.com/angelstreet/virtualpytest-sub017/pkg/devices"
	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

// Engine runs navigations over one graph version against a device fleet.
// It is safe for concurrent use; traversals on the same device serialize
// through a per-device lock and concurrent callers get DeviceBusyError.
type Engine struct {
	graph    *navgraph.Graph
	registry devices.Registry
	store    artifacts.Store
	sink     Sink
	logger   *slog.Logger
	metrics  *Metrics
	locks    *deviceLocks
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithArtifactStore sets where verification evidence is persisted.
// Defaults to discarding captures.
func WithArtifactStore(s artifacts.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithSink sets where traversal results are published.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithMetrics sets the metric collector.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine over a loaded graph and a device registry.
func New(graph *navgraph.Graph, registry devices.Registry, opts ...Option) *Engine {
	e := &Engine{
		graph:    graph,
		registry: registry,
		store:    artifacts.Discard{},
		logger:   slog.Default(),
		locks:    newDeviceLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the graph this engine navigates.
func (e *Engine) Graph() *navgraph.Graph { return e.graph }

// Plan resolves the path a navigation request would take, without touching
// the device. It applies the same applicability filtering Navigate does.
func (e *Engine) Plan(deviceID, from, to string) ([]*navgraph.Edge, error) {
	binding, err := e.registry.Lookup(deviceID)
	if err != nil {
		return nil, err
	}
	return navgraph.FindPath(e.graph, from, to, navgraph.PathOptions{
		DeviceModel: binding.Device.Model,
		OSVersion:   binding.Device.OSVersion,
	})
}

// Navigate drives the device from req.From to req.To and returns the
// traversal record.
//
// The engine trusts req.From; it does not track device position between
// calls. Exactly one traversal runs per device at a time: a second call for
// a busy device fails fast with DeviceBusyError and zero side effects, and
// nothing is published for it. A traversal that started publishes its Result
// to the sink whether it completed or failed.
//
// The returned error is non-nil only when no step ran: unknown device, busy
// device, unknown endpoint, no viable path, or a controller missing a
// capability the path needs. Once stepping begins, failures are reported
// inside the Result and the error is nil.
func (e *Engine) Navigate(ctx context.Context, req Request) (*Result, error) {
	binding, err := e.registry.Lookup(req.DeviceID)
	if err != nil {
		return nil, err
	}

	release, err := e.locks.acquire(req.DeviceID)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	result := &Result{
		TraversalID:     uuid.NewString(),
		GraphName:       e.graph.Name(),
		GraphVersion:    e.graph.Version(),
		DeviceID:        req.DeviceID,
		From:            req.From,
		To:              req.To,
		Status:          StatusIdle,
		FurthestReached: req.From,
		FailedStep:      -1,
		StartTime:       start,
	}

	log := e.logger.With(
		slog.String("traversal", result.TraversalID),
		slog.String("device", req.DeviceID),
		slog.String("from", req.From),
		slog.String("to", req.To),
	)

	path, err := navgraph.FindPath(e.graph, req.From, req.To, navgraph.PathOptions{
		DeviceModel: binding.Device.Model,
		OSVersion:   binding.Device.OSVersion,
	})
	if err != nil {
		return e.fail(ctx, log, result, err), err
	}
	result.Status = StatusPathResolved

	if err := e.checkCapabilities(binding.Controller, path, req.To); err != nil {
		return e.fail(ctx, log, result, err), err
	}

	log.Info("path resolved", slog.Int("steps", len(path)))

	if len(path) == 0 {
		// Already at the target. Verify it when the node declares
		// verifications; otherwise there is nothing to do.
		e.verifyInPlace(ctx, log, binding, result, req.To)
	} else {
		e.walk(ctx, log, binding, result, path)
	}

	result.EndTime = time.Now()
	result.DurationMs = result.EndTime.Sub(result.StartTime).Milliseconds()
	e.metrics.recordTraversal(e.graph.Name(), result.Status)

	log.Info("traversal finished",
		slog.String("status", string(result.Status)),
		slog.String("furthest", result.FurthestReached),
		slog.Int64("durationMs", result.DurationMs),
	)

	e.publish(ctx, log, result)
	return result, nil
}

// checkCapabilities verifies up front that the controller supports every
// operation the path will need, so a traversal never fails halfway for a
// reason knowable before the first action.
func (e *Engine) checkCapabilities(ctrl controller.Controller, path []*navgraph.Edge, to string) error {
	needRemote, needPower, needVerifier := false, false, false

	for _, edge := range path {
		for _, action := range edge.Actions {
			if action.Kind() == navgraph.ActionPowerToggle {
				needPower = true
			} else {
				needRemote = true
			}
		}
		if node, ok := e.graph.Node(edge.To); ok && len(node.Verifications) > 0 {
			needVerifier = true
		}
	}
	if len(path) == 0 {
		if node, ok := e.graph.Node(to); ok && len(node.Verifications) > 0 {
			needVerifier = true
		}
	}

	if needRemote {
		if _, err := controller.RemoteOf(ctrl); err != nil {
			return err
		}
	}
	if needPower {
		if _, err := controller.PowerOf(ctrl); err != nil {
			return err
		}
	}
	if needVerifier {
		if _, err := controller.VerifierOf(ctrl); err != nil {
			return err
		}
	}
	return nil
}

// walk executes the resolved path step by step, strictly sequentially.
// Cancellation is honored between edges only: a step in flight finishes
// before the traversal stops.
func (e *Engine) walk(ctx context.Context, log *slog.Logger, binding devices.Binding, result *Result, path []*navgraph.Edge) {
	result.Status = StatusStepping

	for i, edge := range path {
		if err := ctx.Err(); err != nil {
			e.skipFrom(result, path, i)
			result.Status = StatusFailed
			result.Error = fmt.Sprintf("cancelled before step %d (%s): %v", i, edge.Describe(), err)
			log.Warn("traversal cancelled", slog.Int("step", i))
			return
		}

		step := e.runStep(ctx, log, binding, i, edge)
		result.Steps = append(result.Steps, step)
		e.metrics.recordStep(e.graph.Name(), step.Status)

		if step.Status != StatusPassed {
			e.skipFrom(result, path, i+1)
			result.Status = StatusFailed
			result.FailedStep = i
			result.Error = (&StepError{Index: i, Edge: edge.Describe(), Err: errors.New(step.Error)}).Error()
			return
		}
		result.FurthestReached = edge.To
	}

	result.Status = StatusCompleted
}

// runStep performs one edge: its actions in order, then the destination
// node's verifications in order. The first failure ends the step.
func (e *Engine) runStep(ctx context.Context, log *slog.Logger, binding devices.Binding, index int, edge *navgraph.Edge) StepOutcome {
	step := StepOutcome{
		Index:     index,
		From:      edge.From,
		To:        edge.To,
		Edge:      edge.Describe(),
		Status:    StatusPassed,
		StartTime: time.Now(),
	}
	defer func() {
		step.DurationMs = time.Since(step.StartTime).Milliseconds()
	}()

	log.Info("step start", slog.Int("step", index), slog.String("edge", step.Edge))

	for _, action := range edge.Actions {
		outcome := ExecuteAction(ctx, binding.Controller, action, PolicyForEdge(edge, action.Kind()))
		step.Actions = append(step.Actions, outcome)
		e.metrics.recordAction(action.Kind(), outcome)

		if !outcome.Success {
			step.Status = StatusFailed
			step.Error = fmt.Sprintf("action %s: %s", outcome.Action, outcome.Error)
			log.Warn("action failed",
				slog.Int("step", index),
				slog.String("action", outcome.Action),
				slog.String("errorKind", string(outcome.ErrorKind)),
				slog.Int("attempts", len(outcome.Attempts)),
			)
			return step
		}
	}

	node, ok := e.graph.Node(edge.To)
	if !ok {
		// Load guarantees edge endpoints exist; this is unreachable.
		step.Status = StatusFailed
		step.Error = fmt.Sprintf("unknown destination node %q", edge.To)
		return step
	}

	for _, v := range node.Verifications {
		vr, err := ExecuteVerification(ctx, binding.Controller, v, e.store)
		if err != nil {
			step.Status = StatusFailed
			step.Error = fmt.Sprintf("verification %s: %v", v.Describe(), err)
			return step
		}
		step.Verifications = append(step.Verifications, vr)
		e.metrics.recordVerification(string(v.Kind()), vr.Passed)

		if !vr.Passed {
			step.Status = StatusFailed
			step.Error = (&VerificationFailure{Result: vr}).Error()
			log.Warn("verification failed",
				slog.Int("step", index),
				slog.String("node", edge.To),
				slog.String("verification", v.Describe()),
				slog.Float64("score", vr.Score),
			)
			return step
		}
	}

	return step
}

// verifyInPlace handles from == to: an empty path whose only work is
// confirming the device really shows the target state.
func (e *Engine) verifyInPlace(ctx context.Context, log *slog.Logger, binding devices.Binding, result *Result, to string) {
	node, ok := e.graph.Node(to)
	if !ok || len(node.Verifications) == 0 {
		result.Status = StatusCompleted
		return
	}

	result.Status = StatusStepping
	step := StepOutcome{
		Index:     0,
		From:      to,
		To:        to,
		Edge:      "verify " + to,
		Status:    StatusPassed,
		StartTime: time.Now(),
	}

	for _, v := range node.Verifications {
		vr, err := ExecuteVerification(ctx, binding.Controller, v, e.store)
		if err != nil {
			step.Status = StatusFailed
			step.Error = fmt.Sprintf("verification %s: %v", v.Describe(), err)
			break
		}
		step.Verifications = append(step.Verifications, vr)
		e.metrics.recordVerification(string(v.Kind()), vr.Passed)
		if !vr.Passed {
			step.Status = StatusFailed
			step.Error = (&VerificationFailure{Result: vr}).Error()
			break
		}
	}

	step.DurationMs = time.Since(step.StartTime).Milliseconds()
	result.Steps = append(result.Steps, step)
	e.metrics.recordStep(e.graph.Name(), step.Status)

	if step.Status == StatusPassed {
		result.Status = StatusCompleted
	} else {
		result.Status = StatusFailed
		result.FailedStep = 0
		result.Error = (&StepError{Index: 0, Edge: step.Edge, Err: errors.New(step.Error)}).Error()
		log.Warn("in-place verification failed", slog.String("node", to))
	}
}

// skipFrom records the steps that were planned but never executed.
func (e *Engine) skipFrom(result *Result, path []*navgraph.Edge, from int) {
	for i := from; i < len(path); i++ {
		result.Steps = append(result.Steps, StepOutcome{
			Index:  i,
			From:   path[i].From,
			To:     path[i].To,
			Edge:   path[i].Describe(),
			Status: StatusSkipped,
		})
		e.metrics.recordStep(e.graph.Name(), StatusSkipped)
	}
}

// fail finalizes a traversal that ended before its first step, publishes it,
// and returns it alongside the causing error.
func (e *Engine) fail(ctx context.Context, log *slog.Logger, result *Result, err error) *Result {
	result.Status = StatusFailed
	result.Error = err.Error()
	result.EndTime = time.Now()
	result.DurationMs = result.EndTime.Sub(result.StartTime).Milliseconds()
	e.metrics.recordTraversal(e.graph.Name(), result.Status)
	log.Warn("traversal rejected", slog.String("error", result.Error))
	e.publish(ctx, log, result)
	return result
}

// publish hands the result to the sink. Publishing survives a cancelled
// traversal; a failed run must still be recorded.
func (e *Engine) publish(ctx context.Context, log *slog.Logger, result *Result) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(context.WithoutCancel(ctx), result); err != nil {
		log.Error("publish result", slog.String("error", err.Error()))
	}
}
