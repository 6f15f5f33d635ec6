// Package mock provides a scriptable in-memory controller for testing
// without a real device. It implements every capability interface; the
// RemoteOnly and VerifierOnly wrappers expose deliberately narrowed views
// for capability-negotiation tests.
package mock

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

// Controller is a mock implementation of every controller capability.
type Controller struct {
	Config Config

	mu         sync.Mutex
	performed  []navgraph.Action
	captures   int
	checks     int
	powerState string
}

// Config configures mock controller behavior. The zero value acknowledges
// every action and passes every verification.
type Config struct {
	// Name to report; defaults to "mock".
	Name string
	// Latency adds an artificial delay to every controller call.
	Latency time.Duration
	// PerformHook, when set, decides the outcome of each Perform call.
	// call is 1-based and counts every attempt, including failed ones.
	PerformHook func(call int, action navgraph.Action) error
	// CheckHook, when set, replaces the default verification evaluation.
	CheckHook func(call int, artifact controller.CaptureArtifact, v navgraph.Verification) (controller.VerificationResult, error)
	// CaptureErr fails every Capture call when set.
	CaptureErr error
	// ScreenText is the text the default evaluation extracts from captures.
	// Empty means text_match verifications pass unconditionally.
	ScreenText string
	// Elements lists element ids present in the structural dump. Nil means
	// every element_present verification passes.
	Elements []string
	// NoHierarchy makes element_present checks report
	// controller.ErrUnsupportedVerification.
	NoHierarchy bool
}

// New creates a new mock controller.
func New(cfg Config) *Controller {
	if cfg.Name == "" {
		cfg.Name = "mock"
	}
	return &Controller{Config: cfg, powerState: "on"}
}

// Name returns the configured controller name.
func (c *Controller) Name() string { return c.Config.Name }

// Perform simulates executing one action attempt.
func (c *Controller) Perform(ctx context.Context, action navgraph.Action) error {
	c.mu.Lock()
	c.performed = append(c.performed, action)
	call := len(c.performed)
	c.mu.Unlock()

	c.delay()

	if c.Config.PerformHook != nil {
		return c.Config.PerformHook(call, action)
	}
	return nil
}

// Capture returns a synthetic artifact for the requested source.
func (c *Controller) Capture(ctx context.Context, source string) (controller.CaptureArtifact, error) {
	c.mu.Lock()
	c.captures++
	c.mu.Unlock()

	c.delay()

	if c.Config.CaptureErr != nil {
		return controller.CaptureArtifact{}, c.Config.CaptureErr
	}
	return controller.CaptureArtifact{
		Source:      source,
		ContentType: "image/png",
		Data:        pngPixel,
		CapturedAt:  time.Now(),
	}, nil
}

// Check evaluates a verification against an artifact. Unless a CheckHook is
// configured, image and pixel checks pass with score 1.0, text checks
// compare against ScreenText, and element checks consult Elements.
func (c *Controller) Check(ctx context.Context, artifact controller.CaptureArtifact, v navgraph.Verification) (controller.VerificationResult, error) {
	c.mu.Lock()
	c.checks++
	call := c.checks
	c.mu.Unlock()

	c.delay()

	if c.Config.CheckHook != nil {
		return c.Config.CheckHook(call, artifact, v)
	}

	result := controller.VerificationResult{
		Verification: v.Describe(),
		Kind:         v.Kind(),
		CapturedAt:   artifact.CapturedAt,
	}

	switch v := v.(type) {
	case navgraph.ImageMatchVerification:
		result.Score = 1.0
		result.Threshold = v.Threshold
		result.Passed = result.Score >= v.Threshold
	case navgraph.PixelColorVerification:
		result.Score = 1.0
		result.Passed = true
	case navgraph.TextMatchVerification:
		result.Detail = c.Config.ScreenText
		switch {
		case c.Config.ScreenText == "":
			result.Passed = true
			result.Detail = v.Expected
		case v.Regex:
			re, err := regexp.Compile(v.Expected)
			if err != nil {
				return controller.VerificationResult{}, fmt.Errorf("compile pattern: %w", err)
			}
			result.Passed = re.MatchString(c.Config.ScreenText)
		default:
			result.Passed = c.Config.ScreenText == v.Expected
		}
		if result.Passed {
			result.Score = 1.0
		}
	case navgraph.ElementPresentVerification:
		if c.Config.NoHierarchy {
			return controller.VerificationResult{}, controller.ErrUnsupportedVerification
		}
		if c.Config.Elements == nil {
			result.Passed = true
		} else {
			for _, id := range c.Config.Elements {
				if id == v.ElementID {
					result.Passed = true
					break
				}
			}
		}
		if result.Passed {
			result.Score = 1.0
		}
	default:
		return controller.VerificationResult{}, controller.ErrUnsupportedVerification
	}

	return result, nil
}

// SetPower records the requested power state.
func (c *Controller) SetPower(ctx context.Context, state string) error {
	c.delay()

	c.mu.Lock()
	defer c.mu.Unlock()
	switch state {
	case "on", "off":
		c.powerState = state
	case "toggle", "":
		if c.powerState == "on" {
			c.powerState = "off"
		} else {
			c.powerState = "on"
		}
	default:
		return &controller.ActionError{
			Kind:   controller.ErrKindInvalidArgument,
			Action: "power_toggle " + state,
		}
	}
	return nil
}

// StreamStatus reports a healthy synthetic stream.
func (c *Controller) StreamStatus(ctx context.Context) (controller.AVStatus, error) {
	c.delay()
	return controller.AVStatus{
		StreamActive: true,
		Resolution:   "1920x1080",
		FrameRate:    50,
		AudioPresent: true,
	}, nil
}

// PerformCalls returns how many Perform attempts the controller received,
// successful or not.
func (c *Controller) PerformCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.performed)
}

// PerformedActions returns a copy of every action attempt in order.
func (c *Controller) PerformedActions() []navgraph.Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	actions := make([]navgraph.Action, len(c.performed))
	copy(actions, c.performed)
	return actions
}

// CaptureCalls returns how many Capture calls the controller received.
func (c *Controller) CaptureCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captures
}

// CheckCalls returns how many Check calls the controller received.
func (c *Controller) CheckCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checks
}

// PowerState returns the recorded power state.
func (c *Controller) PowerState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.powerState
}

func (c *Controller) delay() {
	if c.Config.Latency > 0 {
		time.Sleep(c.Config.Latency)
	}
}

// RemoteOnly exposes only the Remote capability of a mock controller.
type RemoteOnly struct {
	c *Controller
}

// NewRemoteOnly creates a mock controller that implements Remote but not
// Verifier, Power, or AV.
func NewRemoteOnly(cfg Config) RemoteOnly {
	return RemoteOnly{c: New(cfg)}
}

// Name returns the wrapped controller's name.
func (r RemoteOnly) Name() string { return r.c.Name() }

// Perform delegates to the wrapped controller.
func (r RemoteOnly) Perform(ctx context.Context, action navgraph.Action) error {
	return r.c.Perform(ctx, action)
}

// VerifierOnly exposes only the Verifier capability of a mock controller.
type VerifierOnly struct {
	c *Controller
}

// NewVerifierOnly creates a mock controller that implements Verifier but not
// Remote, Power, or AV.
func NewVerifierOnly(cfg Config) VerifierOnly {
	return VerifierOnly{c: New(cfg)}
}

// Name returns the wrapped controller's name.
func (v VerifierOnly) Name() string { return v.c.Name() }

// Capture delegates to the wrapped controller.
func (v VerifierOnly) Capture(ctx context.Context, source string) (controller.CaptureArtifact, error) {
	return v.c.Capture(ctx, source)
}

// Check delegates to the wrapped controller.
func (v VerifierOnly) Check(ctx context.Context, artifact controller.CaptureArtifact, ver navgraph.Verification) (controller.VerificationResult, error) {
	return v.c.Check(ctx, artifact, ver)
}

// pngPixel is a minimal valid PNG (1x1 transparent pixel).
var pngPixel = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
	0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
	0x42, 0x60, 0x82,
}
