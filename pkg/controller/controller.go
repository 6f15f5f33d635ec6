// Package controller defines the capability interfaces a concrete device
// driver implements: Remote for input, Verifier for state checks, Power and
// AV for device management. The engine depends only on these interfaces,
// never on a concrete driver, and queries capability presence at bind time
// so a missing capability fails before any hardware is touched.
package controller

import (
	"context"

	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

// Controller is a bound device driver. A concrete controller additionally
// implements whichever capability interfaces its hardware supports.
type Controller interface {
	// Name identifies the controller implementation, e.g. "android_adb",
	// "ir_remote", "mock".
	Name() string
}

// Remote drives user-facing input on a device.
type Remote interface {
	Controller

	// Perform executes one attempt of one action. A nil error means the
	// device acknowledged the action. Failures come back as *ActionError so
	// callers can classify them for retry. Implementations must honor ctx
	// for their own transport timeouts but never leave the device mid-gesture.
	Perform(ctx context.Context, action navgraph.Action) error
}

// Verifier captures device state and evaluates checks against captures.
type Verifier interface {
	Controller

	// Capture grabs the device output named by source ("screen", "osd",
	// a video frame selector, ...). The returned artifact carries raw data;
	// persisting it is the caller's concern.
	Capture(ctx context.Context, source string) (CaptureArtifact, error)

	// Check evaluates a verification against a captured artifact. The result
	// passes iff its score meets the verification's threshold (inclusive).
	// A verification kind the controller cannot evaluate reports
	// ErrUnsupportedVerification. Check never touches the device.
	Check(ctx context.Context, artifact CaptureArtifact, v navgraph.Verification) (VerificationResult, error)
}

// Power controls the device power state.
type Power interface {
	Controller

	// SetPower drives the power state: "on", "off", or "toggle".
	SetPower(ctx context.Context, state string) error
}

// AV reports on the device's audio/video output stream.
type AV interface {
	Controller

	StreamStatus(ctx context.Context) (AVStatus, error)
}

// Capability names one optional controller interface.
type Capability string

// Capability names.
const (
	CapabilityRemote Capability = "remote"
	CapabilityVerify Capability = "verify"
	CapabilityPower  Capability = "power"
	CapabilityAV     Capability = "av"
)

// RemoteOf returns the controller's Remote capability, or an
// UnsupportedCapabilityError if the controller does not implement it.
func RemoteOf(c Controller) (Remote, error) {
	if r, ok := c.(Remote); ok {
		return r, nil
	}
	return nil, &UnsupportedCapabilityError{Controller: c.Name(), Capability: CapabilityRemote}
}

// VerifierOf returns the controller's Verifier capability, or an
// UnsupportedCapabilityError if the controller does not implement it.
func VerifierOf(c Controller) (Verifier, error) {
	if v, ok := c.(Verifier); ok {
		return v, nil
	}
	return nil, &UnsupportedCapabilityError{Controller: c.Name(), Capability: CapabilityVerify}
}

// PowerOf returns the controller's Power capability, or an
// UnsupportedCapabilityError if the controller does not implement it.
func PowerOf(c Controller) (Power, error) {
	if p, ok := c.(Power); ok {
		return p, nil
	}
	return nil, &UnsupportedCapabilityError{Controller: c.Name(), Capability: CapabilityPower}
}

// AVOf returns the controller's AV capability, or an
// UnsupportedCapabilityError if the controller does not implement it.
func AVOf(c Controller) (AV, error) {
	if a, ok := c.(AV); ok {
		return a, nil
	}
	return nil, &UnsupportedCapabilityError{Controller: c.Name(), Capability: CapabilityAV}
}

// Capabilities lists the capability interfaces a controller implements.
func Capabilities(c Controller) []Capability {
	var caps []Capability
	if _, ok := c.(Remote); ok {
		caps = append(caps, CapabilityRemote)
	}
	if _, ok := c.(Verifier); ok {
		caps = append(caps, CapabilityVerify)
	}
	if _, ok := c.(Power); ok {
		caps = append(caps, CapabilityPower)
	}
	if _, ok := c.(AV); ok {
		caps = append(caps, CapabilityAV)
	}
	return caps
}

// Supports reports whether a controller implements one capability.
func Supports(c Controller, cap Capability) bool {
	for _, have := range Capabilities(c) {
		if have == cap {
			return true
		}
	}
	return false
}
