package controller

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an action failure for retry decisions.
type ErrorKind string

// Action error kinds.
const (
	// ErrKindTimeout means the device did not acknowledge within the
	// transport deadline. The action may or may not have landed.
	ErrKindTimeout ErrorKind = "timeout"
	// ErrKindDisconnected means the device link is gone. Never retried.
	ErrKindDisconnected ErrorKind = "disconnected"
	// ErrKindElementNotFound means a named UI element could not be resolved.
	ErrKindElementNotFound ErrorKind = "element_not_found"
	// ErrKindInvalidArgument means the action parameters were rejected.
	ErrKindInvalidArgument ErrorKind = "invalid_argument"
	// ErrKindUnsupported means the controller cannot perform the action kind.
	ErrKindUnsupported ErrorKind = "unsupported"
	// ErrKindInternal is a controller-side fault with no better class.
	ErrKindInternal ErrorKind = "internal"
)

// ActionError reports one failed action attempt.
type ActionError struct {
	Kind   ErrorKind
	Action string // human-readable action description
	Err    error
}

func (e *ActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Action, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Kind)
}

func (e *ActionError) Unwrap() error { return e.Err }

// KindOf extracts the error kind from an action failure. Errors that are not
// ActionErrors classify as internal.
func KindOf(err error) ErrorKind {
	var aerr *ActionError
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	return ErrKindInternal
}

// UnsupportedCapabilityError reports a capability the bound controller does
// not implement. Raised at bind time, before any hardware call.
type UnsupportedCapabilityError struct {
	Controller string
	Capability Capability
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("controller %q does not implement capability %q", e.Controller, e.Capability)
}

// ErrUnsupportedVerification is reported by Check when the controller cannot
// evaluate a verification kind, e.g. element_present on a controller with no
// structural dump.
var ErrUnsupportedVerification = errors.New("verification kind not supported by controller")
