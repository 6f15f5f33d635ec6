// Package navgraph models an application's UI as a directed navigation graph:
// nodes are reachable UI states, edges are the transitions between them and
// carry the actions a controller must perform to traverse. Definitions arrive
// as a serializable tree (YAML file or pre-decoded structs) and are compiled
// into an immutable Graph by Load.
package navgraph

import (
	"fmt"

	"github.com/Masterminds/semver"
)

// Definition is the serializable navigation tree supplied by the authoring
// layer. Action and verification parameters are loosely typed maps so the
// same definition can travel over YAML, JSON, or any other transport; Load
// decodes them into typed descriptors.
type Definition struct {
	Name    string    `yaml:"name" json:"name"`
	Version string    `yaml:"version" json:"version"`
	Nodes   []NodeDef `yaml:"nodes" json:"nodes"`
	Edges   []EdgeDef `yaml:"edges" json:"edges"`
}

// NodeDef declares a single UI state.
type NodeDef struct {
	ID            string            `yaml:"id" json:"id"`
	Label         string            `yaml:"label" json:"label"`
	Verifications []VerificationDef `yaml:"verifications" json:"verifications"`
	ScreenshotRef string            `yaml:"screenshot" json:"screenshot,omitempty"`
	Metadata      map[string]string `yaml:"metadata" json:"metadata,omitempty"`
}

// EdgeDef declares a directed transition between two node ids.
type EdgeDef struct {
	From    string      `yaml:"from" json:"from"`
	To      string      `yaml:"to" json:"to"`
	Label   string      `yaml:"label" json:"label,omitempty"`
	Actions []ActionDef `yaml:"actions" json:"actions"`
	// Weight is the traversal cost. Zero means unspecified and defaults to 1.
	Weight  int            `yaml:"weight" json:"weight,omitempty"`
	Applies *Applicability `yaml:"applies" json:"applies,omitempty"`
	Retry   *RetryOverride `yaml:"retry" json:"retry,omitempty"`
}

// ActionDef is the raw form of an action: a kind plus kind-specific
// parameters, decoded into a typed Action at load time.
type ActionDef struct {
	Kind   string         `yaml:"kind" json:"kind"`
	Params map[string]any `yaml:"params" json:"params,omitempty"`
}

// VerificationDef is the raw form of a verification check.
type VerificationDef struct {
	Kind   string         `yaml:"kind" json:"kind"`
	Source string         `yaml:"source" json:"source,omitempty"`
	Params map[string]any `yaml:"params" json:"params,omitempty"`
}

// RetryOverride replaces the executor's default retry policy for every action
// on the edge that declares it. Durations are milliseconds to keep the
// definition format transport-friendly.
type RetryOverride struct {
	MaxAttempts       int     `yaml:"maxAttempts" json:"maxAttempts"`
	BackoffInitialMs  int     `yaml:"backoffInitialMs" json:"backoffInitialMs,omitempty"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier" json:"backoffMultiplier,omitempty"`
}

// validate rejects override values that cannot form a usable policy. Zero
// backoff fields mean "inherit the default".
func (r *RetryOverride) validate() error {
	if r == nil {
		return nil
	}
	if r.MaxAttempts < 1 {
		return fmt.Errorf("maxAttempts must be >= 1, got %d", r.MaxAttempts)
	}
	if r.BackoffInitialMs < 0 {
		return fmt.Errorf("backoffInitialMs must be >= 0, got %d", r.BackoffInitialMs)
	}
	if r.BackoffMultiplier != 0 && r.BackoffMultiplier < 1 {
		return fmt.Errorf("backoffMultiplier must be >= 1, got %v", r.BackoffMultiplier)
	}
	return nil
}

// Applicability restricts an edge to a subset of devices. An empty filter
// matches everything; all declared constraints must hold.
type Applicability struct {
	// Models lists device model names the edge applies to. Empty = all models.
	Models []string `yaml:"models" json:"models,omitempty"`
	// MinOSVersion / MaxOSVersion bound the device OS version (inclusive,
	// semver ordering). Empty = unbounded.
	MinOSVersion string `yaml:"minOsVersion" json:"minOsVersion,omitempty"`
	MaxOSVersion string `yaml:"maxOsVersion" json:"maxOsVersion,omitempty"`
}

// Matches reports whether a device with the given model and OS version may
// traverse the edge. A device with an unparsable OS version fails any edge
// that declares a version bound.
func (a *Applicability) Matches(model, osVersion string) bool {
	if a == nil {
		return true
	}

	if len(a.Models) > 0 {
		found := false
		for _, m := range a.Models {
			if m == model {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if a.MinOSVersion == "" && a.MaxOSVersion == "" {
		return true
	}

	v, err := semver.NewVersion(osVersion)
	if err != nil {
		return false
	}
	if a.MinOSVersion != "" {
		min, err := semver.NewVersion(a.MinOSVersion)
		if err != nil || v.Compare(min) < 0 {
			return false
		}
	}
	if a.MaxOSVersion != "" {
		max, err := semver.NewVersion(a.MaxOSVersion)
		if err != nil || v.Compare(max) > 0 {
			return false
		}
	}
	return true
}

// validate checks the version bounds parse so a malformed filter is rejected
// at load time instead of silently excluding the edge for every device.
func (a *Applicability) validate() error {
	if a == nil {
		return nil
	}
	if a.MinOSVersion != "" {
		if _, err := semver.NewVersion(a.MinOSVersion); err != nil {
			return fmt.Errorf("invalid minOsVersion %q: %w", a.MinOSVersion, err)
		}
	}
	if a.MaxOSVersion != "" {
		if _, err := semver.NewVersion(a.MaxOSVersion); err != nil {
			return fmt.Errorf("invalid maxOsVersion %q: %w", a.MaxOSVersion, err)
		}
	}
	return nil
}
