package navgraph

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ActionKind identifies a controller operation.
type ActionKind string

// Action kinds.
const (
	ActionTap         ActionKind = "tap"
	ActionSwipe       ActionKind = "swipe"
	ActionPressKey    ActionKind = "press_key"
	ActionInputText   ActionKind = "input_text"
	ActionLaunchApp   ActionKind = "launch_app"
	ActionPowerToggle ActionKind = "power_toggle"
	ActionWait        ActionKind = "wait"
)

// Idempotent reports whether the kind is safe to retry blindly. Text entry
// can append on a second attempt, app launch can double-start, and a power
// toggle inverts state, so those require an explicit retry opt-in.
func (k ActionKind) Idempotent() bool {
	switch k {
	case ActionTap, ActionSwipe, ActionPressKey, ActionWait:
		return true
	default:
		return false
	}
}

// Action is a single stateless controller operation carried by an edge.
// It describes what to do; it never owns controller state.
type Action interface {
	Kind() ActionKind
	Describe() string
}

// TapAction taps at absolute coordinates, or on a named element when Element
// is set (the controller resolves the element to coordinates).
type TapAction struct {
	X       int    `mapstructure:"x"`
	Y       int    `mapstructure:"y"`
	Element string `mapstructure:"element"`
}

// Kind returns the action kind.
func (a TapAction) Kind() ActionKind { return ActionTap }

// Describe returns a human-readable description.
func (a TapAction) Describe() string {
	if a.Element != "" {
		return fmt.Sprintf("tap %q", a.Element)
	}
	return fmt.Sprintf("tap (%d,%d)", a.X, a.Y)
}

// SwipeAction performs a swipe gesture between two points.
type SwipeAction struct {
	StartX     int `mapstructure:"startX"`
	StartY     int `mapstructure:"startY"`
	EndX       int `mapstructure:"endX"`
	EndY       int `mapstructure:"endY"`
	DurationMs int `mapstructure:"durationMs"`
}

// Kind returns the action kind.
func (a SwipeAction) Kind() ActionKind { return ActionSwipe }

// Describe returns a human-readable description.
func (a SwipeAction) Describe() string {
	return fmt.Sprintf("swipe (%d,%d)->(%d,%d)", a.StartX, a.StartY, a.EndX, a.EndY)
}

// PressKeyAction presses a named key or remote-control code (HOME, OK, UP,
// VOLUME_DOWN, ...). Repeat presses the key that many times; zero means once.
type PressKeyAction struct {
	Key    string `mapstructure:"key"`
	Repeat int    `mapstructure:"repeat"`
}

// Kind returns the action kind.
func (a PressKeyAction) Kind() ActionKind { return ActionPressKey }

// Describe returns a human-readable description.
func (a PressKeyAction) Describe() string {
	if a.Repeat > 1 {
		return fmt.Sprintf("press_key %s x%d", a.Key, a.Repeat)
	}
	return "press_key " + a.Key
}

// InputTextAction types text into the focused input.
type InputTextAction struct {
	Text string `mapstructure:"text"`
}

// Kind returns the action kind.
func (a InputTextAction) Kind() ActionKind { return ActionInputText }

// Describe returns a human-readable description.
func (a InputTextAction) Describe() string {
	return fmt.Sprintf("input_text %q", a.Text)
}

// LaunchAppAction launches an application by bundle id / package name.
type LaunchAppAction struct {
	AppID string `mapstructure:"appId"`
}

// Kind returns the action kind.
func (a LaunchAppAction) Kind() ActionKind { return ActionLaunchApp }

// Describe returns a human-readable description.
func (a LaunchAppAction) Describe() string {
	return "launch_app " + a.AppID
}

// PowerToggleAction drives the device power state. State is "on", "off", or
// "toggle" (the default).
type PowerToggleAction struct {
	State string `mapstructure:"state"`
}

// Kind returns the action kind.
func (a PowerToggleAction) Kind() ActionKind { return ActionPowerToggle }

// Describe returns a human-readable description.
func (a PowerToggleAction) Describe() string {
	if a.State == "" {
		return "power_toggle"
	}
	return "power_toggle " + a.State
}

// WaitAction pauses the traversal, typically to let the UI settle.
type WaitAction struct {
	DurationMs int `mapstructure:"durationMs"`
}

// Kind returns the action kind.
func (a WaitAction) Kind() ActionKind { return ActionWait }

// Describe returns a human-readable description.
func (a WaitAction) Describe() string {
	return fmt.Sprintf("wait %dms", a.DurationMs)
}

// Duration returns the wait as a time.Duration.
func (a WaitAction) Duration() time.Duration {
	return time.Duration(a.DurationMs) * time.Millisecond
}

// decodeAction turns a raw ActionDef into a typed Action. Parameter maps are
// decoded weakly typed so definitions survive JSON/YAML round trips that
// widen or stringify numbers.
func decodeAction(def ActionDef) (Action, error) {
	build := func(out any) error {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           out,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return err
		}
		if def.Params == nil {
			return nil
		}
		return dec.Decode(def.Params)
	}

	switch ActionKind(def.Kind) {
	case ActionTap:
		var a TapAction
		if err := build(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionSwipe:
		var a SwipeAction
		if err := build(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionPressKey:
		var a PressKeyAction
		if err := build(&a); err != nil {
			return nil, err
		}
		if a.Key == "" {
			return nil, fmt.Errorf("press_key requires a key")
		}
		return a, nil
	case ActionInputText:
		var a InputTextAction
		if err := build(&a); err != nil {
			return nil, err
		}
		if a.Text == "" {
			return nil, fmt.Errorf("input_text requires text")
		}
		return a, nil
	case ActionLaunchApp:
		var a LaunchAppAction
		if err := build(&a); err != nil {
			return nil, err
		}
		if a.AppID == "" {
			return nil, fmt.Errorf("launch_app requires appId")
		}
		return a, nil
	case ActionPowerToggle:
		var a PowerToggleAction
		if err := build(&a); err != nil {
			return nil, err
		}
		switch a.State {
		case "", "on", "off", "toggle":
		default:
			return nil, fmt.Errorf("power_toggle state must be on, off, or toggle, got %q", a.State)
		}
		return a, nil
	case ActionWait:
		var a WaitAction
		if err := build(&a); err != nil {
			return nil, err
		}
		if a.DurationMs <= 0 {
			return nil, fmt.Errorf("wait requires a positive durationMs")
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", def.Kind)
	}
}
