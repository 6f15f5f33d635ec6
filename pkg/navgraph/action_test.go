package navgraph

import (
	"strings"
	"testing"
)

func TestDecodeAction_AllKinds(t *testing.T) {
	testCases := []struct {
		name   string
		def    ActionDef
		verify func(t *testing.T, a Action)
	}{
		{
			name: "tap coordinates",
			def:  ActionDef{Kind: "tap", Params: map[string]any{"x": 100, "y": 200}},
			verify: func(t *testing.T, a Action) {
				tap := a.(TapAction)
				if tap.X != 100 || tap.Y != 200 {
					t.Errorf("expected (100,200), got (%d,%d)", tap.X, tap.Y)
				}
			},
		},
		{
			name: "tap element",
			def:  ActionDef{Kind: "tap", Params: map[string]any{"element": "settings-icon"}},
			verify: func(t *testing.T, a Action) {
				tap := a.(TapAction)
				if tap.Element != "settings-icon" {
					t.Errorf("expected element=settings-icon, got %q", tap.Element)
				}
			},
		},
		{
			name: "swipe",
			def: ActionDef{Kind: "swipe", Params: map[string]any{
				"startX": 10, "startY": 20, "endX": 30, "endY": 40, "durationMs": 250,
			}},
			verify: func(t *testing.T, a Action) {
				sw := a.(SwipeAction)
				if sw.StartX != 10 || sw.EndY != 40 || sw.DurationMs != 250 {
					t.Errorf("unexpected swipe: %+v", sw)
				}
			},
		},
		{
			name: "press_key",
			def:  ActionDef{Kind: "press_key", Params: map[string]any{"key": "HOME", "repeat": 3}},
			verify: func(t *testing.T, a Action) {
				pk := a.(PressKeyAction)
				if pk.Key != "HOME" || pk.Repeat != 3 {
					t.Errorf("unexpected press_key: %+v", pk)
				}
			},
		},
		{
			name: "input_text",
			def:  ActionDef{Kind: "input_text", Params: map[string]any{"text": "hunter2"}},
			verify: func(t *testing.T, a Action) {
				in := a.(InputTextAction)
				if in.Text != "hunter2" {
					t.Errorf("expected text=hunter2, got %q", in.Text)
				}
			},
		},
		{
			name: "launch_app",
			def:  ActionDef{Kind: "launch_app", Params: map[string]any{"appId": "com.example.tv"}},
			verify: func(t *testing.T, a Action) {
				la := a.(LaunchAppAction)
				if la.AppID != "com.example.tv" {
					t.Errorf("expected appId=com.example.tv, got %q", la.AppID)
				}
			},
		},
		{
			name: "power_toggle default",
			def:  ActionDef{Kind: "power_toggle"},
			verify: func(t *testing.T, a Action) {
				pt := a.(PowerToggleAction)
				if pt.State != "" {
					t.Errorf("expected empty state, got %q", pt.State)
				}
			},
		},
		{
			name: "power_toggle off",
			def:  ActionDef{Kind: "power_toggle", Params: map[string]any{"state": "off"}},
			verify: func(t *testing.T, a Action) {
				pt := a.(PowerToggleAction)
				if pt.State != "off" {
					t.Errorf("expected state=off, got %q", pt.State)
				}
			},
		},
		{
			name: "wait",
			def:  ActionDef{Kind: "wait", Params: map[string]any{"durationMs": 1500}},
			verify: func(t *testing.T, a Action) {
				w := a.(WaitAction)
				if w.Duration().Milliseconds() != 1500 {
					t.Errorf("expected 1500ms, got %v", w.Duration())
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := decodeAction(tc.def)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(a.Kind()) != tc.def.Kind {
				t.Errorf("expected kind=%s, got %s", tc.def.Kind, a.Kind())
			}
			tc.verify(t, a)
		})
	}
}

func TestDecodeAction_WeaklyTypedParams(t *testing.T) {
	// Numbers arriving as strings (JSON round trips, template output) decode.
	a, err := decodeAction(ActionDef{Kind: "tap", Params: map[string]any{"x": "120", "y": "48"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tap := a.(TapAction)
	if tap.X != 120 || tap.Y != 48 {
		t.Errorf("expected (120,48), got (%d,%d)", tap.X, tap.Y)
	}
}

func TestDecodeAction_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		def     ActionDef
		wantErr string
	}{
		{"unknown kind", ActionDef{Kind: "fly"}, "unknown action kind"},
		{"press_key without key", ActionDef{Kind: "press_key"}, "requires a key"},
		{"input_text without text", ActionDef{Kind: "input_text"}, "requires text"},
		{"launch_app without appId", ActionDef{Kind: "launch_app"}, "requires appId"},
		{"wait without duration", ActionDef{Kind: "wait"}, "positive durationMs"},
		{"wait negative", ActionDef{Kind: "wait", Params: map[string]any{"durationMs": -5}}, "positive durationMs"},
		{"power_toggle bad state", ActionDef{Kind: "power_toggle", Params: map[string]any{"state": "sideways"}}, "state must be"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeAction(tc.def)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestActionKind_Idempotent(t *testing.T) {
	testCases := []struct {
		kind ActionKind
		want bool
	}{
		{ActionTap, true},
		{ActionSwipe, true},
		{ActionPressKey, true},
		{ActionWait, true},
		{ActionInputText, false},
		{ActionLaunchApp, false},
		{ActionPowerToggle, false},
	}
	for _, tc := range testCases {
		if got := tc.kind.Idempotent(); got != tc.want {
			t.Errorf("%s: expected idempotent=%v, got %v", tc.kind, tc.want, got)
		}
	}
}

func TestAction_Describe(t *testing.T) {
	testCases := []struct {
		a    Action
		want string
	}{
		{TapAction{X: 10, Y: 20}, "tap (10,20)"},
		{TapAction{Element: "ok-btn"}, `tap "ok-btn"`},
		{PressKeyAction{Key: "HOME"}, "press_key HOME"},
		{PressKeyAction{Key: "DOWN", Repeat: 4}, "press_key DOWN x4"},
		{WaitAction{DurationMs: 300}, "wait 300ms"},
		{LaunchAppAction{AppID: "com.x"}, "launch_app com.x"},
	}
	for _, tc := range testCases {
		if got := tc.a.Describe(); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}
