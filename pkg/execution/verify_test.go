package execution

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/angelstreet/virtualpytest-sub017/pkg/artifacts"
	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
	"github.com/angelstreet/virtualpytest-sub017/pkg/controller/mock"
	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

// verificationOf pulls the typed verification off a node in a tiny probe
// definition, so tests exercise the same decode path production uses.
func verificationOf(t *testing.T, def navgraph.VerificationDef) navgraph.Verification {
	t.Helper()
	g, err := navgraph.Load(navgraph.Definition{
		Name:    "probe",
		Version: "1",
		Nodes: []navgraph.NodeDef{
			{ID: "n", Verifications: []navgraph.VerificationDef{def}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node, _ := g.Node("n")
	return node.Verifications[0]
}

func TestExecuteVerification_PassWithEvidence(t *testing.T) {
	ctrl := mock.New(mock.Config{})
	store := artifacts.NewMemoryStore()
	v := verificationOf(t, navgraph.VerificationDef{
		Kind:   "image_match",
		Params: map[string]any{"ref": "screens/home.png", "threshold": 0.9},
	})

	result, err := ExecuteVerification(context.Background(), ctrl, v, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed {
		t.Error("expected verification to pass")
	}
	if result.EvidenceRef == "" {
		t.Fatal("expected an evidence reference")
	}
	if _, ok := store.Get(result.EvidenceRef); !ok {
		t.Errorf("evidence ref %q not resolvable in store", result.EvidenceRef)
	}
	if ctrl.CaptureCalls() != 1 || ctrl.CheckCalls() != 1 {
		t.Errorf("expected 1 capture and 1 check, got %d and %d", ctrl.CaptureCalls(), ctrl.CheckCalls())
	}
}

func TestExecuteVerification_FailedCheckIsNotAnError(t *testing.T) {
	ctrl := mock.New(mock.Config{ScreenText: "Settings"})
	v := verificationOf(t, navgraph.VerificationDef{
		Kind:   "text_match",
		Params: map[string]any{"expected": "Wi-Fi"},
	})

	result, err := ExecuteVerification(context.Background(), ctrl, v, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Passed {
		t.Error("expected verification to fail")
	}
}

func TestExecuteVerification_NoStoreNoRef(t *testing.T) {
	ctrl := mock.New(mock.Config{})
	v := verificationOf(t, navgraph.VerificationDef{
		Kind:   "image_match",
		Params: map[string]any{"ref": "screens/home.png"},
	})

	result, err := ExecuteVerification(context.Background(), ctrl, v, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EvidenceRef != "" {
		t.Errorf("expected no evidence ref without a store, got %q", result.EvidenceRef)
	}
}

func TestExecuteVerification_UnsupportedKind(t *testing.T) {
	ctrl := mock.New(mock.Config{NoHierarchy: true})
	v := verificationOf(t, navgraph.VerificationDef{
		Kind:   "element_present",
		Params: map[string]any{"elementId": "wifi_toggle"},
	})

	_, err := ExecuteVerification(context.Background(), ctrl, v, nil)
	if !errors.Is(err, controller.ErrUnsupportedVerification) {
		t.Fatalf("expected ErrUnsupportedVerification, got %v", err)
	}
}

func TestExecuteVerification_CaptureFailure(t *testing.T) {
	ctrl := mock.New(mock.Config{CaptureErr: errors.New("stream down")})
	v := verificationOf(t, navgraph.VerificationDef{
		Kind:   "image_match",
		Params: map[string]any{"ref": "screens/home.png"},
	})

	_, err := ExecuteVerification(context.Background(), ctrl, v, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "capture") {
		t.Errorf("expected capture context in error, got %v", err)
	}
}

func TestExecuteVerification_MissingVerifierCapability(t *testing.T) {
	ctrl := mock.NewRemoteOnly(mock.Config{})
	v := verificationOf(t, navgraph.VerificationDef{
		Kind:   "image_match",
		Params: map[string]any{"ref": "screens/home.png"},
	})

	_, err := ExecuteVerification(context.Background(), ctrl, v, nil)
	var capErr *controller.UnsupportedCapabilityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected UnsupportedCapabilityError, got %v", err)
	}
}

func TestExecuteVerification_RepeatableOutcome(t *testing.T) {
	ctrl := mock.New(mock.Config{ScreenText: "Wi-Fi Settings"})
	v := verificationOf(t, navgraph.VerificationDef{
		Kind:   "text_match",
		Params: map[string]any{"expected": "Wi-Fi .*", "regex": true},
	})

	first, err := ExecuteVerification(context.Background(), ctrl, v, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ExecuteVerification(context.Background(), ctrl, v, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Passed != second.Passed || first.Score != second.Score {
		t.Errorf("verification must be repeatable: first %+v, second %+v", first, second)
	}
}
