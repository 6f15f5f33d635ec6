package controller

import (
	"time"

	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

// CaptureArtifact is one piece of captured device evidence: a screenshot,
// a text dump, or a structural hierarchy. The controller fills it with raw
// data; persisting it and assigning a reference is the caller's concern.
type CaptureArtifact struct {
	// Source is the capture selector that produced this artifact.
	Source string `json:"source"`
	// ContentType describes Data, e.g. "image/png", "text/plain",
	// "application/json" for structural dumps.
	ContentType string    `json:"contentType"`
	Data        []byte    `json:"-"`
	CapturedAt  time.Time `json:"capturedAt"`
}

// VerificationResult is the outcome of evaluating one verification against
// one captured artifact.
type VerificationResult struct {
	Verification string                    `json:"verification"`
	Kind         navgraph.VerificationKind `json:"kind"`
	Passed       bool                      `json:"passed"`
	// Score is the similarity/confidence where the kind produces one
	// (image_match, pixel_color); exact kinds report 0 or 1.
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold,omitempty"`
	// Detail carries kind-specific evidence, e.g. the extracted text a
	// text_match compared against.
	Detail string `json:"detail,omitempty"`
	// EvidenceRef is the stored artifact reference, filled in by the
	// verification executor after the capture is persisted.
	EvidenceRef string    `json:"evidenceRef,omitempty"`
	CapturedAt  time.Time `json:"capturedAt"`
}

// AVStatus reports the state of the device's audio/video output.
type AVStatus struct {
	StreamActive bool    `json:"streamActive"`
	Resolution   string  `json:"resolution,omitempty"`
	FrameRate    float64 `json:"frameRate,omitempty"`
	AudioPresent bool    `json:"audioPresent"`
}
