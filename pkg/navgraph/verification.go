package navgraph

import (
	"fmt"
	"regexp"

	"github.com/mitchellh/mapstructure"
)

// VerificationKind identifies a way of confirming device state.
type VerificationKind string

// Verification kinds.
const (
	VerifyImageMatch     VerificationKind = "image_match"
	VerifyTextMatch      VerificationKind = "text_match"
	VerifyElementPresent VerificationKind = "element_present"
	VerifyPixelColor     VerificationKind = "pixel_color"
)

// CaptureSourceScreen is the default capture source when a verification does
// not name one.
const CaptureSourceScreen = "screen"

// Verification is a single read-only check against captured device state.
// Running one never mutates the device.
type Verification interface {
	Kind() VerificationKind
	// CaptureSource selects which device output to capture (screen, video,
	// text dump, ...). Controllers interpret the selector.
	CaptureSource() string
	Describe() string
}

// BaseVerification carries the fields shared by every verification kind.
type BaseVerification struct {
	Source string `mapstructure:"-"`
}

// CaptureSource returns the capture source selector.
func (b BaseVerification) CaptureSource() string { return b.Source }

// Region is a rectangular area of a capture, in pixels.
type Region struct {
	X      int `mapstructure:"x" yaml:"x" json:"x"`
	Y      int `mapstructure:"y" yaml:"y" json:"y"`
	Width  int `mapstructure:"width" yaml:"width" json:"width"`
	Height int `mapstructure:"height" yaml:"height" json:"height"`
}

// ImageMatchVerification compares the capture against a reference image.
// It passes iff the similarity score is >= Threshold.
type ImageMatchVerification struct {
	BaseVerification `mapstructure:",squash"`
	// Ref is the reference artifact the capture is compared against.
	Ref       string  `mapstructure:"ref"`
	Threshold float64 `mapstructure:"threshold"`
	Region    *Region `mapstructure:"region"`
}

// Kind returns the verification kind.
func (v ImageMatchVerification) Kind() VerificationKind { return VerifyImageMatch }

// Describe returns a human-readable description.
func (v ImageMatchVerification) Describe() string {
	return fmt.Sprintf("image_match %q >= %.2f", v.Ref, v.Threshold)
}

// TextMatchVerification matches text extracted from the capture, either
// exactly or as a regular expression.
type TextMatchVerification struct {
	BaseVerification `mapstructure:",squash"`
	Expected         string `mapstructure:"expected"`
	Regex            bool   `mapstructure:"regex"`
}

// Kind returns the verification kind.
func (v TextMatchVerification) Kind() VerificationKind { return VerifyTextMatch }

// Describe returns a human-readable description.
func (v TextMatchVerification) Describe() string {
	if v.Regex {
		return fmt.Sprintf("text_match /%s/", v.Expected)
	}
	return fmt.Sprintf("text_match %q", v.Expected)
}

// ElementPresentVerification checks that a named UI element exists in the
// controller's structural dump. Controllers without structural dumps report
// it as unsupported.
type ElementPresentVerification struct {
	BaseVerification `mapstructure:",squash"`
	ElementID        string `mapstructure:"elementId"`
}

// Kind returns the verification kind.
func (v ElementPresentVerification) Kind() VerificationKind { return VerifyElementPresent }

// Describe returns a human-readable description.
func (v ElementPresentVerification) Describe() string {
	return fmt.Sprintf("element_present %q", v.ElementID)
}

// PixelColorVerification checks that a pixel region averages to an expected
// color within a per-channel tolerance.
type PixelColorVerification struct {
	BaseVerification `mapstructure:",squash"`
	Region           Region `mapstructure:"region"`
	// Color is a hex RGB value, e.g. "#1a2b3c".
	Color     string `mapstructure:"color"`
	Tolerance int    `mapstructure:"tolerance"`
}

// Kind returns the verification kind.
func (v PixelColorVerification) Kind() VerificationKind { return VerifyPixelColor }

// Describe returns a human-readable description.
func (v PixelColorVerification) Describe() string {
	return fmt.Sprintf("pixel_color %s +/-%d", v.Color, v.Tolerance)
}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// decodeVerification turns a raw VerificationDef into a typed Verification.
func decodeVerification(def VerificationDef) (Verification, error) {
	source := def.Source
	if source == "" {
		source = CaptureSourceScreen
	}

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

	switch VerificationKind(def.Kind) {
	case VerifyImageMatch:
		var v ImageMatchVerification
		if err := build(&v); err != nil {
			return nil, err
		}
		if v.Ref == "" {
			return nil, fmt.Errorf("image_match requires ref")
		}
		if v.Threshold < 0 || v.Threshold > 1 {
			return nil, fmt.Errorf("image_match threshold must be within [0,1], got %v", v.Threshold)
		}
		if v.Threshold == 0 {
			v.Threshold = 0.95
		}
		v.Source = source
		return v, nil
	case VerifyTextMatch:
		var v TextMatchVerification
		if err := build(&v); err != nil {
			return nil, err
		}
		if v.Expected == "" {
			return nil, fmt.Errorf("text_match requires expected")
		}
		if v.Regex {
			if _, err := regexp.Compile(v.Expected); err != nil {
				return nil, fmt.Errorf("text_match pattern: %w", err)
			}
		}
		v.Source = source
		return v, nil
	case VerifyElementPresent:
		var v ElementPresentVerification
		if err := build(&v); err != nil {
			return nil, err
		}
		if v.ElementID == "" {
			return nil, fmt.Errorf("element_present requires elementId")
		}
		v.Source = source
		return v, nil
	case VerifyPixelColor:
		var v PixelColorVerification
		if err := build(&v); err != nil {
			return nil, err
		}
		if !hexColorRe.MatchString(v.Color) {
			return nil, fmt.Errorf("pixel_color requires a #rrggbb color, got %q", v.Color)
		}
		if v.Tolerance < 0 {
			return nil, fmt.Errorf("pixel_color tolerance must be >= 0")
		}
		v.Source = source
		return v, nil
	default:
		return nil, fmt.Errorf("unknown verification kind %q", def.Kind)
	}
}
