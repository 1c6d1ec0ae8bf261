package taperig

import "errors"

var (
	// ErrInvalidPadIndex is returned synchronously by the control surface
	// for pad indices outside the configured pad count.
	ErrInvalidPadIndex = errors.New("pad index outside configured pad count")

	// ErrInvalidClockValue is returned for non-positive tempo or
	// quantization values; the clock itself ignores them silently.
	ErrInvalidClockValue = errors.New("tempo and quantization must be positive")
)

type (
	// WearParams is the full tape-wear parameter set applied to a playback
	// voice: wow and flutter depths for the two speed-instability LFOs,
	// saturation drive, hiss level, tone tilt (0.5 is neutral), and the
	// stochastic dropout rate/depth pair. All values except DropRate live
	// in [0,1]; DropRate is dropout windows per second in [0,20].
	WearParams struct {
		Wow        float32 `yaml:"wow"`
		Flutter    float32 `yaml:"flutter"`
		Saturation float32 `yaml:"saturation"`
		Hiss       float32 `yaml:"hiss"`
		Tone       float32 `yaml:"tone"`
		DropRate   float32 `yaml:"droprate"`
		DropDepth  float32 `yaml:"dropdepth"`
	}

	// WearOverrides is a partially populated parameter set passed with a
	// single trigger. Nil fields fall through to the pad default, which in
	// turn was resolved against the global default at engine construction.
	// Overrides are resolved once per trigger and never written back to
	// the pad defaults. PreLevel rides along for overdub triggers.
	WearOverrides struct {
		Wow        *float32 `yaml:"wow,omitempty"`
		Flutter    *float32 `yaml:"flutter,omitempty"`
		Saturation *float32 `yaml:"saturation,omitempty"`
		Hiss       *float32 `yaml:"hiss,omitempty"`
		Tone       *float32 `yaml:"tone,omitempty"`
		DropRate   *float32 `yaml:"droprate,omitempty"`
		DropDepth  *float32 `yaml:"dropdepth,omitempty"`
		PreLevel   *float32 `yaml:"prelevel,omitempty"`
	}
)

// DefaultWear is the global fallback parameter set: a clean tape with a
// neutral tone tilt.
var DefaultWear = WearParams{Tone: 0.5}

const maxDropRate = 20

// Resolve returns the full parameter set for one trigger, taking each
// override field if present and the fallback otherwise. Values are
// clamped to their valid ranges here so the real-time path never sees an
// out-of-range parameter.
func (o WearOverrides) Resolve(fallback WearParams) WearParams {
	r := fallback
	if o.Wow != nil {
		r.Wow = *o.Wow
	}
	if o.Flutter != nil {
		r.Flutter = *o.Flutter
	}
	if o.Saturation != nil {
		r.Saturation = *o.Saturation
	}
	if o.Hiss != nil {
		r.Hiss = *o.Hiss
	}
	if o.Tone != nil {
		r.Tone = *o.Tone
	}
	if o.DropRate != nil {
		r.DropRate = *o.DropRate
	}
	if o.DropDepth != nil {
		r.DropDepth = *o.DropDepth
	}
	r.Wow = clamp01(r.Wow)
	r.Flutter = clamp01(r.Flutter)
	r.Saturation = clamp01(r.Saturation)
	r.Hiss = clamp01(r.Hiss)
	r.Tone = clamp01(r.Tone)
	r.DropDepth = clamp01(r.DropDepth)
	if r.DropRate < 0 {
		r.DropRate = 0
	} else if r.DropRate > maxDropRate {
		r.DropRate = maxDropRate
	}
	return r
}

// ResolvePreLevel resolves the overdub pre-level with the same
// precedence as the wear fields.
func (o WearOverrides) ResolvePreLevel(fallback float32) float32 {
	if o.PreLevel != nil {
		return clamp01(*o.PreLevel)
	}
	return clamp01(fallback)
}

// OverridesFromMap converts a key/value override map into a
// WearOverrides value. Unrecognized keys are ignored, not errors.
func OverridesFromMap(m map[string]float32) WearOverrides {
	var o WearOverrides
	for k, v := range m {
		v := v
		switch k {
		case "wow":
			o.Wow = &v
		case "flutter":
			o.Flutter = &v
		case "saturation":
			o.Saturation = &v
		case "hiss":
			o.Hiss = &v
		case "tone":
			o.Tone = &v
		case "dropRate":
			o.DropRate = &v
		case "dropDepth":
			o.DropDepth = &v
		case "preLevel":
			o.PreLevel = &v
		}
	}
	return o
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
