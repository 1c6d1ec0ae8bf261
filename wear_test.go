package taperig_test

import (
	"testing"

	"taperig"
)

func ptr(v float32) *float32 { return &v }

func TestResolvePrecedence(t *testing.T) {
	fallback := taperig.WearParams{Wow: 0.2, Flutter: 0.3, Tone: 0.5, DropRate: 2}
	ov := taperig.WearOverrides{Wow: ptr(0.7), DropRate: ptr(8)}
	got := ov.Resolve(fallback)
	if got.Wow != 0.7 {
		t.Errorf("override not applied, Wow = %v", got.Wow)
	}
	if got.Flutter != 0.3 || got.Tone != 0.5 {
		t.Errorf("fallback not kept: %+v", got)
	}
	if got.DropRate != 8 {
		t.Errorf("DropRate = %v, expected 8", got.DropRate)
	}
}

func TestResolveClampsRanges(t *testing.T) {
	ov := taperig.WearOverrides{
		Wow:      ptr(1.5),
		Tone:     ptr(-0.2),
		DropRate: ptr(100),
	}
	got := ov.Resolve(taperig.DefaultWear)
	if got.Wow != 1 {
		t.Errorf("Wow = %v, expected clamp to 1", got.Wow)
	}
	if got.Tone != 0 {
		t.Errorf("Tone = %v, expected clamp to 0", got.Tone)
	}
	if got.DropRate != 20 {
		t.Errorf("DropRate = %v, expected clamp to 20", got.DropRate)
	}
}

func TestResolveDoesNotMutateFallback(t *testing.T) {
	fallback := taperig.WearParams{Hiss: 0.1, Tone: 0.5}
	ov := taperig.WearOverrides{Hiss: ptr(0.9)}
	ov.Resolve(fallback)
	if fallback.Hiss != 0.1 {
		t.Errorf("fallback mutated, Hiss = %v", fallback.Hiss)
	}
}

func TestResolvePreLevel(t *testing.T) {
	var ov taperig.WearOverrides
	if got := ov.ResolvePreLevel(0.85); got != 0.85 {
		t.Errorf("ResolvePreLevel fallback = %v, expected 0.85", got)
	}
	ov.PreLevel = ptr(0.3)
	if got := ov.ResolvePreLevel(0.85); got != 0.3 {
		t.Errorf("ResolvePreLevel override = %v, expected 0.3", got)
	}
	ov.PreLevel = ptr(2)
	if got := ov.ResolvePreLevel(0.85); got != 1 {
		t.Errorf("ResolvePreLevel = %v, expected clamp to 1", got)
	}
}

func TestOverridesFromMap(t *testing.T) {
	ov := taperig.OverridesFromMap(map[string]float32{
		"wow":      0.4,
		"dropRate": 3,
		"bogus":    1,
	})
	if ov.Wow == nil || *ov.Wow != 0.4 {
		t.Errorf("wow override missing: %+v", ov)
	}
	if ov.DropRate == nil || *ov.DropRate != 3 {
		t.Errorf("dropRate override missing: %+v", ov)
	}
	if ov.Flutter != nil || ov.Hiss != nil {
		t.Errorf("unexpected overrides set: %+v", ov)
	}
}
