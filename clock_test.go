package taperig_test

import (
	"testing"

	"taperig"
)

func TestQuantumFrames(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		bpm        float64
		quantBeats float64
		want       int64
	}{
		{"one beat at 120", 44100, 120, 1, 22050},
		{"one beat at 60", 1000, 60, 1, 1000},
		{"four beats at 120", 1000, 120, 4, 2000},
		{"half beat at 90", 48000, 90, 0.5, 16000},
	}
	for _, test := range tests {
		c := taperig.NewTransportClock(test.sampleRate, test.bpm, test.quantBeats)
		if got := c.QuantumFrames(); got != test.want {
			t.Errorf("%s: QuantumFrames = %d, expected %d", test.name, got, test.want)
		}
	}
}

func TestNextBoundary(t *testing.T) {
	c := taperig.NewTransportClock(1000, 60, 1) // quantum of 1000 frames
	tests := []struct {
		frame int64
		want  int64
	}{
		{0, 0},
		{1, 1000},
		{999, 1000},
		{1000, 1000},
		{1001, 2000},
	}
	for _, test := range tests {
		if got := c.NextBoundary(test.frame); got != test.want {
			t.Errorf("NextBoundary(%d) = %d, expected %d", test.frame, got, test.want)
		}
	}
}

func TestTempoChangeMovesFutureBoundariesOnly(t *testing.T) {
	c := taperig.NewTransportClock(1000, 60, 1)
	before := c.NextBoundary(100)
	c.SetTempo(120)
	after := c.NextBoundary(100)
	if before != 1000 || after != 500 {
		t.Errorf("expected boundaries 1000 and 500, got %d and %d", before, after)
	}
}

func TestClockIgnoresInvalidValues(t *testing.T) {
	c := taperig.NewTransportClock(1000, 60, 1)
	c.SetTempo(0)
	c.SetTempo(-10)
	c.SetQuantization(0)
	if c.Tempo() != 60 || c.Quantization() != 1 {
		t.Errorf("invalid values changed the clock: tempo %v quantization %v", c.Tempo(), c.Quantization())
	}
}

func TestAdvance(t *testing.T) {
	c := taperig.NewTransportClock(1000, 60, 1)
	c.Advance(512)
	c.Advance(488)
	if c.Frame() != 1000 {
		t.Errorf("Frame = %d, expected 1000", c.Frame())
	}
}
