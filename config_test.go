package taperig_test

import (
	"errors"
	"testing"

	"taperig"
)

func TestParseConfig(t *testing.T) {
	data := []byte(`
samplerate: 48000
bpm: 90
quantbeats: 2
wear:
  hiss: 0.2
  tone: 0.6
pads:
  - seconds: 2
    loop: true
    prelevel: 0.7
  - seconds: 8
    loop: false
    prelevel: 0.9
    wear:
      saturation: 0.5
notemaps:
  padKontrol:
    36: {pad: 0, action: record}
    37: {pad: 1, action: play}
`)
	c, err := taperig.ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if c.SampleRate != 48000 || c.BPM != 90 || c.QuantBeats != 2 {
		t.Errorf("clock fields wrong: %+v", c)
	}
	if len(c.Pads) != 2 || c.Pads[1].Seconds != 8 || c.Pads[0].PreLevel != 0.7 {
		t.Errorf("pads wrong: %+v", c.Pads)
	}
	if c.Pads[1].Wear.Saturation == nil || *c.Pads[1].Wear.Saturation != 0.5 {
		t.Errorf("pad wear override not parsed: %+v", c.Pads[1].Wear)
	}
	if c.Wear.Hiss != 0.2 {
		t.Errorf("global wear not parsed: %+v", c.Wear)
	}
	if c.NoteMaps["padKontrol"][36].Action != "record" {
		t.Errorf("note map not parsed: %+v", c.NoteMaps)
	}
	if c.CapacityFrames(0) != 96000 {
		t.Errorf("CapacityFrames = %d, expected 96000", c.CapacityFrames(0))
	}
}

func TestParseConfigKeepsDefaults(t *testing.T) {
	c, err := taperig.ParseConfig([]byte("bpm: 100\n"))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if c.BPM != 100 {
		t.Errorf("BPM = %v, expected 100", c.BPM)
	}
	if c.SampleRate != 44100 || len(c.Pads) != 8 || c.ReleaseMs != 50 {
		t.Errorf("defaults not kept: %+v", c)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	c := taperig.DefaultConfig()
	c.BPM = 0
	if err := c.Validate(); !errors.Is(err, taperig.ErrInvalidClockValue) {
		t.Errorf("expected ErrInvalidClockValue, got %v", err)
	}

	c = taperig.DefaultConfig()
	c.NoteMaps = map[string]taperig.NoteMap{
		"dev": {60: {Pad: 99, Action: "play"}},
	}
	if err := c.Validate(); err == nil {
		t.Errorf("expected error for out of range note map pad")
	}

	c = taperig.DefaultConfig()
	c.NoteMaps = map[string]taperig.NoteMap{
		"dev": {60: {Pad: 0, Action: "explode"}},
	}
	if err := c.Validate(); err == nil {
		t.Errorf("expected error for unknown note action")
	}

	c = taperig.DefaultConfig()
	c.Pads[2].Seconds = 0
	if err := c.Validate(); err == nil {
		t.Errorf("expected error for zero capacity pad")
	}
}
