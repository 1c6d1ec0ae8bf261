package taperig

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

type (
	// Config describes one engine session: clock defaults, envelope
	// windows, the global wear fallback, the fixed pad set and the MIDI
	// note maps. It round-trips through YAML so sessions can be kept as
	// files.
	Config struct {
		SampleRate        int                `yaml:"samplerate"`
		BPM               float64            `yaml:"bpm"`
		QuantBeats        float64            `yaml:"quantbeats"`
		AttackMs          float64            `yaml:"attackms"`
		ReleaseMs         float64            `yaml:"releasems"`
		QuantizedOneShots bool               `yaml:"quantizedoneshots"`
		Wear              WearParams         `yaml:"wear"`
		Pads              []PadConfig        `yaml:"pads"`
		NoteMaps          map[string]NoteMap `yaml:"notemaps,omitempty"`
	}

	// PadConfig fixes one pad at engine construction: its buffer capacity
	// in seconds, whether a finished take starts looping immediately, the
	// default overdub pre-level and the pad's wear defaults (partial,
	// resolved against the global wear fallback).
	PadConfig struct {
		Seconds  float64       `yaml:"seconds"`
		Loop     bool          `yaml:"loop"`
		PreLevel float32       `yaml:"prelevel"`
		Wear     WearOverrides `yaml:"wear,omitempty"`
	}

	// NoteMap binds note numbers of one external device to pad actions.
	// The layout is data so it can be rebound at runtime without code
	// changes.
	NoteMap map[uint8]NoteBinding

	NoteBinding struct {
		Pad    int    `yaml:"pad"`
		Action string `yaml:"action"`
	}
)

// Actions understood by a NoteBinding.
var noteActions = map[string]bool{
	"record":  true,
	"overdub": true,
	"play":    true,
	"once":    true,
	"stop":    true,
	"clear":   true,
}

// DefaultConfig returns a playable eight pad session: four second loops,
// 120 BPM, one beat quantization, 5 ms attack and 50 ms release.
func DefaultConfig() Config {
	pads := make([]PadConfig, 8)
	for i := range pads {
		pads[i] = PadConfig{Seconds: 4, Loop: true, PreLevel: 0.85}
	}
	return Config{
		SampleRate: 44100,
		BPM:        120,
		QuantBeats: 1,
		AttackMs:   5,
		ReleaseMs:  50,
		Wear:       DefaultWear,
		Pads:       pads,
	}
}

// ParseConfig unmarshals and validates a YAML session.
func ParseConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parsing session config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.SampleRate < 1 {
		return errors.New("samplerate should be > 0")
	}
	if c.BPM <= 0 || c.QuantBeats <= 0 {
		return ErrInvalidClockValue
	}
	if len(c.Pads) == 0 {
		return errors.New("session contains no pads")
	}
	for i, p := range c.Pads {
		if p.Seconds <= 0 {
			return fmt.Errorf("pad %d: seconds should be > 0", i)
		}
	}
	for device, m := range c.NoteMaps {
		for note, b := range m {
			if b.Pad < 0 || b.Pad >= len(c.Pads) {
				return fmt.Errorf("note map %q: note %d targets pad %d of %d", device, note, b.Pad, len(c.Pads))
			}
			if !noteActions[b.Action] {
				return fmt.Errorf("note map %q: note %d has unknown action %q", device, note, b.Action)
			}
		}
	}
	return nil
}

// CapacityFrames returns the fixed buffer capacity of a pad in frames.
func (c *Config) CapacityFrames(pad int) int {
	return int(c.Pads[pad].Seconds * float64(c.SampleRate))
}
