package taperig

// TransportClock is the tempo and quantization authority shared by all
// pads. It counts frames monotonically; the real-time path owns it and
// advances it by exactly the number of frames rendered, so boundaries
// derived from it are sample accurate regardless of control-path jitter.
//
// Tempo and quantization changes only affect boundaries computed after
// the change; the engine resolves a pending action's target boundary
// once and never re-derives it (see engine.Engine).
type TransportClock struct {
	sampleRate float64
	bpm        float64
	quantBeats float64
	frame      int64
}

func NewTransportClock(sampleRate, bpm, quantBeats float64) *TransportClock {
	c := &TransportClock{sampleRate: sampleRate, bpm: 120, quantBeats: 1}
	c.SetTempo(bpm)
	c.SetQuantization(quantBeats)
	return c
}

// SetTempo sets the tempo in beats per minute. Non-positive values have
// no effect; callers are expected to reject them before getting here.
func (c *TransportClock) SetTempo(bpm float64) {
	if bpm > 0 {
		c.bpm = bpm
	}
}

// SetQuantization sets the boundary granularity in beats. Non-positive
// values have no effect.
func (c *TransportClock) SetQuantization(beats float64) {
	if beats > 0 {
		c.quantBeats = beats
	}
}

func (c *TransportClock) Tempo() float64        { return c.bpm }
func (c *TransportClock) Quantization() float64 { return c.quantBeats }

// Frame returns the current position of the phase counter.
func (c *TransportClock) Frame() int64 { return c.frame }

// Advance moves the phase counter forward by the given number of frames.
func (c *TransportClock) Advance(frames int) { c.frame += int64(frames) }

// QuantumFrames returns the length of one quantization interval in
// frames, never less than one.
func (c *TransportClock) QuantumFrames() int64 {
	q := int64(c.quantBeats*60/c.bpm*c.sampleRate + 0.5)
	if q < 1 {
		q = 1
	}
	return q
}

// NextBoundary returns the first quantization boundary at or after the
// given frame. A frame exactly on a boundary is its own boundary.
func (c *TransportClock) NextBoundary(frame int64) int64 {
	q := c.QuantumFrames()
	return (frame + q - 1) / q * q
}
