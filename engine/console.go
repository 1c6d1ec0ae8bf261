package engine

import (
	"errors"
	"fmt"
	"sync"

	"taperig"
)

// ErrCommandQueueFull is returned when the command queue to the
// real-time path is saturated. The command was not enqueued; the caller
// may retry.
var ErrCommandQueueFull = errors.New("command queue full")

// Console is the control-path entry point. It validates commands,
// resolves the effective wear set and pre-level for each trigger, and
// enqueues fully resolved commands through the broker. All methods are
// safe for concurrent use; the fan-in through the console is what keeps
// the command queue single-producer.
type Console struct {
	broker *Broker

	mu      sync.Mutex
	seq     uint64
	numPads int
	padWear []taperig.WearParams
	padPre  []float32
	router  router
}

// NewConsole resolves the per-pad default wear sets from the config
// once, so per-trigger resolution is just override-over-default.
func NewConsole(cfg taperig.Config, broker *Broker) (*Console, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("console config: %w", err)
	}
	c := &Console{
		broker:  broker,
		numPads: len(cfg.Pads),
		padWear: make([]taperig.WearParams, len(cfg.Pads)),
		padPre:  make([]float32, len(cfg.Pads)),
		router:  newRouter(),
	}
	for i, p := range cfg.Pads {
		c.padWear[i] = p.Wear.Resolve(cfg.Wear)
		c.padPre[i] = p.PreLevel
	}
	return c, nil
}

// Record arms the pad (or punches out a running take) at the next
// quantization boundary. Overrides replace individual wear parameters
// for the resulting take.
func (c *Console) Record(pad int, ov taperig.WearOverrides) error {
	return c.trigger(OpRecord, pad, ov)
}

// Overdub starts a one-loop overdub pass on a playing pad. The
// pre-level override, when present, scales the existing material under
// the new layer.
func (c *Console) Overdub(pad int, ov taperig.WearOverrides) error {
	return c.trigger(OpOverdub, pad, ov)
}

// Play starts looped playback at the next quantization boundary.
func (c *Console) Play(pad int, ov taperig.WearOverrides) error {
	return c.trigger(OpPlay, pad, ov)
}

// Once plays a single pass of the take and then releases.
func (c *Console) Once(pad int, ov taperig.WearOverrides) error {
	return c.trigger(OpOnce, pad, ov)
}

// Stop schedules a quantized, envelope-released stop. It cancels any
// pending action on the pad first.
func (c *Console) Stop(pad int) error {
	return c.trigger(OpStop, pad, taperig.WearOverrides{})
}

// Clear is the immediate escape hatch: it silences the pad, wipes its
// take and cancels anything pending, without waiting for a boundary.
func (c *Console) Clear(pad int) error {
	return c.trigger(OpClear, pad, taperig.WearOverrides{})
}

// SetTempo changes the transport tempo. Already scheduled actions keep
// the boundary frames they resolved to under the old tempo.
func (c *Console) SetTempo(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("tempo %v: %w", bpm, taperig.ErrInvalidClockValue)
	}
	return c.send(Command{Op: OpTempo, Value: bpm})
}

// SetQuantization changes the boundary grid, in beats.
func (c *Console) SetQuantization(beats float64) error {
	if beats <= 0 {
		return fmt.Errorf("quantization %v: %w", beats, taperig.ErrInvalidClockValue)
	}
	return c.send(Command{Op: OpQuant, Value: beats})
}

// Listen toggles live input pass-through on the mix bus.
func (c *Console) Listen(on bool) error {
	var v float64
	if on {
		v = 1
	}
	return c.send(Command{Op: OpListen, Value: v})
}

func (c *Console) trigger(op Op, pad int, ov taperig.WearOverrides) error {
	if pad < 0 || pad >= c.numPads {
		return fmt.Errorf("pad %d: %w", pad, taperig.ErrInvalidPadIndex)
	}
	return c.send(Command{
		Op:       op,
		Pad:      pad,
		PreLevel: ov.ResolvePreLevel(c.padPre[pad]),
		Wear:     ov.Resolve(c.padWear[pad]),
	})
}

func (c *Console) send(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	cmd.Seq = c.seq
	cmd.At = c.broker.Frame()
	if !TrySend(c.broker.ToEngine, cmd) {
		return ErrCommandQueueFull
	}
	return nil
}
