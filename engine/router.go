package engine

import (
	"fmt"

	"taperig"
)

type noteKey struct {
	device string
	note   uint8
}

// router maps incoming note events to pad actions. One binding table
// per device; note-on fires the bound action exactly once and the note
// must be released before it can fire again. The router lives under the
// console mutex, so it needs no locking of its own.
type router struct {
	bindings map[string]taperig.NoteMap
	held     map[noteKey]bool
}

func newRouter() router {
	return router{
		bindings: make(map[string]taperig.NoteMap),
		held:     make(map[noteKey]bool),
	}
}

// Bind installs (or replaces) the note map for a device. Replacing a
// map clears the held state of that device's notes so stale holds from
// the old map cannot suppress triggers under the new one.
func (c *Console) Bind(device string, m taperig.NoteMap) error {
	for note, b := range m {
		if b.Pad < 0 || b.Pad >= c.numPads {
			return fmt.Errorf("note %d -> pad %d: %w", note, b.Pad, taperig.ErrInvalidPadIndex)
		}
		if _, err := opForAction(b.Action); err != nil {
			return fmt.Errorf("note %d: %w", note, err)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.router.bindings[device] = m
	for k := range c.router.held {
		if k.device == device {
			delete(c.router.held, k)
		}
	}
	return nil
}

// Unbind removes a device's note map. Events from it alert as unmapped
// afterwards.
func (c *Console) Unbind(device string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.router.bindings, device)
	for k := range c.router.held {
		if k.device == device {
			delete(c.router.held, k)
		}
	}
}

// HandleNote routes one note event. Note-offs only release the held
// latch; unmapped devices and notes raise an alert and are otherwise
// ignored.
func (c *Console) HandleNote(device string, note uint8, on bool) error {
	c.mu.Lock()
	key := noteKey{device: device, note: note}
	if !on {
		delete(c.router.held, key)
		c.mu.Unlock()
		return nil
	}
	m, ok := c.router.bindings[device]
	if !ok {
		c.mu.Unlock()
		TrySend(c.broker.ToControl, MsgToControl{
			HasAlert: true,
			Alert:    Alert{Kind: AlertUnmappedDevice, Pad: -1, Note: note},
		})
		return nil
	}
	b, ok := m[note]
	if !ok {
		c.mu.Unlock()
		TrySend(c.broker.ToControl, MsgToControl{
			HasAlert: true,
			Alert:    Alert{Kind: AlertUnmappedNote, Pad: -1, Note: note},
		})
		return nil
	}
	if c.router.held[key] {
		c.mu.Unlock()
		return nil
	}
	c.router.held[key] = true
	c.mu.Unlock()

	op, err := opForAction(b.Action)
	if err != nil {
		return err
	}
	switch op {
	case OpStop:
		return c.Stop(b.Pad)
	case OpClear:
		return c.Clear(b.Pad)
	default:
		return c.trigger(op, b.Pad, taperig.WearOverrides{})
	}
}

func opForAction(action string) (Op, error) {
	switch action {
	case "record":
		return OpRecord, nil
	case "overdub":
		return OpOverdub, nil
	case "play":
		return OpPlay, nil
	case "once":
		return OpOnce, nil
	case "stop":
		return OpStop, nil
	case "clear":
		return OpClear, nil
	}
	return OpNone, fmt.Errorf("unknown pad action %q", action)
}
