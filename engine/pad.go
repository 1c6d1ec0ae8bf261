package engine

import "taperig"

// PadState enumerates the record/playback state machine of one pad.
type PadState uint8

const (
	StateIdle PadState = iota
	StateArmed
	StateRecording
	StatePlaying
	StateOverdubbing
	StateOneShot
	StateStopping
)

func (s PadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateRecording:
		return "recording"
	case StatePlaying:
		return "playing"
	case StateOverdubbing:
		return "overdubbing"
	case StateOneShot:
		return "oneshot"
	case StateStopping:
		return "stopping"
	}
	return "unknown"
}

type (
	// pendingAction is a pad's single scheduled action slot. A newer
	// command for the same pad overwrites it until the target boundary
	// arrives (latest wins). target is resolved once, when the command is
	// drained from the queue, so later tempo changes never move it.
	pendingAction struct {
		op       Op
		seq      uint64
		target   int64
		preLevel float32
		wear     taperig.WearParams
		valid    bool
	}

	// pad owns one fixed-capacity tape loop and its state machine. The
	// buffer is allocated once at engine construction and never resized;
	// a take that reaches capacity auto-completes. At most one writer
	// (the record/overdub cursor) and one playback voice exist at any
	// instant, and all state transitions commit on the real-time path at
	// boundary-aligned points, which is all the mutual exclusion the pad
	// needs.
	pad struct {
		index int
		state PadState

		buffer      []float32
		writeCursor int
		loopLength  int

		loop     bool
		takeWear taperig.WearParams

		odCursor int
		odLeft   int
		odPre    float32

		voice   voice
		pending pendingAction
	}
)

// schedule overwrites the pad's pending slot. If the superseded action
// was an arm request that already moved the pad to Armed, the pad drops
// back to Idle first.
func (p *pad) schedule(a pendingAction) {
	if p.state == StateArmed && p.pending.valid && p.pending.op == OpRecord && a.op != OpRecord {
		p.state = StateIdle
	}
	p.pending = a
}

// cancelPending discards any not-yet-committed action, reverting an arm
// that has not reached its boundary.
func (p *pad) cancelPending() {
	if p.state == StateArmed {
		p.state = StateIdle
	}
	p.pending.valid = false
}
