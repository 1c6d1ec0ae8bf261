package engine

import "taperig"

type (
	// Op enumerates the commands the control path can hand to the
	// real-time path.
	Op uint8

	// Command travels from the control path to the real-time path through
	// the broker's single-producer/single-consumer queue. Seq is a
	// control-side sequence number; actions due at the same quantization
	// boundary fire in ascending Seq order. At is the control path's view
	// of the engine frame when the command was issued; the target boundary
	// is never earlier than it. Wear and PreLevel are fully resolved on
	// the control path so the real-time path does no map lookups.
	Command struct {
		Op       Op
		Pad      int
		Seq      uint64
		At       int64
		Value    float64
		PreLevel float32
		Wear     taperig.WearParams
	}
)

const (
	OpNone Op = iota
	OpRecord
	OpOverdub
	OpPlay
	OpOnce
	OpStop
	OpClear
	OpTempo
	OpQuant
	OpListen
)

func (o Op) String() string {
	switch o {
	case OpRecord:
		return "record"
	case OpOverdub:
		return "overdub"
	case OpPlay:
		return "play"
	case OpOnce:
		return "once"
	case OpStop:
		return "stop"
	case OpClear:
		return "clear"
	case OpTempo:
		return "tempo"
	case OpQuant:
		return "quant"
	case OpListen:
		return "listen"
	}
	return "none"
}

// padCommand reports whether the op targets a single pad (as opposed to
// the transport or the mix bus).
func (o Op) padCommand() bool {
	switch o {
	case OpRecord, OpOverdub, OpPlay, OpOnce, OpStop, OpClear:
		return true
	}
	return false
}
