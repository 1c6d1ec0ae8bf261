package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
)

type (
	// Broker carries all communication between the control path and the
	// real-time path. ToEngine is the timestamped command queue: a single
	// control goroutine produces, the audio callback consumes, and both
	// ends use non-blocking sends/receives so the real-time path can
	// never stall on it. ToControl carries alerts and peak meters back
	// out. The meter pool lets the real-time path publish meter snapshots
	// without allocating; consumers return them with PutMeters.
	Broker struct {
		ToEngine  chan Command
		ToControl chan MsgToControl

		frame     atomic.Int64
		meterPool sync.Pool
	}

	// MsgToControl is a message from the real-time path to the control
	// path. Meters, when present, is borrowed from the broker's pool.
	MsgToControl struct {
		Frame     int64
		HasAlert  bool
		Alert     Alert
		HasMeters bool
		Meters    *[]float32
	}

	// Alert is a non-fatal control-path notification. It carries no
	// formatted strings so the real-time path can emit one without
	// allocating.
	Alert struct {
		Kind AlertKind
		Pad  int
		Op   Op
		Note uint8
	}

	AlertKind uint8
)

const (
	AlertNone AlertKind = iota
	AlertInvalidCommand
	AlertUnmappedDevice
	AlertUnmappedNote
)

func (a Alert) String() string {
	switch a.Kind {
	case AlertInvalidCommand:
		return fmt.Sprintf("pad %d: %v not valid in current state", a.Pad, a.Op)
	case AlertUnmappedDevice:
		return "note event from unbound device ignored"
	case AlertUnmappedNote:
		return fmt.Sprintf("unmapped note %d ignored", a.Note)
	}
	return ""
}

func NewBroker(numPads int) *Broker {
	return &Broker{
		ToEngine:  make(chan Command, 1024),
		ToControl: make(chan MsgToControl, 1024),
		meterPool: sync.Pool{New: func() any {
			s := make([]float32, numPads)
			return &s
		}},
	}
}

// Frame returns the engine frame most recently published by the
// real-time path. The control path uses it to timestamp commands.
func (b *Broker) Frame() int64 { return b.frame.Load() }

func (b *Broker) publishFrame(frame int64) { b.frame.Store(frame) }

// GetMeters borrows a meter slice from the pool.
func (b *Broker) GetMeters() *[]float32 { return b.meterPool.Get().(*[]float32) }

// PutMeters returns a meter slice to the pool.
func (b *Broker) PutMeters(m *[]float32) { b.meterPool.Put(m) }

// TrySend sends a value to a channel if it is not full. It is
// guaranteed to be non-blocking. Returns true if the value was sent.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
