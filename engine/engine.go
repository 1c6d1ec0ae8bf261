// Package engine implements the quantized tape-loop sampler: a fixed
// set of pads behind a shared transport clock, fed by a lock-free
// command queue from the control path (Console) and rendered on a
// dedicated real-time path (Engine.Process). The real-time path never
// blocks, locks or allocates; it progresses strictly by its own sample
// clock and commits pad state transitions only at boundary-aligned
// points, in command submission order.
package engine

import (
	"fmt"

	"github.com/viterin/vek/vek32"

	"taperig"
)

const maxSegment = 2048

// Engine is the real-time half of the sampler. Exactly one goroutine
// (the audio callback) may call Process; everything else talks to it
// through the Broker. The zero frame of the transport clock is the
// first frame Process ever renders.
type Engine struct {
	broker *Broker
	clock  *taperig.TransportClock

	sampleRate float64
	pads       []pad
	listening  bool

	scratch []float32
	peaks   []float32

	attackFrames  int
	releaseFrames int
	dropFrames    int

	quantizedOneShots bool
}

// NewEngine allocates all pad buffers up front; the real-time path only
// ever zeroes them in place afterwards. The config must have passed
// Validate.
func NewEngine(cfg taperig.Config, broker *Broker) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	e := &Engine{
		broker:            broker,
		clock:             taperig.NewTransportClock(float64(cfg.SampleRate), cfg.BPM, cfg.QuantBeats),
		sampleRate:        float64(cfg.SampleRate),
		pads:              make([]pad, len(cfg.Pads)),
		scratch:           make([]float32, maxSegment),
		peaks:             make([]float32, len(cfg.Pads)),
		attackFrames:      int(cfg.AttackMs / 1000 * float64(cfg.SampleRate)),
		releaseFrames:     int(cfg.ReleaseMs / 1000 * float64(cfg.SampleRate)),
		dropFrames:        int(dropWindowSeconds * float64(cfg.SampleRate)),
		quantizedOneShots: cfg.QuantizedOneShots,
	}
	if e.releaseFrames < 1 {
		e.releaseFrames = 1
	}
	if e.dropFrames < 1 {
		e.dropFrames = 1
	}
	for i := range e.pads {
		e.pads[i] = pad{
			index:  i,
			buffer: make([]float32, cfg.CapacityFrames(i)),
			loop:   cfg.Pads[i].Loop,
		}
	}
	return e, nil
}

// Process renders one block: it drains the command queue, commits every
// action whose boundary falls inside the block at its exact frame, and
// sums live input pass-through and all pad voices into out. in may be
// nil or shorter than out; missing input frames read as silence. len(in)
// frames of input correspond one-to-one to the first len(in) frames of
// out.
func (e *Engine) Process(in, out taperig.AudioBuffer) {
	e.drainCommands()
	vek32.Zeros_Into(out, len(out))
	e.commitDue()
	frame := 0
	for frame < len(out) {
		n := e.segmentFrames(len(out) - frame)
		var inSeg []float32
		if frame < len(in) {
			inSeg = in[frame:min(frame+n, len(in))]
		}
		e.renderSegment(inSeg, out[frame:frame+n])
		e.clock.Advance(n)
		e.commitDue()
		frame += n
	}
	e.publish()
}

// segmentFrames limits the next render segment so that no pending
// action's boundary falls strictly inside it.
func (e *Engine) segmentFrames(remaining int) int {
	n := remaining
	if n > len(e.scratch) {
		n = len(e.scratch)
	}
	now := e.clock.Frame()
	for i := range e.pads {
		p := &e.pads[i]
		if !p.pending.valid {
			continue
		}
		if d := p.pending.target - now; d < int64(n) {
			n = int(d)
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// drainCommands empties the queue, applying transport and clear
// commands immediately and parking pad actions in their pending slots
// with a target boundary resolved against the current clock settings.
// Resolving here, once, is what pins an in-flight action against later
// tempo or quantization changes.
func (e *Engine) drainCommands() {
	for {
		select {
		case cmd := <-e.broker.ToEngine:
			e.apply(cmd)
		default:
			return
		}
	}
}

func (e *Engine) apply(cmd Command) {
	switch cmd.Op {
	case OpTempo:
		e.clock.SetTempo(cmd.Value)
		return
	case OpQuant:
		e.clock.SetQuantization(cmd.Value)
		return
	case OpListen:
		e.listening = cmd.Value != 0
		return
	}
	if !cmd.Op.padCommand() || cmd.Pad < 0 || cmd.Pad >= len(e.pads) {
		return
	}
	p := &e.pads[cmd.Pad]
	switch cmd.Op {
	case OpClear:
		// The panic/reset escape hatch: immediate, unquantized, cancels
		// whatever was pending.
		e.clearPad(p)
		return
	case OpStop:
		p.cancelPending()
	case OpRecord:
		if p.state == StateIdle {
			p.state = StateArmed
		}
	}
	at := cmd.At
	if now := e.clock.Frame(); at < now {
		at = now
	}
	target := e.clock.NextBoundary(at)
	if cmd.Op == OpOnce && !e.quantizedOneShots {
		target = e.clock.Frame()
	}
	p.schedule(pendingAction{
		op:       cmd.Op,
		seq:      cmd.Seq,
		target:   target,
		preLevel: cmd.PreLevel,
		wear:     cmd.Wear,
		valid:    true,
	})
}

// commitDue fires every pending action whose boundary has arrived, in
// ascending submission order across pads.
func (e *Engine) commitDue() {
	now := e.clock.Frame()
	for {
		var next *pad
		for i := range e.pads {
			p := &e.pads[i]
			if p.pending.valid && p.pending.target <= now {
				if next == nil || p.pending.seq < next.pending.seq {
					next = p
				}
			}
		}
		if next == nil {
			return
		}
		a := next.pending
		next.pending.valid = false
		e.commit(next, a)
	}
}

func (e *Engine) commit(p *pad, a pendingAction) {
	switch a.op {
	case OpRecord:
		switch p.state {
		case StateArmed:
			p.state = StateRecording
			p.takeWear = a.wear
			p.writeCursor = 0
			p.loopLength = 0
			p.voice.active = false
		case StateRecording:
			// Record while recording is a quantized punch-out: end the
			// take at this boundary, same as an explicit stop.
			e.finishTake(p)
		default:
			e.alert(AlertInvalidCommand, p.index, a.op)
		}
	case OpOverdub:
		if p.state != StatePlaying || p.loopLength == 0 {
			e.alert(AlertInvalidCommand, p.index, a.op)
			return
		}
		p.state = StateOverdubbing
		p.odCursor = int(p.voice.phase)
		if p.odCursor >= p.loopLength {
			p.odCursor = 0
		}
		p.odLeft = p.loopLength
		p.odPre = a.preLevel
	case OpPlay, OpOnce:
		switch p.state {
		case StateIdle, StatePlaying, StateOneShot, StateStopping:
			if p.loopLength == 0 {
				return // never recorded: silence, not an error
			}
			e.startVoice(p, a.wear, a.op == OpOnce)
			if a.op == OpOnce {
				p.state = StateOneShot
			} else {
				p.state = StatePlaying
			}
		default:
			e.alert(AlertInvalidCommand, p.index, a.op)
		}
	case OpStop:
		switch p.state {
		case StateRecording:
			e.finishTake(p)
		case StatePlaying, StateOneShot, StateOverdubbing:
			if p.state == StateOverdubbing {
				p.odLeft = 0
			}
			p.voice.beginRelease()
			p.state = StateStopping
		default:
			// Idle or already stopping: nothing left to stop.
		}
	}
}

// finishTake closes the current capture: the take length becomes the
// loop length and, when the pad is in loop mode, playback of the fresh
// take starts on the very next frame with the wear set resolved when
// the pad was armed.
func (e *Engine) finishTake(p *pad) {
	p.loopLength = p.writeCursor
	if p.loop && p.loopLength > 0 {
		e.startVoice(p, p.takeWear, false)
		p.state = StatePlaying
	} else {
		p.voice.active = false
		p.state = StateIdle
	}
}

func (e *Engine) startVoice(p *pad, wear taperig.WearParams, oneShot bool) {
	v := voice{
		active:      true,
		oneShot:     oneShot,
		wear:        wear,
		randState:   uint32(e.clock.Frame())*2654435761 + uint32(p.index)*97 + 1,
		releaseStep: 1 / float32(e.releaseFrames),
	}
	if e.attackFrames > 0 {
		v.attackStep = 1 / float32(e.attackFrames)
	} else {
		v.gain = 1
	}
	p.voice = v
}

func (e *Engine) clearPad(p *pad) {
	vek32.Zeros_Into(p.buffer, len(p.buffer))
	p.state = StateIdle
	p.writeCursor = 0
	p.loopLength = 0
	p.odLeft = 0
	p.voice = voice{}
	p.pending.valid = false
}

// renderSegment runs every pad for one boundary-free span of frames and
// sums the results into out. in may be shorter than out; the tail reads
// as silence.
func (e *Engine) renderSegment(in, out []float32) {
	if e.listening && len(in) > 0 {
		vek32.Add_Inplace(out[:len(in)], in)
	}
	for i := range e.pads {
		p := &e.pads[i]
		idle := p.state != StateRecording && p.state != StateOverdubbing && !p.voice.active
		if idle {
			continue
		}
		scratch := e.scratch[:len(out)]
		e.processPad(p, in, scratch)
		vek32.Add_Inplace(out, scratch)
		vek32.Abs_Inplace(scratch)
		if pk := vek32.Max(scratch); pk > e.peaks[i] {
			e.peaks[i] = pk
		}
	}
}

// processPad advances one pad frame by frame: the write head first
// (capture or overdub mix-in), then the playback voice. Capacity end,
// overdub window end, one-shot end and release end all land on their
// exact frame here.
func (e *Engine) processPad(p *pad, in, scratch []float32) {
	for i := range scratch {
		var x float32
		if i < len(in) {
			x = in[i]
		}
		switch p.state {
		case StateRecording:
			p.buffer[p.writeCursor] = x
			p.writeCursor++
			if p.writeCursor == len(p.buffer) {
				e.finishTake(p) // capacity reached: auto-complete, not an error
				// playback of the fresh take starts on the next frame,
				// same as a boundary punch-out
				scratch[i] = 0
				continue
			}
		case StateOverdubbing:
			p.buffer[p.odCursor] = p.buffer[p.odCursor]*p.odPre + x
			p.odCursor++
			if p.odCursor >= p.loopLength {
				p.odCursor = 0
			}
			p.odLeft--
			if p.odLeft <= 0 {
				p.state = StatePlaying
			}
		}
		if p.voice.active {
			scratch[i] = p.sampleVoice(e.sampleRate, e.dropFrames)
			if !p.voice.active && p.state == StateStopping {
				p.state = StateIdle
			}
		} else {
			scratch[i] = 0
		}
	}
}

func (e *Engine) alert(kind AlertKind, pad int, op Op) {
	TrySend(e.broker.ToControl, MsgToControl{
		Frame:    e.clock.Frame(),
		HasAlert: true,
		Alert:    Alert{Kind: kind, Pad: pad, Op: op},
	})
}

// publish hands the current frame and a pooled peak-meter snapshot to
// the control path. Peaks are hold-and-reset: each published value is
// the maximum since the previous successful publish.
func (e *Engine) publish() {
	e.broker.publishFrame(e.clock.Frame())
	meters := e.broker.GetMeters()
	copy(*meters, e.peaks)
	if TrySend(e.broker.ToControl, MsgToControl{
		Frame:     e.clock.Frame(),
		HasMeters: true,
		Meters:    meters,
	}) {
		vek32.Zeros_Into(e.peaks, len(e.peaks))
	} else {
		e.broker.PutMeters(meters)
	}
}

// PadState reports a pad's state machine position. Like Take, it is
// meant for tests and for inspection after the process loop has
// stopped; it is not synchronized against a concurrent Process call.
func (e *Engine) PadState(pad int) PadState {
	return e.pads[pad].state
}

// Take returns the recorded portion of a pad's buffer. Only valid while
// no Process call is running, e.g. after the audio loop has been shut
// down for take export.
func (e *Engine) Take(pad int) taperig.AudioBuffer {
	p := &e.pads[pad]
	return taperig.AudioBuffer(p.buffer[:p.loopLength])
}

// NumPads returns the fixed pad count.
func (e *Engine) NumPads() int { return len(e.pads) }

// Close cancels all pending actions and releases the pad buffers. The
// process loop must have stopped first.
func (e *Engine) Close() {
	for i := range e.pads {
		e.pads[i].pending.valid = false
		e.pads[i].voice = voice{}
		e.pads[i].buffer = nil
		e.pads[i].state = StateIdle
	}
}
