package engine

import (
	"math"

	"taperig"
)

// Tape transport constants. Wow is the slow drift of the capstan,
// flutter the faster scrape; depths are the maximum relative speed
// deviation at parameter value 1.
const (
	wowFreqHz     = 0.6
	flutterFreqHz = 7.3
	wowDepth      = 0.006
	flutterDepth  = 0.0018

	toneCutoff = float32(0.12) // one-pole coefficient of the tilt filter
	hissGain   = float32(0.004)

	dropWindowSeconds = 0.03
)

// voice reads a pad buffer at a variable rate and runs the tape-wear
// chain. Its parameters are resolved at trigger time and stay fixed for
// the voice's lifetime. All per-sample state lives here so retriggering
// a pad resets the whole chain.
type voice struct {
	active    bool
	oneShot   bool
	releasing bool

	phase        float64
	wowPhase     float64
	flutterPhase float64

	gain        float32
	attackStep  float32
	releaseStep float32

	lpState   float32
	dropLeft  int
	randState uint32

	wear taperig.WearParams
}

func (v *voice) beginRelease() {
	v.releasing = true
}

// rand is the same multiplicative congruential generator the playback
// noise has always used; returns values in [-1,1).
func (v *voice) rand() float32 {
	v.randState *= 16007
	return float32(int32(v.randState)) / -2147483648.0
}

func (v *voice) rand01() float32 {
	return (v.rand() + 1) * 0.5
}

// sampleVoice renders one frame of the pad's playback voice. It owns
// the one-shot auto-release: when a one-shot pass consumes the buffer,
// the voice enters the same release as an explicit stop while the tape
// keeps rolling underneath the ramp, and the pad moves to Stopping.
func (p *pad) sampleVoice(sampleRate float64, dropFrames int) float32 {
	v := &p.voice
	n := p.loopLength
	if !v.active || n == 0 {
		v.active = false
		return 0
	}

	rate := 1.0
	if v.wear.Wow > 0 {
		rate += wowDepth * float64(v.wear.Wow) * math.Sin(v.wowPhase)
	}
	if v.wear.Flutter > 0 {
		rate += flutterDepth * float64(v.wear.Flutter) * math.Sin(v.flutterPhase)
	}
	v.wowPhase += 2 * math.Pi * wowFreqHz / sampleRate
	if v.wowPhase >= 2*math.Pi {
		v.wowPhase -= 2 * math.Pi
	}
	v.flutterPhase += 2 * math.Pi * flutterFreqHz / sampleRate
	if v.flutterPhase >= 2*math.Pi {
		v.flutterPhase -= 2 * math.Pi
	}

	idx := int(v.phase)
	if idx >= n {
		idx = n - 1
	}
	s := p.buffer[idx]
	if frac := float32(v.phase - float64(idx)); frac > 0 {
		next := idx + 1
		if next >= n {
			next = 0
		}
		s += (p.buffer[next] - s) * frac
	}
	v.phase += rate
	if v.phase >= float64(n) {
		v.phase -= float64(n)
		if v.oneShot && !v.releasing {
			v.beginRelease()
			p.state = StateStopping
		}
	}

	if sat := v.wear.Saturation; sat > 0 {
		s = waveshape(s, 0.5+0.45*sat)
	}
	if t := v.wear.Tone; t != 0.5 {
		v.lpState += toneCutoff * (s - v.lpState)
		if t < 0.5 {
			s += (0.5 - t) * 2 * (v.lpState - s)
		} else {
			s += (t - 0.5) * 2 * (s - v.lpState)
		}
	}
	if v.wear.Hiss > 0 {
		s += v.wear.Hiss * hissGain * v.rand()
	}
	if v.dropLeft > 0 {
		s *= 1 - v.wear.DropDepth
		v.dropLeft--
	} else if v.wear.DropRate > 0 && v.rand01() < v.wear.DropRate/float32(sampleRate) {
		v.dropLeft = dropFrames - 1
		s *= 1 - v.wear.DropDepth
	}

	if v.releasing {
		v.gain -= v.releaseStep
		if v.gain <= 0 {
			v.gain = 0
			v.active = false
			return 0
		}
	} else if v.gain < 1 {
		v.gain += v.attackStep
		if v.gain > 1 {
			v.gain = 1
		}
	}
	return s * v.gain
}

// waveshape is a symmetric nonlinear stage; amount 0.5 is the identity,
// values toward 1 drive the signal into soft clipping.
func waveshape(value, amount float32) float32 {
	absVal := value
	if absVal < 0 {
		absVal = -absVal
	}
	return value * amount / (1 - amount + (2*amount-1)*absVal)
}
