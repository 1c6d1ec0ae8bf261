// Package oto wires the engine's mono mix output to an oto playback
// device.
package oto

import (
	"fmt"

	"github.com/hajimehoshi/oto"

	"taperig"
)

type OtoContext oto.Context
type OtoOutput struct {
	player    *oto.Player
	tmpBuffer []byte
}

func (c *OtoContext) Output() taperig.AudioSink {
	return &OtoOutput{player: (*oto.Context)(c).NewPlayer(), tmpBuffer: make([]byte, 0)}
}

const otoBufferSize = 8192

// NewContext opens a stereo 16-bit playback device at the session
// sample rate; the mono mix is duplicated to both channels on write.
func NewContext(sampleRate int) (*OtoContext, error) {
	context, err := oto.NewContext(sampleRate, 2, 2, otoBufferSize)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	return (*OtoContext)(context), nil
}

func (c *OtoContext) Close() error {
	if err := (*oto.Context)(c).Close(); err != nil {
		return fmt.Errorf("cannot close oto context: %w", err)
	}
	return nil
}

func (o *OtoOutput) WriteAudio(buffer taperig.AudioBuffer) error {
	// we reuse the old capacity tmpBuffer by setting its length to zero. then,
	// we save the tmpBuffer so we can reuse it next time
	o.tmpBuffer = MonoFloatTo16BitLEStereo(buffer, o.tmpBuffer[:0])
	if _, err := o.player.Write(o.tmpBuffer); err != nil {
		return fmt.Errorf("cannot write to player: %w", err)
	}
	return nil
}

func (o *OtoOutput) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
