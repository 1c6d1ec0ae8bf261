package engine

import (
	"errors"
	"io"

	"taperig"
)

const renderBlock = 1024

// Render drives the engine offline for a fixed number of frames,
// pulling input from src (nil for silence) and returning the mixed
// output. It runs the same process loop as the audio callback, just
// faster than real time, so quantization and wear behave identically to
// a live session.
func Render(e *Engine, src taperig.AudioSource, frames int) (taperig.AudioBuffer, error) {
	out := make(taperig.AudioBuffer, 0, frames)
	in := make(taperig.AudioBuffer, renderBlock)
	block := make(taperig.AudioBuffer, renderBlock)
	for len(out) < frames {
		n := frames - len(out)
		if n > renderBlock {
			n = renderBlock
		}
		got := 0
		if src != nil {
			var err error
			got, err = src.ReadAudio(in[:n])
			if err != nil && !errors.Is(err, io.EOF) {
				return out, err
			}
		}
		e.Process(in[:got], block[:n])
		out = append(out, block[:n]...)
	}
	return out, nil
}
