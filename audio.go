package taperig

type (
	// AudioBuffer is a slice of mono audio samples, one float32 per frame.
	// The engine is mono throughout; output adapters widen the signal to
	// whatever the device needs (see the oto package).
	AudioBuffer []float32

	// AudioSource is the live input stream fed to the engine. The samples
	// are opaque to the engine; it only copies them into pad buffers and
	// the mix bus. ReadAudio should fill as much of the buffer as it can
	// and return the number of frames written.
	AudioSource interface {
		ReadAudio(buffer AudioBuffer) (n int, err error)
		Close() error
	}

	// AudioSink consumes the summed engine output.
	AudioSink interface {
		WriteAudio(buffer AudioBuffer) error
		Close() error
	}

	// AudioContext abstracts the hosting audio output.
	AudioContext interface {
		Output() AudioSink
		Close() error
	}
)
