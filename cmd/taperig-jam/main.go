package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"taperig"
	"taperig/engine"
	"taperig/engine/gomidi"
	"taperig/oto"
	"taperig/version"
)

func main() {
	configFile := flag.String("f", "", "Session config file (.yml). Defaults to a built-in eight pad session.")
	inputFile := flag.String("i", "", "Input audio as headerless mono float32 little-endian samples. Default is silence.")
	renderSecs := flag.Float64("render", 0, "Render offline for the given number of seconds instead of playing live.")
	directory := flag.String("o", "", "Directory where to output exported takes. The directory and its parents are created if needed.")
	rawOut := flag.Bool("r", false, "Export takes as .raw files on exit. By default, saves mono float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Export takes as .wav files on exit. By default, saves mono float32 buffer to disk.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	midiPrefix := flag.String("midi", "", "Open the first MIDI input whose name starts with the given prefix.")
	listMidi := flag.Bool("l", false, "List MIDI input devices and exit.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}

	cfg := taperig.DefaultConfig()
	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			fatalf("could not read config %v: %v", *configFile, err)
		}
		cfg, err = taperig.ParseConfig(data)
		if err != nil {
			fatalf("could not parse config %v: %v", *configFile, err)
		}
	}

	broker := engine.NewBroker(len(cfg.Pads))
	eng, err := engine.NewEngine(cfg, broker)
	if err != nil {
		fatalf("could not create engine: %v", err)
	}
	console, err := engine.NewConsole(cfg, broker)
	if err != nil {
		fatalf("could not create console: %v", err)
	}
	for device, m := range cfg.NoteMaps {
		if err := console.Bind(device, m); err != nil {
			fatalf("could not bind note map %q: %v", device, err)
		}
	}

	if *listMidi {
		midiContext := gomidi.NewContext(console)
		defer midiContext.Close()
		for device := range midiContext.InputDevices {
			fmt.Println(device)
		}
		return
	}

	var source taperig.AudioSource
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fatalf("could not open input %v: %v", *inputFile, err)
		}
		source = &rawFileSource{reader: bufio.NewReader(f), closer: f}
		defer source.Close()
		console.Listen(true)
	}

	if *renderSecs > 0 {
		runScript(console, os.Stdin)
		frames := int(*renderSecs * float64(cfg.SampleRate))
		buffer, err := engine.Render(eng, source, frames)
		if err != nil {
			fatalf("render failed: %v", err)
		}
		if err := exportBuffer("render", buffer, cfg.SampleRate, *directory, *rawOut, *wavOut, *pcm); err != nil {
			fatalf("%v", err)
		}
		exportTakes(eng, cfg.SampleRate, *directory, *rawOut, *wavOut, *pcm)
		return
	}

	audioContext, err := oto.NewContext(cfg.SampleRate)
	if err != nil {
		fatalf("could not acquire oto AudioContext: %v", err)
	}
	defer audioContext.Close()
	sink := audioContext.Output()
	defer sink.Close()

	if *midiPrefix != "" {
		midiContext := gomidi.NewContext(console)
		defer midiContext.Close()
		if err := midiContext.TryToOpenBy(*midiPrefix, false); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}

	go reportAlerts(broker)

	done := make(chan struct{})
	go func() {
		in := make(taperig.AudioBuffer, 2048)
		out := make(taperig.AudioBuffer, 2048)
		for {
			select {
			case <-done:
				return
			default:
			}
			n := 0
			if source != nil {
				n, _ = source.ReadAudio(in)
			}
			eng.Process(in[:n], out)
			if err := sink.WriteAudio(out); err != nil {
				fmt.Fprintf(os.Stderr, "audio output: %v\n", err)
				return
			}
		}
	}()

	fmt.Println("taperig " + version.VersionOrHash)
	fmt.Println(`commands: r|o|p|1|s|c <pad>  t <bpm>  q <beats>  listen on|off  x`)
	runScript(console, os.Stdin)
	close(done)

	exportTakes(eng, cfg.SampleRate, *directory, *rawOut, *wavOut, *pcm)
}

// runScript reads pad commands line by line until EOF or the x command.
// The same syntax drives both the live prompt and offline render
// scripts piped through stdin.
func runScript(console *engine.Console, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "x" {
			return
		}
		if err := runCommand(console, fields); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
}

func runCommand(console *engine.Console, fields []string) error {
	if fields[0] == "listen" {
		if len(fields) < 2 {
			return fmt.Errorf("listen needs on or off")
		}
		return console.Listen(fields[1] == "on")
	}
	if len(fields) < 2 {
		return fmt.Errorf("command %q needs an argument", fields[0])
	}
	switch fields[0] {
	case "t":
		bpm, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("bad tempo %q", fields[1])
		}
		return console.SetTempo(bpm)
	case "q":
		beats, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("bad quantization %q", fields[1])
		}
		return console.SetQuantization(beats)
	}
	pad, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("bad pad %q", fields[1])
	}
	// extra key=value fields become per-trigger wear overrides
	overrides := make(map[string]float32)
	for _, kv := range fields[2:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("bad override %q", kv)
		}
		overrides[k] = float32(f)
	}
	ov := taperig.OverridesFromMap(overrides)
	switch fields[0] {
	case "r":
		return console.Record(pad, ov)
	case "o":
		return console.Overdub(pad, ov)
	case "p":
		return console.Play(pad, ov)
	case "1":
		return console.Once(pad, ov)
	case "s":
		return console.Stop(pad)
	case "c":
		return console.Clear(pad)
	}
	return fmt.Errorf("unknown command %q", fields[0])
}

func reportAlerts(broker *engine.Broker) {
	for msg := range broker.ToControl {
		if msg.HasAlert {
			fmt.Fprintf(os.Stderr, "%v\n", msg.Alert)
		}
		if msg.HasMeters {
			broker.PutMeters(msg.Meters)
		}
	}
}

func exportTakes(eng *engine.Engine, sampleRate int, directory string, rawOut, wavOut, pcm bool) {
	if !rawOut && !wavOut {
		return
	}
	for i := 0; i < eng.NumPads(); i++ {
		take := eng.Take(i)
		if len(take) == 0 {
			continue
		}
		name := fmt.Sprintf("pad%d", i)
		if err := exportBuffer(name, take, sampleRate, directory, rawOut, wavOut, pcm); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
}

func exportBuffer(name string, buffer taperig.AudioBuffer, sampleRate int, directory string, rawOut, wavOut, pcm bool) error {
	output := func(extension string, contents []byte) error {
		dir := directory
		if dir == "" {
			var err error
			dir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
			}
		}
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %v", dir, err)
		}
		f := filepath.Join(dir, name+extension)
		if err := os.WriteFile(f, contents, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", f, err)
		}
		return nil
	}
	if rawOut {
		raw, err := taperig.Raw(buffer, pcm)
		if err != nil {
			return fmt.Errorf("could not generate .raw file: %v", err)
		}
		if err := output(".raw", raw); err != nil {
			return fmt.Errorf("error outputting .raw file: %v", err)
		}
	}
	if wavOut {
		wav, err := taperig.Wav(buffer, sampleRate, pcm)
		if err != nil {
			return fmt.Errorf("could not generate .wav file: %v", err)
		}
		if err := output(".wav", wav); err != nil {
			return fmt.Errorf("error outputting .wav file: %v", err)
		}
	}
	return nil
}

// rawFileSource streams headerless mono float32 samples from a file;
// EOF reads as silence so the session can keep running past the input.
type rawFileSource struct {
	reader *bufio.Reader
	closer io.Closer
	done   bool
}

func (s *rawFileSource) ReadAudio(buffer taperig.AudioBuffer) (int, error) {
	if s.done {
		return 0, nil
	}
	for i := range buffer {
		var v float32
		if err := binary.Read(s.reader, binary.LittleEndian, &v); err != nil {
			s.done = true
			return i, nil
		}
		buffer[i] = v
	}
	return len(buffer), nil
}

func (s *rawFileSource) Close() error {
	return s.closer.Close()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Quantized tape-loop sampler session runner.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
