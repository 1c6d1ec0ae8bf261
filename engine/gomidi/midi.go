// Package gomidi adapts rtmidi input devices to the trigger router:
// note-on/off events from any opened device are pushed to the console
// under the device's name, where the active note maps turn them into
// pad actions.
package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"taperig/engine"
)

type (
	RTMIDIContext struct {
		driver             *rtmididrv.Driver
		console            *engine.Console
		inputDevices       []RTMIDIDevice
		devicesInitialized bool
		open               map[string]drivers.In
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}
)

// NewContext opens the rtmidi driver and attaches it to a console.
func NewContext(console *engine.Console) *RTMIDIContext {
	m := RTMIDIContext{console: console, open: make(map[string]drivers.In)}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) InputDevices(yield func(RTMIDIDevice) bool) {
	if m.devicesInitialized {
		m.yieldCachedInputDevices(yield)
	} else {
		m.initInputDevices(yield)
	}
}

func (m *RTMIDIContext) yieldCachedInputDevices(yield func(RTMIDIDevice) bool) {
	for _, device := range m.inputDevices {
		if !yield(device) {
			break
		}
	}
}

func (m *RTMIDIContext) initInputDevices(yield func(RTMIDIDevice) bool) {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for i := 0; i < len(ins); i++ {
		device := RTMIDIDevice{context: m, in: ins[i]}
		m.inputDevices = append(m.inputDevices, device)
		if !yield(device) {
			break
		}
	}
	m.devicesInitialized = true
}

// Open starts listening to the device. Unlike a tracker input, several
// pad controllers can be open at once; each routes under its own name.
func (d RTMIDIDevice) Open() error {
	if d.context.driver == nil {
		return errors.New("no driver available")
	}
	name := d.in.String()
	if _, ok := d.context.open[name]; ok {
		return nil
	}
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	_, err := midi.ListenTo(d.in, func(msg midi.Message, timestampms int32) {
		d.context.handleMessage(name, msg)
	})
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	d.context.open[name] = d.in
	return nil
}

func (d RTMIDIDevice) String() string {
	return d.in.String()
}

// TryToOpenBy opens the first device whose name starts with namePrefix,
// or just the first device when takeFirst is set.
func (m *RTMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if namePrefix == "" && !takeFirst {
		return nil
	}
	for input := range m.InputDevices {
		if takeFirst || strings.HasPrefix(input.String(), namePrefix) {
			return input.Open()
		}
	}
	if takeFirst {
		return errors.New("could not find any MIDI input")
	}
	return fmt.Errorf("could not find any MIDI input starting with %q", namePrefix)
}

func (m *RTMIDIContext) handleMessage(device string, msg midi.Message) {
	var channel, key, velocity uint8
	if msg.GetNoteOn(&channel, &key, &velocity) {
		m.console.HandleNote(device, key, velocity > 0)
	} else if msg.GetNoteOff(&channel, &key, &velocity) {
		m.console.HandleNote(device, key, false)
	}
}

func (m *RTMIDIContext) Close() {
	if m.driver == nil {
		return
	}
	for _, in := range m.open {
		if in.IsOpen() {
			in.Close()
		}
	}
	m.driver.Close()
}
