package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rakyll/portmidi"
)

const (
	midiNoteOff = 0x80
	midiNoteOn  = 0x90
	midiControl = 0xb0
)

// MidiController turns note-on events from a MIDI input into engine notes.
// A note that is still held does not trigger again until it is released.
type MidiController struct {
	Target *Engine

	stream *portmidi.Stream

	held map[int64]bool

	knobsSeen map[int64]*knobInfo

	knobBinds map[int64]*knobBind
}

type knobBind struct {
	mapf func(int64) float64
	sf   Setter
}

func (kb *knobBind) Update(val int64) {
	v := kb.mapf(val)
	kb.sf(v)
}

type knobInfo struct {
	lastVal int64
}

type Setter func(float64)

func OpenController(id portmidi.DeviceID, target *Engine) (*MidiController, error) {
	in, err := portmidi.NewInputStream(id, 1024)
	if err != nil {
		return nil, fmt.Errorf("opening midi input %d: %w", id, err)
	}

	mc := NewMockController(target)
	mc.stream = in
	return mc, nil
}

// NewMockController makes a controller with no device attached; events can
// be fed to it with HandleEvent.
func NewMockController(target *Engine) *MidiController {
	return &MidiController{
		Target:    target,
		held:      make(map[int64]bool),
		knobsSeen: make(map[int64]*knobInfo),
		knobBinds: make(map[int64]*knobBind),
	}
}

func (mc *MidiController) Shutdown() {
	if mc.stream != nil {
		mc.stream.Close()
	}
}

// Run reads events until ctx is cancelled or the device fails.
func (mc *MidiController) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		events, err := mc.stream.Read(1024)
		if err != nil {
			return fmt.Errorf("reading midi input: %w", err)
		}

		if len(events) == 0 {
			time.Sleep(time.Millisecond)
			continue
		}

		for _, event := range events {
			mc.HandleEvent(ctx, event)
		}
	}
}

func (mc *MidiController) HandleEvent(ctx context.Context, event portmidi.Event) {
	switch event.Status & 0xf0 {
	case midiNoteOn:
		if event.Data2 == 0 {
			// running status note off
			mc.stopNote(event.Data1)
			return
		}
		mc.startNote(ctx, event.Data1)
	case midiNoteOff:
		mc.stopNote(event.Data1)
	case midiControl:
		// twisty knobs
		ki, ok := mc.knobsSeen[event.Data1]
		if !ok {
			ki = &knobInfo{}
			mc.knobsSeen[event.Data1] = ki
		}
		ki.lastVal = event.Data2

		kb, ok := mc.knobBinds[event.Data1]
		if ok {
			kb.Update(event.Data2)
		}
	default:
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Println(string(b))
	}
}

func (mc *MidiController) startNote(ctx context.Context, note int64) {
	if mc.Target == nil || mc.held[note] {
		return
	}
	mc.held[note] = true

	pc, octave := midiToNote(note)
	mc.Target.PlayNote(ctx, pc, octave, 0)
}

func (mc *MidiController) stopNote(note int64) {
	delete(mc.held, note)
}

func (mc *MidiController) BindKnob(knobid int64, s Setter, rangeMapFunc func(int64) float64) {
	if s == nil {
		fmt.Println("nil setter passed to bind knob: ", knobid)
		return
	}
	mc.knobBinds[knobid] = &knobBind{
		mapf: rangeMapFunc,
		sf:   s,
	}
}

// knobRange maps a 0-127 controller value linearly onto [lo, hi].
func knobRange(lo, hi float64) func(int64) float64 {
	return func(v int64) float64 {
		return lo + (hi-lo)*float64(v)/127
	}
}
