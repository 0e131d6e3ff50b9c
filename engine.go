package main

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	mainVolume = 1.0

	harmonyStagger     = 0.02 // seconds between harmony onsets
	harmonyVolume      = 0.4
	harmonyVolumeStep  = 0.1
	harmonyLengthScale = 1.2

	bassDelay       = 0.05
	bassVolume      = 0.3
	bassLengthScale = 1.5
	bassMinOctave   = 2

	infoRecentNotes = 5
)

// Engine listens to what is played, keeps track of the key it thinks the
// player is in, and sounds each note with harmony fitted to that key.
//
// The output backend is created on the first note. If that fails the engine
// stays silent for the rest of its life.
type Engine struct {
	lk sync.Mutex

	cfg        *Config
	newBackend BackendFactory
	backend    Backend
	disabled   bool
	failOnce   sync.Once

	hc      HarmonicContext
	history *NoteHistory

	noteDuration float64
	now          func() time.Time
}

func NewEngine(cfg *Config, nb BackendFactory) *Engine {
	return &Engine{
		cfg:          cfg,
		newBackend:   nb,
		hc:           NewHarmonicContext(),
		history:      NewNoteHistory(maxHistory),
		noteDuration: cfg.NoteDuration,
		now:          time.Now,
	}
}

// output returns the backend, creating it if needed. nil means no sound.
func (e *Engine) output() Backend {
	if e.backend != nil || e.disabled {
		return e.backend
	}

	b, err := e.newBackend(e.cfg)
	if err != nil {
		e.disabled = true
		e.failOnce.Do(func() {
			log.Printf("audio output unavailable, playing silently: %v", err)
			sentry.CaptureException(err)
		})
		return nil
	}
	e.backend = b
	return b
}

// harmonyOctave places the first harmony voice with the note, the second an
// octave up and the rest an octave down.
func harmonyOctave(octave, index int) int {
	switch index {
	case 0:
		return octave
	case 1:
		return octave + 1
	default:
		return octave - 1
	}
}

// PlayNote records the note, updates the harmonic context and schedules the
// note together with its harmony. It returns once everything is scheduled,
// without waiting for any sound. A duration <= 0 uses the default length.
func (e *Engine) PlayNote(ctx context.Context, note PitchClass, octave int, duration float64) {
	e.lk.Lock()
	defer e.lk.Unlock()

	if duration <= 0 {
		duration = e.noteDuration
	}

	e.history.Add(PlayedNote{
		Note:   note,
		Octave: octave,
		Time:   e.now(),
		Degree: e.hc.Scale.Degree(note),
	})

	e.hc = InferContext(e.history.All(), e.hc)
	h := SelectHarmony(e.hc, note)
	if h.Advance {
		e.hc.Advance()
	}

	b := e.output()
	if b == nil {
		return
	}
	if b.Suspended() {
		if err := b.Resume(ctx); err != nil {
			log.Printf("resuming audio output: %v", err)
			return
		}
	}

	tones := []Tone{NewTone(note, octave, duration, mainVolume, 0)}

	for i, hn := range h.Notes {
		tones = append(tones, NewTone(
			hn,
			harmonyOctave(octave, i),
			duration*harmonyLengthScale,
			harmonyVolume-float64(i)*harmonyVolumeStep,
			float64(i)*harmonyStagger,
		))
	}

	if h.HasBass {
		tones = append(tones, NewTone(h.Bass, max(bassMinOctave, octave-2), duration*bassLengthScale, bassVolume, bassDelay))
	}

	b.Schedule(tones...)
}

// HarmonicInfo is a read-only view of the engine state for display.
type HarmonicInfo struct {
	Key              string   `json:"key"`
	Mode             string   `json:"mode"`
	Scale            []string `json:"scale"`
	RecentNotes      []string `json:"recentNotes"`
	Progression      []int    `json:"progression"`
	ProgressionIndex int      `json:"progressionIndex"`
}

func (hi HarmonicInfo) String() string {
	return fmt.Sprintf("%s %s [%s] progression %v at %d, recent: %s",
		hi.Key, hi.Mode, strings.Join(hi.Scale, " "),
		hi.Progression, hi.ProgressionIndex, strings.Join(hi.RecentNotes, " "))
}

func (e *Engine) HarmonicInfo() HarmonicInfo {
	e.lk.Lock()
	defer e.lk.Unlock()

	recent := make([]string, 0, infoRecentNotes)
	for _, pn := range e.history.Recent(infoRecentNotes) {
		recent = append(recent, pn.String())
	}

	return HarmonicInfo{
		Key:              e.hc.Key.String(),
		Mode:             e.hc.Mode.String(),
		Scale:            e.hc.Scale.Names(),
		RecentNotes:      recent,
		Progression:      slices.Clone(e.hc.Progression),
		ProgressionIndex: e.hc.ProgressionIndex,
	}
}

// Context returns a copy of the current harmonic context.
func (e *Engine) Context() HarmonicContext {
	e.lk.Lock()
	defer e.lk.Unlock()
	hc := e.hc
	hc.Progression = slices.Clone(hc.Progression)
	return hc
}

func (e *Engine) History() []PlayedNote {
	e.lk.Lock()
	defer e.lk.Unlock()
	return e.history.All()
}

// SetKey overrides the key. The progression restarts, history is kept.
func (e *Engine) SetKey(key PitchClass, mode Mode) {
	e.lk.Lock()
	defer e.lk.Unlock()
	e.hc.SetKey(key, mode)
}

func (e *Engine) SetProgression(i int) error {
	e.lk.Lock()
	defer e.lk.Unlock()
	return e.hc.SetProgression(i)
}

func (e *Engine) SetNoteDuration(d float64) {
	e.lk.Lock()
	defer e.lk.Unlock()
	if d > 0 {
		e.noteDuration = d
	}
}

// Reset forgets the history and goes back to C major at the start of the
// default progression.
func (e *Engine) Reset() {
	e.lk.Lock()
	defer e.lk.Unlock()
	e.history.Clear()
	e.hc = NewHarmonicContext()
}

// Suspend pauses the output; the next note resumes it.
func (e *Engine) Suspend() error {
	e.lk.Lock()
	defer e.lk.Unlock()
	if e.backend == nil {
		return nil
	}
	return e.backend.Suspend()
}

// Snapshot copies recently played audio into buf when the backend keeps it.
func (e *Engine) Snapshot(buf [][2]float64) int {
	e.lk.Lock()
	m, ok := e.backend.(Monitor)
	e.lk.Unlock()
	if !ok {
		return 0
	}
	return m.GetSnapshot(buf)
}

func (e *Engine) Close() error {
	e.lk.Lock()
	defer e.lk.Unlock()
	if e.backend == nil {
		return nil
	}
	err := e.backend.Close()
	e.backend = nil
	e.disabled = true
	return err
}
