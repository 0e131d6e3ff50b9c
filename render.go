package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// tail rendered after the last note so harmony releases are not cut off
const renderTail = 1500 * time.Millisecond

// copier streams a fixed block of samples once.
type copier struct {
	data [][2]float64
	n    int
}

func (s *copier) Stream(samples [][2]float64) (int, bool) {
	if s.n >= len(s.data) {
		return 0, false
	}
	n := copy(samples, s.data[s.n:])
	s.n += n
	return n, true
}

func (s *copier) Err() error {
	return nil
}

// RenderNotes plays notes through a fresh engine, one every step, with no
// audio device involved, and returns the mixed output.
func RenderNotes(cfg *Config, notes []NoteSpec, step time.Duration) [][2]float64 {
	ob := newOfflineBackend(cfg)
	eng := NewEngine(cfg, func(*Config) (Backend, error) {
		return ob, nil
	})
	defer eng.Close()

	sr := beep.SampleRate(cfg.SampleRate)
	var out [][2]float64
	for _, n := range notes {
		eng.PlayNote(context.Background(), n.Note, n.Octave, 0)
		out = append(out, ob.Render(sr.N(step))...)
	}
	return append(out, ob.Render(sr.N(renderTail))...)
}

// renderWav writes the rendering of notes to a 16-bit stereo WAV file.
func renderWav(cfg *Config, path string, notes []NoteSpec, step time.Duration) error {
	fi, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fi.Close()

	data := RenderNotes(cfg, notes, step)
	if err := wav.Encode(fi, &copier{data: data}, beep.Format{
		SampleRate:  beep.SampleRate(cfg.SampleRate),
		NumChannels: 2,
		Precision:   2,
	}); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
