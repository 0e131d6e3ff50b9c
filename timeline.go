package main

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
)

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Timeline is the output side of the engine: a sample clock plus every tone
// that is sounding or waiting for its onset. Tones are only ever appended;
// each one drops out of the mix on its own once it has finished.
type Timeline struct {
	lk       sync.Mutex
	sr       beep.SampleRate
	mixer    beep.Mixer
	position int

	gain float64
	comp *Compressor
}

func NewTimeline(sr beep.SampleRate, gain float64) *Timeline {
	return &Timeline{
		sr:   sr,
		gain: gain,
		comp: NewCompressor(0.6, 2, 0.01, 0.0005),
	}
}

// Schedule queues each tone to start Delay seconds after the current clock.
// All tones of one call are added together, so the clock cannot move
// between them.
func (tl *Timeline) Schedule(tones ...Tone) {
	streamers := make([]beep.Streamer, len(tones))
	for i, t := range tones {
		var s beep.Streamer = newVoice(t, tl.sr)
		if d := tl.sr.N(seconds(t.Delay)); d > 0 {
			s = beep.Seq(beep.Silence(d), s)
		}
		streamers[i] = s
	}

	tl.lk.Lock()
	defer tl.lk.Unlock()
	tl.mixer.Add(streamers...)
}

// Now is the time rendered so far.
func (tl *Timeline) Now() time.Duration {
	tl.lk.Lock()
	defer tl.lk.Unlock()
	return tl.sr.D(tl.position)
}

// Active is the number of tones still sounding or pending.
func (tl *Timeline) Active() int {
	tl.lk.Lock()
	defer tl.lk.Unlock()
	return tl.mixer.Len()
}

func (tl *Timeline) Stream(samples [][2]float64) (int, bool) {
	tl.lk.Lock()
	defer tl.lk.Unlock()

	n, _ := tl.mixer.Stream(samples)
	for i := range samples[:n] {
		samples[i][0] *= tl.gain
		samples[i][1] *= tl.gain
	}
	tl.comp.ProcessSample(samples[:n])

	tl.position += len(samples)
	return len(samples), true
}

func (tl *Timeline) Err() error {
	return nil
}
