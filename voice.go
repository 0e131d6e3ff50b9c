package main

import (
	"math"
	"math/rand"

	"github.com/gopxl/beep"
)

type OscFunc func(float64) float64

func sineOsc(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}

// triangleOsc is in phase with sineOsc: 0 at phase 0, peak at a quarter.
func triangleOsc(phase float64) float64 {
	_, frac := math.Modf(phase + 0.25)
	return 1 - 4*math.Abs(frac-0.5)
}

func oscFor(w Waveform) OscFunc {
	if w == WaveTriangle {
		return triangleOsc
	}
	return sineOsc
}

func calcPhase(pos int, samplerate, freq float64) float64 {
	return float64(pos) / samplerate * freq
}

// voice renders a single Tone from its onset until it stops. It ends the
// stream once every partial has reached its stop time.
type voice struct {
	tone       Tone
	sampleRate float64
	position   int

	length      int
	noiseLength int
	noise       *BandPass
	rng         *rand.Rand

	oscs [len(pianoPartials)]OscFunc
}

func newVoice(t Tone, sr beep.SampleRate) *voice {
	v := &voice{
		tone:        t,
		sampleRate:  float64(sr),
		length:      sr.N(seconds(t.Duration)),
		noiseLength: sr.N(seconds(t.NoiseDuration())),
		noise:       NewBandPass(float64(sr), t.NoiseFrequency(), noiseQ),
		rng:         rand.New(rand.NewSource(int64(t.Frequency * 1000))),
	}
	for i, p := range t.Partials {
		v.oscs[i] = oscFor(p.Wave)
	}
	return v
}

func (v *voice) Stream(samples [][2]float64) (n int, ok bool) {
	if v.position >= v.length {
		return 0, false
	}

	for i := range samples {
		if v.position >= v.length {
			break
		}
		at := float64(v.position) / v.sampleRate

		var value float64
		for pi, p := range v.tone.Partials {
			lvl := v.tone.PartialLevel(pi, at)
			if lvl == 0 {
				continue
			}
			value += v.oscs[pi](calcPhase(v.position, v.sampleRate, v.tone.Frequency*p.Ratio)) * lvl
		}

		if v.position < v.noiseLength {
			raw := (v.rng.Float64()*2 - 1) * noiseAmplitude
			value += v.noise.ProcessSample(raw) * v.tone.NoiseLevel(at)
		}

		samples[i][0] = value
		samples[i][1] = value
		v.position++
		n++
	}
	return n, true
}

func (v *voice) Err() error {
	return nil
}
