package main

import (
	"math"
	"testing"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToneRoles(t *testing.T) {
	mainTone := NewTone(A, 4, 1, 1, 0)
	assert.True(t, mainTone.IsMain())
	assert.Equal(t, mainEnvelope, mainTone.Envelope)
	assert.InDelta(t, 440, mainTone.Frequency, 1e-9)
	assert.InDelta(t, 1, mainTone.PeakLevel(), 1e-9)

	harm := NewTone(E, 5, 1.2, 0.4, 0.02)
	assert.False(t, harm.IsMain())
	assert.Equal(t, harmonyEnvelope, harm.Envelope)
	assert.InDelta(t, 0.24, harm.PeakLevel(), 1e-9)

	// main tones are always the longer, louder shape
	assert.Greater(t, mainTone.Envelope.Attack, harm.Envelope.Attack)
	assert.Greater(t, mainTone.Envelope.Decay, harm.Envelope.Decay)
	assert.Greater(t, mainTone.Envelope.Release, harm.Envelope.Release)
	assert.Greater(t, mainTone.Envelope.Sustain, harm.Envelope.Sustain)
	assert.Greater(t, mainTone.Envelope.Peak, harm.Envelope.Peak)
}

func TestEnvelopeLevel(t *testing.T) {
	env := mainEnvelope

	assert.Zero(t, env.Level(-0.1, 1, 1))
	assert.Zero(t, env.Level(0, 1, 1))
	assert.Zero(t, env.Level(1, 1, 1))

	assert.InDelta(t, 0.5, env.Level(0.005, 1, 1), 1e-9)
	assert.InDelta(t, 1, env.Level(0.01, 1, 1), 1e-9)

	// decay and release start together for a one second note
	assert.InDelta(t, 0.7, env.Level(0.31, 1, 1), 1e-9)
	assert.Less(t, env.Level(0.9999, 1, 1), 0.01)

	// long notes hold at sustain until the release
	assert.InDelta(t, 0.7, env.Level(1.5, 3, 1), 1e-9)
	assert.InDelta(t, 0.7, env.Level(2.2, 3, 1), 1e-9)
	assert.Less(t, env.Level(2.6, 3, 1), 0.7)

	// peak scales the whole shape
	assert.InDelta(t, 0.35, env.Level(1.5, 3, 0.5), 1e-9)

	prev := math.Inf(1)
	for at := 0.31; at < 1; at += 0.01 {
		l := env.Level(at, 1, 1)
		assert.LessOrEqual(t, l, prev)
		prev = l
	}
}

func TestEnvelopeShortTone(t *testing.T) {
	env := mainEnvelope

	// too short for attack and decay: release follows the attack peak
	assert.InDelta(t, 1, env.Level(0.01, 0.2, 1), 1e-9)
	assert.Less(t, env.Level(0.1, 0.2, 1), 1.0)
	assert.Greater(t, env.Level(0.1, 0.2, 1), silenceFloor)

	assert.InDelta(t, 0.005, env.releaseStart(0.01), 1e-12)
}

func TestNoiseLevel(t *testing.T) {
	tone := NewTone(A, 4, 2, 1, 0)
	assert.InDelta(t, noiseMaxLength, tone.NoiseDuration(), 1e-9)
	assert.InDelta(t, 3520, tone.NoiseFrequency(), 1e-9)

	assert.Zero(t, tone.NoiseLevel(0))
	assert.InDelta(t, 0.05, tone.NoiseLevel(0.001), 1e-9)
	assert.InDelta(t, 0.01, tone.NoiseLevel(0.1), 1e-9)
	assert.Less(t, tone.NoiseLevel(0.4999), 0.0011)
	assert.Zero(t, tone.NoiseLevel(0.5))

	short := NewTone(A, 4, 0.2, 1, 0)
	assert.InDelta(t, 0.2, short.NoiseDuration(), 1e-9)
	assert.Zero(t, short.NoiseLevel(0.2))
}

func TestTriangleOsc(t *testing.T) {
	assert.InDelta(t, 0, triangleOsc(0), 1e-9)
	assert.InDelta(t, 1, triangleOsc(0.25), 1e-9)
	assert.InDelta(t, 0, triangleOsc(0.5), 1e-9)
	assert.InDelta(t, -1, triangleOsc(0.75), 1e-9)
	assert.InDelta(t, 0.5, triangleOsc(1.125), 1e-9)
}

func TestVoiceLength(t *testing.T) {
	sr := beep.SampleRate(44100)
	v := newVoice(NewTone(C, 4, 0.5, 1, 0), sr)

	buf := make([][2]float64, 1000)
	var total int
	for {
		n, ok := v.Stream(buf)
		if !ok {
			break
		}
		total += n
		for _, s := range buf[:n] {
			require.Equal(t, s[0], s[1])
		}
	}
	assert.Equal(t, sr.N(seconds(0.5)), total)
}

func TestBandPass(t *testing.T) {
	sr := 44100.0
	bp := NewBandPass(sr, 1000, 10)

	gain := func(freq float64) float64 {
		bp := NewBandPass(sr, 1000, 10)
		var peak float64
		for i := 0; i < int(sr/2); i++ {
			y := bp.ProcessSample(math.Sin(2 * math.Pi * freq * float64(i) / sr))
			if i > int(sr/4) {
				peak = math.Max(peak, math.Abs(y))
			}
		}
		return peak
	}

	assert.InDelta(t, 1, gain(1000), 0.05)
	assert.Less(t, gain(4000), 0.1)
	assert.Less(t, gain(250), 0.1)

	// centre is clamped under nyquist
	bp.UpdateFrequency(30000)
	assert.InDelta(t, sr*0.49, bp.frequency, 1e-9)
}
