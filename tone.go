package main

import "math"

// Envelope is an attack-decay-sustain-release shape. Times are in seconds,
// Sustain is a fraction of the peak.
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64

	// Peak scales the overall level of the tone.
	Peak float64
}

var (
	mainEnvelope = Envelope{
		Attack:  0.01,
		Decay:   0.3,
		Sustain: 0.7,
		Release: 0.8,
		Peak:    1,
	}
	harmonyEnvelope = Envelope{
		Attack:  0.005,
		Decay:   0.15,
		Sustain: 0.4,
		Release: 0.4,
		Peak:    0.6,
	}
)

// exponential ramps cannot reach zero, they end here
const silenceFloor = 0.001

// expRamp moves from v0 to v1 over [0,1] the way an exponential gain ramp does.
func expRamp(v0, v1, frac float64) float64 {
	if v0 <= 0 || v1 <= 0 {
		return v0 + (v1-v0)*frac
	}
	return v0 * math.Pow(v1/v0, frac)
}

// held is the attack, decay and sustain part of the shape, ignoring release.
func (e Envelope) held(t, peak float64) float64 {
	switch {
	case t < e.Attack:
		return peak * t / e.Attack
	case t < e.Attack+e.Decay:
		return expRamp(peak, peak*e.Sustain, (t-e.Attack)/e.Decay)
	default:
		return peak * e.Sustain
	}
}

// releaseStart is when the release ramp begins for a tone of the given
// duration. Release never cuts into attack or decay unless the tone is too
// short to fit them, in which case it follows the attack peak.
func (e Envelope) releaseStart(duration float64) float64 {
	rs := max(duration-e.Release, e.Attack+e.Decay)
	if rs >= duration {
		rs = min(e.Attack, duration/2)
	}
	return rs
}

// Level returns the envelope value at t seconds after onset for a tone of the
// given duration peaking at peak. It is zero outside [0, duration).
func (e Envelope) Level(t, duration, peak float64) float64 {
	if t < 0 || t >= duration {
		return 0
	}
	rs := e.releaseStart(duration)
	if t < rs {
		return e.held(t, peak)
	}
	return expRamp(e.held(rs, peak), silenceFloor, (t-rs)/(duration-rs))
}

type Waveform uint8

const (
	WaveSine Waveform = iota
	WaveTriangle
)

type Partial struct {
	Ratio float64
	Level float64
	Wave  Waveform
}

var pianoPartials = [4]Partial{
	{Ratio: 1, Level: 1.0, Wave: WaveTriangle},
	{Ratio: 2, Level: 0.4, Wave: WaveTriangle},
	{Ratio: 3, Level: 0.2, Wave: WaveSine},
	{Ratio: 4, Level: 0.1, Wave: WaveSine},
}

const (
	noiseAmplitude = 0.02
	noiseMaxLength = 0.5
	noisePartial   = 8
	noiseQ         = 10
)

// Tone is an immutable description of one note to render: what to play,
// how loud, and when relative to the moment it is scheduled.
type Tone struct {
	Note      PitchClass
	Octave    int
	Frequency float64
	Volume    float64

	// Delay is the onset offset from the scheduling time, Duration the
	// time from onset until every partial stops.
	Delay    float64
	Duration float64

	Envelope Envelope
	Partials [4]Partial
}

// NewTone describes a note. A tone with no delay is a main note, anything
// delayed is a harmony note with the shorter, quieter envelope.
func NewTone(note PitchClass, octave int, duration, volume, delay float64) Tone {
	env := mainEnvelope
	if delay > 0 {
		env = harmonyEnvelope
	}
	return Tone{
		Note:      note,
		Octave:    octave,
		Frequency: Frequency(note, octave),
		Volume:    volume,
		Delay:     delay,
		Duration:  duration,
		Envelope:  env,
		Partials:  pianoPartials,
	}
}

func (t Tone) IsMain() bool {
	return t.Delay == 0
}

// PeakLevel is the loudest any partial's envelope reaches, before the
// partial's own relative level.
func (t Tone) PeakLevel() float64 {
	return t.Volume * t.Envelope.Peak
}

// PartialLevel is the envelope of partial i at t seconds after onset.
func (t Tone) PartialLevel(i int, at float64) float64 {
	return t.Envelope.Level(at, t.Duration, t.PeakLevel()*t.Partials[i].Level)
}

func (t Tone) NoiseDuration() float64 {
	return min(noiseMaxLength, t.Duration)
}

func (t Tone) NoiseFrequency() float64 {
	return t.Frequency * noisePartial
}

// NoiseLevel is the gain of the noise burst at t seconds after onset.
func (t Tone) NoiseLevel(at float64) float64 {
	if at < 0 || at >= t.NoiseDuration() {
		return 0
	}
	hit := t.Volume * 0.05
	body := t.Volume * 0.01
	switch {
	case at < 0.001:
		return hit * at / 0.001
	case at < 0.1:
		return expRamp(hit, body, (at-0.001)/0.099)
	default:
		return expRamp(body, silenceFloor, (at-0.1)/0.4)
	}
}
