package main

import "math"

// BandPass is a constant-peak biquad band-pass filter.
type BandPass struct {
	sampleRate float64
	frequency  float64
	q          float64
	a1, a2     float64
	b0, b1, b2 float64
	x1, x2     float64
	y1, y2     float64
}

func NewBandPass(sampleRate, frequency, q float64) *BandPass {
	f := &BandPass{
		sampleRate: sampleRate,
		q:          q,
	}
	f.UpdateFrequency(frequency)
	return f
}

func (f *BandPass) UpdateFrequency(frequency float64) {
	// keep the centre below nyquist
	frequency = math.Min(frequency, f.sampleRate*0.49)
	f.frequency = frequency

	w0 := 2 * math.Pi * frequency / f.sampleRate
	alpha := math.Sin(w0) / (2 * f.q)

	b0 := alpha
	b1 := 0.0
	b2 := -alpha
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha

	f.a1 = a1 / a0
	f.a2 = a2 / a0
	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
}

func (f *BandPass) ProcessSample(x0 float64) float64 {
	y0 := f.b0*x0 + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2

	f.x2, f.x1 = f.x1, x0
	f.y2, f.y1 = f.y1, y0

	return y0
}
