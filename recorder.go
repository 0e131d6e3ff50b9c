package main

import (
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep"
	"github.com/maddyblue/go-dsp/fft"
	"github.com/maddyblue/go-dsp/window"
)

// Recorder passes audio through unchanged while keeping the most recent
// samples in a ring buffer for the display.
type Recorder struct {
	lk       sync.Mutex
	buf      [][2]float64
	position int

	sub beep.Streamer
}

func NewRecorder(sub beep.Streamer, size int) *Recorder {
	return &Recorder{
		buf: make([][2]float64, size),
		sub: sub,
	}
}

func (r *Recorder) Stream(samples [][2]float64) (int, bool) {
	n, ok := r.sub.Stream(samples)
	if !ok {
		return n, ok
	}

	r.lk.Lock()
	defer r.lk.Unlock()

	for i := range samples[:n] {
		ix := r.position % len(r.buf)
		r.buf[ix] = samples[i]
		r.position++
	}
	return n, ok
}

// GetSnapshot copies the recorded samples, oldest first, into buf.
func (r *Recorder) GetSnapshot(buf [][2]float64) int {
	r.lk.Lock()
	defer r.lk.Unlock()

	lim := min(len(buf), len(r.buf))
	start := r.position + len(r.buf) - lim
	for i := 0; i < lim; i++ {
		buf[i] = r.buf[(start+i)%len(r.buf)]
	}

	return lim
}

func (r *Recorder) Err() error {
	return r.sub.Err()
}

// Spectrum is the Hann-windowed magnitude spectrum of the left channel.
// Bin i is i*sampleRate/len(samples) Hz.
func Spectrum(samples [][2]float64) []float64 {
	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = s[0]
	}
	window.Apply(data, window.Hann)

	res := fft.FFTReal(data)
	mag := make([]float64, len(res)/2+1)
	for i, c := range res[:len(mag)] {
		mag[i] = cmplx.Abs(c) / float64(len(data))
	}
	return mag
}
