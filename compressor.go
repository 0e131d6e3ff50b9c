package main

import "math"

// Compressor is the master bus limiter. It follows the signal level and
// pulls anything above threshold back down by ratio.
type Compressor struct {
	threshold float64
	ratio     float64
	attack    float64
	release   float64
	envelope  float64
}

func NewCompressor(threshold, ratio, attack, release float64) *Compressor {
	return &Compressor{
		threshold: threshold,
		ratio:     ratio,
		attack:    attack,
		release:   release,
	}
}

func (c *Compressor) compressValue(v float64) float64 {
	level := math.Abs(v)
	if level > c.envelope {
		c.envelope += (level - c.envelope) * c.attack
	} else {
		c.envelope += (level - c.envelope) * c.release
	}

	if c.envelope <= c.threshold {
		return v
	}

	over := c.envelope / c.threshold
	gainReduction := math.Pow(over, 1/c.ratio-1)
	return v * gainReduction
}

func (c *Compressor) ProcessSample(samples [][2]float64) {
	for i := range samples {
		val := c.compressValue(samples[i][0])
		samples[i][0] = val
		samples[i][1] = val
	}
}
