package main

import (
	"fmt"
	"slices"
)

// Progressions are the chord progressions the engine can cycle through,
// written as scale degrees. Contexts hold their own copy.
var Progressions = [][]int{
	{1, 5, 6, 4}, // I-V-vi-IV
	{1, 6, 4, 5}, // I-vi-IV-V
	{6, 4, 1, 5}, // vi-IV-I-V
	{1, 4, 5, 1}, // I-IV-V-I
	{2, 5, 1},    // ii-V-I
	{1, 3, 4, 1}, // I-iii-IV-I
}

// HarmonicContext is the engine's current belief about key, mode and where
// it is within the chord progression. Scale always matches (Key, Mode).
type HarmonicContext struct {
	Key              PitchClass
	Mode             Mode
	Scale            Scale
	Progression      []int
	ProgressionIndex int
}

func NewHarmonicContext() HarmonicContext {
	return HarmonicContext{
		Key:         C,
		Mode:        Major,
		Scale:       BuildScale(C, Major),
		Progression: slices.Clone(Progressions[0]),
	}
}

// WithKey returns a copy of hc switched to a new key. Progression position
// is left alone.
func (hc HarmonicContext) WithKey(key PitchClass, mode Mode) HarmonicContext {
	hc.Key = key
	hc.Mode = mode
	hc.Scale = BuildScale(key, mode)
	return hc
}

// SetKey is the manual override: new key and mode, progression restarts.
func (hc *HarmonicContext) SetKey(key PitchClass, mode Mode) {
	*hc = hc.WithKey(key, mode)
	hc.ProgressionIndex = 0
}

func (hc *HarmonicContext) SetProgression(i int) error {
	if i < 0 || i >= len(Progressions) {
		return fmt.Errorf("no progression %d (have %d)", i, len(Progressions))
	}
	hc.Progression = slices.Clone(Progressions[i])
	hc.ProgressionIndex = 0
	return nil
}

// CurrentDegree is the scale degree the progression currently sits on.
func (hc HarmonicContext) CurrentDegree() int {
	return hc.Progression[hc.ProgressionIndex]
}

// CurrentChord builds the diatonic triad on the current progression degree.
func (hc HarmonicContext) CurrentChord() Chord {
	deg := hc.CurrentDegree()
	return BuildChord(hc.Scale.Note(deg), TriadType(hc.Mode, deg))
}

// Advance moves to the next chord of the progression, wrapping at the end.
func (hc *HarmonicContext) Advance() {
	hc.ProgressionIndex = (hc.ProgressionIndex + 1) % len(hc.Progression)
}
