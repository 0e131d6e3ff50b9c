package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PitchClass is one of the 12 chromatic notes, C=0 through B=11.
type PitchClass uint8

const (
	C PitchClass = iota
	Cs
	D
	Ds
	E
	F
	Fs
	G
	Gs
	A
	As
	B

	numPitchClasses = 12
)

var pitchNames = [numPitchClasses]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// flat spellings accepted on input
var flatNames = map[string]PitchClass{
	"DB": Cs,
	"EB": Ds,
	"GB": Fs,
	"AB": Gs,
	"BB": As,
}

func (p PitchClass) String() string {
	return pitchNames[p%numPitchClasses]
}

// Transpose moves p by a signed number of semitones, wrapping around the octave.
func (p PitchClass) Transpose(semitones int) PitchClass {
	v := (int(p) + semitones) % numPitchClasses
	if v < 0 {
		v += numPitchClasses
	}
	return PitchClass(v)
}

func ParsePitchClass(s string) (PitchClass, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range pitchNames {
		if up == n {
			return PitchClass(i), nil
		}
	}
	if p, ok := flatNames[up]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("unknown note name %q", s)
}

// ParseNote reads a note like "C#4" or "Eb". Without an octave, defOctave
// is used.
func ParseNote(s string, defOctave int) (PitchClass, int, error) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	p, err := ParsePitchClass(s[:i])
	if err != nil {
		return 0, 0, err
	}
	if i == len(s) {
		return p, defOctave, nil
	}
	oct, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, 0, fmt.Errorf("bad octave in %q: %w", s, err)
	}
	return p, oct, nil
}

// midiToNote splits a MIDI note number into pitch class and octave (C4 = 60).
func midiToNote(note int64) (PitchClass, int) {
	return PitchClass(note % numPitchClasses), int(note/numPitchClasses) - 1
}

// ChromaticDistance is the shortest way around the pitch circle between a and b.
func ChromaticDistance(a, b PitchClass) int {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return min(d, numPitchClasses-d)
}

type Mode uint8

const (
	Major Mode = iota
	Minor
)

func (m Mode) String() string {
	if m == Minor {
		return "minor"
	}
	return "major"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major", "maj", "":
		return Major, nil
	case "minor", "min", "m":
		return Minor, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

var scaleIntervals = [2][7]int{
	Major: {0, 2, 4, 5, 7, 9, 11},
	Minor: {0, 2, 3, 5, 7, 8, 10},
}

// Scale holds the 7 notes of a diatonic scale, index 0 is degree 1.
type Scale [7]PitchClass

func BuildScale(root PitchClass, mode Mode) Scale {
	var s Scale
	for i, iv := range scaleIntervals[mode] {
		s[i] = root.Transpose(iv)
	}
	return s
}

// Degree returns the 1-based scale degree of p, or 0 if p is not in the scale.
func (s Scale) Degree(p PitchClass) int {
	for i, n := range s {
		if n == p {
			return i + 1
		}
	}
	return 0
}

// Note returns the note at a 1-based degree.
func (s Scale) Note(degree int) PitchClass {
	return s[(degree-1)%len(s)]
}

func (s Scale) Contains(p PitchClass) bool {
	return s.Degree(p) != 0
}

func (s Scale) Names() []string {
	out := make([]string, len(s))
	for i, n := range s {
		out[i] = n.String()
	}
	return out
}

type ChordType uint8

const (
	ChordMajor ChordType = iota
	ChordMinor
	ChordDiminished
	ChordMajor7
	ChordMinor7
	ChordDominant7
)

var chordIntervals = [...][]int{
	ChordMajor:      {0, 4, 7},
	ChordMinor:      {0, 3, 7},
	ChordDiminished: {0, 3, 6},
	ChordMajor7:     {0, 4, 7, 11},
	ChordMinor7:     {0, 3, 7, 10},
	ChordDominant7:  {0, 4, 7, 10},
}

var chordTypeNames = [...]string{
	ChordMajor:      "major",
	ChordMinor:      "minor",
	ChordDiminished: "diminished",
	ChordMajor7:     "major7",
	ChordMinor7:     "minor7",
	ChordDominant7:  "dominant7",
}

func (ct ChordType) String() string {
	return chordTypeNames[ct]
}

// TriadType gives the diatonic triad quality built on a scale degree.
func TriadType(mode Mode, degree int) ChordType {
	if mode == Major {
		switch degree {
		case 2, 3, 6:
			return ChordMinor
		case 7:
			return ChordDiminished
		}
		return ChordMajor
	}

	switch degree {
	case 1, 4, 5:
		return ChordMinor
	case 3, 6, 7:
		return ChordMajor
	case 2:
		return ChordDiminished
	}
	return ChordMajor
}

// Chord lists chord tones starting from the root.
type Chord []PitchClass

func BuildChord(root PitchClass, ct ChordType) Chord {
	ivs := chordIntervals[ct]
	out := make(Chord, len(ivs))
	for i, iv := range ivs {
		out[i] = root.Transpose(iv)
	}
	return out
}

func (c Chord) Contains(p PitchClass) bool {
	for _, n := range c {
		if n == p {
			return true
		}
	}
	return false
}

// Without returns the chord tones other than p, in chord order.
func (c Chord) Without(p PitchClass) []PitchClass {
	out := make([]PitchClass, 0, len(c))
	for _, n := range c {
		if n != p {
			out = append(out, n)
		}
	}
	return out
}

// octave 4 reference frequencies
var baseFrequencies = [numPitchClasses]float64{
	261.63, 277.18, 293.66, 311.13, 329.63, 349.23,
	369.99, 392.00, 415.30, 440.00, 466.16, 493.88,
}

func Frequency(p PitchClass, octave int) float64 {
	return baseFrequencies[p%numPitchClasses] * math.Pow(2, float64(octave-4))
}
