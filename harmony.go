package main

import "sort"

const passingToneVoices = 2

// Harmony is what should sound alongside a played note.
type Harmony struct {
	Notes []PitchClass

	// Bass is never filled in by SelectHarmony today; the engine still
	// renders it when present.
	Bass    PitchClass
	HasBass bool

	// Advance reports that the note landed on the current progression
	// chord and the progression should move on.
	Advance bool
}

// SelectHarmony picks companion notes for n under hc. It does not modify hc;
// callers apply Advance themselves.
func SelectHarmony(hc HarmonicContext, n PitchClass) Harmony {
	deg := hc.Scale.Degree(n)
	if deg == 0 {
		return Harmony{Notes: closestScaleNotes(hc.Scale, n, passingToneVoices)}
	}

	if chord := hc.CurrentChord(); chord.Contains(n) {
		return Harmony{
			Notes:   chord.Without(n),
			Advance: true,
		}
	}

	// build a triad on the note itself
	chord := BuildChord(n, TriadType(hc.Mode, deg))
	return Harmony{Notes: []PitchClass(chord[1:])}
}

// closestScaleNotes returns the count scale notes nearest to n around the
// pitch circle, ties going to the lower scale degree.
func closestScaleNotes(scale Scale, n PitchClass, count int) []PitchClass {
	notes := make([]PitchClass, len(scale))
	copy(notes, scale[:])

	sort.SliceStable(notes, func(i, j int) bool {
		return ChromaticDistance(notes[i], n) < ChromaticDistance(notes[j], n)
	})
	return notes[:count]
}
