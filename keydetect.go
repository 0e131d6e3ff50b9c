package main

import "sort"

const (
	// fewer notes than this and the key is left alone
	minInferenceNotes = 3
	inferenceWindow   = 6

	inScaleScore     = 1.0
	tonicBonus       = 2.0
	dominantBonus    = 1.5
	subdominantBonus = 1.0
)

type KeyCandidate struct {
	Key   PitchClass
	Mode  Mode
	Score float64
}

func scoreKey(scale Scale, notes []PitchClass) float64 {
	var score float64
	for _, n := range notes {
		deg := scale.Degree(n)
		if deg == 0 {
			continue
		}
		score += inScaleScore
		switch deg {
		case 1:
			score += tonicBonus
		case 5:
			score += dominantBonus
		case 4:
			score += subdominantBonus
		}
	}
	return score
}

// DetectPossibleKeys scores all 24 major and minor keys against notes and
// returns them best first. Equal scores are ordered by root (C first), then
// major before minor.
func DetectPossibleKeys(notes []PitchClass) []KeyCandidate {
	out := make([]KeyCandidate, 0, numPitchClasses*2)
	for root := PitchClass(0); root < numPitchClasses; root++ {
		for _, mode := range []Mode{Major, Minor} {
			out = append(out, KeyCandidate{
				Key:   root,
				Mode:  mode,
				Score: scoreKey(BuildScale(root, mode), notes),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Mode < out[j].Mode
	})
	return out
}

// InferContext looks at the last few played notes and returns cur moved to
// the best scoring key. With too little history, or when the best key is
// already current, cur comes back unchanged. Progression state is kept.
func InferContext(history []PlayedNote, cur HarmonicContext) HarmonicContext {
	if len(history) < minInferenceNotes {
		return cur
	}
	if len(history) > inferenceWindow {
		history = history[len(history)-inferenceWindow:]
	}

	notes := make([]PitchClass, len(history))
	for i, pn := range history {
		notes[i] = pn.Note
	}

	best := DetectPossibleKeys(notes)[0]
	if best.Key == cur.Key && best.Mode == cur.Mode {
		return cur
	}
	return cur.WithKey(best.Key, best.Mode)
}
