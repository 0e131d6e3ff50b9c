package main

import (
	"fmt"
	"time"
)

const maxHistory = 20

type PlayedNote struct {
	Note   PitchClass
	Octave int
	Time   time.Time

	// Degree is the scale degree at the time the note was played, 0 when
	// the note was outside the scale.
	Degree int
}

func (pn PlayedNote) String() string {
	return fmt.Sprintf("%s%d", pn.Note, pn.Octave)
}

// NoteHistory keeps the most recent played notes, oldest first. Once full,
// adding a note drops the oldest one.
type NoteHistory struct {
	notes []PlayedNote
	limit int
}

func NewNoteHistory(limit int) *NoteHistory {
	return &NoteHistory{
		notes: make([]PlayedNote, 0, limit+1),
		limit: limit,
	}
}

func (h *NoteHistory) Add(pn PlayedNote) {
	h.notes = append(h.notes, pn)
	if len(h.notes) > h.limit {
		copy(h.notes, h.notes[1:])
		h.notes = h.notes[:h.limit]
	}
}

func (h *NoteHistory) Len() int {
	return len(h.notes)
}

// Recent returns a copy of the last n notes, oldest first.
func (h *NoteHistory) Recent(n int) []PlayedNote {
	if n > len(h.notes) {
		n = len(h.notes)
	}
	out := make([]PlayedNote, n)
	copy(out, h.notes[len(h.notes)-n:])
	return out
}

func (h *NoteHistory) All() []PlayedNote {
	return h.Recent(len(h.notes))
}

func (h *NoteHistory) Clear() {
	h.notes = h.notes[:0]
}
