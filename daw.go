package main

import (
	"context"
	"time"
)

// Clock ticks at the smallest note division of a bar and tells each
// sequence how big a note boundary the tick falls on.
type Clock struct {
	BPM    int
	MinDiv int

	Sequences []Seq
}

func NewClock(bpm int, mindiv int) *Clock {
	return &Clock{
		BPM:    bpm,
		MinDiv: mindiv,
	}
}

type Seq interface {
	Tick(ctx context.Context, notesize, pos int)
}

// posToNote returns the longest note value (1 = whole, 32 = thirty-second)
// that starts at tick pos of a 32-tick bar.
func posToNote(pos int) int {
	if pos%2 == 1 {
		return 32
	}
	if pos%4 == 2 {
		return 16
	}
	if pos%32 == 0 {
		return 1
	}
	if pos%8 == 4 {
		return 8
	}
	if pos%16 == 8 {
		return 4
	}
	if pos%32 == 16 {
		return 2
	}

	return -1
}

func (c *Clock) interval() time.Duration {
	return (4 * time.Minute) / (time.Duration(c.BPM) * time.Duration(c.MinDiv))
}

// RunFor ticks until every sequence has played notes notes, or forever
// when notes is negative.
func (c *Clock) RunFor(ctx context.Context, notes int) {
	t := time.NewTicker(c.interval())
	defer t.Stop()

	var pos int
	for {
		noteSize := posToNote(pos)

		done := notes >= 0
		for _, s := range c.Sequences {
			s.Tick(ctx, noteSize, pos)
			if sq, ok := s.(*Sequencer); !ok || sq.Played() < notes {
				done = false
			}
		}
		if done {
			return
		}
		pos++

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Sequencer plays one note each time the clock reaches a note boundary of
// NoteSize or longer.
type Sequencer struct {
	Notes    []NoteSpec
	NoteSize int
	Eng      *Engine

	cur int
}

func (s *Sequencer) Tick(ctx context.Context, notesize, pos int) {
	if len(s.Notes) == 0 || notesize > s.NoteSize {
		return
	}

	n := s.Notes[s.cur%len(s.Notes)]
	s.Eng.PlayNote(ctx, n.Note, n.Octave, 0)
	s.cur++
}

func (s *Sequencer) Played() int {
	return s.cur
}
