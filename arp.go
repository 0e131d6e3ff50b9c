package main

import (
	"context"
	"time"
)

// Arp plays its notes one after another, a fixed time apart.
type Arp struct {
	notes    []NoteSpec
	duration time.Duration

	eng *Engine
}

func NewArp(eng *Engine, duration time.Duration, notes ...NoteSpec) *Arp {
	return &Arp{
		notes:    notes,
		duration: duration,
		eng:      eng,
	}
}

// Run loops over the notes until ctx is cancelled.
func (a *Arp) Run(ctx context.Context) {
	for ctx.Err() == nil {
		a.RunOnce(ctx)
	}
}

// RunOnce plays through the notes a single time.
func (a *Arp) RunOnce(ctx context.Context) {
	t := time.NewTicker(a.duration)
	defer t.Stop()

	for _, n := range a.notes {
		a.eng.PlayNote(ctx, n.Note, n.Octave, a.duration.Seconds())
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
