package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	lk sync.Mutex

	tones     []Tone
	batches   int
	suspended bool
	resumes   int
	resumeErr error
	closed    bool
}

func (fb *fakeBackend) Schedule(tones ...Tone) {
	fb.lk.Lock()
	defer fb.lk.Unlock()
	fb.batches++
	fb.tones = append(fb.tones, tones...)
}

func (fb *fakeBackend) Suspended() bool {
	fb.lk.Lock()
	defer fb.lk.Unlock()
	return fb.suspended
}

func (fb *fakeBackend) Suspend() error {
	fb.lk.Lock()
	defer fb.lk.Unlock()
	fb.suspended = true
	return nil
}

func (fb *fakeBackend) Resume(ctx context.Context) error {
	fb.lk.Lock()
	defer fb.lk.Unlock()
	fb.resumes++
	if err := ctx.Err(); err != nil {
		return err
	}
	if fb.resumeErr != nil {
		return fb.resumeErr
	}
	fb.suspended = false
	return nil
}

func (fb *fakeBackend) Close() error {
	fb.lk.Lock()
	defer fb.lk.Unlock()
	fb.closed = true
	return nil
}

func (fb *fakeBackend) Tones() []Tone {
	fb.lk.Lock()
	defer fb.lk.Unlock()
	return append([]Tone(nil), fb.tones...)
}

func testEngine(t *testing.T) (*Engine, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	eng := NewEngine(DefaultConfig(), func(*Config) (Backend, error) {
		return fb, nil
	})
	return eng, fb
}

func TestPlayNoteSchedulesHarmony(t *testing.T) {
	eng, fb := testEngine(t)

	eng.PlayNote(context.Background(), C, 4, 0)

	tones := fb.Tones()
	require.Len(t, tones, 3)
	assert.Equal(t, 1, fb.batches, "a note and its harmony are scheduled together")

	first := tones[0]
	assert.Equal(t, C, first.Note)
	assert.Equal(t, 4, first.Octave)
	assert.Zero(t, first.Delay)
	assert.InDelta(t, 1, first.Volume, 1e-9)
	assert.InDelta(t, 0.8, first.Duration, 1e-9)
	assert.Equal(t, mainEnvelope, first.Envelope)

	assert.Equal(t, E, tones[1].Note)
	assert.Equal(t, 4, tones[1].Octave)
	assert.Zero(t, tones[1].Delay)
	assert.InDelta(t, 0.4, tones[1].Volume, 1e-9)
	assert.InDelta(t, 0.96, tones[1].Duration, 1e-9)

	assert.Equal(t, G, tones[2].Note)
	assert.Equal(t, 5, tones[2].Octave)
	assert.InDelta(t, 0.02, tones[2].Delay, 1e-9)
	assert.InDelta(t, 0.3, tones[2].Volume, 1e-9)
	assert.Equal(t, harmonyEnvelope, tones[2].Envelope)

	// C sat on the I chord, so the progression moves to V
	hc := eng.Context()
	assert.Equal(t, 1, hc.ProgressionIndex)
	assert.Equal(t, Chord{G, B, D}, hc.CurrentChord())

	eng.PlayNote(context.Background(), B, 4, 2)
	tones = fb.Tones()[3:]
	require.Len(t, tones, 3)
	assert.Equal(t, []PitchClass{B, G, D}, []PitchClass{tones[0].Note, tones[1].Note, tones[2].Note})
	assert.InDelta(t, 2, tones[0].Duration, 1e-9)
	assert.InDelta(t, 2.4, tones[1].Duration, 1e-9)
	assert.Equal(t, 2, eng.Context().ProgressionIndex)
	assert.Equal(t, 2, fb.batches)
}

func TestPlayNotePassingTone(t *testing.T) {
	eng, fb := testEngine(t)

	eng.PlayNote(context.Background(), Cs, 4, 0)

	tones := fb.Tones()
	require.Len(t, tones, 3)
	assert.Equal(t, []PitchClass{Cs, C, D}, []PitchClass{tones[0].Note, tones[1].Note, tones[2].Note})
	assert.Equal(t, 0, eng.Context().ProgressionIndex)

	hist := eng.History()
	require.Len(t, hist, 1)
	assert.Equal(t, 0, hist[0].Degree)
}

func TestPlayNoteInfersKey(t *testing.T) {
	eng, _ := testEngine(t)
	ctx := context.Background()

	eng.PlayNote(ctx, A, 4, 0)
	eng.PlayNote(ctx, C, 5, 0)
	assert.Equal(t, C, eng.Context().Key)

	eng.PlayNote(ctx, E, 5, 0)
	hc := eng.Context()
	assert.Equal(t, A, hc.Key)
	assert.Equal(t, Minor, hc.Mode)
}

func TestPlayNoteHistoryLimit(t *testing.T) {
	eng, _ := testEngine(t)

	for i := 0; i < maxHistory+1; i++ {
		eng.PlayNote(context.Background(), C, i, 0)
	}

	hist := eng.History()
	require.Len(t, hist, maxHistory)
	assert.Equal(t, 1, hist[0].Octave)
	assert.Equal(t, maxHistory, hist[len(hist)-1].Octave)
}

func TestHarmonicInfo(t *testing.T) {
	eng, _ := testEngine(t)

	info := eng.HarmonicInfo()
	assert.Equal(t, "C", info.Key)
	assert.Equal(t, "major", info.Mode)
	assert.Equal(t, []string{"C", "D", "E", "F", "G", "A", "B"}, info.Scale)
	assert.NotNil(t, info.RecentNotes)
	assert.Empty(t, info.RecentNotes)

	b, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"recentNotes":[]`)

	for _, n := range []PitchClass{C, D, E, F, G, A, B} {
		eng.PlayNote(context.Background(), n, 4, 0)
	}

	info = eng.HarmonicInfo()
	assert.Equal(t, []string{"E4", "F4", "G4", "A4", "B4"}, info.RecentNotes)
	assert.Equal(t, []int{1, 5, 6, 4}, info.Progression)
	assert.Contains(t, info.String(), "recent: E4 F4 G4 A4 B4")

	// the last six notes, D through B, fit A minor best
	assert.Equal(t, "A", info.Key)
	assert.Equal(t, "minor", info.Mode)
}

func TestSetKeyAndReset(t *testing.T) {
	eng, _ := testEngine(t)
	ctx := context.Background()

	eng.PlayNote(ctx, C, 4, 0)
	eng.SetKey(A, Minor)

	hc := eng.Context()
	assert.Equal(t, A, hc.Key)
	assert.Equal(t, Minor, hc.Mode)
	assert.Equal(t, 0, hc.ProgressionIndex)
	assert.Len(t, eng.History(), 1)

	require.NoError(t, eng.SetProgression(4))
	assert.Error(t, eng.SetProgression(99))
	assert.Equal(t, []int{2, 5, 1}, eng.Context().Progression)

	eng.Reset()
	assert.Empty(t, eng.History())
	assert.Equal(t, NewHarmonicContext(), eng.Context())
}

func TestContextIsACopy(t *testing.T) {
	eng, _ := testEngine(t)

	hc := eng.Context()
	hc.Progression[0] = 7
	assert.Equal(t, 1, eng.Context().Progression[0])
	assert.Equal(t, 1, Progressions[0][0])

	require.NoError(t, eng.SetProgression(2))
	hc = eng.Context()
	hc.Progression[0] = 3
	assert.Equal(t, []int{6, 4, 1, 5}, Progressions[2])
	assert.Equal(t, []int{6, 4, 1, 5}, eng.Context().Progression)

	info := eng.HarmonicInfo()
	info.Progression[1] = 9
	assert.Equal(t, []int{6, 4, 1, 5}, eng.Context().Progression)
}

func TestSetNoteDuration(t *testing.T) {
	eng, fb := testEngine(t)

	eng.SetNoteDuration(1.5)
	eng.SetNoteDuration(-1)
	eng.PlayNote(context.Background(), G, 4, 0)

	assert.InDelta(t, 1.5, fb.Tones()[0].Duration, 1e-9)
}

func TestBackendUnavailable(t *testing.T) {
	var calls int
	eng := NewEngine(DefaultConfig(), func(*Config) (Backend, error) {
		calls++
		return nil, errors.New("no audio device")
	})

	eng.PlayNote(context.Background(), C, 4, 0)
	eng.PlayNote(context.Background(), G, 4, 0)

	assert.Equal(t, 1, calls, "a failed backend is not retried")
	assert.Len(t, eng.History(), 2, "notes are still tracked without output")
	assert.Equal(t, 2, eng.Context().ProgressionIndex)
	assert.NoError(t, eng.Suspend())
	assert.Zero(t, eng.Snapshot(make([][2]float64, 10)))
}

func TestPlayNoteResumesBackend(t *testing.T) {
	eng, fb := testEngine(t)
	ctx := context.Background()

	eng.PlayNote(ctx, C, 4, 0)
	require.NoError(t, eng.Suspend())
	assert.True(t, fb.Suspended())

	eng.PlayNote(ctx, E, 4, 0)
	assert.False(t, fb.Suspended())
	assert.Equal(t, 1, fb.resumes)
	assert.Len(t, fb.Tones(), 6)
}

func TestPlayNoteResumeFailure(t *testing.T) {
	eng, fb := testEngine(t)
	ctx := context.Background()

	eng.PlayNote(ctx, C, 4, 0)
	require.NoError(t, eng.Suspend())
	fb.resumeErr = errors.New("device busy")

	eng.PlayNote(ctx, E, 4, 0)
	assert.Len(t, fb.Tones(), 3, "nothing is scheduled when resume fails")
	assert.Len(t, eng.History(), 2)
}

func TestEngineClose(t *testing.T) {
	eng, fb := testEngine(t)

	eng.PlayNote(context.Background(), C, 4, 0)
	require.NoError(t, eng.Close())
	assert.True(t, fb.closed)

	eng.PlayNote(context.Background(), C, 4, 0)
	assert.Len(t, fb.Tones(), 3)
}

func TestHarmonyOctave(t *testing.T) {
	assert.Equal(t, 4, harmonyOctave(4, 0))
	assert.Equal(t, 5, harmonyOctave(4, 1))
	assert.Equal(t, 3, harmonyOctave(4, 2))
	assert.Equal(t, 3, harmonyOctave(4, 3))
}

func TestConcurrentPlayNote(t *testing.T) {
	eng, fb := testEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			eng.PlayNote(context.Background(), PitchClass(i), 4, 0)
			eng.HarmonicInfo()
		}(i)
	}
	wg.Wait()

	assert.Len(t, eng.History(), 8)
	assert.Len(t, fb.Tones(), 24)
}
