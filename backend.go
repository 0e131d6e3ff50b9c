package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const monitorSize = 10000

// Backend is where rendered tones go. Schedule hands tones over and returns
// immediately; the backend's own clock decides when they sound. Tones
// passed in one call share the same reference time.
type Backend interface {
	Schedule(tones ...Tone)

	Suspended() bool
	Suspend() error
	Resume(ctx context.Context) error

	Close() error
}

// Monitor is implemented by backends that can show what they just played.
type Monitor interface {
	GetSnapshot(buf [][2]float64) int
}

// BackendFactory creates the output backend on first use.
type BackendFactory func(cfg *Config) (Backend, error)

func OpenBackend(cfg *Config) (Backend, error) {
	switch cfg.Backend {
	case "beep", "speaker", "":
		return newSpeakerBackend(cfg)
	case "oto":
		return newOtoBackend(cfg)
	case "offline":
		return newOfflineBackend(cfg), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", cfg.Backend)
	}
}

// waitResume runs resume but gives up when ctx is done first.
func waitResume(ctx context.Context, resume func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- resume()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type speakerBackend struct {
	tl        *Timeline
	rec       *Recorder
	suspended atomic.Bool
}

func newSpeakerBackend(cfg *Config) (*speakerBackend, error) {
	sr := beep.SampleRate(cfg.SampleRate)
	if err := speaker.Init(sr, sr.N(cfg.Buffer)); err != nil {
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}

	tl := NewTimeline(sr, cfg.MasterGain)
	sb := &speakerBackend{
		tl:  tl,
		rec: NewRecorder(tl, monitorSize),
	}
	speaker.Play(sb.rec)
	return sb, nil
}

func (sb *speakerBackend) Schedule(tones ...Tone) {
	sb.tl.Schedule(tones...)
}

func (sb *speakerBackend) Suspended() bool {
	return sb.suspended.Load()
}

func (sb *speakerBackend) Suspend() error {
	if err := speaker.Suspend(); err != nil {
		return err
	}
	sb.suspended.Store(true)
	return nil
}

func (sb *speakerBackend) Resume(ctx context.Context) error {
	if err := waitResume(ctx, speaker.Resume); err != nil {
		return err
	}
	sb.suspended.Store(false)
	return nil
}

func (sb *speakerBackend) GetSnapshot(buf [][2]float64) int {
	return sb.rec.GetSnapshot(buf)
}

func (sb *speakerBackend) Close() error {
	speaker.Close()
	return nil
}

// otoBackend drives the timeline straight from an oto player as stereo
// float32 frames.
type otoBackend struct {
	ctx    *oto.Context
	player *oto.Player
	tl     *Timeline
	rec    *Recorder

	lk        sync.Mutex
	frames    [][2]float64
	suspended atomic.Bool
}

func newOtoBackend(cfg *Config) (*otoBackend, error) {
	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   cfg.Buffer,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("creating oto context: %w", err)
	}
	<-ready

	tl := NewTimeline(beep.SampleRate(cfg.SampleRate), cfg.MasterGain)
	ob := &otoBackend{
		ctx: ctx,
		tl:  tl,
		rec: NewRecorder(tl, monitorSize),
	}
	ob.player = ctx.NewPlayer(ob)
	ob.player.Play()
	return ob, nil
}

// Read fills p with interleaved little endian float32 stereo frames.
func (ob *otoBackend) Read(p []byte) (int, error) {
	ob.lk.Lock()
	defer ob.lk.Unlock()

	n := len(p) / 8
	if cap(ob.frames) < n {
		ob.frames = make([][2]float64, n)
	}
	frames := ob.frames[:n]
	ob.rec.Stream(frames)

	for i, f := range frames {
		binary.LittleEndian.PutUint32(p[i*8:], math.Float32bits(float32(f[0])))
		binary.LittleEndian.PutUint32(p[i*8+4:], math.Float32bits(float32(f[1])))
	}
	return n * 8, nil
}

func (ob *otoBackend) Schedule(tones ...Tone) {
	ob.tl.Schedule(tones...)
}

func (ob *otoBackend) Suspended() bool {
	return ob.suspended.Load()
}

func (ob *otoBackend) Suspend() error {
	if err := ob.ctx.Suspend(); err != nil {
		return err
	}
	ob.suspended.Store(true)
	return nil
}

func (ob *otoBackend) Resume(ctx context.Context) error {
	if err := waitResume(ctx, ob.ctx.Resume); err != nil {
		return err
	}
	ob.suspended.Store(false)
	return nil
}

func (ob *otoBackend) GetSnapshot(buf [][2]float64) int {
	return ob.rec.GetSnapshot(buf)
}

func (ob *otoBackend) Close() error {
	return ob.player.Close()
}

var errClosed = errors.New("backend closed")

// offlineBackend has no device. Audio only advances when Render is called,
// which makes it usable for writing files and for tests.
type offlineBackend struct {
	tl  *Timeline
	rec *Recorder

	suspended atomic.Bool
	closed    atomic.Bool
}

func newOfflineBackend(cfg *Config) *offlineBackend {
	tl := NewTimeline(beep.SampleRate(cfg.SampleRate), cfg.MasterGain)
	return &offlineBackend{
		tl:  tl,
		rec: NewRecorder(tl, monitorSize),
	}
}

func (ob *offlineBackend) Schedule(tones ...Tone) {
	if ob.closed.Load() {
		return
	}
	ob.tl.Schedule(tones...)
}

// Render advances the clock by n samples and returns them.
func (ob *offlineBackend) Render(n int) [][2]float64 {
	out := make([][2]float64, n)
	ob.rec.Stream(out)
	return out
}

func (ob *offlineBackend) Suspended() bool {
	return ob.suspended.Load()
}

func (ob *offlineBackend) Suspend() error {
	ob.suspended.Store(true)
	return nil
}

func (ob *offlineBackend) Resume(ctx context.Context) error {
	if ob.closed.Load() {
		return errClosed
	}
	ob.suspended.Store(false)
	return nil
}

func (ob *offlineBackend) GetSnapshot(buf [][2]float64) int {
	return ob.rec.GetSnapshot(buf)
}

func (ob *offlineBackend) Close() error {
	ob.closed.Store(true)
	return nil
}
