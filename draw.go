package main

import (
	"context"
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"
)

const (
	screenWidth  = 1000
	screenHeight = 600

	stripX      = 50
	stripY      = 20
	stripHeight = 60
	stripKeyW   = 50
)

// qwerty keys in semitone order starting at C: home row for naturals, the
// row above for sharps.
var keyNotes = map[sdl.Keycode]int{
	sdl.K_a:         0,
	sdl.K_w:         1,
	sdl.K_s:         2,
	sdl.K_e:         3,
	sdl.K_d:         4,
	sdl.K_f:         5,
	sdl.K_t:         6,
	sdl.K_g:         7,
	sdl.K_y:         8,
	sdl.K_h:         9,
	sdl.K_u:         10,
	sdl.K_j:         11,
	sdl.K_k:         12,
	sdl.K_o:         13,
	sdl.K_l:         14,
	sdl.K_p:         15,
	sdl.K_SEMICOLON: 16,
	sdl.K_QUOTE:     17,
}

// hue of each pitch class in the strip
var noteHues = [numPitchClasses]float64{
	0, 30, 60, 90, 120, 180, 210, 240, 270, 300, 330, 15,
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := math.Mod(h/60, 6)
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

func noteColor(p PitchClass) (uint8, uint8, uint8) {
	return hslToRGB(noteHues[p], 0.7, 0.6)
}

// keyToNote maps a pressed key to a note, shifted by whole octaves.
func keyToNote(k sdl.Keycode, octave int) (PitchClass, int, bool) {
	semis, ok := keyNotes[k]
	if !ok {
		return 0, 0, false
	}
	return C.Transpose(semis), octave + semis/numPitchClasses, true
}

// draw opens the keyboard window: typing plays notes, and the window shows
// the current key, the progression chord, and what the output is doing.
func draw(ctx context.Context, eng *Engine, octave int) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("initializing sdl: %w", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("Harmonizer", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, screenWidth, screenHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	defer renderer.Destroy()

	buf := make([][2]float64, 2048)
	dataPoints := make([]float64, len(buf))
	keystates := make(map[sdl.Keycode]bool)

	running := true
	for running && ctx.Err() == nil {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				sym := event.Keysym.Sym
				if event.Type == sdl.KEYUP {
					delete(keystates, sym)
					continue
				}
				if keystates[sym] {
					// held key, already played
					continue
				}
				keystates[sym] = true

				switch sym {
				case sdl.K_z:
					octave--
				case sdl.K_x:
					octave++
				case sdl.K_ESCAPE:
					eng.Reset()
				default:
					if pc, oct, ok := keyToNote(sym, octave); ok {
						eng.PlayNote(ctx, pc, oct, 0)
					}
				}
			}
		}

		n := eng.Snapshot(buf)
		for i, v := range buf[:n] {
			dataPoints[i] = v[0]
		}

		renderer.SetDrawColor(255, 255, 255, 255)
		renderer.Clear()

		drawStrip(renderer, eng.Context())
		graphData(renderer, dataPoints[:500], 50, 120, 600, 200, -1, 1)
		if n == len(buf) {
			spec := Spectrum(buf)
			graphData(renderer, spec[:200], 50, 350, 600, 200, 0, 0.05)
		}

		renderer.Present()
		sdl.Delay(16)
	}
	return nil
}

// drawStrip shows one box per pitch class: coloured when in the scale, with
// a bar under the key root and marks under the current progression chord.
func drawStrip(renderer *sdl.Renderer, hc HarmonicContext) {
	chord := hc.CurrentChord()
	for i := 0; i < numPitchClasses; i++ {
		p := PitchClass(i)
		rect := &sdl.Rect{X: int32(stripX + i*stripKeyW), Y: stripY, W: stripKeyW - 4, H: stripHeight}

		if hc.Scale.Contains(p) {
			r, g, b := noteColor(p)
			renderer.SetDrawColor(r, g, b, 255)
		} else {
			renderer.SetDrawColor(220, 220, 220, 255)
		}
		renderer.FillRect(rect)

		renderer.SetDrawColor(0, 0, 0, 255)
		if p == hc.Key {
			renderer.FillRect(&sdl.Rect{X: rect.X, Y: stripY + stripHeight + 4, W: rect.W, H: 6})
		}
		if chord.Contains(p) {
			renderer.DrawRect(rect)
		}
	}
}

func graphData(renderer *sdl.Renderer, dataPoints []float64, x, y, width, height int32, minval, maxval float64) {
	// Draw the graph axes
	renderer.SetDrawColor(0, 0, 0, 255)
	renderer.DrawLine(x, y+height/2, x+width, y+height/2)
	renderer.DrawLine(x, y, x, y+height)

	spread := maxval - minval
	scaled := func(v float64) int32 {
		return y + height - int32((v-minval)*float64(height)/spread)
	}

	renderer.SetDrawColor(255, 0, 0, 255)
	for i := 0; i < len(dataPoints)-1; i++ {
		x1 := x + int32(float64(i)*float64(width)/float64(len(dataPoints)-1))
		x2 := x + int32(float64(i+1)*float64(width)/float64(len(dataPoints)-1))
		renderer.DrawLine(x1, scaled(dataPoints[i]), x2, scaled(dataPoints[i+1]))
	}
}
