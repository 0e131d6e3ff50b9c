package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rakyll/portmidi"
)

// knob used for note length on most controllers (mod wheel)
const durationKnob = 1

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := LoadConfig()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.Printf("sentry initialization failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:]); err != nil {
		sentry.CaptureException(err)
		log.Printf("error: %v", err)
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, args []string) error {
	cmd := "midi"
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	if cmd == "render" {
		if len(args) < 2 {
			return fmt.Errorf("usage: render <out.wav> <note>...")
		}
		notes, err := parseNotes(args[1:], cfg.Octave)
		if err != nil {
			return err
		}
		return renderWav(cfg, args[0], notes, seconds(cfg.NoteDuration/2))
	}

	eng := NewEngine(cfg, OpenBackend)
	defer eng.Close()

	switch cmd {
	case "midi":
		return runMidi(ctx, cfg, eng)
	case "keys", "draw":
		return draw(ctx, eng, cfg.Octave)
	case "repl":
		return repl(ctx, cfg, eng)
	case "test":
		NewArp(eng, 250*time.Millisecond,
			NoteSpec{C, 4}, NoteSpec{E, 4}, NoteSpec{G, 4}).RunOnce(ctx)
		time.Sleep(seconds(cfg.NoteDuration * bassLengthScale))
		fmt.Println(eng.HarmonicInfo())
		return nil
	default:
		return fmt.Errorf("unknown command %q (want midi, keys, repl, render or test)", cmd)
	}
}

func parseNotes(args []string, octave int) ([]NoteSpec, error) {
	var out []NoteSpec
	for _, a := range args {
		ns, err := toNoteSpec(a, octave)
		if err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, nil
}

func runMidi(ctx context.Context, cfg *Config, eng *Engine) error {
	if err := portmidi.Initialize(); err != nil {
		return fmt.Errorf("initializing portmidi: %w", err)
	}
	defer portmidi.Terminate()

	id := portmidi.DefaultInputDeviceID()
	if cfg.MidiDevice >= 0 {
		id = portmidi.DeviceID(cfg.MidiDevice)
	}

	mc, err := OpenController(id, eng)
	if err != nil {
		return err
	}
	defer mc.Shutdown()

	mc.BindKnob(durationKnob, eng.SetNoteDuration, knobRange(0.2, 2))

	fmt.Println("listening for midi input, ctrl-c to quit")
	return mc.Run(ctx)
}

func repl(ctx context.Context, cfg *Config, eng *Engine) error {
	s := NewSystem(ctx, eng, cfg.Octave)

	names := s.Names()
	sort.Strings(names)
	var sugg []prompt.Suggest
	for _, n := range names {
		sugg = append(sugg, prompt.Suggest{Text: n})
	}
	completer := func(d prompt.Document) []prompt.Suggest {
		w := d.GetWordBeforeCursor()
		if w == "" {
			return nil
		}
		return prompt.FilterHasPrefix(sugg, w, true)
	}

	for ctx.Err() == nil {
		line := strings.TrimSpace(prompt.Input("> ", completer))
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		out, err := s.ProcessCmd(line)
		if err != nil {
			fmt.Println("error: ", err)
			continue
		}
		if out != nil {
			fmt.Println(out)
		}
	}
	return nil
}
