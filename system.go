package main

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"
	"unicode"
)

// NoteSpec is a pitch class at a given octave, written like "C#4".
type NoteSpec struct {
	Note   PitchClass
	Octave int
}

func (ns NoteSpec) String() string {
	return fmt.Sprintf("%s%d", ns.Note, ns.Octave)
}

// System is the command console: a small expression language over a table
// of named functions.
//
//	play(C#, 4)
//	key(A, minor)
//	p = [C4, E4, G4]
//	arp(8, p)
//	loop(8, p)
//	stop
type System struct {
	octave int

	// cancels the running background arp, if any
	stopLoop context.CancelFunc

	vals []map[string]any
}

func (s *System) Set(k string, v any) {
	s.vals[len(s.vals)-1][k] = v
}

func NewSystem(ctx context.Context, eng *Engine, octave int) *System {
	s := &System{
		octave: octave,
		vals:   []map[string]any{make(map[string]any)},
	}

	s.Set("print", MakeFunc(func(i any) {
		fmt.Println(i)
	}))

	s.Set("play", MakeFunc(func(n NoteSpec, octave int) {
		eng.PlayNote(ctx, n.Note, octave, 0)
	}))

	s.Set("note", MakeFunc(func(n NoteSpec) {
		eng.PlayNote(ctx, n.Note, n.Octave, 0)
	}))

	s.Set("key", MakeFunc(func(k PitchClass, m Mode) string {
		eng.SetKey(k, m)
		return eng.HarmonicInfo().String()
	}))

	s.Set("progression", MakeFunc(func(i int) (string, error) {
		if err := eng.SetProgression(i); err != nil {
			return "", err
		}
		return eng.HarmonicInfo().String(), nil
	}))

	s.Set("duration", MakeFunc(func(d float64) {
		eng.SetNoteDuration(d)
	}))

	s.Set("reset", MakeFunc(func() {
		eng.Reset()
	}))

	s.Set("suspend", MakeFunc(func() error {
		return eng.Suspend()
	}))

	s.Set("info", MakeFunc(func() (string, error) {
		b, err := json.Marshal(eng.HarmonicInfo())
		return string(b), err
	}))

	s.Set("arp", MakeFunc(func(notefrac int, notes []NoteSpec) *Arp {
		a := NewArp(eng, time.Second/time.Duration(max(notefrac, 1)), notes...)
		a.RunOnce(ctx)
		return a
	}))

	s.Set("loop", MakeFunc(func(notefrac int, notes []NoteSpec) {
		s.stop()
		lctx, cancel := context.WithCancel(ctx)
		s.stopLoop = cancel
		go NewArp(eng, time.Second/time.Duration(max(notefrac, 1)), notes...).Run(lctx)
	}))

	s.Set("stop", MakeFunc(func() {
		s.stop()
	}))

	s.Set("seq", MakeFunc(func(bpm, notesize int, notes []NoteSpec) *Sequencer {
		seq := &Sequencer{
			Notes:    notes,
			NoteSize: notesize,
			Eng:      eng,
		}
		clk := NewClock(bpm, 32)
		clk.Sequences = append(clk.Sequences, seq)
		clk.RunFor(ctx, len(notes))
		return seq
	}))

	return s
}

func (s *System) stop() {
	if s.stopLoop != nil {
		s.stopLoop()
		s.stopLoop = nil
	}
}

type Function struct {
	fn reflect.Value
}

func MakeFunc(fn any) *Function {
	return &Function{
		fn: reflect.ValueOf(fn),
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func (s *System) callFunc(f *Function, args []any) (any, error) {
	t := f.fn.Type()
	nargs := t.NumIn()
	if len(args) > nargs {
		return nil, fmt.Errorf("too many arguments: want %d, got %d", nargs, len(args))
	}

	var inargs []reflect.Value
	for i := 0; i < nargs; i++ {
		var arg any
		if i < len(args) {
			arg = args[i]
		}

		inval, err := s.argToType(arg, t.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}

		inargs = append(inargs, reflect.ValueOf(inval))
	}

	out := f.fn.Call(inargs)

	var res any
	for _, o := range out {
		if o.Type() == errorType {
			if !o.IsNil() {
				return nil, o.Interface().(error)
			}
			continue
		}
		res = o.Interface()
	}
	return res, nil
}

func (s *System) argToType(arg any, t reflect.Type) (any, error) {
	switch t {
	case reflect.TypeOf(PitchClass(0)):
		sval, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("expected a note name, got %T", arg)
		}
		return ParsePitchClass(sval)
	case reflect.TypeOf(Mode(0)):
		if arg == nil {
			return Major, nil
		}
		sval, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("expected major or minor, got %T", arg)
		}
		return ParseMode(sval)
	case reflect.TypeOf(NoteSpec{}):
		return toNoteSpec(arg, s.octave)
	case reflect.TypeOf([]NoteSpec{}):
		arrarg, ok := arg.([]any)
		if !ok {
			return nil, fmt.Errorf("arg for array must be []any")
		}
		var out []NoteSpec
		for _, v := range arrarg {
			ns, err := toNoteSpec(v, s.octave)
			if err != nil {
				return nil, err
			}
			out = append(out, ns)
		}
		return out, nil
	}

	switch t.Kind() {
	case reflect.Int:
		switch arg := arg.(type) {
		case nil:
			return s.octave, nil
		case int:
			return arg, nil
		default:
			return nil, fmt.Errorf("unsupported int arg type: %T", arg)
		}
	case reflect.Float64:
		switch arg := arg.(type) {
		case float64:
			return arg, nil
		case int:
			return float64(arg), nil
		default:
			return nil, fmt.Errorf("unsupported float64 arg type: %T", arg)
		}
	case reflect.Interface:
		if arg == nil {
			return "", nil
		}
		return arg, nil
	default:
		return nil, fmt.Errorf("requested type unknown: %s", t)
	}
}

func toNoteSpec(arg any, octave int) (NoteSpec, error) {
	sval, ok := arg.(string)
	if !ok {
		return NoteSpec{}, fmt.Errorf("expected a note, got %T", arg)
	}
	p, oct, err := ParseNote(sval, octave)
	if err != nil {
		return NoteSpec{}, err
	}
	return NoteSpec{Note: p, Octave: oct}, nil
}

// ProcessCmd runs one console line and returns what it evaluated to, if
// anything worth printing.
func (s *System) ProcessCmd(cmdl string) (any, error) {
	tokens, err := tokenize(cmdl)
	if err != nil {
		return nil, err
	}

	return s.processCmd(tokens)
}

func (s *System) processCmd(tokens []string) (any, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	if len(tokens) == 1 {
		val, ok := s.Lookup(tokens[0])
		if !ok {
			return nil, fmt.Errorf("unknown reference %q", tokens[0])
		}
		if f, ok := val.(*Function); ok && f.fn.Type().NumIn() == 0 {
			return s.callFunc(f, nil)
		}
		return val, nil
	}

	if len(tokens) > 2 && tokens[1] == "=" {
		// assignment
		val, err := s.ResolveStatement(tokens[2:])
		if err != nil {
			return nil, err
		}

		s.Set(tokens[0], val)
		return nil, nil
	}

	if _, ok := s.Lookup(tokens[0]); ok {
		return s.ResolveStatement(tokens)
	}

	return nil, fmt.Errorf("unknown command type (%#v)", tokens)
}

func (s *System) Lookup(val string) (any, bool) {
	for i := len(s.vals) - 1; i >= 0; i-- {
		ov, ok := s.vals[i][val]
		if ok {
			return ov, true
		}
	}

	return nil, false
}

func (s *System) Get(val string) any {
	ov, ok := s.Lookup(val)
	if ok {
		return ov
	}
	return nil
}

// Names lists everything the console knows about.
func (s *System) Names() []string {
	var out []string
	for _, m := range s.vals {
		for k := range m {
			out = append(out, k)
		}
	}
	return out
}

func (s *System) ResolveStatement(tokens []string) (any, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("cannot parse empty statement")
	}

	if len(tokens) == 1 {
		// a number, a variable, or a bare word such as a note name
		if val, err := strconv.Atoi(tokens[0]); err == nil {
			return val, nil
		}
		if val, err := strconv.ParseFloat(tokens[0], 64); err == nil {
			return val, nil
		}
		if vbl, ok := s.Lookup(tokens[0]); ok {
			return vbl, nil
		}
		return tokens[0], nil
	}

	if tokens[0] == "[" {
		// array literal
		vals, _, err := scanTuple("[", "]", tokens)
		if err != nil {
			return nil, fmt.Errorf("parsing array literal: %w", err)
		}

		var out []any
		for _, v := range vals {
			arrval, err := s.ResolveStatement(v)
			if err != nil {
				return nil, err
			}
			out = append(out, arrval)
		}

		return out, nil
	}

	v, ok := s.Lookup(tokens[0])
	if ok {
		f, fok := v.(*Function)
		if fok {
			if tokens[1] != "(" {
				return nil, fmt.Errorf("call %q missing open paren", tokens[0])
			}

			args, _, err := scanTuple("(", ")", tokens[1:])
			if err != nil {
				return nil, fmt.Errorf("collecting args for function call: %w", err)
			}

			var params []any
			for i, argset := range args {
				v, err := s.ResolveStatement(argset)
				if err != nil {
					return nil, fmt.Errorf("parsing arg %d: %w", i, err)
				}
				params = append(params, v)
			}

			return s.callFunc(f, params)
		}
	}

	return nil, fmt.Errorf("invalid statement (unknown symbol %q)", tokens[0])
}

// scans tokens of the form ( a(b), 123, f(d(4)))
// returns [][]string{ ["a", "(", "b", ")"], ["123"], [ "f", "(", "d", "(", "4", ")", ")" ] }
func scanTuple(beg, end string, tokens []string) ([][]string, int, error) {
	if tokens[0] != beg {
		return nil, 0, fmt.Errorf("expected %q at beginning of sequence", beg)
	}

	var out [][]string

	var cur int = 1
	var term []string
	for i := 1; i < len(tokens); i++ {
		if tokens[i] == "(" {
			term = append(term, ")")
			continue
		}
		if tokens[i] == "[" {
			term = append(term, "]")
			continue
		}

		if len(term) > 0 {
			if tokens[i] == term[len(term)-1] {
				term = term[:len(term)-1]
			}
			continue
		}

		if tokens[i] == "," {
			if i-cur == 0 {
				return nil, 0, fmt.Errorf("empty argument at index %d", len(out))
			}

			out = append(out, tokens[cur:i])
			cur = i + 1
		}

		if tokens[i] == end {
			if i > cur {
				out = append(out, tokens[cur:i])
			}
			return out, i, nil
		}
	}

	return nil, 0, fmt.Errorf("missing close sigil")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '#' || r == '.' || r == '_'
}

func tokenize(s string) ([]string, error) {
	var out []string
	var wordstart int
	inword := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch {
		case isWordRune(runes[i]):
			if !inword {
				inword = true
				wordstart = i
			}
		case unicode.IsSpace(runes[i]):
			if inword {
				out = append(out, string(runes[wordstart:i]))
				inword = false
			}
		case runes[i] == '=',
			runes[i] == ',',
			runes[i] == '(',
			runes[i] == ')',
			runes[i] == '[',
			runes[i] == ']':
			if inword {
				out = append(out, string(runes[wordstart:i]))
				inword = false
			}
			out = append(out, string(runes[i]))
		default:
			return nil, fmt.Errorf("invalid character at index %d: %q", i, runes[i])
		}
	}
	if inword {
		out = append(out, string(runes[wordstart:]))
	}

	return out, nil
}
