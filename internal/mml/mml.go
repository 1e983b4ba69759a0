// Package mml compiles Music Macro Language score text into a
// sequencer.FrameMap: one list of note-or-rest frames per channel, in
// authoring order. The compiler is a single-pass, line-oriented
// parser instantiated per call, replacing the original firmware's
// module-level globals with an explicit per-Compiler state so two
// compiles can run concurrently without interfering (§9).
package mml

import (
	"fmt"
	"math"

	"tinysynth/internal/debug"
	"tinysynth/internal/envelope"
	"tinysynth/internal/sequencer"
	"tinysynth/internal/waveform"
)

// Articulation multiplies a note's nominal duration to decide how
// much of it is held versus released early.
const (
	articulationStaccato = 3.0 / 4.0
	articulationNormal   = 7.0 / 8.0
	articulationLegato   = 1.0
)

// Diagnostic is one parse error: a message plus its 1-based source
// location. Shaped like the teacher's corelx.Diagnostic so a caller
// used to that convention (message/line/column, no file — MML scores
// are parsed from an in-memory string, not a path) feels at home.
type Diagnostic struct {
	Message string
	Line    int
	Column  int
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("mml:%d:%d: %s", d.Line, d.Column, d.Message)
}

// ErrorHandler receives parse diagnostics as they occur, mirroring
// §6.2's pluggable `(message, line, column)` handler. Compile also
// returns the same diagnostic as a Go error; installing a handler is
// optional and purely for callers that want errors surfaced as they
// are found rather than only at the end.
type ErrorHandler func(message string, line, column int)

// channelState is one channel's running parser state (§4.6 table).
type channelState struct {
	octave      uint8
	length      int
	dots        int
	tempo       int
	volume      int
	articulation float64
	wave        waveform.Mode
	active      bool
}

func newChannelState() *channelState {
	return &channelState{
		octave:       4,
		length:       4,
		dots:         0,
		tempo:        120,
		volume:       63,
		articulation: articulationNormal,
		wave:         waveform.ModeSquare,
	}
}

// Compiler turns MML text into a FrameMap at a fixed sample rate (the
// rate frequencies and note durations are computed against).
type Compiler struct {
	SampleRate uint16
	OnError    ErrorHandler

	log *debug.Logger
}

// New returns a Compiler targeting the given sample rate.
func New(sampleRate uint16, logger *debug.Logger) *Compiler {
	return &Compiler{SampleRate: sampleRate, log: logger}
}

// parser holds the mutable state of a single Compile call.
type parser struct {
	c    *Compiler
	src  string
	i    int
	line int
	col  int

	channels []*channelState
	frames   []sequencer.FrameList
}

// Compile parses a complete MML score and returns its per-channel
// FrameMap. On the first error, the in-progress map is discarded: no
// partial result escapes (§9's resolution of the original's
// free-on-error ambiguity — Go's "no partial result on error"
// contract needs no explicit free step).
func (c *Compiler) Compile(src string) (sequencer.FrameMap, error) {
	p := &parser{c: c, src: src, line: 1}
	p.resetActiveState()

	if err := p.run(); err != nil {
		return nil, err
	}

	out := make(sequencer.FrameMap, len(p.frames))
	copy(out, p.frames)
	return out, nil
}

func (p *parser) fail(message string) error {
	d := Diagnostic{Message: message, Line: p.line, Column: p.col}
	if p.c.OnError != nil {
		p.c.OnError(d.Message, d.Line, d.Column)
	}
	if p.c.log != nil {
		p.c.log.LogMMLf(debug.LogLevelError, "%s", d.Error())
	}
	return d
}

// enableChannel grows the channel/frame slices to include idx if
// needed (initializing fresh defaults) and marks it active.
func (p *parser) enableChannel(idx int) {
	for len(p.channels) <= idx {
		p.channels = append(p.channels, newChannelState())
		p.frames = append(p.frames, nil)
	}
	p.channels[idx].active = true
}

// resetActiveState is called at the start of parsing and at every
// newline: only channel A is active by default on a fresh line.
func (p *parser) resetActiveState() {
	for i := 1; i < len(p.channels); i++ {
		p.channels[i].active = false
	}
	p.enableChannel(0)
}

func (p *parser) eof() bool { return p.i >= len(p.src) }

func (p *parser) current() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.i]
}

func (p *parser) peek() byte {
	if p.i+1 >= len(p.src) {
		return 0
	}
	return p.src[p.i+1]
}

func (p *parser) advance() {
	p.i++
	p.col++
}

// readDigit consumes a single character and returns it as a decimal
// digit, or 255 if it was not one.
func (p *parser) readDigit() uint8 {
	ch := p.current()
	p.advance()
	if ch < '0' || ch > '9' {
		return 255
	}
	return ch - '0'
}

// readNumber consumes a run of decimal digits and returns their
// value, or -1 if the stream was not positioned on a digit. Unlike
// the original's strtol-based reader, a literal "0" is a valid parse
// (`n0`, `t0`, ... are well-formed numbers; only the channel's own
// range checks reject them) — see DESIGN.md.
func (p *parser) readNumber() int {
	start := p.i
	for !p.eof() && p.current() >= '0' && p.current() <= '9' {
		p.advance()
	}
	if p.i == start {
		return -1
	}
	val := 0
	for _, ch := range []byte(p.src[start:p.i]) {
		val = val*10 + int(ch-'0')
	}
	return val
}

// run executes the single-pass scan described in §4.6's lexical rules.
func (p *parser) run() error {
	for !p.eof() {
		p.col++
		code := p.current()
		p.i++

		switch {
		case code <= 0x20 || code == '|':
			if code == '\n' {
				p.line++
				p.resetActiveState()
				p.col = 0
			}
			if code == '\r' {
				p.col--
			}
			continue

		case code == '#' || code == ';':
			for !p.eof() && p.current() != '\n' {
				p.i++
			}
			if !p.eof() {
				p.i++ // consume the newline itself
			}
			p.line++
			p.resetActiveState()
			p.col = 0
			continue

		case code >= 'A' && code <= 'Z':
			if p.col != 1 {
				return p.fail("Misplaced channel selector")
			}
			p.channels[0].active = false
			p.enableChannel(int(code - 'A'))
			for !p.eof() && p.current() >= 'A' && p.current() <= 'Z' {
				p.enableChannel(int(p.current() - 'A'))
				p.advance()
			}
			continue
		}

		if err := p.dispatch(code); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) dispatch(code byte) error {
	switch {
	case code == 'o':
		return p.cmdOctave()
	case code == 'l':
		return p.cmdDefaultLength()
	case code == 't':
		return p.cmdTempo()
	case code == 'v':
		return p.cmdVolume()
	case code == '<':
		return p.cmdOctaveStep(-1)
	case code == '>':
		return p.cmdOctaveStep(+1)
	case code == 'm':
		return p.cmdArticulation()
	case code == 'w':
		return p.cmdWaveform()
	case code == 'p' || code == 'r':
		return p.cmdNoteOrRest(code, true, false)
	case code == 'n':
		return p.cmdNoteOrRest(code, false, true)
	case code >= 'a' && code <= 'g':
		return p.cmdNoteOrRest(code, false, false)
	default:
		return p.fail("Unknown command")
	}
}

func (p *parser) cmdOctave() error {
	octave := p.readDigit()
	if octave == 255 || octave > 6 {
		return p.fail("Invalid octave")
	}
	p.forActive(func(st *channelState) { st.octave = octave })
	return nil
}

func (p *parser) cmdDefaultLength() error {
	length := p.readNumber()
	if length < 0 {
		return p.fail("Invalid length")
	}
	dots := 0
	for p.current() == '.' {
		dots++
		p.advance()
	}
	p.forActive(func(st *channelState) {
		st.length = length
		st.dots = dots
	})
	return nil
}

func (p *parser) cmdTempo() error {
	tempo := p.readNumber()
	if tempo < 0 {
		return p.fail("Invalid tempo")
	}
	p.forActive(func(st *channelState) { st.tempo = tempo })
	return nil
}

func (p *parser) cmdVolume() error {
	volume := p.readNumber()
	if volume < 0 || volume > 128 {
		return p.fail("Invalid volume")
	}
	p.forActive(func(st *channelState) { st.volume = volume })
	return nil
}

// cmdOctaveStep implements `<`/`>`. Per §9's resolution of the
// original's self-contradictory bounds (the `o` command accepts
// 0..6 but stepwise motion checked against 0..9), stepwise motion is
// bounded to 0..8.
func (p *parser) cmdOctaveStep(delta int) error {
	var stepErr error
	p.forActiveErr(func(st *channelState) error {
		if delta < 0 && st.octave == 0 {
			return p.fail("Invalid octave step down")
		}
		if delta > 0 && st.octave == 8 {
			return p.fail("Invalid octave step up")
		}
		st.octave = uint8(int(st.octave) + delta)
		return nil
	}, &stepErr)
	return stepErr
}

func (p *parser) cmdArticulation() error {
	var articulation float64
	switch p.current() {
	case 'l':
		articulation = articulationLegato
	case 'n':
		articulation = articulationNormal
	case 's':
		articulation = articulationStaccato
	default:
		return p.fail("Invalid music articulation")
	}
	p.advance()
	p.forActive(func(st *channelState) { st.articulation = articulation })
	return nil
}

func (p *parser) cmdWaveform() error {
	var mode waveform.Mode
	switch p.current() {
	case 's':
		mode = waveform.ModeSquare
	case 'w':
		mode = waveform.ModeSawtooth
	case 't':
		mode = waveform.ModeTriangle
	default:
		return p.fail("Invalid waveform")
	}
	p.advance()
	p.forActive(func(st *channelState) { st.wave = mode })
	return nil
}

// cmdNoteOrRest handles `p`/`r` (rest), `n` (note code) and `a`..`g`
// (named note), including trailing sharp/flat, custom length and
// dots, per §4.6.
func (p *parser) cmdNoteOrRest(code byte, isPause, isNoteCode bool) error {
	length := -1
	dots := 0
	sharp := false
	customLength := false
	noteCode := -1

	for {
		next := p.current()

		if !isPause && !isNoteCode {
			if next == '-' || next == '+' || next == '#' {
				if next == '-' {
					code--
					if code < 'a' {
						code = 'g' // a flat is g sharp
					}
				}
				if code == 'e' || code == 'b' {
					return p.fail("Invalid sharp")
				}
				sharp = true
				p.advance()
				continue
			}
		}

		if next >= '0' && next <= '9' {
			if isNoteCode {
				if noteCode != -1 {
					return p.fail("Invalid note code")
				}
				noteCode = p.readNumber()
				if noteCode < 0 || noteCode > 84 {
					return p.fail("Invalid note code")
				}
			} else {
				if customLength {
					return p.fail("Invalid length")
				}
				length = p.readNumber()
				if length < 0 {
					return p.fail("Invalid length")
				}
				customLength = true
			}
			continue
		}

		if next == '.' {
			dots++
			p.advance()
			continue
		}
		break
	}

	for idx, st := range p.channels {
		if !st.active {
			continue
		}
		pause := isPause
		if isNoteCode && noteCode == 0 {
			pause = true
		}

		freq := 0
		if !pause {
			if isNoteCode {
				freq = freqFromCode(noteCode)
			} else {
				freq = freqFromNote(code, sharp, st.octave)
			}
		}

		effLength := length
		effDots := dots
		if length < 0 {
			effLength = st.length
			if dots == 0 {
				effDots = st.dots
			}
		}

		duration := noteDuration(p.c.SampleRate, st.tempo, effLength, effDots)
		frame := buildFrame(p.c.SampleRate, freq, duration, st.volume, st.articulation, st.wave)
		p.frames[idx] = append(p.frames[idx], frame)
	}
	return nil
}

func (p *parser) forActive(fn func(*channelState)) {
	for _, st := range p.channels {
		if st.active {
			fn(st)
		}
	}
}

// forActiveErr applies fn to every active channel, stopping at (and
// reporting) the first error. fn itself returns the *parser.fail
// result, so *err is already a Diagnostic by the time this returns.
func (p *parser) forActiveErr(fn func(*channelState) error, err *error) {
	for _, st := range p.channels {
		if !st.active {
			continue
		}
		if e := fn(st); e != nil {
			*err = e
			return
		}
	}
}

// freqFromCode converts a 0..84 note code to a frequency in Hz: 0 is
// C at octave 0, 33 is A4 (440Hz) (§6.3).
func freqFromCode(code int) int {
	return int(math.Round(440.0 * math.Pow(2, float64(code-33)/12.0)))
}

// octaveCodeOffset aligns the channel's `o`-command octave (default 4,
// range 0..6) with freqFromCode's own note-code numbering, in which
// code 24 is scientific C4 — i.e. code-numbering "octave 2". Without
// this offset, the default octave (4) would land two octaves sharp of
// scientific pitch; §8's S4 scenario pins default `cdefg` to
// C4..G4 (262..392Hz), so the offset is required to match it. See
// DESIGN.md for the original source's own inconsistency here.
const octaveCodeOffset = 2

// freqFromNote converts an a..g letter (already shifted down one
// letter by a preceding flat, per cmdNoteOrRest) plus a sharp flag and
// octave into a frequency, via the natural-scale semitone mapping in
// §6.3 (C D E F G A B -> 0 2 4 5 7 9 11).
func freqFromNote(letter byte, sharp bool, octave uint8) int {
	semitone := ((int(letter-'a') + 5) % 7) * 2
	if semitone > 4 {
		semitone--
	}
	if sharp {
		semitone++
	}
	return freqFromCode(semitone + (int(octave)-octaveCodeOffset)*12)
}

// noteDuration computes a note's length in samples: whole-note
// fraction `length`, with `dots` applying repeated 1/1.5 shortenings,
// at `tempo` quarter-notes per minute (§4.6).
func noteDuration(sampleRate uint16, tempo, length, dots int) int {
	l := float64(length)
	for ; dots > 0; dots-- {
		l /= 1.5
	}
	return int(float64(sampleRate) * 60.0 * 4.0 / float64(tempo) / l)
}

// periodForMode picks the full- or half-period conversion appropriate
// to a waveform mode (§4.1: Square/Triangle run on half-period
// counters, Sawtooth on full).
func periodForMode(sampleRate uint16, mode waveform.Mode, freq uint16) uint16 {
	if mode == waveform.ModeSawtooth {
		return waveform.FreqToPeriod(sampleRate, freq)
	}
	return waveform.FreqToHalfPeriod(sampleRate, freq)
}

// buildFrame synthesizes one SequencerFrame for a note or rest,
// following the fixed envelope shape and wire layout from §4.6: a
// rest becomes a silent DC frame, a note gets a fast attack/decay
// into a sustain proportioned by articulation.
func buildFrame(sampleRate uint16, freq, duration, volume int, articulation float64, mode waveform.Mode) sequencer.Frame {
	var wf waveform.Definition
	if freq == 0 {
		wf.Mode = waveform.ModeDC
	} else {
		wf.Mode = mode
		wf.Amplitude = int8(volume)
		wf.Period = periodForMode(sampleRate, mode, uint16(freq))
	}

	env := envelope.Definition{
		DelayTime:  0,
		AttackTime: 12,
		DecayTime:  12,
		PeakAmp:    63,
		SustainAmp: 40,
	}
	env.TimeScale = uint32(duration / 128)
	env.ReleaseTime = uint8(128.0 * (1.0 - articulation))
	env.SustainTime = uint8(128 - (int(env.DelayTime) + int(env.AttackTime) + int(env.DecayTime) + int(env.ReleaseTime)))

	return sequencer.Frame{Envelope: env, Waveform: wf}
}
