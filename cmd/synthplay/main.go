// Command synthplay is the interactive host driver: a thin,
// line-oriented REPL over the synthesis core that recognizes §6.4's
// token language, adapted from original_source/ports/pc/main.c's
// argv-scanning loop into a token stream read from a script file or
// stdin. It is the one external consumer exercising internal/fifo,
// internal/preset and internal/audiosink together.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"tinysynth/internal/audiosink"
	"tinysynth/internal/debug"
	"tinysynth/internal/envelope"
	"tinysynth/internal/fifo"
	"tinysynth/internal/mml"
	"tinysynth/internal/preset"
	"tinysynth/internal/sequencer"
	"tinysynth/internal/synth"
	"tinysynth/internal/waveform"
)

// voiceCount mirrors the original's `struct voice_ch_t poly_voice[16]`.
const voiceCount = 16

func main() {
	sampleRate := pflag.Uint16P("sample-rate", "r", 32000, "Synthesizer sample rate, in Hz.")
	scriptPath := pflag.StringP("script", "s", "", "Token script to read (default: stdin).")
	outPath := pflag.StringP("out", "o", "", "WAV file to render to (default: live playback).")
	bankPath := pflag.StringP("bank", "b", "", "Optional instrument bank (YAML) resolved by the 'instrument' token.")
	headless := pflag.BoolP("headless", "H", false, "Discard rendered audio instead of writing or playing it.")
	verbose := pflag.BoolP("verbose", "v", false, "Log sequencer/mixer activity as tokens are processed.")
	pflag.Parse()

	var logger *debug.Logger
	if *verbose {
		logger = debug.NewLogger(1024)
		logger.SetComponentEnabled(debug.ComponentSequencer, true)
		logger.SetComponentEnabled(debug.ComponentMixer, true)
		logger.SetMinLevel(debug.LogLevelDebug)
		defer logger.Shutdown()
	}

	var bank *preset.Bank
	if *bankPath != "" {
		var err error
		bank, err = preset.LoadFile(*bankPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "synthplay: %v\n", err)
			os.Exit(1)
		}
	}

	in := os.Stdin
	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "synthplay: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	d := newDriver(*sampleRate, bank, logger)
	if err := d.run(in); err != nil {
		fmt.Fprintf(os.Stderr, "synthplay: %v\n", err)
		os.Exit(1)
	}

	if err := d.render(*outPath, *headless); err != nil {
		fmt.Fprintf(os.Stderr, "synthplay: %v\n", err)
		os.Exit(1)
	}
}

// pendingVoice accumulates a waveform/envelope definition for one slot
// field-by-field, the same way the original's CLI poked
// poly_voice[voice].wf/.adsr directly before a later `en` token handed
// the slot to the mixer.
type pendingVoice struct {
	waveform waveform.Definition
	envelope envelope.Definition
}

type driver struct {
	sampleRate uint16
	bank       *preset.Bank
	log        *debug.Logger

	synth   *synth.PolySynth
	fifo    *fifo.FIFO
	pending [voiceCount]pendingVoice
	current int

	player   *sequencer.Player
	recorded []int8
}

func newDriver(sampleRate uint16, bank *preset.Bank, logger *debug.Logger) *driver {
	return &driver{
		sampleRate: sampleRate,
		bank:       bank,
		log:        logger,
		synth:      synth.New(voiceCount, logger),
		fifo:       fifo.New(4096),
	}
}

// run reads whitespace-separated tokens from r until EOF or an `end`
// token, dispatching each recognized command.
func (d *driver) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	for scanner.Scan() {
		tok := scanner.Text()
		if tok == "end" {
			return nil
		}
		if err := d.dispatch(tok, scanner); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (d *driver) dispatch(tok string, s *bufio.Scanner) error {
	switch tok {
	case "voice":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		if n < 0 || n >= voiceCount {
			return fmt.Errorf("voice %d out of range", n)
		}
		d.current = n

	case "mute":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.synth.SetMuteMask(uint32(n))

	case "en":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.applyEnableMask(uint32(n))

	case "dc":
		amp, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].waveform = waveform.Definition{Mode: waveform.ModeDC, Amplitude: int8(amp)}

	case "noise":
		amp, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].waveform = waveform.Definition{Mode: waveform.ModeNoise, Amplitude: int8(amp)}

	case "square", "sawtooth", "triangle":
		freq, err := nextInt(s)
		if err != nil {
			return err
		}
		amp, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].waveform = waveformDefFor(tok, d.sampleRate, uint16(freq), int8(amp))

	case "scale":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].envelope.TimeScale = uint32(n)
	case "delay":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].envelope.DelayTime = uint8(n)
	case "attack":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].envelope.AttackTime = uint8(n)
	case "decay":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].envelope.DecayTime = uint8(n)
	case "sustain":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].envelope.SustainTime = uint8(n)
	case "release":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].envelope.ReleaseTime = uint8(n)
	case "peak":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].envelope.PeakAmp = uint8(n)
	case "samp":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.pending[d.current].envelope.SustainAmp = uint8(n)

	case "instrument":
		if !s.Scan() {
			return fmt.Errorf("instrument: missing name")
		}
		if d.bank == nil {
			return fmt.Errorf("instrument: no --bank loaded")
		}
		env, wf, err := d.bank.Resolve(s.Text())
		if err != nil {
			return err
		}
		d.pending[d.current].waveform = wf
		d.pending[d.current].envelope = env

	case "reset":
		d.synth = synth.New(voiceCount, d.log)
		d.pending = [voiceCount]pendingVoice{}
		d.player = nil

	case "compile-mml":
		if !s.Scan() {
			return fmt.Errorf("compile-mml: missing path")
		}
		return d.loadMML(s.Text())

	case "sequencer":
		if !s.Scan() {
			return fmt.Errorf("sequencer: missing path")
		}
		return d.loadStream(s.Text())

	case "next":
		n, err := nextInt(s)
		if err != nil {
			return err
		}
		d.advance(n)

	default:
		return fmt.Errorf("unrecognized token %q", tok)
	}
	return nil
}

// applyEnableMask mirrors the original's raw `synth.enable = en`
// assignment: every bit newly set relative to the current mask has its
// voice configured from the slot's pending definition before the mask
// is stored, so a slot only starts making sound with whatever waveform/
// envelope the script built up for it.
func (d *driver) applyEnableMask(mask uint32) {
	prev := d.synth.EnableMask()
	for idx := 0; idx < voiceCount; idx++ {
		bit := uint32(1) << uint(idx)
		if mask&bit != 0 && prev&bit == 0 {
			pv := d.pending[idx]
			d.synth.Voices[idx].Waveform.Configure(pv.waveform)
			d.synth.Voices[idx].Envelope.Configure(pv.envelope)
		}
	}
	d.synth.SetEnableMask(mask)
}

func waveformDefFor(tok string, sampleRate, freq uint16, amp int8) waveform.Definition {
	switch tok {
	case "square":
		return waveform.Definition{Mode: waveform.ModeSquare, Amplitude: amp, Period: waveform.FreqToHalfPeriod(sampleRate, freq)}
	case "triangle":
		return waveform.Definition{Mode: waveform.ModeTriangle, Amplitude: amp, Period: waveform.FreqToHalfPeriod(sampleRate, freq)}
	default: // sawtooth
		return waveform.Definition{Mode: waveform.ModeSawtooth, Amplitude: amp, Period: waveform.FreqToPeriod(sampleRate, freq)}
	}
}

// loadMML compiles an MML score into a frame stream and installs it as
// the active sequencer player, matching `sequencer`'s effect below.
func (d *driver) loadMML(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	compiler := mml.New(d.sampleRate, d.log)
	frameMap, err := compiler.Compile(string(src))
	if err != nil {
		return err
	}
	stream, err := sequencer.Compile(frameMap, d.sampleRate, d.log)
	if err != nil {
		return err
	}
	return d.installStream(stream)
}

// loadStream loads a previously compiled binary frame stream (synthc's
// output) and installs it as the active sequencer player.
func (d *driver) loadStream(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stream, err := sequencer.Decode(f)
	if err != nil {
		return err
	}
	return d.installStream(stream)
}

func (d *driver) installStream(stream *sequencer.FrameStream) error {
	player, err := sequencer.LoadHeader(stream.Header, d.sampleRate, voiceCount, sequencer.SliceSource(stream.Frames), d.log)
	if err != nil {
		return err
	}
	d.player = player
	return nil
}

// advance renders n samples: a live sequencer player (if any) feeds
// one frame per tick before the mixer runs, each sample is pushed
// through the FIFO (exercising the producer/consumer decoupling it
// exists for) and then drained straight back out into the recording
// buffer that render() turns into real audio at the end of the run.
func (d *driver) advance(n int) {
	for i := 0; i < n; i++ {
		if d.player != nil {
			d.player.Feed(d.synth)
		}
		sample := d.synth.Next()
		d.fifo.WriteOne(byte(sample))
		if b := d.fifo.ReadOne(); b >= 0 {
			d.recorded = append(d.recorded, int8(b))
		}
	}
}

// render sends the whole session's recorded samples to a sink chosen
// by the CLI flags: headless discard, a WAV file, or (the default)
// live playback through the host's audio device.
func (d *driver) render(outPath string, headless bool) error {
	var sink audiosink.Sink
	var err error
	switch {
	case headless:
		sink = audiosink.NewHeadlessSink()
	case outPath != "":
		sink, err = audiosink.NewWavFileSink(outPath, uint32(d.sampleRate))
	default:
		sink, err = audiosink.NewOtoSink(int(d.sampleRate))
	}
	if err != nil {
		return err
	}
	defer sink.Close()

	pos := 0
	src := audiosink.SourceFunc(func() int8 {
		if pos >= len(d.recorded) {
			return 0
		}
		v := d.recorded[pos]
		pos++
		return v
	})
	return sink.Play(src, len(d.recorded))
}

func nextInt(s *bufio.Scanner) (int, error) {
	if !s.Scan() {
		return 0, fmt.Errorf("expected an integer argument")
	}
	return strconv.Atoi(s.Text())
}
