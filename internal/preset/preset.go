// Package preset loads named instrument and envelope definitions from
// a YAML bank file, giving the host driver cmd/synthplay (its --bank
// flag and `instrument` token) a way to point at a file instead of
// hand-building envelope.Definition/waveform.Definition literals for
// every voice. cmd/synthc does not read bank files.
package preset

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"tinysynth/internal/envelope"
	"tinysynth/internal/waveform"
)

// Envelope is the YAML-friendly mirror of envelope.Definition.
type Envelope struct {
	TimeScale   uint32 `yaml:"time_scale"`
	DelayTime   uint8  `yaml:"delay_time"`
	AttackTime  uint8  `yaml:"attack_time"`
	DecayTime   uint8  `yaml:"decay_time"`
	SustainTime uint8  `yaml:"sustain_time"`
	ReleaseTime uint8  `yaml:"release_time"`
	PeakAmp     uint8  `yaml:"peak_amp"`
	SustainAmp  uint8  `yaml:"sustain_amp"`
}

// Definition converts the YAML record to the live envelope package's
// wire-shaped Definition.
func (e Envelope) Definition() envelope.Definition {
	return envelope.Definition{
		TimeScale:   e.TimeScale,
		DelayTime:   e.DelayTime,
		AttackTime:  e.AttackTime,
		DecayTime:   e.DecayTime,
		SustainTime: e.SustainTime,
		ReleaseTime: e.ReleaseTime,
		PeakAmp:     e.PeakAmp,
		SustainAmp:  e.SustainAmp,
	}
}

// Waveform is the YAML-friendly mirror of waveform.Definition. Mode is
// spelled out ("square", "sawtooth", ...) rather than numeric for a
// readable bank file; Frequency (Hz) is resolved to a period when an
// instrument is resolved (Bank.Resolve), against the bank's sample rate.
type Waveform struct {
	Mode      string `yaml:"mode"`
	Amplitude int8   `yaml:"amplitude"`
	Frequency uint16 `yaml:"frequency"`
}

func (w Waveform) mode() (waveform.Mode, error) {
	switch w.Mode {
	case "dc":
		return waveform.ModeDC, nil
	case "square":
		return waveform.ModeSquare, nil
	case "sawtooth":
		return waveform.ModeSawtooth, nil
	case "triangle":
		return waveform.ModeTriangle, nil
	case "noise":
		return waveform.ModeNoise, nil
	default:
		return 0, fmt.Errorf("preset: unknown waveform mode %q", w.Mode)
	}
}

// Definition resolves the YAML record against a sample rate, computing
// the fixed-point period for frequency-bearing modes.
func (w Waveform) Definition(sampleRate uint16) (waveform.Definition, error) {
	mode, err := w.mode()
	if err != nil {
		return waveform.Definition{}, err
	}

	def := waveform.Definition{Mode: mode, Amplitude: w.Amplitude}
	switch mode {
	case waveform.ModeSquare, waveform.ModeTriangle:
		def.Period = waveform.FreqToHalfPeriod(sampleRate, w.Frequency)
	case waveform.ModeSawtooth:
		def.Period = waveform.FreqToPeriod(sampleRate, w.Frequency)
	}
	return def, nil
}

// Instrument names an envelope/waveform pair so MML/CLI callers can
// select a voice shape by name instead of literal fields.
type Instrument struct {
	Envelope string `yaml:"envelope"`
	Waveform string `yaml:"waveform"`
}

// Bank is the top-level YAML document: named envelopes, named
// waveforms, and instruments that pair the two by name.
type Bank struct {
	SampleRate  uint16                `yaml:"sample_rate"`
	Envelopes   map[string]Envelope   `yaml:"envelopes"`
	Waveforms   map[string]Waveform   `yaml:"waveforms"`
	Instruments map[string]Instrument `yaml:"instruments"`
}

// Load parses a bank from r.
func Load(r io.Reader) (*Bank, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("preset: reading bank: %w", err)
	}

	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("preset: parsing bank: %w", err)
	}
	return &bank, nil
}

// LoadFile opens and parses a bank file from disk.
func LoadFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("preset: opening bank %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Resolve looks up a named instrument and returns its envelope and
// waveform definitions, ready to hand to voice.Channel's Configure
// calls.
func (b *Bank) Resolve(name string) (envelope.Definition, waveform.Definition, error) {
	inst, ok := b.Instruments[name]
	if !ok {
		return envelope.Definition{}, waveform.Definition{}, fmt.Errorf("preset: no instrument named %q", name)
	}

	env, ok := b.Envelopes[inst.Envelope]
	if !ok {
		return envelope.Definition{}, waveform.Definition{}, fmt.Errorf("preset: instrument %q references unknown envelope %q", name, inst.Envelope)
	}

	wf, ok := b.Waveforms[inst.Waveform]
	if !ok {
		return envelope.Definition{}, waveform.Definition{}, fmt.Errorf("preset: instrument %q references unknown waveform %q", name, inst.Waveform)
	}

	wfDef, err := wf.Definition(b.SampleRate)
	if err != nil {
		return envelope.Definition{}, waveform.Definition{}, fmt.Errorf("preset: instrument %q: %w", name, err)
	}

	return env.Definition(), wfDef, nil
}
