// Package waveform implements the per-voice fixed-point oscillator: the
// lowest layer of the synthesis pipeline, producing one signed 8-bit
// sample per call from an integer-only state machine.
package waveform

import (
	"math/rand"

	"tinysynth/internal/debug"
)

// Mode selects the per-sample generation algorithm.
type Mode uint8

const (
	ModeDC Mode = iota
	ModeSquare
	ModeSawtooth
	ModeTriangle
	ModeNoise
)

func (m Mode) String() string {
	switch m {
	case ModeDC:
		return "dc"
	case ModeSquare:
		return "square"
	case ModeSawtooth:
		return "sawtooth"
	case ModeTriangle:
		return "triangle"
	case ModeNoise:
		return "noise"
	default:
		return "unknown"
	}
}

const (
	// ampScale is the number of bits of fixed-point headroom kept on
	// the internal sample/amplitude domain; output is shifted right
	// by this amount.
	ampScale = 8
	// periodFPScale is the number of fractional bits in the 12.4
	// period and period-remaining counters.
	periodFPScale = 4
	periodFPUnit  = 1 << periodFPScale
	// noiseSeed reseeds the oscillator's PRNG deterministically on
	// every (re)configuration so the offline compiler and the live
	// player draw identical noise sequences for identical frame
	// streams.
	noiseSeed = 0x5EED
)

// Definition is the compile-time, wire-sized description of an
// oscillator: 4 bytes (mode, amplitude, period).
type Definition struct {
	Mode      Mode
	Amplitude int8
	// Period is already expressed in 12.4 fixed-point samples; for
	// Square/Triangle it is a half-period, for DC/Noise it is unused.
	Period uint16
}

// State is the live, mutated-every-sample oscillator state.
type State struct {
	sample       int16
	amplitude    int16
	periodRemain uint16
	period       uint16
	step         int16
	mode         Mode

	rng *rand.Rand
	log *debug.Logger
}

// NewState returns a freshly reset oscillator in DC/silent mode.
func NewState(logger *debug.Logger) *State {
	return &State{rng: rand.New(rand.NewSource(noiseSeed)), log: logger}
}

// FreqToPeriod converts a frequency in Hz to a full-period 12.4
// fixed-point sample count at the given sample rate. Used directly by
// Sawtooth; Square and Triangle use half of this value.
func FreqToPeriod(sampleRate, freq uint16) uint16 {
	return uint16((uint32(sampleRate) << periodFPScale) / uint32(freq))
}

// FreqToHalfPeriod converts a frequency in Hz to the half-period used
// by Square and Triangle (one sign change per period_remain expiry).
func FreqToHalfPeriod(sampleRate, freq uint16) uint16 {
	return FreqToPeriod(sampleRate, freq) >> 1
}

// Configure applies a wire-level Definition whose Period has already
// been computed by the caller (the sequencer/MML path stores periods
// pre-converted in the frame stream).
func (s *State) Configure(def Definition) {
	s.configure(def.Mode, def.Amplitude, def.Period)
}

// SetDC configures a constant-offset oscillator.
func (s *State) SetDC(amplitude int8) {
	s.configure(ModeDC, amplitude, 0)
}

// SetSquare configures a square wave at the given frequency and sample
// rate.
func (s *State) SetSquare(sampleRate, freq uint16, amplitude int8) {
	s.configure(ModeSquare, amplitude, FreqToHalfPeriod(sampleRate, freq))
}

// SetSawtooth configures a sawtooth wave at the given frequency and
// sample rate.
func (s *State) SetSawtooth(sampleRate, freq uint16, amplitude int8) {
	s.configure(ModeSawtooth, amplitude, FreqToPeriod(sampleRate, freq))
}

// SetTriangle configures a triangle wave at the given frequency and
// sample rate.
func (s *State) SetTriangle(sampleRate, freq uint16, amplitude int8) {
	s.configure(ModeTriangle, amplitude, FreqToHalfPeriod(sampleRate, freq))
}

// SetNoise configures a pseudorandom noise oscillator and reseeds its
// generator so it replays deterministically from this point on.
func (s *State) SetNoise(amplitude int8) {
	s.configure(ModeNoise, amplitude, 0)
}

func (s *State) configure(mode Mode, amplitude int8, period uint16) {
	s.mode = mode
	switch mode {
	case ModeDC:
		s.amplitude = int16(amplitude)
	case ModeNoise:
		s.amplitude = int16(amplitude)
		s.rng = rand.New(rand.NewSource(noiseSeed))
	case ModeSquare:
		s.amplitude = int16(amplitude) << ampScale
		s.period = period
		s.periodRemain = period
		s.sample = s.amplitude
	case ModeSawtooth, ModeTriangle:
		s.sample = -(int16(amplitude) << ampScale)
		s.period = period
		s.periodRemain = period
		s.amplitude = -s.sample
		s.step = (s.amplitude / int16(s.period>>periodFPScale)) << 1
	}
	if s.log != nil {
		s.log.LogWaveformf(debug.LogLevelTrace, "configure mode=%s amp=%d period=%d", mode, amplitude, period)
	}
}

// Next produces the oscillator's next signed 8-bit sample.
func (s *State) Next() int8 {
	switch s.mode {
	case ModeDC:
		return int8(s.amplitude)
	case ModeNoise:
		raw := int32(s.rng.Intn(512)) - 256
		s.sample = int16(raw * int32(s.amplitude))
	case ModeSquare:
		if (s.periodRemain >> periodFPScale) == 0 {
			s.sample = -s.sample
			s.periodRemain += s.period
		} else {
			s.periodRemain -= periodFPUnit
		}
	case ModeSawtooth:
		if (s.periodRemain >> periodFPScale) == 0 {
			s.sample = -s.amplitude
			s.periodRemain += s.period
		} else {
			s.sample = rampStep(s.sample, s.step, s.amplitude)
			s.periodRemain -= periodFPUnit
		}
	case ModeTriangle:
		if (s.periodRemain >> periodFPScale) == 0 {
			if s.step > 0 {
				s.sample = s.amplitude
			} else {
				s.sample = -s.amplitude
			}
			s.step = -s.step
			s.periodRemain += s.period
		} else {
			s.sample = rampStep(s.sample, s.step, s.amplitude)
			s.periodRemain -= periodFPUnit
		}
	}
	return int8(s.sample >> ampScale)
}

// rampStep adds step to sample, holding the result within ±|amplitude|:
// a 12.4 period with a fractional part occasionally runs one extra step.
func rampStep(sample, step, amplitude int16) int16 {
	lim := int32(amplitude)
	if lim < 0 {
		lim = -lim
	}
	v := int32(sample) + int32(step)
	if v > lim {
		v = lim
	} else if v < -lim {
		v = -lim
	}
	return int16(v)
}

// Mode reports the oscillator's current mode.
func (s *State) Mode() Mode {
	return s.mode
}
