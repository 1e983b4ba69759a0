// Package envelope implements the per-voice ADSR amplitude envelope: a
// 15-state machine that shapes the loudness of a voice across five
// phases, entirely in integer arithmetic.
package envelope

import (
	"math"

	"tinysynth/internal/debug"
)

// State identifies one of the envelope's 15 phases. Values mirror the
// original firmware's numbering (phase group in the high nibble, Init
// = 0x.0, body = 0x.1, Expire = 0x.f) purely so the progression below
// reads the same way it always has; nothing downstream depends on the
// literal values.
type State uint8

const (
	StateIdle          State = 0x00
	StateDelayInit      State = 0x10
	StateDelayExpire    State = 0x1f
	StateAttackInit     State = 0x20
	StateAttack         State = 0x21
	StateAttackExpire   State = 0x2f
	StateDecayInit      State = 0x30
	StateDecay          State = 0x31
	StateDecayExpire    State = 0x3f
	StateSustainInit    State = 0x40
	StateSustainExpire  State = 0x4f
	StateReleaseInit    State = 0x50
	StateRelease        State = 0x51
	StateReleaseExpire  State = 0x5f
	StateDone           State = 0xff
)

// Infinite marks delay_time/sustain_time as "hold until Continue is
// called" rather than a finite number of time units.
const Infinite uint8 = math.MaxUint8

// infiniteEvent is the next_event sentinel meaning "do not decrement;
// wait for Continue".
const infiniteEvent uint32 = math.MaxUint32

// linAmpShift is the shift applied to the linear term of the
// attack/release amplitude formula; expShiftMax bounds the exponential
// term's shift count. Both are load-bearing magic constants carried
// over unchanged — they define the audible shape of the envelope.
const (
	linAmpShift = 5
	expShiftMax = 8
)

// Definition is the compile-time envelope shape, 11 bytes on the wire.
type Definition struct {
	TimeScale   uint32
	DelayTime   uint8
	AttackTime  uint8
	DecayTime   uint8
	SustainTime uint8
	ReleaseTime uint8
	PeakAmp     uint8
	SustainAmp  uint8
}

// EnvelopeState is the live, per-sample-mutated envelope state.
type EnvelopeState struct {
	def       Definition
	nextEvent uint32
	timeStep  uint16
	state     State
	counter   uint8
	amplitude uint8

	log *debug.Logger
}

// NewState returns an Idle envelope.
func NewState(logger *debug.Logger) *EnvelopeState {
	return &EnvelopeState{log: logger}
}

// Reset returns the envelope to Idle for the next note.
func (e *EnvelopeState) Reset() {
	e.nextEvent = 0
	e.state = StateIdle
}

// Configure installs a new definition and resets.
func (e *EnvelopeState) Configure(def Definition) {
	e.def = def
	e.Reset()
}

// Continue signals a waiting envelope (DelayExpire or SustainExpire)
// to advance on the next call to Next.
func (e *EnvelopeState) Continue() {
	e.nextEvent = 0
}

// IsDone reports whether the envelope reached its terminal state.
func (e *EnvelopeState) IsDone() bool { return e.state == StateDone }

// IsIdle reports whether the envelope never started (unconfigured or
// reset).
func (e *EnvelopeState) IsIdle() bool { return e.state == StateIdle }

// IsWaiting reports whether the envelope is parked on an infinite
// delay or sustain, awaiting Continue.
func (e *EnvelopeState) IsWaiting() bool {
	return e.nextEvent == infiniteEvent &&
		(e.state == StateDelayExpire || e.state == StateSustainExpire)
}

// State exposes the current phase, mainly for tests and diagnostics.
func (e *EnvelopeState) State() State { return e.state }

// numSamples converts a time-unit count to samples, carrying the
// Infinite sentinel through unchanged.
func numSamples(scale uint32, units uint8) uint32 {
	if units != Infinite {
		return scale * uint32(units)
	}
	return infiniteEvent
}

// expAmp is the attack/release exponential shift: a>>(n+1), or 0 once n
// reaches expShiftMax (the high harmonics have decayed to nothing).
func expAmp(amp, n uint8) uint8 {
	if n >= expShiftMax {
		return 0
	}
	return amp >> (n + 1)
}

// Next computes the envelope's amplitude for this sample tick,
// advancing the state machine as needed. The loop re-enters the
// dispatch exactly where the original's cascading if-chain would fall
// through to the next check within the same tick; it stops the moment
// a phase either emits a sample or the machine reaches Done.
func (e *EnvelopeState) Next() uint8 {
	if e.nextEvent != 0 {
		if e.nextEvent != infiniteEvent {
			e.nextEvent--
		}
		return e.amplitude
	}

	for {
		switch e.state {
		case StateIdle:
			if e.def.TimeScale == 0 {
				return 0
			}
			if e.def.DelayTime == 0 && e.def.AttackTime == 0 &&
				e.def.DecayTime == 0 && e.def.SustainTime == 0 &&
				e.def.ReleaseTime == 0 {
				return 0
			}
			if e.def.PeakAmp == 0 && e.def.SustainAmp == 0 {
				return 0
			}
			if e.def.DelayTime != 0 {
				e.state = StateDelayInit
			} else {
				e.state = StateDelayExpire
			}
			continue

		case StateDelayInit:
			e.amplitude = 0
			e.nextEvent = numSamples(e.def.TimeScale, e.def.DelayTime)
			e.state = StateDelayExpire
			return e.amplitude

		case StateDelayExpire:
			if e.def.AttackTime != 0 {
				e.state = StateAttackInit
			} else {
				e.state = StateAttackExpire
			}
			continue

		case StateAttackInit:
			e.timeStep = uint16((uint32(e.def.AttackTime) * e.def.TimeScale) >> 4)
			e.counter = 16
			e.nextEvent = uint32(e.timeStep)
			e.state = StateAttack
			continue

		case StateAttack:
			if e.counter != 0 {
				linAmp := uint16(16-e.counter) * uint16(e.def.PeakAmp)
				linAmp >>= linAmpShift
				expPart := expAmp(e.def.PeakAmp, e.counter)
				e.amplitude = uint8(linAmp) + expPart
				e.counter--
				e.nextEvent = uint32(e.timeStep)
				return e.amplitude
			}
			e.state = StateAttackExpire
			continue

		case StateAttackExpire:
			if e.def.DecayTime != 0 {
				e.state = StateDecayInit
			} else {
				e.state = StateDecayExpire
			}
			continue

		case StateDecayInit:
			e.amplitude = e.def.PeakAmp
			e.timeStep = uint16((uint32(e.def.DecayTime) * e.def.TimeScale) >> 4)
			e.counter = 16
			e.nextEvent = uint32(e.timeStep)
			e.state = StateDecay
			continue

		case StateDecay:
			if e.counter != 0 {
				delta := uint16(e.def.PeakAmp) - uint16(e.def.SustainAmp)
				delta *= uint16(e.counter)
				delta >>= 4
				e.amplitude = e.def.SustainAmp + uint8(delta)
				e.nextEvent = uint32(e.timeStep)
				e.counter--
				return e.amplitude
			}
			e.state = StateDecayExpire
			continue

		case StateDecayExpire:
			if e.def.SustainTime != 0 {
				e.state = StateSustainInit
			} else {
				e.state = StateSustainExpire
			}
			continue

		case StateSustainInit:
			e.amplitude = e.def.SustainAmp
			e.nextEvent = numSamples(e.def.TimeScale, e.def.SustainTime)
			e.state = StateSustainExpire
			return e.amplitude

		case StateSustainExpire:
			if e.def.ReleaseTime != 0 {
				e.state = StateReleaseInit
			} else {
				e.state = StateReleaseExpire
			}
			continue

		case StateReleaseInit:
			e.timeStep = uint16((uint32(e.def.ReleaseTime) * e.def.TimeScale) >> 4)
			e.counter = 16
			e.nextEvent = uint32(e.timeStep)
			e.state = StateRelease
			continue

		case StateRelease:
			if e.counter != 0 {
				linAmp := uint16(e.counter) * uint16(e.def.SustainAmp)
				linAmp >>= linAmpShift
				expPart := expAmp(e.def.SustainAmp, 16-e.counter)
				e.amplitude = uint8(linAmp) + expPart
				e.counter--
				e.nextEvent = uint32(e.timeStep)
				return e.amplitude
			}
			e.state = StateReleaseExpire
			continue

		case StateReleaseExpire:
			e.state = StateDone
			e.amplitude = 0
			return e.amplitude

		default: // StateDone and any unreachable value
			return e.amplitude
		}
	}
}
