// Package synth implements the polyphonic mixer: the component that
// sums enabled voice channels into one saturated 8-bit PCM sample.
package synth

import (
	"math"
	"sync/atomic"

	"tinysynth/internal/debug"
	"tinysynth/internal/voice"
)

// PolySynth owns a fixed array of voice slots and the enable/mute
// bitmasks that select which of them contribute to the mix. Slot i's
// bit is 1<<i in both masks; callers on desktop must treat both masks
// as word-atomic since the mixer (sample-tick context) and any
// sequencer feeder (main-loop context) touch them concurrently.
type PolySynth struct {
	Voices []*voice.Channel

	enable atomic.Uint32
	mute   atomic.Uint32

	// tick counts samples produced by Next, giving trace logging a
	// sample-clock position to throttle against instead of flooding
	// the log buffer on every call.
	tick int64

	log *debug.Logger
}

// New returns a PolySynth with the given number of voice slots, all
// disabled. width must not exceed 32 (the bitmask width backing
// Enable/Mute).
func New(width int, logger *debug.Logger) *PolySynth {
	voices := make([]*voice.Channel, width)
	for i := range voices {
		voices[i] = voice.NewChannel(logger)
	}
	return &PolySynth{Voices: voices, log: logger}
}

// Enable sets slot i's enable bit, handing that slot's state over to
// the mixer. Callers must only do this while the slot's enable bit is
// clear: a caller configures a slot's voice only while its bit is clear,
// and the mixer reads it only while the bit is set, clearing the bit
// once the voice finishes.
func (p *PolySynth) Enable(slot int) {
	updateMask(&p.enable, func(m uint32) uint32 { return m | 1<<uint(slot) })
}

// Disable clears slot i's enable bit directly, without waiting for the
// voice to finish on its own; idempotent.
func (p *PolySynth) Disable(slot int) {
	updateMask(&p.enable, func(m uint32) uint32 { return m &^ (1 << uint(slot)) })
}

// updateMask applies f to m atomically via a compare-and-swap loop.
func updateMask(m *atomic.Uint32, f func(uint32) uint32) {
	for old := m.Load(); !m.CompareAndSwap(old, f(old)); old = m.Load() {
	}
}

// IsEnabled reports whether slot i is currently owned by the mixer.
func (p *PolySynth) IsEnabled(slot int) bool {
	return p.enable.Load()&(1<<uint(slot)) != 0
}

// AnyEnabled reports whether any voice slot is currently active.
func (p *PolySynth) AnyEnabled() bool {
	return p.enable.Load() != 0
}

// SetMute sets or clears slot i's mute bit. A muted voice is still
// computed (its envelope/oscillator still advance and it can still
// retire) but excluded from the summed output.
func (p *PolySynth) SetMute(slot int, muted bool) {
	bit := uint32(1 << uint(slot))
	if muted {
		updateMask(&p.mute, func(m uint32) uint32 { return m | bit })
	} else {
		updateMask(&p.mute, func(m uint32) uint32 { return m &^ bit })
	}
}

// IsMuted reports slot i's mute state.
func (p *PolySynth) IsMuted(slot int) bool {
	return p.mute.Load()&(1<<uint(slot)) != 0
}

// SetEnableMask overwrites the whole enable bitmask in one shot,
// mirroring the host CLI's direct `synth.enable = en` assignment
// (§6.4's `en N` token) rather than the single-slot Enable/Disable
// handshake the mixer itself relies on.
func (p *PolySynth) SetEnableMask(mask uint32) {
	p.enable.Store(mask)
}

// EnableMask returns the raw enable bitmask.
func (p *PolySynth) EnableMask() uint32 {
	return p.enable.Load()
}

// SetMuteMask overwrites the whole mute bitmask in one shot, mirroring
// the host CLI's direct `synth.mute = mute` assignment (§6.4's
// `mute N` token).
func (p *PolySynth) SetMuteMask(mask uint32) {
	p.mute.Store(mask)
}

// Next computes one synthesizer sample: ascending-order sum of every
// enabled, unmuted voice, clipped to signed 8-bit range. Slots whose
// voice finishes during this call have their enable bit cleared and
// their envelope reset, making the slot immediately reusable.
func (p *PolySynth) Next() int8 {
	var sample int32
	enable := p.enable.Load()
	mute := p.mute.Load()
	tick := p.tick
	p.tick++

	var mask uint32 = 1
	for idx := 0; mask != 0 && idx < len(p.Voices); idx++ {
		if enable&mask != 0 {
			v := p.Voices[idx]
			chSample := v.Next()
			if mute&mask == 0 {
				sample += int32(chSample)
			}
			if p.log != nil {
				p.log.LogTick(debug.ComponentMixer, debug.LogLevelTrace, idx, tick, "slot %d sample=%d", idx, chSample)
			}
			if v.IsDone() {
				done := mask
				updateMask(&p.enable, func(m uint32) uint32 { return m &^ done })
				v.Envelope.Reset()
				if p.log != nil {
					p.log.Logf(debug.ComponentMixer, debug.LogLevelDebug, debug.SlotFields(idx), "slot %d done, retiring", idx)
				}
			}
		}
		mask <<= 1
	}

	if sample > math.MaxInt8 {
		return math.MaxInt8
	}
	if sample < math.MinInt8 {
		return math.MinInt8
	}
	return int8(sample)
}
