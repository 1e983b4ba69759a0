// Package voice composes one oscillator and one envelope into a
// single synthesized channel.
package voice

import (
	"math"

	"tinysynth/internal/debug"
	"tinysynth/internal/envelope"
	"tinysynth/internal/waveform"
)

// Channel is one voice slot: an envelope gating an oscillator.
type Channel struct {
	Envelope *envelope.EnvelopeState
	Waveform *waveform.State

	log *debug.Logger
}

// NewChannel returns a freshly idle voice channel.
func NewChannel(logger *debug.Logger) *Channel {
	return &Channel{
		Envelope: envelope.NewState(logger),
		Waveform: waveform.NewState(logger),
		log:      logger,
	}
}

// IsDone reports whether the channel's envelope has finished.
func (c *Channel) IsDone() bool {
	return c.Envelope.IsDone()
}

// Next computes the channel's next signed 8-bit sample: the
// envelope's amplitude gating the oscillator's raw sample, scaled and
// saturated.
func (c *Channel) Next() int8 {
	amplitude := c.Envelope.Next()
	if amplitude == 0 {
		return 0
	}

	sample := int16(c.Waveform.Next())
	value := sample * int16(amplitude)
	value >>= 8

	if value < math.MinInt8 {
		return math.MinInt8
	}
	if value > math.MaxInt8 {
		return math.MaxInt8
	}
	return int8(value)
}
