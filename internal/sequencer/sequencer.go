// Package sequencer reorders per-channel note lists into the linear
// fetch-order stream a live synthesizer consumes, and replays that
// stream back into voice slots one frame at a time.
package sequencer

import (
	"fmt"

	"tinysynth/internal/envelope"
	"tinysynth/internal/waveform"
)

// Frame is one note or rest on one voice: an envelope shape paired
// with an oscillator shape.
type Frame struct {
	Envelope envelope.Definition
	Waveform waveform.Definition
}

// FrameList is one channel's notes in authoring order.
type FrameList []Frame

// FrameMap is the offline intermediate produced by a compiler such as
// the MML parser: one FrameList per logical channel, indexed by
// channel number.
type FrameMap []FrameList

// StreamHeader precedes a compiled FrameStream on the wire.
type StreamHeader struct {
	SynthFrequency uint16
	Voices         uint8
	FrameCount     uint16
}

// FrameStream is the on-wire playback format: a header followed by
// frames in fetch order, not channel-grouped order.
type FrameStream struct {
	Header StreamHeader
	Frames []Frame
}

// StreamMismatchError reports a playback header that disagrees with
// the player it is being loaded into.
type StreamMismatchError struct {
	Reason string
}

func (e *StreamMismatchError) Error() string {
	return fmt.Sprintf("sequencer: stream mismatch: %s", e.Reason)
}

// maxVoices is the width of the enable/mute bitmask a PolySynth uses
// on desktop (see internal/synth).
const maxVoices = 32
