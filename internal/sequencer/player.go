package sequencer

import (
	"tinysynth/internal/debug"
	"tinysynth/internal/synth"
)

// NextFrameFunc pulls the next frame from a stream source. It reports
// false at end of stream, mirroring the original's
// `new_frame_require(&frame) -> bool` pull callback.
type NextFrameFunc func(frame *Frame) bool

// Player is the online half of the sequencer: it feeds a live
// PolySynth from a pull callback, one frame per sample tick at most,
// using the same ascending-slot scan order the offline Compile used
// to produce the stream in the first place. Running the same scan
// order and the same one-load-per-sample rule on both halves is what
// makes a compiled stream replay bit-for-bit live (§4.5's invariant).
type Player struct {
	voiceCount int
	nextFrame  NextFrameFunc
	ended      bool

	log *debug.Logger
}

// LoadHeader validates a stream header against a live synth's
// capacity and configured sample rate, returning a Player ready to
// feed it. A mismatched sample rate or a voice count over capacity is
// rejected per §6.1/§7 (StreamMismatchError), never silently clamped.
func LoadHeader(header StreamHeader, sampleRate uint16, capacity int, next NextFrameFunc, logger *debug.Logger) (*Player, error) {
	if header.SynthFrequency != sampleRate {
		return nil, &StreamMismatchError{Reason: "stream sample rate does not match player sample rate"}
	}
	if int(header.Voices) > capacity {
		return nil, &StreamMismatchError{Reason: "stream voice count exceeds synth capacity"}
	}
	return &Player{voiceCount: int(header.Voices), nextFrame: next, log: logger}, nil
}

// Ended reports whether the pull callback has signaled end of stream.
// Slots already enabled continue to drain naturally through their
// envelopes; Feed becomes a no-op once this is true.
func (p *Player) Ended() bool {
	return p.ended
}

// Feed scans voice slots 0..voiceCount-1 in ascending order and, for
// the first slot whose enable bit is clear, pulls and applies one
// frame. Must be called once per sample tick, before the mixer runs.
// At most one frame is applied per call.
func (p *Player) Feed(s *synth.PolySynth) {
	if p.ended {
		return
	}
	for idx := 0; idx < p.voiceCount; idx++ {
		if s.IsEnabled(idx) {
			continue
		}
		var frame Frame
		if !p.nextFrame(&frame) {
			p.ended = true
			if p.log != nil {
				p.log.LogSequencerf(debug.LogLevelDebug, "end of stream after slot %d scan", idx)
			}
			return
		}
		s.Voices[idx].Waveform.Configure(frame.Waveform)
		s.Voices[idx].Envelope.Configure(frame.Envelope)
		s.Enable(idx)
		return
	}
}

// SliceSource adapts an in-memory frame slice (e.g. a Decode result's
// Frames) into a NextFrameFunc, for callers that already hold the
// whole stream rather than pulling it from an I/O reader.
func SliceSource(frames []Frame) NextFrameFunc {
	pos := 0
	return func(frame *Frame) bool {
		if pos >= len(frames) {
			return false
		}
		*frame = frames[pos]
		pos++
		return true
	}
}
