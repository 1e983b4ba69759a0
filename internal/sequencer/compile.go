package sequencer

import (
	"fmt"

	"tinysynth/internal/debug"
	"tinysynth/internal/synth"
)

// channelCursor tracks how far a channel's FrameList has been
// consumed during a compile simulation.
type channelCursor struct {
	frames FrameList
	pos    int
}

// Compile reorders a FrameMap (authoring order, grouped by channel)
// into a FrameStream in fetch order: the exact order a live synth
// would request frames during playback. It does so by simulating a
// virtual polysynth one sample at a time, applying the hard rule that
// at most one frame may be loaded per simulated sample across all
// voice slots — this bounds the real device's interrupt-time cost at
// the price of up to one sample of phase error.
func Compile(m FrameMap, sampleRate uint16, logger *debug.Logger) (*FrameStream, error) {
	var channels []*channelCursor
	totalFrames := 0
	for _, fl := range m {
		if len(fl) > 0 {
			channels = append(channels, &channelCursor{frames: fl})
			totalFrames += len(fl)
		}
	}

	voiceCount := len(channels)
	if voiceCount > maxVoices {
		return nil, fmt.Errorf("sequencer: %d active channels exceeds synth capacity of %d", voiceCount, maxVoices)
	}

	out := make([]Frame, 0, totalFrames)
	sim := synth.New(voiceCount, logger)

	feedOne := func() bool {
		for idx, ch := range channels {
			if ch.pos < len(ch.frames) && !sim.IsEnabled(idx) {
				frame := ch.frames[ch.pos]
				ch.pos++

				sim.Voices[idx].Waveform.Configure(frame.Waveform)
				sim.Voices[idx].Envelope.Configure(frame.Envelope)
				sim.Enable(idx)

				out = append(out, frame)
				// Don't overload the simulated CPU budget with more
				// than one frame per sample.
				return true
			}
		}
		return false
	}

	feedOne()
	for sim.AnyEnabled() {
		sim.Next()
		feedOne()
	}

	return &FrameStream{
		Header: StreamHeader{
			SynthFrequency: sampleRate,
			Voices:         uint8(voiceCount),
			FrameCount:     uint16(len(out)),
		},
		Frames: out,
	}, nil
}
