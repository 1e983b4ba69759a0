package sequencer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinysynth/internal/envelope"
	"tinysynth/internal/synth"
	"tinysynth/internal/waveform"
)

func noteFrame(freq uint16) Frame {
	return Frame{
		Envelope: envelope.Definition{
			TimeScale:  10,
			AttackTime: 4,
			DecayTime:  4,
			ReleaseTime: 4,
			PeakAmp:    63,
			SustainAmp: 40,
		},
		Waveform: waveform.Definition{
			Mode:      waveform.ModeSquare,
			Amplitude: 100,
			Period:    waveform.FreqToHalfPeriod(8000, freq),
		},
	}
}

func fourNoteMap(channels int) FrameMap {
	m := make(FrameMap, channels)
	for c := 0; c < channels; c++ {
		for n := 0; n < 4; n++ {
			m[c] = append(m[c], noteFrame(uint16(200+50*c+10*n)))
		}
	}
	return m
}

func TestCompileProducesOneFramePerChannelNote(t *testing.T) {
	// S5: 3 channels of 4 frames each compiles to 12 frames total.
	m := fourNoteMap(3)
	stream, err := Compile(m, 8000, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, len(stream.Frames))
	assert.Equal(t, uint8(3), stream.Header.Voices)
	assert.EqualValues(t, 8000, stream.Header.SynthFrequency)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := fourNoteMap(2)
	stream, err := Compile(m, 8000, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, stream.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, stream.Header, got.Header)
	assert.Equal(t, stream.Frames, got.Frames)
}

// TestSequencerReplayFidelity is property 7: feeding a compiled
// stream through a live synth of the same width must reproduce the
// identical per-sample PCM output as simulating the source map with
// the compiler itself, because both halves share the same scan order
// and the same one-frame-per-sample rule.
func TestSequencerReplayFidelity(t *testing.T) {
	m := fourNoteMap(3)
	stream, err := Compile(m, 8000, nil)
	require.NoError(t, err)

	reference := simulateReference(t, m, int(stream.Header.Voices))

	player, err := LoadHeader(stream.Header, 8000, int(stream.Header.Voices), SliceSource(stream.Frames), nil)
	require.NoError(t, err)

	live := synth.New(int(stream.Header.Voices), nil)
	var got []int8
	for i := 0; i < len(reference); i++ {
		player.Feed(live)
		got = append(got, live.Next())
	}

	assert.Equal(t, reference, got)
}

// simulateReference replays the compiler's own simulation loop to
// produce the expected PCM output directly from the source FrameMap,
// independent of the compiled stream.
func simulateReference(t *testing.T, m FrameMap, voiceCount int) []int8 {
	t.Helper()
	var channels []*channelCursor
	for _, fl := range m {
		if len(fl) > 0 {
			channels = append(channels, &channelCursor{frames: fl})
		}
	}
	sim := synth.New(voiceCount, nil)

	feedOne := func() bool {
		for idx, ch := range channels {
			if ch.pos < len(ch.frames) && !sim.IsEnabled(idx) {
				frame := ch.frames[ch.pos]
				ch.pos++
				sim.Voices[idx].Waveform.Configure(frame.Waveform)
				sim.Voices[idx].Envelope.Configure(frame.Envelope)
				sim.Enable(idx)
				return true
			}
		}
		return false
	}

	var out []int8
	feedOne()
	out = append(out, sim.Next())
	for sim.AnyEnabled() {
		feedOne()
		out = append(out, sim.Next())
	}
	return out
}

func TestLoadHeaderRejectsMismatch(t *testing.T) {
	header := StreamHeader{SynthFrequency: 8000, Voices: 2, FrameCount: 0}

	_, err := LoadHeader(header, 16000, 4, SliceSource(nil), nil)
	require.Error(t, err)

	_, err = LoadHeader(header, 8000, 1, SliceSource(nil), nil)
	require.Error(t, err)

	p, err := LoadHeader(header, 8000, 4, SliceSource(nil), nil)
	require.NoError(t, err)
	assert.False(t, p.Ended())
}
