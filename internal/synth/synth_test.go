package synth

import (
	"testing"

	"tinysynth/internal/envelope"
)

func steadyEnvelope() envelope.Definition {
	return envelope.Definition{
		TimeScale:   1000,
		SustainTime: envelope.Infinite,
		PeakAmp:     255,
		SustainAmp:  255,
	}
}

func TestMixerClipGuarantee(t *testing.T) {
	// S6: four voices, each a triangle at peak 127, enabled together.
	p := New(4, nil)
	for i, v := range p.Voices {
		v.Waveform.SetTriangle(8000, 220, 127)
		v.Envelope.Configure(steadyEnvelope())
		p.Enable(i)
	}

	for i := 0; i < 500; i++ {
		s := p.Next()
		if s < -128 || s > 127 {
			t.Fatalf("tick %d: mixer output %d outside int8 range", i, s)
		}
	}
}

func TestMixerRetiresDoneVoices(t *testing.T) {
	p := New(2, nil)
	p.Voices[0].Waveform.SetDC(10)
	p.Voices[0].Envelope.Configure(envelope.Definition{
		TimeScale:  1,
		AttackTime: 1,
		PeakAmp:    255,
	})
	p.Enable(0)

	for i := 0; i < 10000 && p.IsEnabled(0); i++ {
		p.Next()
	}
	if p.IsEnabled(0) {
		t.Fatalf("expected slot 0 to be retired once its voice finished")
	}
}

func TestMixerMutedVoiceExcludedFromSum(t *testing.T) {
	p := New(1, nil)
	p.Voices[0].Waveform.SetDC(100)
	p.Voices[0].Envelope.Configure(steadyEnvelope())
	p.Enable(0)
	p.SetMute(0, true)

	for i := 0; i < 10; i++ {
		if s := p.Next(); s != 0 {
			t.Fatalf("tick %d: expected muted voice to contribute 0, got %d", i, s)
		}
	}
}

func TestMixerAscendingSlotOrderStable(t *testing.T) {
	p := New(3, nil)
	for i, v := range p.Voices {
		v.Waveform.SetDC(int8(10 * (i + 1)))
		v.Envelope.Configure(steadyEnvelope())
		p.Enable(i)
	}
	// Each DC level is gated by the sustained envelope amplitude 255:
	// (10*255)>>8 + (20*255)>>8 + (30*255)>>8 = 9 + 19 + 29.
	want := int8(9 + 19 + 29)
	for i := 0; i < 5; i++ {
		if s := p.Next(); s != want {
			t.Fatalf("tick %d: expected stable sum %d, got %d", i, want, s)
		}
	}
}
