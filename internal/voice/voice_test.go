package voice

import (
	"testing"

	"tinysynth/internal/envelope"
)

func TestSilentEnvelopeProducesSilentVoice(t *testing.T) {
	c := NewChannel(nil)
	c.Waveform.SetDC(127)
	c.Envelope.Configure(envelope.Definition{}) // time_scale 0 -> idle forever
	for i := 0; i < 50; i++ {
		if v := c.Next(); v != 0 {
			t.Fatalf("tick %d: expected silence from an idle envelope, got %d", i, v)
		}
	}
}

func TestVoiceDoneTracksEnvelope(t *testing.T) {
	c := NewChannel(nil)
	c.Waveform.SetDC(10)
	c.Envelope.Configure(envelope.Definition{
		TimeScale:  1,
		AttackTime: 1,
		PeakAmp:    255,
	})
	for i := 0; i < 10000 && !c.IsDone(); i++ {
		c.Next()
	}
	if !c.IsDone() {
		t.Fatalf("expected voice to finish once its envelope reaches Done")
	}
}

func TestVoiceSaturatesToInt8Range(t *testing.T) {
	c := NewChannel(nil)
	c.Waveform.SetSquare(8000, 100, 127)
	c.Envelope.Configure(envelope.Definition{
		TimeScale:   1000,
		SustainTime: envelope.Infinite,
		PeakAmp:     255,
		SustainAmp:  255,
	})
	for i := 0; i < 200; i++ {
		v := c.Next()
		if v < -128 || v > 127 {
			t.Fatalf("tick %d: sample %d out of int8 range", i, v)
		}
	}
}
