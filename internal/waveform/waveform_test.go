package waveform

import "testing"

func TestSquareHalfPeriodAlternatesSign(t *testing.T) {
	// S1: square 1kHz @ 32kHz -> half period of 16 samples.
	const sampleRate, freq = 32000, 1000
	s := NewState(nil)
	s.SetSquare(sampleRate, freq, 127)

	period := FreqToHalfPeriod(sampleRate, freq)
	if period>>periodFPScale != 16 {
		t.Fatalf("expected half-period of 16 samples, got %d", period>>periodFPScale)
	}

	sign := 1
	runLen := 0
	for i := 0; i < 32; i++ {
		v := s.Next()
		gotSign := 1
		if v < 0 {
			gotSign = -1
		} else if v == 0 {
			gotSign = sign
		}
		if gotSign != sign {
			if runLen < 15 || runLen > 17 {
				t.Fatalf("sample %d: sign run length %d outside 16±1", i, runLen)
			}
			sign = gotSign
			runLen = 0
		}
		runLen++
	}
}

func TestAmplitudeBoundAllModes(t *testing.T) {
	const sampleRate = 16000
	cases := []func(*State){
		func(s *State) { s.SetDC(100) },
		func(s *State) { s.SetSquare(sampleRate, 440, 100) },
		func(s *State) { s.SetSawtooth(sampleRate, 440, 100) },
		func(s *State) { s.SetTriangle(sampleRate, 440, 100) },
		func(s *State) { s.SetNoise(100) },
	}
	for i, configure := range cases {
		s := NewState(nil)
		configure(s)
		for t2 := 0; t2 < 200; t2++ {
			v := s.Next()
			if v > 100 || v < -100 {
				t.Fatalf("case %d: sample %d out of bound amplitude 100: got %d", i, t2, v)
			}
		}
	}
}

func TestDCModeIsUnscaled(t *testing.T) {
	s := NewState(nil)
	s.SetDC(42)
	for i := 0; i < 5; i++ {
		if v := s.Next(); v != 42 {
			t.Fatalf("expected constant 42, got %d", v)
		}
	}
}

func TestSawtoothReloadsAtPeriodExpiry(t *testing.T) {
	const sampleRate, freq = 8000, 500
	s := NewState(nil)
	s.SetSawtooth(sampleRate, freq, 100)

	period := FreqToPeriod(sampleRate, freq)
	ticks := int(period>>periodFPScale) + 1

	var last int8
	for i := 0; i < ticks; i++ {
		last = s.Next()
	}
	if last != -100 {
		t.Fatalf("expected sawtooth to reload to -amplitude after one period, got %d", last)
	}
}
