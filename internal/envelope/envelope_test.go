package envelope

import "testing"

func TestSilentIdleWithZeroTimeScale(t *testing.T) {
	// S2
	e := NewState(nil)
	e.Configure(Definition{TimeScale: 0})
	for i := 0; i < 1000; i++ {
		if a := e.Next(); a != 0 {
			t.Fatalf("tick %d: expected amplitude 0, got %d", i, a)
		}
		if !e.IsIdle() {
			t.Fatalf("tick %d: expected envelope to remain idle", i)
		}
	}
}

func TestInfiniteSustainWaitsForContinue(t *testing.T) {
	// S3
	e := NewState(nil)
	e.Configure(Definition{
		TimeScale:   100,
		AttackTime:  1,
		DecayTime:   1,
		SustainTime: Infinite,
		ReleaseTime: 1,
		PeakAmp:     200,
		SustainAmp:  100,
	})

	for !e.IsWaiting() && !e.IsDone() {
		e.Next()
	}
	if !e.IsWaiting() {
		t.Fatalf("expected envelope to reach the infinite sustain wait state")
	}

	for i := 0; i < 10000; i++ {
		if a := e.Next(); a != 100 {
			t.Fatalf("tick %d: expected sustained amplitude 100, got %d", i, a)
		}
	}

	e.Continue()
	releaseTicks := 16*int((1*100)>>4) + 32
	reachedHalf := false
	for i := 0; i < releaseTicks; i++ {
		if e.Next() <= 50 {
			reachedHalf = true
			break
		}
	}
	if !reachedHalf {
		t.Fatalf("expected release to fall to <=50 within %d ticks", releaseTicks)
	}
}

func TestMonotoneProgressionAndStaysDone(t *testing.T) {
	e := NewState(nil)
	e.Configure(Definition{
		TimeScale:  10,
		DelayTime:  1,
		AttackTime: 1,
		DecayTime:  1,
		SustainTime: 1,
		ReleaseTime: 1,
		PeakAmp:    200,
		SustainAmp: 100,
	})

	var last State
	for i := 0; i < 5000 && !e.IsDone(); i++ {
		e.Next()
		if e.State() < last {
			t.Fatalf("tick %d: state regressed from %#x to %#x", i, last, e.State())
		}
		last = e.State()
	}
	if !e.IsDone() {
		t.Fatalf("expected envelope to reach Done")
	}
	for i := 0; i < 100; i++ {
		if a := e.Next(); a != 0 {
			t.Fatalf("tick %d: expected Done envelope to stay silent, got %d", i, a)
		}
		if !e.IsDone() {
			t.Fatalf("tick %d: expected envelope to remain Done", i)
		}
	}
}

func TestPeakReachedAndDecayWithinBounds(t *testing.T) {
	e := NewState(nil)
	e.Configure(Definition{
		TimeScale:  50,
		AttackTime: 8,
		DecayTime:  8,
		SustainTime: 8,
		ReleaseTime: 8,
		PeakAmp:    250,
		SustainAmp: 100,
	})

	peakSeen := false
	for i := 0; i < 20000 && !e.IsDone(); i++ {
		a := e.Next()
		if a == 250 {
			peakSeen = true
		}
		if e.State() == StateDecay && (a < 100 || a > 250) {
			t.Fatalf("tick %d: decay amplitude %d outside [sustain, peak]", i, a)
		}
	}
	if !peakSeen {
		t.Fatalf("expected envelope to reach peak_amp at some point")
	}
}
