package audiosink

// HeadlessSink discards every sample it pulls. It exists for tests and
// CLI dry runs that need to drive a synth for its side effects (e.g.
// exercising a sequencer Player) without opening a real output device.
type HeadlessSink struct {
	// Samples optionally accumulates every pulled sample, for tests
	// that want to assert on the rendered PCM without a WAV round
	// trip.
	Samples []int8
	record  bool
}

// NewHeadlessSink returns a sink that discards samples.
func NewHeadlessSink() *HeadlessSink {
	return &HeadlessSink{}
}

// NewRecordingHeadlessSink returns a sink that discards samples but
// also appends them to Samples, for assertions in tests.
func NewRecordingHeadlessSink() *HeadlessSink {
	return &HeadlessSink{record: true}
}

func (s *HeadlessSink) Play(src Source, n int) error {
	if !s.record {
		for i := 0; i < n; i++ {
			src.Next()
		}
		return nil
	}
	for i := 0; i < n; i++ {
		s.Samples = append(s.Samples, src.Next())
	}
	return nil
}

func (s *HeadlessSink) Close() error { return nil }
