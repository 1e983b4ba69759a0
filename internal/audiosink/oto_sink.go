//go:build !headless

// Package audiosink's live playback backend, adapted from the
// IntuitionEngine's OtoPlayer: an io.Reader-driven oto.Player pulling
// straight from a Source, kept in the 8-bit unsigned domain that is
// this synth's native output rather than the float32 samples
// OtoPlayer itself streams, so no floating point ever appears in the
// runtime path (spec's Non-goals keep float DSP compiler-side only).
package audiosink

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays samples through the host's default audio device in
// real time.
type OtoSink struct {
	ctx        *oto.Context
	player     *oto.Player
	sampleRate int

	mu      sync.Mutex
	started bool
}

// otoReader bridges a pull-based Source into an io.Reader, the shape
// oto.Context.NewPlayer expects.
type otoReader struct {
	src Source
}

func (r *otoReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = int8ToUnsigned(r.src.Next())
	}
	return len(p), nil
}

// NewOtoSink opens the default audio output device at sampleRate,
// mono, 8-bit unsigned PCM.
func NewOtoSink(sampleRate int) (*OtoSink, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatUnsignedInt8,
	}

	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("audiosink: opening oto context: %w", err)
	}
	<-ready

	return &OtoSink{ctx: ctx, sampleRate: sampleRate}, nil
}

// Play streams n samples pulled from src to the output device,
// blocking for roughly n/sampleRate seconds. oto's Reader contract has
// no natural end-of-stream, so the bound is enforced by a countingSource
// wrapper (which pads with silence once exhausted) plus a deadline
// sleep rather than a read count.
func (s *OtoSink) Play(src Source, n int) error {
	s.mu.Lock()
	s.player = s.ctx.NewPlayer(&otoReader{src: &countingSource{src: src, remaining: n}})
	s.player.Play()
	s.started = true
	s.mu.Unlock()

	time.Sleep(time.Duration(n) * time.Second / time.Duration(s.sampleRate))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Pause()
	}
	return nil
}

// countingSource wraps a Source so Play's deadline sleep has
// well-defined silence to play once n samples have been pulled,
// instead of racing the underlying producer past its last frame.
type countingSource struct {
	src       Source
	remaining int
}

func (c *countingSource) Next() int8 {
	if c.remaining <= 0 {
		return 0
	}
	c.remaining--
	return c.src.Next()
}

// Close stops playback and releases the output device.
func (s *OtoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		if err := s.player.Close(); err != nil {
			return err
		}
		s.player = nil
	}
	return nil
}
