package audiosink

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WavSink renders a fixed number of samples to a RIFF/WAVE file as
// mono 8-bit unsigned PCM (WAV's canonical representation for 8-bit
// audio), converting the synth's signed domain by adding 128 per
// sample, the same offset the original firmware's PWM duty-cycle
// output stage applies on real hardware.
type WavSink struct {
	w          io.WriteSeeker
	closer     io.Closer
	sampleRate uint32
}

// NewWavFileSink creates (or truncates) a WAV file at path.
func NewWavFileSink(path string, sampleRate uint32) (*WavSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audiosink: creating %s: %w", path, err)
	}
	return &WavSink{w: f, closer: f, sampleRate: sampleRate}, nil
}

// NewWavSink wraps an already-open io.WriteSeeker (e.g. an in-memory
// buffer backed by a bytes.Reader-compatible type) as a WAV sink.
func NewWavSink(w io.WriteSeeker, sampleRate uint32) *WavSink {
	return &WavSink{w: w, sampleRate: sampleRate}
}

// Play pulls n samples from src, converts them to unsigned 8-bit, and
// writes a complete RIFF/WAVE file (header sized for exactly n
// samples) to the underlying writer.
func (s *WavSink) Play(src Source, n int) error {
	const (
		bitsPerSample = 8
		channels      = 1
	)
	dataSize := uint32(n)
	byteRate := s.sampleRate * channels * bitsPerSample / 8

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], s.sampleRate)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], channels*bitsPerSample/8)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := s.w.Write(header); err != nil {
		return fmt.Errorf("audiosink: writing WAV header: %w", err)
	}

	buf := make([]byte, 4096)
	written := 0
	for written < n {
		chunk := len(buf)
		if n-written < chunk {
			chunk = n - written
		}
		for i := 0; i < chunk; i++ {
			buf[i] = int8ToUnsigned(src.Next())
		}
		if _, err := s.w.Write(buf[:chunk]); err != nil {
			return fmt.Errorf("audiosink: writing samples: %w", err)
		}
		written += chunk
	}
	return nil
}

// Close releases the underlying writer, if this sink opened it.
func (s *WavSink) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func int8ToUnsigned(s int8) byte {
	return byte(int16(s) + 128)
}
