package sequencer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"tinysynth/internal/envelope"
	"tinysynth/internal/waveform"
)

// envelopeDefSize and waveformDefSize are the packed wire sizes of the
// two halves of a SequencerFrame (§6.1): 11 bytes of EnvelopeDefinition
// followed by 4 bytes of WaveformDefinition.
const (
	envelopeDefSize = 11
	waveformDefSize = 4
	frameSize       = envelopeDefSize + waveformDefSize
	headerSize      = 5
)

// Encode serializes a FrameStream to its on-wire layout: a 5-byte
// header (synth_frequency, voices, frames) followed by frame_count
// packed SequencerFrame records, all little-endian.
func (fs *FrameStream) Encode(w io.Writer) error {
	var buf bytes.Buffer
	buf.Grow(headerSize + len(fs.Frames)*frameSize)

	var header [headerSize]byte
	binary.LittleEndian.PutUint16(header[0:2], fs.Header.SynthFrequency)
	header[2] = fs.Header.Voices
	binary.LittleEndian.PutUint16(header[3:5], fs.Header.FrameCount)
	buf.Write(header[:])

	for _, f := range fs.Frames {
		var rec [frameSize]byte
		encodeEnvelope(rec[0:envelopeDefSize], f.Envelope)
		encodeWaveform(rec[envelopeDefSize:frameSize], f.Waveform)
		buf.Write(rec[:])
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// Decode reads a FrameStream from its on-wire layout. It does not
// validate the header against a live player's capacity or sample
// rate; use LoadHeader for that.
func Decode(r io.Reader) (*FrameStream, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("sequencer: reading header: %w", err)
	}

	h := StreamHeader{
		SynthFrequency: binary.LittleEndian.Uint16(header[0:2]),
		Voices:         header[2],
		FrameCount:     binary.LittleEndian.Uint16(header[3:5]),
	}

	frames := make([]Frame, h.FrameCount)
	var rec [frameSize]byte
	for i := range frames {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, fmt.Errorf("sequencer: reading frame %d: %w", i, err)
		}
		frames[i].Envelope = decodeEnvelope(rec[0:envelopeDefSize])
		frames[i].Waveform = decodeWaveform(rec[envelopeDefSize:frameSize])
	}

	return &FrameStream{Header: h, Frames: frames}, nil
}

func encodeEnvelope(b []byte, def envelope.Definition) {
	binary.LittleEndian.PutUint32(b[0:4], def.TimeScale)
	b[4] = def.DelayTime
	b[5] = def.AttackTime
	b[6] = def.DecayTime
	b[7] = def.SustainTime
	b[8] = def.ReleaseTime
	b[9] = def.PeakAmp
	b[10] = def.SustainAmp
}

func decodeEnvelope(b []byte) envelope.Definition {
	return envelope.Definition{
		TimeScale:   binary.LittleEndian.Uint32(b[0:4]),
		DelayTime:   b[4],
		AttackTime:  b[5],
		DecayTime:   b[6],
		SustainTime: b[7],
		ReleaseTime: b[8],
		PeakAmp:     b[9],
		SustainAmp:  b[10],
	}
}

func encodeWaveform(b []byte, def waveform.Definition) {
	b[0] = byte(def.Mode)
	b[1] = byte(def.Amplitude)
	binary.LittleEndian.PutUint16(b[2:4], def.Period)
}

func decodeWaveform(b []byte) waveform.Definition {
	return waveform.Definition{
		Mode:      waveform.Mode(b[0]),
		Amplitude: int8(b[1]),
		Period:    binary.LittleEndian.Uint16(b[2:4]),
	}
}
