package mml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinysynth/internal/waveform"
)

// TestParseCanonicalScale is S4: `cdefg` with defaults emits five
// frames on channel A at C4..G4.
func TestParseCanonicalScale(t *testing.T) {
	c := New(32000, nil)
	m, err := c.Compile("cdefg")
	require.NoError(t, err)
	require.Len(t, m, 1)
	require.Len(t, m[0], 5)

	want := []int{262, 294, 330, 349, 392}
	for i, f := range m[0] {
		got := freqFromPeriod(32000, f.Waveform)
		assert.InDeltaf(t, want[i], got, 1.5, "note %d frequency", i)
	}
}

// freqFromPeriod inverts the period back to a frequency so tests can
// assert on Hz without duplicating internal fixed-point rounding.
func freqFromPeriod(sampleRate uint16, wf waveform.Definition) int {
	if wf.Period == 0 {
		return 0
	}
	period := float64(wf.Period) / 16.0
	if wf.Mode == waveform.ModeSquare || wf.Mode == waveform.ModeTriangle {
		period *= 2
	}
	return int(float64(sampleRate) / period)
}

func TestRestProducesSilentDCFrame(t *testing.T) {
	c := New(32000, nil)
	m, err := c.Compile("r4")
	require.NoError(t, err)
	require.Len(t, m[0], 1)
	assert.Equal(t, waveform.ModeDC, m[0][0].Waveform.Mode)
	assert.EqualValues(t, 0, m[0][0].Waveform.Amplitude)
}

func TestNoteCodeZeroIsRest(t *testing.T) {
	c := New(32000, nil)
	m, err := c.Compile("n0")
	require.NoError(t, err)
	require.Len(t, m[0], 1)
	assert.Equal(t, waveform.ModeDC, m[0][0].Waveform.Mode)
}

func TestMultiChannelSelectors(t *testing.T) {
	c := New(32000, nil)
	m, err := c.Compile("AB c4\nA c4\nB c4")
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Len(t, m[0], 2)
	assert.Len(t, m[1], 2)
}

func TestOctaveOutOfRangeIsError(t *testing.T) {
	c := New(32000, nil)
	_, err := c.Compile("o7")
	require.Error(t, err)
	var diag Diagnostic
	require.ErrorAs(t, err, &diag)
	assert.Equal(t, "Invalid octave", diag.Message)
}

func TestOctaveStepDownBelowZeroIsError(t *testing.T) {
	c := New(32000, nil)
	_, err := c.Compile("o0<")
	require.Error(t, err)
}

func TestSharpOnEOrBIsError(t *testing.T) {
	c := New(32000, nil)
	_, err := c.Compile("e+")
	require.Error(t, err)

	_, err = c.Compile("f-") // flat on f decrements to e, which cannot be sharped
	require.Error(t, err)
}

func TestUnknownCommandIsError(t *testing.T) {
	c := New(32000, nil)
	_, err := c.Compile("z")
	require.Error(t, err)
}

func TestWaveformAndArticulationCommands(t *testing.T) {
	c := New(32000, nil)
	m, err := c.Compile("wt msc4")
	require.NoError(t, err)
	require.Len(t, m[0], 1)
	assert.Equal(t, waveform.ModeTriangle, m[0][0].Waveform.Mode)
	// Staccato shortens release_time's complement of articulation;
	// just check the frame compiled with a non-zero release_time.
	assert.Greater(t, m[0][0].Envelope.ReleaseTime, uint8(0))
}

func TestErrorHandlerCalledOnFailure(t *testing.T) {
	c := New(32000, nil)
	var gotMsg string
	var gotLine, gotCol int
	c.OnError = func(message string, line, column int) {
		gotMsg, gotLine, gotCol = message, line, column
	}
	_, err := c.Compile("z")
	require.Error(t, err)
	assert.Equal(t, "Unknown command", gotMsg)
	assert.Equal(t, 1, gotLine)
	assert.Equal(t, 1, gotCol)
}
