package preset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinysynth/internal/waveform"
)

const sampleBank = `
sample_rate: 8000
envelopes:
  pluck:
    time_scale: 10
    attack_time: 4
    decay_time: 4
    sustain_time: 4
    release_time: 4
    peak_amp: 63
    sustain_amp: 40
waveforms:
  lead:
    mode: square
    amplitude: 100
    frequency: 440
instruments:
  bell:
    envelope: pluck
    waveform: lead
`

func TestLoadAndResolve(t *testing.T) {
	bank, err := Load(strings.NewReader(sampleBank))
	require.NoError(t, err)

	env, wf, err := bank.Resolve("bell")
	require.NoError(t, err)
	assert.EqualValues(t, 10, env.TimeScale)
	assert.Equal(t, waveform.ModeSquare, wf.Mode)
	assert.EqualValues(t, 100, wf.Amplitude)
	assert.NotZero(t, wf.Period)
}

func TestResolveUnknownInstrumentErrors(t *testing.T) {
	bank, err := Load(strings.NewReader(sampleBank))
	require.NoError(t, err)

	_, _, err = bank.Resolve("missing")
	require.Error(t, err)
}
