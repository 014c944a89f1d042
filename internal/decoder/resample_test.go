package decoder

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResampleSameRatePassthrough(t *testing.T) {
	input := make([]float32, 2000)
	out, err := Resample(input, 48000, 48000)
	require.NoError(t, err)

	require.Equal(t, len(input), len(out))
	assert.Equal(t, unsafe.SliceData(input), unsafe.SliceData(out), "same-rate resample must not allocate")
}

func TestResampleScalesLength(t *testing.T) {
	frames := 44100
	input := make([]float32, frames*CanonicalChannels)
	out, err := Resample(input, 44100, 48000)
	require.NoError(t, err)

	assert.InDelta(t, 48000*CanonicalChannels, len(out), float64(CanonicalChannels*2))
}

func TestResampleRejectsInvalidRates(t *testing.T) {
	_, err := Resample(nil, 0, 48000)
	assert.Error(t, err)
}

func TestToStereoDuplicatesMono(t *testing.T) {
	raw := &rawPCM{samples: []float32{0.5, -0.5, 1.0}, channels: 1, sampleRate: 48000}
	out := toStereo(raw)

	assert.Equal(t, []float32{0.5, 0.5, -0.5, -0.5, 1.0, 1.0}, out.samples)
}

func TestToStereoAveragesMultichannel(t *testing.T) {
	raw := &rawPCM{samples: []float32{1, 0, -1}, channels: 3, sampleRate: 48000}
	out := toStereo(raw)

	assert.InDelta(t, 0.0, out.samples[0], 1e-6)
	assert.InDelta(t, 0.0, out.samples[1], 1e-6)
}
