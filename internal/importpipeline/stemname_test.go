package importpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizeStemNameMatchesKnownKeywords(t *testing.T) {
	cases := map[string]string{
		"01_Lead_Vocals.wav":  "Vocals",
		"drums_overhead.flac": "Drums",
		"BASS_DI.wav":         "Bass",
		"keys_L.mp3":          "Keys",
		"guitar_clean.wav":    "Guitar",
		"click_track.wav":     "Click",
		"horns_section.wav":   "Horns",
	}
	for filename, want := range cases {
		assert.Equal(t, want, synthesizeStemName(filename), filename)
	}
}

func TestSynthesizeStemNameFallsBackToFilename(t *testing.T) {
	assert.Equal(t, "Crowd Noise", synthesizeStemName("crowd_noise.wav"))
}
