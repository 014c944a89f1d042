package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	s := &Settings{}
	s.Audio.SampleRateHz = DefaultCanonicalSampleRate
	s.Audio.BufferSizeFrames = DefaultBufferSizeFrames
	s.Log.Level = "info"
	s.Log.Format = "json"
	assert.NoError(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsBadSampleRate(t *testing.T) {
	s := &Settings{}
	s.Audio.SampleRateHz = 4000
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsBadBufferSize(t *testing.T) {
	s := &Settings{}
	s.Audio.BufferSizeFrames = 16
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsNegativeCacheBudget(t *testing.T) {
	s := &Settings{}
	s.Audio.CacheByteBudget = -1
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsBadLogLevel(t *testing.T) {
	s := &Settings{}
	s.Log.Level = "verbose"
	assert.Error(t, ValidateSettings(s))
}

func TestStructToMapRoundTrips(t *testing.T) {
	s := &Settings{}
	s.Audio.Theme = "dark"
	s.Store.Path = "test.db"

	m, err := structToMap(s)
	assert.NoError(t, err)
	audio, ok := m["audio"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "dark", audio["theme"])
}
