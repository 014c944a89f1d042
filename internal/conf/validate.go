package conf

import "fmt"

// ValidateSettings checks the ranges spec.md §3/§6.1 place on persisted
// audio settings and a handful of ambient knobs, returning the first
// violation found.
func ValidateSettings(s *Settings) error {
	if s.Audio.SampleRateHz != 0 && (s.Audio.SampleRateHz < 8000 || s.Audio.SampleRateHz > 192000) {
		return fmt.Errorf("audio.sampleratehz %d out of range [8000,192000]", s.Audio.SampleRateHz)
	}
	if s.Audio.BufferSizeFrames != 0 && (s.Audio.BufferSizeFrames < 32 || s.Audio.BufferSizeFrames > 8192) {
		return fmt.Errorf("audio.buffersizeframes %d out of range [32,8192]", s.Audio.BufferSizeFrames)
	}
	if s.Audio.CacheByteBudget < 0 {
		return fmt.Errorf("audio.cachebytebudget must not be negative")
	}
	if s.Workers.DecodePoolSize < 0 {
		return fmt.Errorf("workers.decodepoolsize must not be negative")
	}
	switch s.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", s.Log.Level)
	}
	switch s.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", s.Log.Format)
	}
	return nil
}
