// Package decoder turns WAV, FLAC and MP3 source files into canonical-rate,
// interleaved stereo float32 PCM (spec.md §4.A).
package decoder

import (
	"path/filepath"
	"strings"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/logging"
)

// CanonicalChannels is the channel count every decoded stem is normalized to.
const CanonicalChannels = 2

// DecodedStem is fully materialized, canonical-rate interleaved stereo PCM.
// len(Samples) == 2*Frames always (invariant 1, spec.md §8).
type DecodedStem struct {
	Samples    []float32
	Frames     int
	SampleRate int // always the canonical rate passed to Decode
}

func (d *DecodedStem) DurationSeconds() float64 {
	if d.SampleRate == 0 {
		return 0
	}
	return float64(d.Frames) / float64(d.SampleRate)
}

var log = logging.ForService("decoder")

// Decode sniffs path's container format from its extension, decodes it to
// native-rate PCM, duplicates mono to stereo or downmixes >2 channels by
// averaging, then resamples to canonicalRate. It never streams: the whole
// file is materialized in memory (spec.md §13, Open Question decision).
func Decode(path string, canonicalRate int) (*DecodedStem, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var raw *rawPCM
	var err error
	switch ext {
	case ".wav":
		raw, err = decodeWAV(path)
	case ".flac":
		raw, err = decodeFLAC(path)
	case ".mp3":
		raw, err = decodeMP3(path)
	default:
		return nil, apperr.Newf("unsupported source format %q", ext).
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindUnsupportedFormat).
			FileContext(path, 0).
			Build()
	}
	if err != nil {
		return nil, err
	}

	stereo := toStereo(raw)

	resampled, err := Resample(stereo.samples, stereo.sampleRate, canonicalRate)
	if err != nil {
		return nil, apperr.New(err).
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindCorruptStream).
			FileContext(path, 0).
			Build()
	}

	frames := len(resampled) / CanonicalChannels
	if frames == 0 {
		return nil, apperr.Newf("decoded zero frames from %s", path).
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindCorruptStream).
			FileContext(path, 0).
			Build()
	}

	log.Debug("decoded stem", "path", path, "frames", frames, "rate", canonicalRate)

	return &DecodedStem{
		Samples:    resampled,
		Frames:     frames,
		SampleRate: canonicalRate,
	}, nil
}

// NativeFormat reports a source file's sample rate, channel count and
// duration before any stereo normalization or resampling — used by the
// Import Pipeline (spec.md §4.H) to populate Stem metadata without
// materializing the canonical-rate PCM a full Decode would produce.
type NativeFormat struct {
	SampleRate  int
	Channels    int
	DurationSec float64
}

// ProbeNative decodes all of path's native-format PCM and reports its
// format from the result; it shares the per-container decode functions with Decode, so
// an unsupported extension or corrupt file fails the same way import-time
// as load-time would.
func ProbeNative(path string) (NativeFormat, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var raw *rawPCM
	var err error
	switch ext {
	case ".wav":
		raw, err = decodeWAV(path)
	case ".flac":
		raw, err = decodeFLAC(path)
	case ".mp3":
		raw, err = decodeMP3(path)
	default:
		return NativeFormat{}, apperr.Newf("unsupported source format %q", ext).
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindUnsupportedFormat).
			FileContext(path, 0).
			Build()
	}
	if err != nil {
		return NativeFormat{}, err
	}

	frames := len(raw.samples) / raw.channels
	var duration float64
	if raw.sampleRate != 0 {
		duration = float64(frames) / float64(raw.sampleRate)
	}
	return NativeFormat{SampleRate: raw.sampleRate, Channels: raw.channels, DurationSec: duration}, nil
}

// rawPCM is native-rate, native-channel interleaved PCM before stereo
// normalization and resampling.
type rawPCM struct {
	samples    []float32
	channels   int
	sampleRate int
}

// toStereo duplicates mono L=R and averages >2 channels down to stereo
// (spec.md §8 boundary behaviors and §4.A edge cases).
func toStereo(raw *rawPCM) *rawPCM {
	if raw.channels == CanonicalChannels {
		return raw
	}
	frames := len(raw.samples) / raw.channels
	out := make([]float32, frames*CanonicalChannels)

	switch {
	case raw.channels == 1:
		for i := 0; i < frames; i++ {
			out[2*i] = raw.samples[i]
			out[2*i+1] = raw.samples[i]
		}
	default:
		for i := 0; i < frames; i++ {
			frame := raw.samples[i*raw.channels : (i+1)*raw.channels]
			var sum float32
			for _, s := range frame {
				sum += s
			}
			avg := sum / float32(raw.channels)
			out[2*i] = avg
			out[2*i+1] = avg
		}
	}
	return &rawPCM{samples: out, channels: CanonicalChannels, sampleRate: raw.sampleRate}
}
