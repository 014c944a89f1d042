package decoder

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/backline-audio/engine/internal/apperr"
)

func decodeWAV(path string) (*rawPCM, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperr.New(err).
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindFileNotFound).
			FileContext(path, 0).
			Build()
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, apperr.Newf("not a valid WAV file").
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindCorruptStream).
			FileContext(path, 0).
			Build()
	}

	channels := int(dec.NumChans)
	var divisor float32
	switch dec.BitDepth {
	case 8:
		divisor = 128.0
	case 16:
		divisor = 32768.0
	case 24:
		divisor = 8388608.0
	case 32:
		divisor = 2147483648.0
	default:
		return nil, apperr.Newf("unsupported WAV bit depth %d", dec.BitDepth).
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindUnsupportedFormat).
			FileContext(path, 0).
			Build()
	}

	const chunkFrames = 4096
	buf := &audio.IntBuffer{
		Data:   make([]int, chunkFrames*channels),
		Format: &audio.Format{SampleRate: int(dec.SampleRate), NumChannels: channels},
	}

	samples := make([]float32, 0, chunkFrames*channels)
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return nil, apperr.New(err).
				Component(apperr.ComponentDecoder).
				Category(apperr.CategoryDecode).
				Kind(apperr.KindCorruptStream).
				FileContext(path, 0).
				Build()
		}
		if n == 0 {
			break
		}
		for _, s := range buf.Data[:n] {
			samples = append(samples, float32(s)/divisor)
		}
	}

	return &rawPCM{samples: samples, channels: channels, sampleRate: int(dec.SampleRate)}, nil
}
