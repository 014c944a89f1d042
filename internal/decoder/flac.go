package decoder

import (
	"errors"
	"io"
	"os"

	"github.com/tphakala/flac"

	"github.com/backline-audio/engine/internal/apperr"
)

// decodeFLAC decodes path frame-by-frame via tphakala/flac (a fork of the
// standard mewkiz/flac streaming decoder API: flac.New + Stream.ParseNext).
func decodeFLAC(path string) (*rawPCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.New(err).
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindFileNotFound).
			FileContext(path, 0).
			Build()
	}
	defer f.Close()

	stream, err := flac.New(f)
	if err != nil {
		return nil, apperr.New(err).
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindCorruptStream).
			FileContext(path, 0).
			Build()
	}

	channels := int(stream.Info.NChannels)
	bitsPerSample := stream.Info.BitsPerSample
	divisor := float32(int64(1) << (bitsPerSample - 1))

	samples := make([]float32, 0, stream.Info.NSamples*uint64(channels))
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.New(err).
				Component(apperr.ComponentDecoder).
				Category(apperr.CategoryDecode).
				Kind(apperr.KindCorruptStream).
				FileContext(path, 0).
				Build()
		}
		n := int(frame.BlockSize)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, float32(frame.Subframes[ch].Samples[i])/divisor)
			}
		}
	}

	return &rawPCM{samples: samples, channels: channels, sampleRate: int(stream.Info.SampleRate)}, nil
}
