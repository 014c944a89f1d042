package decoder

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/backline-audio/engine/internal/apperr"
)

// decodeMP3 decodes path via go-mp3, an out-of-pack pure-Go MP3 decoder (no
// pack repo carries MP3 support — see the go-mp3 row of SPEC_FULL.md §11). go-mp3 always emits 16-bit little-endian stereo PCM regardless of
// the source's original channel count.
func decodeMP3(path string) (*rawPCM, error) {
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

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, apperr.New(err).
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindCorruptStream).
			FileContext(path, 0).
			Build()
	}

	const chunk = 4096 * 4 // bytes; multiple of 4 (2 channels * 2 bytes)
	buf := make([]byte, chunk)
	samples := make([]float32, 0, chunk)

	for {
		n, err := dec.Read(buf)
		if n > 0 {
			for i := 0; i+1 < n; i += 2 {
				v := int16(binary.LittleEndian.Uint16(buf[i : i+2]))
				samples = append(samples, float32(v)/32768.0)
			}
		}
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
		if n == 0 {
			break
		}
	}

	return &rawPCM{samples: samples, channels: CanonicalChannels, sampleRate: dec.SampleRate()}, nil
}
