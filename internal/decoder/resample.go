package decoder

import "github.com/backline-audio/engine/internal/apperr"

// Resample linearly interpolates interleaved stereo PCM from originalRate to
// targetRate. When the rates match it returns input unchanged (no copy,
// confirmed by pointer identity in tests) — the 48kHz-passthrough boundary
// behavior in spec.md §8.
func Resample(input []float32, originalRate, targetRate int) ([]float32, error) {
	if originalRate <= 0 || targetRate <= 0 {
		return nil, apperr.Newf("invalid sample rate: original=%d target=%d", originalRate, targetRate).
			Component(apperr.ComponentDecoder).
			Category(apperr.CategoryValidation).
			Build()
	}
	if originalRate == targetRate {
		return input, nil
	}

	inFrames := len(input) / CanonicalChannels
	if inFrames == 0 {
		return input, nil
	}

	ratio := float64(targetRate) / float64(originalRate)
	outFrames := int(float64(inFrames) * ratio)
	if outFrames < 1 {
		outFrames = 1
	}
	out := make([]float32, outFrames*CanonicalChannels)

	step := float64(originalRate) / float64(targetRate)
	for i := 0; i < outFrames; i++ {
		srcPos := float64(i) * step
		idx := int(srcPos)
		frac := float32(srcPos - float64(idx))

		for ch := 0; ch < CanonicalChannels; ch++ {
			a := sampleAt(input, idx, ch, inFrames)
			b := sampleAt(input, idx+1, ch, inFrames)
			out[i*CanonicalChannels+ch] = a + (b-a)*frac
		}
	}
	return out, nil
}

func sampleAt(input []float32, frame, channel, totalFrames int) float32 {
	if frame >= totalFrames {
		frame = totalFrames - 1
	}
	return input[frame*CanonicalChannels+channel]
}
