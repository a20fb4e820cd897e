// Package wav is the WAV serializer of spec.md §4.I: it turns the raw
// 24000Hz mono float samples the pipeline decodes into a finished
// RIFF/WAVE byte slice at the audio query's requested sample rate, channel
// count, and volume.
//
// Container framing (the RIFF/fmt/data chunk layout) is delegated to
// github.com/up-zero/gotool/mediautil.Float32ToWavBytes, the same division
// of labor tts/melotts and tts/pipertts use in the teacher: this package
// does the numeric work the spec pins down (volume scaling, clipping,
// integer-multiple upsampling), mediautil does the container framing.
package wav

import (
	"fmt"

	"github.com/up-zero/gotool/mediautil"

	"github.com/voicevoxcore/voicevoxcore-go/model"
	"github.com/voicevoxcore/voicevoxcore-go/voicevoxerror"
)

// nativeSamplingRate is the acoustic stage's only supported rate
// (spec.md §1 Non-goals). Anything else must be an integer multiple of it.
const nativeSamplingRate = 24000

const bitsPerSample = 16

// Encode serializes samples (24000Hz, mono, in no particular range) into a
// WAV file honoring query's OutputSamplingRate, OutputStereo, and
// VolumeScale. OutputSamplingRate must be a positive integer multiple of
// 24000; anything else is the documented limitation of spec.md §4.I and
// §9, and is rejected rather than silently truncated or resampled.
func Encode(samples []float32, query model.AudioQuery) ([]byte, error) {
	factor, err := upsampleFactor(query.OutputSamplingRate)
	if err != nil {
		return nil, err
	}

	channels := 1
	if query.OutputStereo {
		channels = 2
	}

	volume := float32(query.VolumeScale)
	out := make([]float32, 0, len(samples)*factor*channels)
	for _, s := range samples {
		v := s * volume
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		for r := 0; r < factor; r++ {
			for c := 0; c < channels; c++ {
				out = append(out, v)
			}
		}
	}

	wavBytes, err := mediautil.Float32ToWavBytes(out, query.OutputSamplingRate, channels, bitsPerSample)
	if err != nil {
		return nil, fmt.Errorf("wav: encode: %w", err)
	}
	return wavBytes, nil
}

func upsampleFactor(outputSamplingRate int) (int, error) {
	if outputSamplingRate <= 0 {
		return 0, voicevoxerror.New(voicevoxerror.InvalidAudioQuery, "output_sampling_rate must be positive")
	}
	if outputSamplingRate%nativeSamplingRate != 0 {
		return 0, voicevoxerror.New(voicevoxerror.InvalidAudioQuery,
			fmt.Sprintf("output_sampling_rate %d is not an integer multiple of %d; fractional resampling is not supported", outputSamplingRate, nativeSamplingRate))
	}
	return outputSamplingRate / nativeSamplingRate, nil
}
