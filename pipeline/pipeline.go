// Package pipeline is the driver that composes the linguistic front-end
// (kana and label packages) with the inference orchestrator to realize the
// high-level operations of spec.md §4.G: create-accent-phrases,
// replace-mora-data, synthesize, and the text-to-wav shortcut.
//
// Every operation here is pure with respect to its caller's inputs: it
// returns new accent-phrase structures rather than mutating the ones it
// was given, the same contract spec.md §3 Lifecycle describes.
package pipeline

import (
	"context"
	"fmt"

	"github.com/voicevoxcore/voicevoxcore-go/internal/infer"
	"github.com/voicevoxcore/voicevoxcore-go/kana"
	"github.com/voicevoxcore/voicevoxcore-go/label"
	"github.com/voicevoxcore/voicevoxcore-go/model"
	"github.com/voicevoxcore/voicevoxcore-go/phoneme"
	"github.com/voicevoxcore/voicevoxcore-go/wav"
)

// Pipeline holds the two collaborators every composed operation needs: the
// Japanese analyzer (spec.md §6.2) and the inference orchestrator
// (spec.md §4.F). Both are interfaces so the driver can be tested without
// OpenJTalk or an ONNX runtime in the loop.
type Pipeline struct {
	Analyzer  label.Analyzer
	Predictor infer.Predictor
}

// New builds a driver from its two collaborators.
func New(analyzer label.Analyzer, predictor infer.Predictor) *Pipeline {
	return &Pipeline{Analyzer: analyzer, Predictor: predictor}
}

// CreateAccentPhrases runs the full-context label builder over the
// analyzer's output for text, then fills in durations and pitches
// (spec.md §4.G: "label builder over analyzer output, then replace_mora_data").
func (p *Pipeline) CreateAccentPhrases(ctx context.Context, text string, style model.StyleID) ([]model.AccentPhrase, error) {
	phrases, err := label.ExtractAndBuild(p.Analyzer, text)
	if err != nil {
		return nil, err
	}
	return p.ReplaceMoraData(ctx, phrases, style)
}

// AccentPhrasesFromKana parses the AquesTalk-style shorthand (spec.md §6.3)
// instead of invoking the analyzer, then fills in durations and pitches the
// same way CreateAccentPhrases does.
func (p *Pipeline) AccentPhrasesFromKana(ctx context.Context, text string, style model.StyleID) ([]model.AccentPhrase, error) {
	phrases, err := kana.ParseKana(text)
	if err != nil {
		return nil, err
	}
	return p.ReplaceMoraData(ctx, phrases, style)
}

// ReplaceMoraData is ReplaceMoraPitch ∘ ReplacePhonemeLength.
func (p *Pipeline) ReplaceMoraData(ctx context.Context, phrases []model.AccentPhrase, style model.StyleID) ([]model.AccentPhrase, error) {
	withLengths, err := p.ReplacePhonemeLength(ctx, phrases, style)
	if err != nil {
		return nil, err
	}
	return p.ReplaceMoraPitch(ctx, withLengths, style)
}

// ReplacePhonemeLength runs yukarin_s over the flattened phoneme sequence
// and writes each mora's vowel_length/consonant_length from the result
// (spec.md §4.G step replace_phoneme_length).
func (p *Pipeline) ReplacePhonemeLength(ctx context.Context, phrases []model.AccentPhrase, style model.StyleID) ([]model.AccentPhrase, error) {
	out := cloneAccentPhrases(phrases)
	if err := validate(out); err != nil {
		return nil, err
	}
	flat := flattenMoras(out)

	symbols := buildSymbols(flat)
	ids, err := toPhonemeIDs(symbols)
	if err != nil {
		return nil, err
	}

	durations, err := p.Predictor.PredictDurations(ctx, ids, style)
	if err != nil {
		return nil, err
	}

	vowelIdx, _, _ := splitMora(ids, symbols)
	for i, m := range flat {
		vowelPos := vowelIdx[i+1]
		if m.Consonant != nil {
			cl := float64(durations[vowelPos-1])
			m.ConsonantLength = &cl
		}
		m.VowelLength = float64(durations[vowelPos])
	}
	return out, nil
}

// ReplaceMoraPitch runs yukarin_sa over the six per-mora boundary vectors
// and writes each voiced mora's pitch from the result, zeroing the pitch of
// every unvoiced-or-pause mora (spec.md §4.G step replace_mora_pitch).
func (p *Pipeline) ReplaceMoraPitch(ctx context.Context, phrases []model.AccentPhrase, style model.StyleID) ([]model.AccentPhrase, error) {
	out := cloneAccentPhrases(phrases)
	if err := validate(out); err != nil {
		return nil, err
	}
	flat := flattenMoras(out)

	symbols := buildSymbols(flat)
	ids, err := toPhonemeIDs(symbols)
	if err != nil {
		return nil, err
	}
	vowelIdx, vowelIDs, consonantIDs := splitMora(ids, symbols)

	startAccent, endAccent, startPhrase, endPhrase := accentBoundaryVectors(out, len(symbols))
	startAccentM := subsample(startAccent, vowelIdx)
	endAccentM := subsample(endAccent, vowelIdx)
	startPhraseM := subsample(startPhrase, vowelIdx)
	endPhraseM := subsample(endPhrase, vowelIdx)

	f0, err := p.Predictor.PredictPitches(ctx, vowelIDs, consonantIDs, startAccentM, endAccentM, startPhraseM, endPhraseM, style)
	if err != nil {
		return nil, err
	}

	for i, idx := range vowelIdx {
		if phoneme.IsUnvoicedLike(symbols[idx]) {
			f0[i] = 0
		}
	}

	for i, m := range flat {
		m.Pitch = float64(f0[i+1])
	}
	return out, nil
}

// Synthesize realizes spec.md §4.G step synthesize: optional interrogative
// upspeak, pitch scaling, frame expansion, and decode with boundary padding
// (delegated to the Predictor, spec.md §4.F).
func (p *Pipeline) Synthesize(ctx context.Context, query model.AudioQuery, style model.StyleID, enableUpspeak bool) ([]float32, error) {
	phrases := query.AccentPhrases
	if enableUpspeak {
		phrases = AdjustInterrogativeAccentPhrases(phrases)
	}
	out := cloneAccentPhrases(phrases)
	if err := validate(out); err != nil {
		return nil, err
	}
	flat := flattenMoras(out)

	phonemeLengths, f0s := buildFrameInputs(flat, query)

	symbols := buildSymbols(flat)
	ids, err := toPhonemeIDs(symbols)
	if err != nil {
		return nil, err
	}
	vowelIdx, _, _ := splitMora(ids, symbols)

	frameIDs, frameF0 := expandFrames(ids, phonemeLengths, f0s, vowelIdx, query.SpeedScale)

	oneHot := make([][]float32, len(frameIDs))
	width := phoneme.NumPhonemes()
	for i, id := range frameIDs {
		row := make([]float32, width)
		row[int(id)] = 1
		oneHot[i] = row
	}

	return p.Predictor.Decode(ctx, frameF0, oneHot, style)
}

// AudioQuery builds a default-scaled audio query from text (or kana when
// isKana is set), mirroring the voicevox_tts shortcut in spec.md §6.1's
// originating engine: accent phrases plus 1.0/0.0/1.0/1.0 scales, 0.1s of
// leading and trailing silence, 24000Hz mono output, and the kana
// round-trip string for diagnostics.
func (p *Pipeline) AudioQuery(ctx context.Context, text string, style model.StyleID, isKana bool) (model.AudioQuery, error) {
	var phrases []model.AccentPhrase
	var err error
	if isKana {
		phrases, err = p.AccentPhrasesFromKana(ctx, text, style)
	} else {
		phrases, err = p.CreateAccentPhrases(ctx, text, style)
	}
	if err != nil {
		return model.AudioQuery{}, err
	}
	return model.AudioQuery{
		AccentPhrases:      phrases,
		SpeedScale:         1.0,
		PitchScale:         0.0,
		IntonationScale:    1.0,
		VolumeScale:        1.0,
		PrePhonemeLength:   0.1,
		PostPhonemeLength:  0.1,
		OutputSamplingRate: defaultSamplingRate,
		OutputStereo:       false,
		Kana:               kana.CreateKana(phrases),
	}, nil
}

// TTS is the top-level convenience operation: text in, WAV bytes out. It
// composes AudioQuery, Synthesize, and the WAV serializer the same way
// voicevox_tts composes create_accent_phrases, synthesis, and
// synthesis_wave_format in the originating engine.
func (p *Pipeline) TTS(ctx context.Context, text string, style model.StyleID, isKana, enableUpspeak bool) ([]byte, error) {
	query, err := p.AudioQuery(ctx, text, style, isKana)
	if err != nil {
		return nil, err
	}
	samples, err := p.Synthesize(ctx, query, style, enableUpspeak)
	if err != nil {
		return nil, err
	}
	out, err := wav.Encode(samples, query)
	if err != nil {
		return nil, fmt.Errorf("pipeline: encode wav: %w", err)
	}
	return out, nil
}

const defaultSamplingRate = 24000
