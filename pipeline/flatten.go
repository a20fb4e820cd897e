package pipeline

import (
	"math"

	"github.com/voicevoxcore/voicevoxcore-go/model"
	"github.com/voicevoxcore/voicevoxcore-go/phoneme"
	"github.com/voicevoxcore/voicevoxcore-go/voicevoxerror"
)

// cloneAccentPhrases deep-copies phrases so every driver operation can
// return a new structure without mutating the caller's.
func cloneAccentPhrases(phrases []model.AccentPhrase) []model.AccentPhrase {
	out := make([]model.AccentPhrase, len(phrases))
	for i, p := range phrases {
		out[i] = p
		out[i].Moras = make([]model.Mora, len(p.Moras))
		for j, m := range p.Moras {
			out[i].Moras[j] = cloneMora(m)
		}
		if p.PauseMora != nil {
			pm := cloneMora(*p.PauseMora)
			out[i].PauseMora = &pm
		}
	}
	return out
}

func cloneMora(m model.Mora) model.Mora {
	out := m
	if m.Consonant != nil {
		c := *m.Consonant
		out.Consonant = &c
	}
	if m.ConsonantLength != nil {
		cl := *m.ConsonantLength
		out.ConsonantLength = &cl
	}
	return out
}

// flattenMoras returns pointers into phrases' own moras (in document
// order: each phrase's moras, then its pause mora if any) so the caller
// can write model-output fields directly into the cloned structure.
func flattenMoras(phrases []model.AccentPhrase) []*model.Mora {
	var flat []*model.Mora
	for pi := range phrases {
		for mi := range phrases[pi].Moras {
			flat = append(flat, &phrases[pi].Moras[mi])
		}
		if phrases[pi].PauseMora != nil {
			flat = append(flat, phrases[pi].PauseMora)
		}
	}
	return flat
}

// buildSymbols assembles the phoneme-symbol sequence surrounded by pau on
// both ends (spec.md §4.G step 1 of replace_phoneme_length, and the
// initial_process shared by every composed operation).
func buildSymbols(flat []*model.Mora) []string {
	symbols := make([]string, 0, len(flat)*2+2)
	symbols = append(symbols, phoneme.Pause)
	for _, m := range flat {
		if m.Consonant != nil {
			symbols = append(symbols, *m.Consonant)
		}
		symbols = append(symbols, m.Vowel)
	}
	symbols = append(symbols, phoneme.Pause)

	symbols[0] = phoneme.NormalizeBoundary(symbols[0])
	symbols[len(symbols)-1] = phoneme.NormalizeBoundary(symbols[len(symbols)-1])
	return symbols
}

func toPhonemeIDs(symbols []string) ([]int64, error) {
	ids := make([]int64, len(symbols))
	for i, s := range symbols {
		id, err := phoneme.IDOf(s)
		if err != nil {
			return nil, voicevoxerror.Wrap(voicevoxerror.InvalidMora, err)
		}
		ids[i] = int64(id)
	}
	return ids, nil
}

// splitMora separates a full phoneme-id sequence into its mora-level
// (vowel-or-pause) positions, grounded on split_mora in the originating
// engine: vowelIdx holds the positions of every vowel-like phoneme
// (including the two boundary pau entries), vowelIDs their ids, and
// consonantIDs the id of the phoneme immediately preceding each one when
// it isn't itself vowel-like, or -1 (the sentinel the pitch model expects
// for "no consonant") otherwise.
func splitMora(ids []int64, symbols []string) (vowelIdx []int, vowelIDs, consonantIDs []int64) {
	for i, s := range symbols {
		if phoneme.IsVowelOrPause(s) {
			vowelIdx = append(vowelIdx, i)
		}
	}
	vowelIDs = make([]int64, len(vowelIdx))
	for i, idx := range vowelIdx {
		vowelIDs[i] = ids[idx]
	}
	consonantIDs = make([]int64, len(vowelIdx))
	consonantIDs[0] = -1
	for i := 1; i < len(vowelIdx); i++ {
		prev, next := vowelIdx[i-1], vowelIdx[i]
		if next-prev == 1 {
			consonantIDs[i] = -1
		} else {
			consonantIDs[i] = ids[next-1]
		}
	}
	return vowelIdx, vowelIDs, consonantIDs
}

func subsample(values []int64, vowelIdx []int) []int64 {
	out := make([]int64, len(vowelIdx))
	for i, idx := range vowelIdx {
		out[i] = values[idx]
	}
	return out
}

// createOneAccentList builds the phoneme-level boundary vector for one
// accent phrase: 1 at the marked mora position (point, or counted from the
// end when point is negative), 0 elsewhere, with consonant positions
// echoing their mora's vowel value and a trailing 0 for a pause mora.
func createOneAccentList(phrase model.AccentPhrase, point int) []int64 {
	moras := phrase.Moras
	var list []int64
	for i, m := range moras {
		var value int64
		if i == point || (point < 0 && i == len(moras)+point) {
			value = 1
		}
		list = append(list, value)
		if m.Consonant != nil {
			list = append(list, value)
		}
	}
	if phrase.PauseMora != nil {
		list = append(list, 0)
	}
	return list
}

// accentBoundaryVectors builds the four phoneme-level boundary vectors
// spec.md §4.G step 1 of replace_mora_pitch describes, padded with a
// leading and trailing 0 for the two boundary pau phonemes. totalPhonemes
// is len(symbols); the four vectors all have that length.
func accentBoundaryVectors(phrases []model.AccentPhrase, totalPhonemes int) (startAccent, endAccent, startPhrase, endPhrase []int64) {
	startAccent = make([]int64, 1, totalPhonemes)
	endAccent = make([]int64, 1, totalPhonemes)
	startPhrase = make([]int64, 1, totalPhonemes)
	endPhrase = make([]int64, 1, totalPhonemes)

	for _, phrase := range phrases {
		accentStartPoint := 1
		if phrase.Accent == 1 {
			accentStartPoint = 0
		}
		startAccent = append(startAccent, createOneAccentList(phrase, accentStartPoint)...)
		endAccent = append(endAccent, createOneAccentList(phrase, phrase.Accent-1)...)
		startPhrase = append(startPhrase, createOneAccentList(phrase, 0)...)
		endPhrase = append(endPhrase, createOneAccentList(phrase, -1)...)
	}

	startAccent = append(startAccent, 0)
	endAccent = append(endAccent, 0)
	startPhrase = append(startPhrase, 0)
	endPhrase = append(endPhrase, 0)
	return startAccent, endAccent, startPhrase, endPhrase
}

// buildFrameInputs assembles the per-phoneme length list (pre_phoneme_length,
// each mora's consonant/vowel length, post_phoneme_length) and the
// per-mora pitch list after scaling (spec.md §4.G step 3): positive
// pitches are scaled by 2^pitch_scale, then rescaled around the voiced
// mean by intonation_scale.
func buildFrameInputs(flat []*model.Mora, query model.AudioQuery) (phonemeLengths, f0s []float64) {
	phonemeLengths = append(phonemeLengths, query.PrePhonemeLength)
	f0s = append(f0s, 0)
	voiced := []bool{false}

	var sum float64
	var count int
	for _, m := range flat {
		if m.Consonant != nil {
			phonemeLengths = append(phonemeLengths, *m.ConsonantLength)
		}
		phonemeLengths = append(phonemeLengths, m.VowelLength)

		f0 := m.Pitch * math.Pow(2, query.PitchScale)
		v := f0 > 0
		if v {
			sum += f0
			count++
		}
		f0s = append(f0s, f0)
		voiced = append(voiced, v)
	}
	phonemeLengths = append(phonemeLengths, query.PostPhonemeLength)
	f0s = append(f0s, 0)
	voiced = append(voiced, false)

	mean := sum / float64(count)
	if !math.IsNaN(mean) {
		for i, v := range voiced {
			if v {
				f0s[i] = (f0s[i]-mean)*query.IntonationScale + mean
			}
		}
	}
	return phonemeLengths, f0s
}

const framesPerSecond = 24000.0 / 256.0

// expandFrames converts phoneme lengths to per-frame phoneme ids and
// propagates each mora's f0 over every frame whose span it covers
// (spec.md §4.G step 4). ids and phonemeLengths are both full-phoneme
// sequences (len(symbols)); vowelIdx marks which phoneme positions close
// out one mora's worth of frames so f0s (len == len(vowelIdx)) can be
// consumed in step.
func expandFrames(ids []int64, phonemeLengths, f0s []float64, vowelIdx []int, speedScale float64) (frameIDs []int64, frameF0 []float32) {
	vowelPtr := 0
	framesSinceLastVowel := 0

	for i, lengthSeconds := range phonemeLengths {
		frames := int(math.Round(math.Round(lengthSeconds*framesPerSecond) / speedScale))
		for j := 0; j < frames; j++ {
			frameIDs = append(frameIDs, ids[i])
		}
		framesSinceLastVowel += frames

		if vowelPtr < len(vowelIdx) && i == vowelIdx[vowelPtr] {
			v := float32(f0s[vowelPtr])
			for k := 0; k < framesSinceLastVowel; k++ {
				frameF0 = append(frameF0, v)
			}
			vowelPtr++
			framesSinceLastVowel = 0
		}
	}
	return frameIDs, frameF0
}

// validate checks the invariants spec.md §3 and §8 pin down: every mora's
// consonant and consonant_length are either both present or both absent,
// and every accent phrase's accent position is in range.
func validate(phrases []model.AccentPhrase) error {
	for _, p := range phrases {
		if len(p.Moras) > 0 && (p.Accent < 1 || p.Accent > len(p.Moras)) {
			return voicevoxerror.New(voicevoxerror.InvalidAccentPhrase, "accent out of range")
		}
		for _, m := range p.Moras {
			if (m.Consonant != nil) != (m.ConsonantLength != nil) {
				return voicevoxerror.New(voicevoxerror.InvalidMora, "consonant present without consonant_length or vice versa")
			}
		}
	}
	return nil
}
