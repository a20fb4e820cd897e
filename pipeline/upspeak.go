package pipeline

import (
	"github.com/voicevoxcore/voicevoxcore-go/model"
	"github.com/voicevoxcore/voicevoxcore-go/mora"
)

// Constants from spec.md §4.H / §9 Open Question 3: preserved literally,
// they only ever appear in this workaround.
const (
	upspeakVowelLength = 0.15
	upspeakPitchDelta  = 0.3
	upspeakMaxPitch    = 6.5
)

// AdjustInterrogativeAccentPhrases applies the interrogative-upspeak
// transform to every accent phrase flagged IsInterrogative, leaving the
// rest untouched. It returns a new slice; phrases is not mutated.
func AdjustInterrogativeAccentPhrases(phrases []model.AccentPhrase) []model.AccentPhrase {
	out := make([]model.AccentPhrase, len(phrases))
	for i, p := range phrases {
		out[i] = p
		out[i].Moras = adjustInterrogativeMoras(p)
	}
	return out
}

// adjustInterrogativeMoras appends one mora to an interrogative phrase
// whose last mora has a nonzero pitch: same vowel, no consonant, a fixed
// 0.15s length, and the last mora's pitch raised by 0.3 (capped at 6.5).
// Phrases that aren't interrogative, or whose last mora is unvoiced
// (pitch == 0), are returned unchanged.
func adjustInterrogativeMoras(phrase model.AccentPhrase) []model.Mora {
	moras := phrase.Moras
	if !phrase.IsInterrogative || len(moras) == 0 {
		return moras
	}
	last := moras[len(moras)-1]
	if last.Pitch == 0 {
		return moras
	}

	extended := make([]model.Mora, len(moras)+1)
	copy(extended, moras)
	extended[len(moras)] = makeInterrogativeMora(last)
	return extended
}

func makeInterrogativeMora(last model.Mora) model.Mora {
	pitch := last.Pitch + upspeakPitchDelta
	if pitch > upspeakMaxPitch {
		pitch = upspeakMaxPitch
	}
	return model.Mora{
		Text:        mora.Mora2Text(last.Vowel),
		Vowel:       last.Vowel,
		VowelLength: upspeakVowelLength,
		Pitch:       pitch,
	}
}
