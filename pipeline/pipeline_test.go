package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/voicevoxcore/voicevoxcore-go/model"
)

// fakePredictor stands in for the ONNX orchestrator: durations are a fixed
// value above the floor, pitch is a fixed nonzero value for every voiced
// vowel, and decode returns one sample per frame so tests can check the
// frame-count invariant without an ONNX runtime.
type fakePredictor struct {
	duration float32
	pitch    float32
	failWith error
}

func (f *fakePredictor) PredictDurations(ctx context.Context, ids []int64, style model.StyleID) ([]float32, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]float32, len(ids))
	for i := range out {
		out[i] = f.duration
	}
	return out, nil
}

// PredictPitches returns a flat, never-zeroed pitch per vowel: the
// unvoiced-or-pause zeroing is the pipeline driver's job (spec.md §4.G
// step 4), not the model's, so the fake must not do it either.
func (f *fakePredictor) PredictPitches(ctx context.Context, vowelIDs, consonantIDs, startAccent, endAccent, startPhrase, endPhrase []int64, style model.StyleID) ([]float32, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]float32, len(vowelIDs))
	for i := range out {
		out[i] = f.pitch
	}
	return out, nil
}

func (f *fakePredictor) Decode(ctx context.Context, f0 []float32, oneHot [][]float32, style model.StyleID) ([]float32, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return make([]float32, len(f0)*256), nil
}

func twoMoraPhrase() []model.AccentPhrase {
	k := "k"
	kl := 0.0
	return []model.AccentPhrase{
		{
			Accent: 1,
			Moras: []model.Mora{
				{Text: "カ", Consonant: &k, ConsonantLength: &kl, Vowel: "a"},
				{Text: "ア", Vowel: "a"},
			},
		},
	}
}

// Duration clamping to the 0.01s floor is the inference orchestrator's
// responsibility (spec.md §4.F); see internal/infer's TestClampDurations*.
// This test only checks that the pipeline writes through whatever the
// Predictor returns, onto the right mora field.
func TestReplacePhonemeLengthFillsLengthsFromPredictor(t *testing.T) {
	p := New(nil, &fakePredictor{duration: 0.05, pitch: 5.5})

	out, err := p.ReplacePhonemeLength(context.Background(), twoMoraPhrase(), 0)
	if err != nil {
		t.Fatalf("ReplacePhonemeLength: %v", err)
	}

	for _, phrase := range out {
		for _, m := range phrase.Moras {
			if m.VowelLength != 0.05 {
				t.Errorf("vowel_length = %v, want 0.05", m.VowelLength)
			}
			if m.Consonant != nil && *m.ConsonantLength != 0.05 {
				t.Errorf("consonant_length = %v, want 0.05", *m.ConsonantLength)
			}
		}
	}
}

func TestReplacePhonemeLengthDoesNotMutateInput(t *testing.T) {
	p := New(nil, &fakePredictor{duration: 0.05, pitch: 5.5})
	original := twoMoraPhrase()

	if _, err := p.ReplacePhonemeLength(context.Background(), original, 0); err != nil {
		t.Fatalf("ReplacePhonemeLength: %v", err)
	}

	if original[0].Moras[0].VowelLength != 0 {
		t.Errorf("input mutated: vowel_length = %v, want 0", original[0].Moras[0].VowelLength)
	}
}

func TestReplaceMoraPitchZeroesUnvoiced(t *testing.T) {
	p := New(nil, &fakePredictor{duration: 0.05, pitch: 5.5})

	phrases := twoMoraPhrase()
	phrases[0].Moras[1].Vowel = "cl" // unvoiced-like

	out, err := p.ReplaceMoraPitch(context.Background(), phrases, 0)
	if err != nil {
		t.Fatalf("ReplaceMoraPitch: %v", err)
	}
	if out[0].Moras[0].Pitch != 5.5 {
		t.Errorf("moras[0].Pitch = %v, want 5.5", out[0].Moras[0].Pitch)
	}
	if out[0].Moras[1].Pitch != 0 {
		t.Errorf("moras[1].Pitch (vowel=cl) = %v, want 0", out[0].Moras[1].Pitch)
	}
}

func TestSynthesizeEmptyPhraseListIsSilence(t *testing.T) {
	p := New(nil, &fakePredictor{})

	query := model.AudioQuery{
		PrePhonemeLength:   0.1,
		PostPhonemeLength:  0.1,
		SpeedScale:         1,
		PitchScale:         0,
		IntonationScale:    1,
		VolumeScale:        1,
		OutputSamplingRate: 24000,
	}

	samples, err := p.Synthesize(context.Background(), query, 0, false)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	framesPerSide := int(math.Round(math.Round(0.1*24000.0/256.0) / 1))
	want := (framesPerSide * 2) * 256
	if len(samples) != want {
		t.Errorf("len(samples) = %d, want %d", len(samples), want)
	}
}

func TestSynthesizeUnknownStylePropagatesError(t *testing.T) {
	wantErr := errors.New("style not found")
	p := New(nil, &fakePredictor{failWith: wantErr})

	query := model.AudioQuery{OutputSamplingRate: 24000, SpeedScale: 1, IntonationScale: 1, VolumeScale: 1}
	if _, err := p.Synthesize(context.Background(), query, 99, false); !errors.Is(err, wantErr) {
		t.Fatalf("Synthesize error = %v, want wrapping %v", err, wantErr)
	}
}

func TestAdjustInterrogativeAccentPhrasesAppendsMora(t *testing.T) {
	phrases := []model.AccentPhrase{
		{
			Accent:          1,
			IsInterrogative: true,
			Moras: []model.Mora{
				{Text: "ソ", Vowel: "o", Pitch: 5.0},
			},
		},
	}

	out := AdjustInterrogativeAccentPhrases(phrases)
	if len(out[0].Moras) != 2 {
		t.Fatalf("got %d moras, want 2", len(out[0].Moras))
	}
	last := out[0].Moras[1]
	if last.VowelLength != upspeakVowelLength {
		t.Errorf("vowel_length = %v, want %v", last.VowelLength, upspeakVowelLength)
	}
	if last.Pitch != 5.3 {
		t.Errorf("pitch = %v, want 5.3", last.Pitch)
	}
	if len(phrases[0].Moras) != 1 {
		t.Errorf("input mutated: got %d moras, want 1", len(phrases[0].Moras))
	}
}

func TestAdjustInterrogativeAccentPhrasesCapsPitch(t *testing.T) {
	phrases := []model.AccentPhrase{
		{IsInterrogative: true, Moras: []model.Mora{{Vowel: "o", Pitch: 6.4}}},
	}
	out := AdjustInterrogativeAccentPhrases(phrases)
	if out[0].Moras[1].Pitch != upspeakMaxPitch {
		t.Errorf("pitch = %v, want capped at %v", out[0].Moras[1].Pitch, upspeakMaxPitch)
	}
}

func TestAdjustInterrogativeAccentPhrasesSkipsUnvoicedLast(t *testing.T) {
	phrases := []model.AccentPhrase{
		{IsInterrogative: true, Moras: []model.Mora{{Vowel: "o", Pitch: 0}}},
	}
	out := AdjustInterrogativeAccentPhrases(phrases)
	if len(out[0].Moras) != 1 {
		t.Errorf("got %d moras, want 1 (unchanged)", len(out[0].Moras))
	}
}
