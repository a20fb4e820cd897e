package label

import (
	"errors"
	"testing"

	"github.com/voicevoxcore/voicevoxcore-go/voicevoxerror"
)

// label builds a synthetic OpenJTalk-style full-context line with only the
// fields parsePhoneme actually reads filled in; everything else is "xx", the
// same filler the real analyzer emits for context it has nothing to say
// about. The layout mirrors the lines found in full_context_label.rs's own
// test fixtures (e.g. "xx^xx-sil+y=e/A:xx+xx+xx/B:xx-xx_xx/...").
func label(p3, a2, f1, f2, f3, f5, i3 string) string {
	return "xx^xx-" + p3 + "+xx=xx" +
		"/A:xx+" + a2 + "+xx" +
		"/B:xx-xx_xx/C:xx_xx+xx/D:xx+xx_xx/E:xx_xx!xx_xx-xx" +
		"/F:" + f1 + "_" + f2 + "#" + f3 + "_xx@" + f5 + "_xx|xx_xx" +
		"/G:xx_xx%xx_xx_xx/H:xx_xx" +
		"/I:xx-xx@" + i3 + "+xx&xx-xx|xx+xx" +
		"/J:xx_xx/K:xx+xx-xx"
}

func pause() string { return label("sil", "xx", "xx", "xx", "xx", "xx", "xx") }

func TestBuildAccentPhrasesTwoBreathGroupsWithPause(t *testing.T) {
	labels := []string{
		pause(),
		label("k", "1", "1", "1", "0", "1", "1"),
		label("a", "1", "1", "1", "0", "1", "1"),
		label("n", "2", "1", "1", "0", "1", "1"),
		label("i", "2", "1", "1", "0", "1", "1"),
		pause(),
		label("s", "1", "2", "1", "0", "2", "2"),
		label("o", "1", "2", "1", "0", "2", "2"),
		pause(),
	}

	phrases, err := BuildAccentPhrases(labels)
	if err != nil {
		t.Fatalf("BuildAccentPhrases: %v", err)
	}
	if len(phrases) != 2 {
		t.Fatalf("got %d accent phrases, want 2", len(phrases))
	}

	first := phrases[0]
	if len(first.Moras) != 2 {
		t.Fatalf("phrase 0: got %d moras, want 2", len(first.Moras))
	}
	if first.Accent != 1 {
		t.Errorf("phrase 0: accent = %d, want 1", first.Accent)
	}
	if first.Moras[0].Consonant == nil || *first.Moras[0].Consonant != "k" || first.Moras[0].Vowel != "a" {
		t.Errorf("phrase 0 mora 0 = %+v, want consonant k vowel a", first.Moras[0])
	}
	if first.Moras[1].Consonant == nil || *first.Moras[1].Consonant != "n" || first.Moras[1].Vowel != "i" {
		t.Errorf("phrase 0 mora 1 = %+v, want consonant n vowel i", first.Moras[1])
	}
	if first.PauseMora == nil {
		t.Error("phrase 0: PauseMora = nil, want set (breath group boundary follows)")
	}

	second := phrases[1]
	if len(second.Moras) != 1 {
		t.Fatalf("phrase 1: got %d moras, want 1", len(second.Moras))
	}
	if second.Moras[0].Consonant == nil || *second.Moras[0].Consonant != "s" || second.Moras[0].Vowel != "o" {
		t.Errorf("phrase 1 mora 0 = %+v, want consonant s vowel o", second.Moras[0])
	}
	if second.PauseMora != nil {
		t.Error("phrase 1: PauseMora set, want nil (last breath group)")
	}
}

func TestBuildAccentPhrasesInterrogativeMarksLastMora(t *testing.T) {
	labels := []string{
		label("s", "1", "1", "1", "0", "1", "1"),
		label("o", "1", "1", "1", "1", "1", "1"),
	}

	phrases, err := BuildAccentPhrases(labels)
	if err != nil {
		t.Fatalf("BuildAccentPhrases: %v", err)
	}
	if len(phrases) != 1 {
		t.Fatalf("got %d accent phrases, want 1", len(phrases))
	}
	if !phrases[0].IsInterrogative {
		t.Error("IsInterrogative = false, want true")
	}
}

func TestBuildAccentPhrasesSentinelTruncatesTrailingPhoneme(t *testing.T) {
	labels := []string{
		label("t", "1", "1", "1", "0", "1", "1"),
		label("a", "1", "1", "1", "0", "1", "1"),
		label("x", "49", "1", "1", "0", "1", "1"),
	}

	phrases, err := BuildAccentPhrases(labels)
	if err != nil {
		t.Fatalf("BuildAccentPhrases: %v", err)
	}
	if len(phrases) != 1 {
		t.Fatalf("got %d accent phrases, want 1", len(phrases))
	}
	if len(phrases[0].Moras) != 1 {
		t.Fatalf("got %d moras, want 1 (sentinel phoneme dropped)", len(phrases[0].Moras))
	}
	if phrases[0].Moras[0].Vowel != "a" {
		t.Errorf("mora vowel = %q, want %q", phrases[0].Moras[0].Vowel, "a")
	}
}

func TestBuildAccentPhrasesTooLongMoraIsLabelError(t *testing.T) {
	labels := []string{
		label("t", "1", "1", "1", "0", "1", "1"),
		label("a", "1", "1", "1", "0", "1", "1"),
		label("a", "1", "1", "1", "0", "1", "1"),
	}

	_, err := BuildAccentPhrases(labels)
	var vErr *voicevoxerror.Error
	if !errors.As(err, &vErr) || vErr.Kind != voicevoxerror.LabelError {
		t.Fatalf("err = %v, want LabelError", err)
	}
}

func TestBuildAccentPhrasesAllSentinelIsEmptyAccentPhraseError(t *testing.T) {
	labels := []string{
		label("x", "49", "1", "1", "0", "1", "1"),
	}

	_, err := BuildAccentPhrases(labels)
	var vErr *voicevoxerror.Error
	if !errors.As(err, &vErr) || vErr.Kind != voicevoxerror.LabelError {
		t.Fatalf("err = %v, want LabelError", err)
	}
}

func TestBuildAccentPhrasesAccentBeyondMoraCountIsClamped(t *testing.T) {
	labels := []string{
		label("a", "1", "1", "5", "0", "1", "1"),
	}

	phrases, err := BuildAccentPhrases(labels)
	if err != nil {
		t.Fatalf("BuildAccentPhrases: %v", err)
	}
	if phrases[0].Accent != 1 {
		t.Errorf("accent = %d, want clamped to 1", phrases[0].Accent)
	}
}

func TestBuildAccentPhrasesBrokenLabelIsLabelError(t *testing.T) {
	_, err := BuildAccentPhrases([]string{"not a valid label at all"})
	var vErr *voicevoxerror.Error
	if !errors.As(err, &vErr) || vErr.Kind != voicevoxerror.LabelError {
		t.Fatalf("err = %v, want LabelError", err)
	}
}

type fakeAnalyzer struct {
	labels []string
	err    error
}

func (f *fakeAnalyzer) ExtractFullContext(text string) ([]string, error) {
	return f.labels, f.err
}

func TestExtractAndBuildEmptyTextIsNil(t *testing.T) {
	phrases, err := ExtractAndBuild(&fakeAnalyzer{}, "")
	if err != nil {
		t.Fatalf("ExtractAndBuild: %v", err)
	}
	if phrases != nil {
		t.Errorf("phrases = %v, want nil", phrases)
	}
}

func TestExtractAndBuildWrapsAnalyzerError(t *testing.T) {
	wantErr := errors.New("analyzer unavailable")
	_, err := ExtractAndBuild(&fakeAnalyzer{err: wantErr}, "こんにちは")

	var vErr *voicevoxerror.Error
	if !errors.As(err, &vErr) || vErr.Kind != voicevoxerror.AnalyzeTextError {
		t.Fatalf("err = %v, want AnalyzeTextError", err)
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("err does not wrap %v", wantErr)
	}
}

func TestExtractAndBuildDelegatesToBuildAccentPhrases(t *testing.T) {
	labels := []string{
		label("a", "1", "1", "1", "0", "1", "1"),
	}
	phrases, err := ExtractAndBuild(&fakeAnalyzer{labels: labels}, "あ")
	if err != nil {
		t.Fatalf("ExtractAndBuild: %v", err)
	}
	if len(phrases) != 1 || len(phrases[0].Moras) != 1 {
		t.Fatalf("phrases = %+v, want 1 phrase with 1 mora", phrases)
	}
}
