package kana

import (
	"errors"
	"testing"

	"github.com/voicevoxcore/voicevoxcore-go/voicevoxerror"
)

func TestParseKanaDevoicedVowelRoundTrip(t *testing.T) {
	const input = "コ_ンニチワ'"

	phrases, err := ParseKana(input)
	if err != nil {
		t.Fatalf("ParseKana(%q) returned error: %v", input, err)
	}
	if len(phrases) != 1 {
		t.Fatalf("got %d phrases, want 1", len(phrases))
	}
	p := phrases[0]
	if len(p.Moras) != 5 {
		t.Fatalf("got %d moras, want 5", len(p.Moras))
	}
	if p.Moras[1].Vowel != "O" {
		t.Errorf("moras[1].Vowel = %q, want %q", p.Moras[1].Vowel, "O")
	}
	if p.Accent != 5 {
		t.Errorf("Accent = %d, want 5", p.Accent)
	}

	if got := CreateKana(phrases); got != input {
		t.Errorf("CreateKana round-trip = %q, want %q", got, input)
	}
}

func TestParseKanaTwoPhraseWithPause(t *testing.T) {
	const input = "コンニチ'ワ、セ'カイ"

	phrases, err := ParseKana(input)
	if err != nil {
		t.Fatalf("ParseKana(%q) returned error: %v", input, err)
	}
	if len(phrases) != 2 {
		t.Fatalf("got %d phrases, want 2", len(phrases))
	}
	if phrases[0].PauseMora == nil || phrases[0].PauseMora.Text != "、" {
		t.Errorf("phrases[0].PauseMora = %v, want pause mora", phrases[0].PauseMora)
	}
	if phrases[0].IsInterrogative {
		t.Errorf("phrases[0].IsInterrogative = true, want false")
	}
	if phrases[1].Accent != 1 {
		t.Errorf("phrases[1].Accent = %d, want 1", phrases[1].Accent)
	}

	if got := CreateKana(phrases); got != input {
		t.Errorf("CreateKana round-trip = %q, want %q", got, input)
	}
}

func TestParseKanaInterrogative(t *testing.T) {
	const input = "ソ'ウ？"

	phrases, err := ParseKana(input)
	if err != nil {
		t.Fatalf("ParseKana(%q) returned error: %v", input, err)
	}
	if len(phrases) != 1 {
		t.Fatalf("got %d phrases, want 1", len(phrases))
	}
	if !phrases[0].IsInterrogative {
		t.Errorf("IsInterrogative = false, want true")
	}
	if len(phrases[0].Moras) != 2 {
		t.Fatalf("got %d moras, want 2", len(phrases[0].Moras))
	}

	if got := CreateKana(phrases); got != input {
		t.Errorf("CreateKana round-trip = %q, want %q", got, input)
	}
}

func TestParseKanaEmptyInput(t *testing.T) {
	_, err := ParseKana("")
	assertParseKanaReason(t, err, voicevoxerror.EmptyPhrase)
}

func TestParseKanaAccentAtBeginning(t *testing.T) {
	_, err := ParseKana("'")
	assertParseKanaReason(t, err, voicevoxerror.AccentAtBeginning)
}

func TestParseKanaNoAccent(t *testing.T) {
	_, err := ParseKana("カ")
	assertParseKanaReason(t, err, voicevoxerror.NoAccent)
}

func TestParseKanaSecondAccentIsEmptyPhraseAfterPause(t *testing.T) {
	// "カ'、" parses the first phrase successfully (ending in a pause) but
	// the trailing delimiter opens a second, empty phrase.
	_, err := ParseKana("カ'、")
	assertParseKanaReason(t, err, voicevoxerror.EmptyPhrase)
}

func TestParseKanaInterrogativeNotAtEnd(t *testing.T) {
	_, err := ParseKana("ソ？ウ'")
	assertParseKanaReason(t, err, voicevoxerror.InterrogativeNotAtEnd)
}

func TestParseKanaUnknownKana(t *testing.T) {
	_, err := ParseKana("X'")
	assertParseKanaReason(t, err, voicevoxerror.UnknownKana)
}

func assertParseKanaReason(t *testing.T, err error, want voicevoxerror.ParseKanaReason) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with reason %q, got nil", want)
	}
	var ve *voicevoxerror.Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *voicevoxerror.Error, got %T: %v", err, err)
	}
	if ve.Reason != want {
		t.Fatalf("reason = %q, want %q", ve.Reason, want)
	}
}
