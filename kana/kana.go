// Package kana implements the AquesTalk-style shorthand notation (spec.md
// §6.3): parsing it into accent-phrase structures without invoking the
// full linguistic analyzer, and serializing accent phrases back into the
// notation.
package kana

import (
	"strings"

	"github.com/voicevoxcore/voicevoxcore-go/mora"
	"github.com/voicevoxcore/voicevoxcore-go/model"
	"github.com/voicevoxcore/voicevoxcore-go/voicevoxerror"
)

const (
	unvoiceSymbol        = "_"
	accentSymbol         = "'"
	nopauseDelimiter     = "/"
	pauseDelimiter       = "、"
	wideInterrogationMark = "？"

	// loopLimit guards text_to_accent_phrase against malformed UTF-8 that
	// would otherwise spin forever without ever reaching end-of-phrase.
	loopLimit = 300
)

// dictionary maps kana text (including "_"-prefixed devoiced forms) to the
// mora it spells, mirroring text2mora_with_unvoice in the reference parser.
var dictionary map[string]model.Mora

func init() {
	dictionary = make(map[string]model.Mora, len(mora.Table())*2)
	for _, e := range mora.Table() {
		dictionary[e.Kana] = toMora(e.Kana, e.Consonant, e.Vowel)

		switch e.Vowel {
		case "a", "i", "u", "e", "o":
			dictionary[unvoiceSymbol+e.Kana] = toMora(e.Kana, e.Consonant, strings.ToUpper(e.Vowel))
		}
	}
}

func toMora(text, consonant, vowel string) model.Mora {
	m := model.Mora{Text: text, Vowel: vowel}
	if consonant != "" {
		c := consonant
		cl := 0.0
		m.Consonant = &c
		m.ConsonantLength = &cl
	}
	return m
}

// extractOneCharacter returns the UTF-8 character starting at byte offset
// pos and its byte length, determined from the leading byte alone.
func extractOneCharacter(text string, pos int) (string, int) {
	lead := text[pos]
	var size int
	switch {
	case lead < 0x80:
		size = 1
	case lead < 0xE0:
		size = 2
	case lead < 0xF0:
		size = 3
	default:
		size = 4
	}
	if pos+size > len(text) {
		size = len(text) - pos
	}
	return text[pos : pos+size], size
}

// textToAccentPhrase parses one delimiter-free phrase (interrogative mark
// already stripped) into an accent phrase by a longest-prefix match over
// the mora dictionary.
func textToAccentPhrase(phrase string) (model.AccentPhrase, error) {
	var accentIndex = -1
	var moras []model.Mora

	baseIndex := 0
	stack := ""
	matchedText := ""
	haveMatch := false

	outerLoop := 0
	for baseIndex < len(phrase) {
		outerLoop++
		if outerLoop > loopLimit {
			return model.AccentPhrase{}, voicevoxerror.ParseKana(voicevoxerror.LoopLimitExceeded, phrase)
		}

		letter, charSize := extractOneCharacter(phrase, baseIndex)
		if letter == accentSymbol {
			if len(moras) == 0 {
				return model.AccentPhrase{}, voicevoxerror.ParseKana(voicevoxerror.AccentAtBeginning, phrase)
			}
			if accentIndex != -1 {
				return model.AccentPhrase{}, voicevoxerror.ParseKana(voicevoxerror.SecondAccent, phrase)
			}
			accentIndex = len(moras)
			baseIndex += charSize
			continue
		}

		watchIndex := baseIndex
		for watchIndex < len(phrase) {
			watchLetter, watchSize := extractOneCharacter(phrase, watchIndex)
			if watchLetter == accentSymbol {
				break
			}
			stack += watchLetter
			if _, ok := dictionary[stack]; ok {
				matchedText = stack
				haveMatch = true
			}
			watchIndex += watchSize
		}

		if !haveMatch {
			return model.AccentPhrase{}, voicevoxerror.ParseKana(voicevoxerror.UnknownKana, stack)
		}
		moras = append(moras, dictionary[matchedText])
		baseIndex += len(matchedText)
		stack = ""
		matchedText = ""
		haveMatch = false
	}

	if accentIndex == -1 {
		return model.AccentPhrase{}, voicevoxerror.ParseKana(voicevoxerror.NoAccent, phrase)
	}

	return model.AccentPhrase{Moras: moras, Accent: accentIndex}, nil
}

// ParseKana parses the shorthand notation into a list of accent phrases.
// Delimiters end a phrase without becoming part of it (unlike a pointer
// walk that keeps appending until it notices, this builds the phrase from
// only the characters that belong to it).
func ParseKana(text string) ([]model.AccentPhrase, error) {
	var results []model.AccentPhrase

	phrase := ""
	pos := 0
	for {
		atEnd := pos == len(text)

		var letter string
		var charSize int
		isDelim := false
		if !atEnd {
			letter, charSize = extractOneCharacter(text, pos)
			isDelim = letter == pauseDelimiter || letter == nopauseDelimiter
			if !isDelim {
				phrase += letter
			}
		}

		if atEnd || isDelim {
			if phrase == "" {
				return nil, voicevoxerror.ParseKana(voicevoxerror.EmptyPhrase, "")
			}

			isInterrogative := strings.Contains(phrase, wideInterrogationMark)
			if isInterrogative {
				if strings.Index(phrase, wideInterrogationMark) != len(phrase)-len(wideInterrogationMark) {
					return nil, voicevoxerror.ParseKana(voicevoxerror.InterrogativeNotAtEnd, phrase)
				}
				phrase = phrase[:len(phrase)-len(wideInterrogationMark)]
			}

			accentPhrase, err := textToAccentPhrase(phrase)
			if err != nil {
				return nil, err
			}

			if isDelim && letter == pauseDelimiter {
				pause := model.Mora{Text: pauseDelimiter, Vowel: "pau"}
				accentPhrase.PauseMora = &pause
			}
			accentPhrase.IsInterrogative = isInterrogative

			results = append(results, accentPhrase)
			phrase = ""
		}

		if atEnd {
			break
		}
		pos += charSize
	}

	return results, nil
}

// CreateKana re-serializes accent phrases into the notation. It is the
// inverse of ParseKana: create_kana(parse_kana(s)) == s for well-formed s.
func CreateKana(phrases []model.AccentPhrase) string {
	var b strings.Builder

	for i, phrase := range phrases {
		for j, m := range phrase.Moras {
			switch m.Vowel {
			case "A", "I", "U", "E", "O":
				b.WriteString(unvoiceSymbol)
			}
			b.WriteString(m.Text)

			if j+1 == phrase.Accent {
				b.WriteString(accentSymbol)
			}
		}

		if phrase.IsInterrogative {
			b.WriteString(wideInterrogationMark)
		}

		if i != len(phrases)-1 {
			if phrase.PauseMora != nil {
				b.WriteString(pauseDelimiter)
			} else {
				b.WriteString(nopauseDelimiter)
			}
		}
	}

	return b.String()
}
