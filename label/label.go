// Package label turns the full-context label sequence produced by the
// external Japanese analyzer into the accent-phrase structures the rest of
// the pipeline operates on: phonemes group into moras, moras into accent
// phrases, accent phrases into breath groups, which are then flattened back
// into one ordered accent-phrase list with pause moras interposed.
package label

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/voicevoxcore/voicevoxcore-go/model"
	"github.com/voicevoxcore/voicevoxcore-go/mora"
	"github.com/voicevoxcore/voicevoxcore-go/voicevoxerror"
)

// Analyzer is the external Japanese text analyzer contract (spec.md §6.2):
// it turns raw text into an ordered sequence of OpenJTalk-style
// full-context labels. This package treats it as an opaque black box.
type Analyzer interface {
	ExtractFullContext(text string) ([]string, error)
}

var (
	p3Re = regexp.MustCompile(`\-(.*?)\+`)
	a2Re = regexp.MustCompile(`\+(\d+|xx)\+`)
	f1Re = regexp.MustCompile(`/F:(\d+|xx)_`)
	f2Re = regexp.MustCompile(`_(\d+|xx)#`)
	f3Re = regexp.MustCompile(`#(\d+|xx)_`)
	f5Re = regexp.MustCompile(`@(\d+|xx)_`)
	i3Re = regexp.MustCompile(`@(\d+|xx)\+`)
)

// phoneme is one parsed full-context label line.
type phoneme struct {
	raw string
	p3  string // phoneme identity
	a2  string // mora index within accent phrase
	f1  string // "xx" marks a pause
	f2  string // accent position of the accent phrase
	f3  string // "1" marks the accent phrase interrogative
	f5  string // accent-phrase boundary field
	i3  string // breath-group boundary field
}

func parsePhoneme(raw string) (phoneme, error) {
	p := phoneme{raw: raw}
	fields := []struct {
		re  *regexp.Regexp
		dst *string
	}{
		{p3Re, &p.p3}, {a2Re, &p.a2}, {f1Re, &p.f1},
		{f2Re, &p.f2}, {f3Re, &p.f3}, {f5Re, &p.f5}, {i3Re, &p.i3},
	}
	for _, f := range fields {
		m := f.re.FindStringSubmatch(raw)
		if m == nil {
			return phoneme{}, voicevoxerror.New(voicevoxerror.LabelError, "label is broken: "+raw)
		}
		*f.dst = m[1]
	}
	return p, nil
}

func (p phoneme) isPause() bool { return p.f1 == "xx" }

// morasOf groups a run of same-breath-group phonemes into moras: 1
// consecutive phoneme = a lone vowel, 2 = consonant+vowel, more is a fatal
// structural error. An a2 value of "49" is a known upstream sentinel for
// end-of-accent-phrase and truncates the remaining phonemes in this chunk.
func morasOf(phonemes []phoneme) ([][]phoneme, error) {
	var moras [][]phoneme
	var current []phoneme

	for i, p := range phonemes {
		if p.a2 == "49" {
			break
		}
		current = append(current, p)
		if i+1 == len(phonemes) || p.a2 != phonemes[i+1].a2 {
			if len(current) > 2 {
				return nil, voicevoxerror.New(voicevoxerror.LabelError, "too long mora")
			}
			moras = append(moras, current)
			current = nil
		}
	}
	return moras, nil
}

// accentPhraseOf builds one accent phrase from the phonemes of a single
// i3/f5-delimited chunk.
func accentPhraseOf(phonemes []phoneme) (model.AccentPhrase, error) {
	groups, err := morasOf(phonemes)
	if err != nil {
		return model.AccentPhrase{}, err
	}
	if len(groups) == 0 {
		return model.AccentPhrase{}, voicevoxerror.New(voicevoxerror.LabelError, "empty accent phrase")
	}

	moras := make([]model.Mora, len(groups))
	for i, g := range groups {
		moras[i] = buildMora(g)
	}

	accent, err := strconv.Atoi(groups[0][0].f2)
	if err != nil {
		return model.AccentPhrase{}, voicevoxerror.Wrap(voicevoxerror.LabelError, err)
	}
	if accent > len(moras) {
		// Workaround for a documented upstream off-by-one (VOICEVOX/voicevox_engine#55).
		accent = len(moras)
	}

	lastGroup := groups[len(groups)-1]
	isInterrogative := lastGroup[len(lastGroup)-1].f3 == "1"

	return model.AccentPhrase{Moras: moras, Accent: accent, IsInterrogative: isInterrogative}, nil
}

// buildMora assembles the public Mora from 1 or 2 grouped phoneme labels.
// Consonant/vowel symbols keep whatever case the analyzer emitted
// (devoiced vowels arrive uppercase); only the diagnostic Text field is
// normalized through the mora dictionary.
func buildMora(g []phoneme) model.Mora {
	var consonant, vowel phoneme
	hasConsonant := len(g) == 2
	if hasConsonant {
		consonant, vowel = g[0], g[1]
	} else {
		vowel = g[0]
	}

	normalized := strings.ToLower(consonant.p3 + vowel.p3)
	if normalized == "n" {
		normalized = "N"
	}

	m := model.Mora{
		Text:  mora.Mora2Text(normalized),
		Vowel: vowel.p3,
	}
	if hasConsonant {
		c := consonant.p3
		cl := 0.0
		m.Consonant = &c
		m.ConsonantLength = &cl
	}
	return m
}

// breathGroupsOf splits a run of non-pause phonemes into accent-phrase
// chunks wherever the i3 or f5 context field changes between adjacent
// phonemes.
func breathGroupsOf(phonemes []phoneme) ([]model.AccentPhrase, error) {
	var phrases []model.AccentPhrase
	var chunk []phoneme

	for i, p := range phonemes {
		chunk = append(chunk, p)
		if i+1 == len(phonemes) || p.i3 != phonemes[i+1].i3 || p.f5 != phonemes[i+1].f5 {
			phrase, err := accentPhraseOf(chunk)
			if err != nil {
				return nil, err
			}
			phrases = append(phrases, phrase)
			chunk = nil
		}
	}
	return phrases, nil
}

// BuildAccentPhrases runs the full algorithm over an already-extracted
// label sequence (spec.md §4.D). Pauses split the sequence into breath
// groups; once each group is turned into an ordered accent-phrase list,
// the groups are flattened back into one list with a pause mora set on the
// accent phrase preceding each breath-group boundary.
func BuildAccentPhrases(labels []string) ([]model.AccentPhrase, error) {
	phonemes := make([]phoneme, 0, len(labels))
	for _, raw := range labels {
		p, err := parsePhoneme(raw)
		if err != nil {
			return nil, err
		}
		phonemes = append(phonemes, p)
	}

	var breathGroups [][]phoneme
	var current []phoneme
	for _, p := range phonemes {
		if !p.isPause() {
			current = append(current, p)
			continue
		}
		if len(current) > 0 {
			breathGroups = append(breathGroups, current)
			current = nil
		}
	}
	if len(current) > 0 {
		breathGroups = append(breathGroups, current)
	}

	var result []model.AccentPhrase
	for gi, group := range breathGroups {
		phrases, err := breathGroupsOf(group)
		if err != nil {
			return nil, err
		}
		if gi != len(breathGroups)-1 && len(phrases) > 0 {
			pause := model.Mora{Text: "、", Vowel: "pau"}
			phrases[len(phrases)-1].PauseMora = &pause
		}
		result = append(result, phrases...)
	}

	return result, nil
}

// ExtractAndBuild is the convenience entry point the pipeline driver calls:
// run the external analyzer, then build the accent-phrase structure.
func ExtractAndBuild(analyzer Analyzer, text string) ([]model.AccentPhrase, error) {
	if text == "" {
		return nil, nil
	}
	labels, err := analyzer.ExtractFullContext(text)
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.AnalyzeTextError, err)
	}
	if len(labels) == 0 {
		return nil, nil
	}
	return BuildAccentPhrases(labels)
}
