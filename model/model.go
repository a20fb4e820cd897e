// Package model holds the plain data types shared across the pipeline:
// moras, accent phrases, audio queries, frame queries, and the style/model
// identifiers that route between them. JSON tags follow the shapes observed
// across the VOICEVOX HTTP client ecosystem: camelCase for audio-query
// scalars, snake_case for accent-phrase and mora fields.
package model

// Mora is the atomic timing unit: an optional consonant phoneme plus
// exactly one vowel phoneme. Consonant is present iff ConsonantLength is
// present.
type Mora struct {
	Text            string   `json:"text"`
	Consonant       *string  `json:"consonant,omitempty"`
	ConsonantLength *float64 `json:"consonant_length,omitempty"`
	Vowel           string   `json:"vowel"`
	VowelLength     float64  `json:"vowel_length"`
	Pitch           float64  `json:"pitch"`
}

// AccentPhrase is an ordered sequence of moras with a 1-based accent
// position, an optional trailing pause mora, and an interrogative flag.
type AccentPhrase struct {
	Moras           []Mora `json:"moras"`
	Accent          int    `json:"accent"`
	PauseMora       *Mora  `json:"pause_mora,omitempty"`
	IsInterrogative bool   `json:"is_interrogative"`
}

// AudioQuery is the full acoustic specification for a spoken utterance.
type AudioQuery struct {
	AccentPhrases     []AccentPhrase `json:"accent_phrases"`
	SpeedScale        float64        `json:"speedScale"`
	PitchScale        float64        `json:"pitchScale"`
	IntonationScale   float64        `json:"intonationScale"`
	VolumeScale       float64        `json:"volumeScale"`
	PrePhonemeLength  float64        `json:"prePhonemeLength"`
	PostPhonemeLength float64        `json:"postPhonemeLength"`
	OutputSamplingRate int           `json:"outputSamplingRate"`
	OutputStereo      bool           `json:"outputStereo"`
	Kana              string         `json:"kana"`
}

// FrameQuery is the song-synthesis counterpart of AudioQuery. Its shape is
// carried here for data-model completeness; no pipeline operation consumes
// it — singing synthesis is out of scope (spec.md §1 Non-goals).
type FrameQuery struct {
	F0          []float64 `json:"f0"`
	Volume      []float64 `json:"volume"`
	Phonemes    []Mora    `json:"phonemes"`
	VolumeScale float64   `json:"volumeScale"`
	OutputSamplingRate int `json:"outputSamplingRate"`
	OutputStereo       bool `json:"outputStereo"`
}

// StyleID is an opaque, non-negative identifier of a voice style.
type StyleID int64

// ModelID identifies a model bundle: three inference sessions owned
// together (duration, pitch, decoder).
type ModelID int64

// RouteTarget is what a style id resolves to: a model id plus the
// model-local style id that model's tensors expect.
type RouteTarget struct {
	ModelID        ModelID
	ModelStyleID   StyleID
}

// SpeakerStyle is one entry of a speaker's styles array in the metadata
// JSON.
type SpeakerStyle struct {
	Name string  `json:"name"`
	ID   StyleID `json:"id"`
}

// SpeakerMeta is one entry of the metadata.json array: a speaker and the
// styles (voices) it exposes.
type SpeakerMeta struct {
	Name        string         `json:"name"`
	Styles      []SpeakerStyle `json:"styles"`
	SpeakerUUID string         `json:"speaker_uuid"`
	Version     string         `json:"version"`
}
