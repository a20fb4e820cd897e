// Package voicevoxerror is the closed error taxonomy shared by every
// component of the pipeline. Errors raised by the pipeline's own rules and
// by inference runs carry one of the Kind sentinels below so callers can use
// errors.Is regardless of which component raised them. Failures to load the
// onnxruntime library or open a session file, WAV container framing
// failures, and context cancellation are returned as plain errors without a
// Kind.
package voicevoxerror

import "fmt"

// Kind is a taxonomy entry. It is itself a plain error value so that bare
// errors.Is(err, voicevoxerror.StyleNotFound) works without unwrapping.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	NotInitialized     Kind = "not initialized"
	GpuUnsupported     Kind = "gpu requested without a gpu execution provider"
	MetadataError      Kind = "metadata json missing or unparseable"
	StyleNotFound      Kind = "style id not in the supported set"
	ModelNotLoaded     Kind = "style routes to an unloaded model"
	InferenceError     Kind = "inference runtime error"
	AnalyzeTextError   Kind = "analyzer rejected input"
	InvalidUtf8        Kind = "input is not valid utf-8"
	ParseKanaError     Kind = "kana notation violates a parser rule"
	LabelError         Kind = "structural violation in label sequence"
	InvalidAudioQuery  Kind = "audio query failed semantic validation"
	InvalidAccentPhrase Kind = "accent phrase failed semantic validation"
	InvalidMora        Kind = "mora failed semantic validation"
)

// ParseKanaReason is the sub-kind attached to a ParseKanaError, one per rule
// in spec §4.C.
type ParseKanaReason string

const (
	AccentAtBeginning    ParseKanaReason = "accent mark at the start of a phrase"
	SecondAccent         ParseKanaReason = "second accent mark in the same phrase"
	NoAccent             ParseKanaReason = "no accent mark in a non-empty phrase"
	InterrogativeNotAtEnd ParseKanaReason = "interrogative mark not at the end of a phrase"
	UnknownKana          ParseKanaReason = "no mora dictionary match at the current position"
	EmptyPhrase          ParseKanaReason = "empty phrase"
	LoopLimitExceeded    ParseKanaReason = "safety loop limit exceeded"
)

// Error is the concrete error type. Kind is always one of the constants
// above; Reason and Detail add component-specific context.
type Error struct {
	Kind   Kind
	Reason ParseKanaReason // set only when Kind == ParseKanaError
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Reason != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Reason, e.Detail)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is reports whether target is this error's Kind, so errors.Is matches the
// Kind even when Unwrap leads to a wrapped underlying error instead.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New builds an Error of the given kind with a free-form detail string.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap builds an Error of the given kind around an underlying error.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err, Detail: err.Error()}
}

// ParseKana builds a ParseKanaError with a specific rule-violation reason.
func ParseKana(reason ParseKanaReason, detail string) *Error {
	return &Error{Kind: ParseKanaError, Reason: reason, Detail: detail}
}
