// Package stt wraps external transcription engines behind a uniform contract
// with a small error taxonomy. None of these error kinds are fatal to a
// client connection; they abort at most the current turn.
package stt

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies transcription failures.
type ErrorKind int

const (
	// KindAudioTooSmall means the payload is below the minimum byte
	// threshold — almost certainly an empty recording
	KindAudioTooSmall ErrorKind = iota
	// KindDecodeFailed means container normalization failed even after the
	// generic-format retry
	KindDecodeFailed
	// KindNotUnderstood means the engine ran but recognized no speech;
	// user-facing and non-fatal
	KindNotUnderstood
	// KindServiceError means the engine or network failed; the turn aborts
	KindServiceError
	// KindUnexpected is anything else; logged, the turn aborts
	KindUnexpected
)

// Error is a classified transcription failure.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a classified transcription error.
func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the classification from err, defaulting to KindUnexpected.
func KindOf(err error) ErrorKind {
	var sttErr *Error
	if errors.As(err, &sttErr) {
		return sttErr.Kind
	}
	return KindUnexpected
}

// UserMessage returns the text shown to the client for a transcription
// failure. Engine internals are never surfaced directly.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindAudioTooSmall:
		return "Audio data too small — possibly empty recording"
	case KindDecodeFailed:
		return "Could not decode the audio recording. Please try again."
	case KindNotUnderstood:
		return "Could not understand the audio. Please speak clearly and try again."
	case KindServiceError:
		return "Speech recognition service error. Please try again."
	default:
		return "Transcription failed. Please try again."
	}
}

// Transcriber is the uniform speech-to-text contract.
type Transcriber interface {
	// Transcribe converts raw audio bytes to text. formatHint names the
	// container the client recorded; languageHint is a supported language
	// tag used to pick the engine locale.
	Transcribe(ctx context.Context, audio []byte, formatHint, languageHint string) (string, error)
}

// localeMap maps supported language tags to BCP-47 locales for the
// recognition engines. Unmapped tags fall back to the default locale.
var localeMap = map[string]string{
	"en": "en-IN",
	"hi": "hi-IN",
	"bn": "bn-IN",
	"te": "te-IN",
	"ta": "ta-IN",
	"mr": "mr-IN",
	"gu": "gu-IN",
	"kn": "kn-IN",
	"ml": "ml-IN",
	"pa": "pa-IN",
}

const defaultLocale = "en-IN"

// Locale maps a language tag to the engine locale.
func Locale(languageTag string) string {
	if locale, ok := localeMap[languageTag]; ok {
		return locale
	}
	return defaultLocale
}
