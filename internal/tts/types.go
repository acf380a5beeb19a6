// Package tts wraps the speech synthesis engines behind a primary/fallback
// chain. Synthesis failure is never fatal to a turn; the caller logs and
// moves on.
package tts

import "context"

// Synthesizer converts text to MP3 audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageTag string) ([]byte, error)
}

// edgeVoiceMap maps supported language tags to Microsoft Edge neural voices.
var edgeVoiceMap = map[string]string{
	"en": "en-IN-NeerjaNeural",
	"hi": "hi-IN-SwaraNeural",
	"bn": "bn-IN-TanishaaNeural",
	"te": "te-IN-ShrutiNeural",
	"ta": "ta-IN-PallaviNeural",
	"mr": "mr-IN-AarohiNeural",
	"gu": "gu-IN-DhwaniNeural",
	"kn": "kn-IN-SapnaNeural",
	"ml": "ml-IN-SobhanaNeural",
	"pa": "pa-IN-SalmanNeural",
}

const defaultEdgeVoice = "en-IN-NeerjaNeural"

// EdgeVoice maps a language tag to an Edge neural voice, falling back to the
// default voice for unmapped tags.
func EdgeVoice(languageTag string) string {
	if voice, ok := edgeVoiceMap[languageTag]; ok {
		return voice
	}
	return defaultEdgeVoice
}

// translateLangMap maps supported tags to the fallback engine's language
// codes (they happen to coincide).
var translateLangMap = map[string]string{
	"en": "en", "hi": "hi", "bn": "bn", "te": "te", "ta": "ta",
	"mr": "mr", "gu": "gu", "kn": "kn", "ml": "ml", "pa": "pa",
}

// TranslateLang maps a language tag to the fallback engine's code.
func TranslateLang(languageTag string) string {
	if code, ok := translateLangMap[languageTag]; ok {
		return code
	}
	return "en"
}
