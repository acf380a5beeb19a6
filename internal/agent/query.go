package agent

import (
	"fmt"
	"strings"

	"github.com/krishisetu/agent-gateway/internal/language"
)

// Location is an optional user position forwarded to the agent.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// QueryContext is the context block of the outbound query frame.
type QueryContext struct {
	Language         string    `json:"language"`
	Modality         string    `json:"modality"`
	ResponseLanguage string    `json:"response_language"`
	Location         *Location `json:"location,omitempty"`
	GenerateAudio    bool      `json:"generate_audio,omitempty"`
}

// Query is the single outbound frame sent to the agent per turn.
// Immutable once constructed.
type Query struct {
	Type    string       `json:"type"`
	Message string       `json:"message"`
	Stream  bool         `json:"stream"`
	Context QueryContext `json:"context"`
}

// BuildQuery assembles the outbound agent query. When the output language is
// non-default the message is prefixed with a response-language directive that
// instructs the agent to answer entirely in that language and script.
func BuildQuery(message, outputLanguage string, modality language.Modality, loc *Location) Query {
	return Query{
		Type:    "query",
		Message: Directive(outputLanguage) + message,
		Stream:  true,
		Context: QueryContext{
			Language:         outputLanguage,
			Modality:         string(modality),
			ResponseLanguage: language.DirectiveName(outputLanguage),
			Location:         loc,
			GenerateAudio:    modality == language.ModalityVoice,
		},
	}
}

const directiveSuffix = ".]\n\n"

// Directive returns the response-language instruction prefix for lang, or ""
// for the default language.
func Directive(lang string) string {
	if lang == "" || lang == language.Default {
		return ""
	}
	name := language.DirectiveName(lang)
	return fmt.Sprintf(
		"[IMPORTANT INSTRUCTION: You MUST respond ENTIRELY in %s. "+
			"Use %s script only. Do NOT use English. "+
			"Every word of your response must be in %s"+directiveSuffix,
		name, name, name)
}

// StripDirective removes a leading response-language directive, recovering the
// original message.
func StripDirective(message string) string {
	if !strings.HasPrefix(message, "[IMPORTANT INSTRUCTION:") {
		return message
	}
	if idx := strings.Index(message, directiveSuffix); idx >= 0 {
		return message[idx+len(directiveSuffix):]
	}
	return message
}
