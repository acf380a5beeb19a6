// Package language implements the gateway's language policy: the fixed set of
// supported languages, script-based detection of input text, and the rules for
// choosing the response language per modality.
package language

// Default is the language used whenever nothing better is known.
const Default = "en"

// Supported is the fixed set of language tags the gateway handles.
// The product requirement is exactly these ten; anything else collapses
// to Default before downstream use.
var Supported = map[string]string{
	"en": "English",
	"hi": "हिंदी (Hindi)",
	"bn": "বাংলা (Bengali)",
	"te": "తెలుగు (Telugu)",
	"ta": "தமிழ் (Tamil)",
	"mr": "मराठी (Marathi)",
	"gu": "ગુજરાતી (Gujarati)",
	"kn": "ಕನ್ನಡ (Kannada)",
	"ml": "മലയാളം (Malayalam)",
	"pa": "ਪੰਜਾਬੀ (Punjabi)",
}

// directiveNames is how each language is referred to inside the agent
// response-language directive.
var directiveNames = map[string]string{
	"en": "English",
	"hi": "Hindi (हिंदी)",
	"bn": "Bengali (বাংলা)",
	"te": "Telugu (తెలుగు)",
	"ta": "Tamil (தமிழ்)",
	"mr": "Marathi (मराठी)",
	"gu": "Gujarati (ગુજરાતી)",
	"kn": "Kannada (ಕನ್ನಡ)",
	"ml": "Malayalam (മലയാളം)",
	"pa": "Punjabi (ਪੰਜਾਬੀ)",
}

// IsSupported reports whether tag is one of the supported language tags.
func IsSupported(tag string) bool {
	_, ok := Supported[tag]
	return ok
}

// Normalize validates tag and falls back to Default if it is empty or unsupported.
func Normalize(tag string) string {
	if !IsSupported(tag) {
		return Default
	}
	return tag
}

// Name returns the display name for a supported tag, or "" if unsupported.
func Name(tag string) string {
	return Supported[tag]
}

// DirectiveName returns the name used in agent instructions for tag,
// falling back to the tag itself when unmapped.
func DirectiveName(tag string) string {
	if name, ok := directiveNames[tag]; ok {
		return name
	}
	return tag
}

// Tags returns the supported tags in a stable order.
func Tags() []string {
	return []string{"en", "hi", "bn", "te", "ta", "mr", "gu", "kn", "ml", "pa"}
}
