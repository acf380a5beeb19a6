package language

import (
	"regexp"
	"strings"
)

// Romanized-Hindi (Hinglish) marker patterns: Latin-script text carrying
// high-frequency Hindi function words or farming vocabulary.
var hinglishPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(kaise|kya|kab|kahan|kyun|aap|tum|hum|main|hai|hain|ho|kar|ke|ko|ka|ki)\b`),
	regexp.MustCompile(`\b(bharat|desh|log|sab|bahut|thoda|jyada|kam|achha|bura)\b`),
	regexp.MustCompile(`\b(kheti|fasal|pani|barish|mausam|zameen|khet)\b`),
}

var hinglishWords = map[string]bool{
	"kaise": true, "kya": true, "kab": true, "kahan": true, "kyun": true,
	"aap": true, "tum": true, "hum": true, "main": true, "hai": true,
	"hain": true, "ho": true, "kar": true, "ke": true, "ko": true,
	"ka": true, "ki": true, "bharat": true, "desh": true, "kheti": true,
	"fasal": true, "pani": true, "barish": true, "mausam": true,
}

// hinglishWordThreshold is the fraction of marker words above which Latin
// text is treated as romanized Hindi.
const hinglishWordThreshold = 0.3

// scriptRange binds a Unicode block to a language tag. Checked in order;
// the first block with a matching rune wins. Devanagari maps to Hindi —
// Marathi shares the script and is only reachable via explicit UI selection.
type scriptRange struct {
	lo, hi rune
	tag    string
}

var scriptRanges = []scriptRange{
	{0x0900, 0x097F, "hi"}, // Devanagari
	{0x0980, 0x09FF, "bn"}, // Bengali
	{0x0C00, 0x0C7F, "te"}, // Telugu
	{0x0B80, 0x0BFF, "ta"}, // Tamil
	{0x0A80, 0x0AFF, "gu"}, // Gujarati
	{0x0C80, 0x0CFF, "kn"}, // Kannada
	{0x0D00, 0x0D7F, "ml"}, // Malayalam
	{0x0A00, 0x0A7F, "pa"}, // Gurmukhi
}

// Classify detects the language of text. It never fails: when neither a
// native script nor romanization markers are present it returns Default.
// Romanization detection runs first because short romanized inputs contain
// no native-script characters at all.
func Classify(text string) string {
	if isHinglish(text) {
		return "hi"
	}

	for _, r := range text {
		for _, sr := range scriptRanges {
			if r >= sr.lo && r <= sr.hi {
				return sr.tag
			}
		}
	}

	return Default
}

// isHinglish reports whether Latin-script text looks like romanized Hindi.
func isHinglish(text string) bool {
	lower := strings.ToLower(text)

	for _, pattern := range hinglishPatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}

	words := strings.Fields(lower)
	if len(words) == 0 {
		return false
	}
	matches := 0
	for _, w := range words {
		if hinglishWords[w] {
			matches++
		}
	}
	return float64(matches)/float64(len(words)) > hinglishWordThreshold
}
