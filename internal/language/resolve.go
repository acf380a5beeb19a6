package language

// Modality distinguishes the two input paths through the gateway.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityVoice Modality = "voice"
)

// Resolve decides the detected input language and the response language.
//
// Voice input: detection is skipped entirely and both values equal the UI
// selection — transcription language hints are too unreliable to steer output.
//
// Text input: the classifier runs, unsupported results collapse to Default,
// and an explicit non-default UI selection wins over a Default detection
// (short or ambiguous text defaults to Latin script, but the user's UI
// choice is a stronger signal).
func Resolve(inputText, uiLanguage string, modality Modality) (detected, output string) {
	if modality == ModalityVoice {
		ui := Normalize(uiLanguage)
		return ui, ui
	}

	detected = Normalize(Classify(inputText))

	if detected == Default && uiLanguage != Default && IsSupported(uiLanguage) {
		return detected, uiLanguage
	}

	return detected, detected
}
