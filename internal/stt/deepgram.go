package stt

import (
	"bytes"
	"context"
	"fmt"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	"github.com/krishisetu/agent-gateway/internal/audio"
)

// DeepgramClient transcribes audio through Deepgram's pre-recorded REST API.
// Selected with STT_ENGINE=deepgram.
type DeepgramClient struct {
	apiKey        string
	model         string
	minAudioBytes int
	converter     *audio.Converter
	logger        zerolog.Logger
}

// NewDeepgramClient creates the Deepgram transcription engine.
func NewDeepgramClient(apiKey, model string, minAudioBytes int, converter *audio.Converter, logger zerolog.Logger) *DeepgramClient {
	return &DeepgramClient{
		apiKey:        apiKey,
		model:         model,
		minAudioBytes: minAudioBytes,
		converter:     converter,
		logger:        logger,
	}
}

// Transcribe implements Transcriber.
func (c *DeepgramClient) Transcribe(ctx context.Context, audioBytes []byte, formatHint, languageHint string) (string, error) {
	if len(audioBytes) < c.minAudioBytes {
		return "", NewError(KindAudioTooSmall,
			fmt.Sprintf("audio payload is %d bytes, below the %d byte minimum", len(audioBytes), c.minAudioBytes), nil)
	}

	wav, err := c.converter.ToWAV(ctx, audioBytes, formatHint)
	if err != nil {
		return "", NewError(KindDecodeFailed, "audio normalization failed", err)
	}

	locale := Locale(languageHint)
	c.logger.Debug().
		Str("model", c.model).
		Str("locale", locale).
		Int("wav_bytes", len(wav)).
		Msg("Sending audio to Deepgram")

	client := listenClient.NewREST(c.apiKey, &interfaces.ClientOptions{})
	dg := listenv1rest.New(client)

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       c.model,
		Language:    locale,
		Punctuate:   true,
		SmartFormat: true,
	}

	res, err := dg.FromStream(ctx, bytes.NewReader(wav), options)
	if err != nil {
		return "", NewError(KindServiceError, "deepgram transcription failed", err)
	}

	if res == nil || res.Results == nil || len(res.Results.Channels) == 0 ||
		len(res.Results.Channels[0].Alternatives) == 0 {
		return "", NewError(KindNotUnderstood, "no speech recognized", nil)
	}

	transcript := res.Results.Channels[0].Alternatives[0].Transcript
	if transcript == "" {
		return "", NewError(KindNotUnderstood, "no speech recognized", nil)
	}
	return transcript, nil
}
