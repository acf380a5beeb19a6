package stt

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/krishisetu/agent-gateway/internal/audio"
)

const googleSpeechEndpoint = "http://www.google.com/speech-api/v2/recognize"

// GoogleClient transcribes audio through the Chromium speech endpoint. The
// payload is normalized to mono 16kHz 16-bit PCM before upload.
type GoogleClient struct {
	apiKey        string
	minAudioBytes int
	converter     *audio.Converter
	httpClient    *http.Client
	logger        zerolog.Logger
}

// NewGoogleClient creates the default transcription engine.
func NewGoogleClient(apiKey string, minAudioBytes int, converter *audio.Converter, timeout time.Duration, logger zerolog.Logger) *GoogleClient {
	return &GoogleClient{
		apiKey:        apiKey,
		minAudioBytes: minAudioBytes,
		converter:     converter,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

// googleResult mirrors the endpoint's line-delimited JSON response.
type googleResult struct {
	Result []struct {
		Alternative []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternative"`
		Final bool `json:"final"`
	} `json:"result"`
}

// Transcribe implements Transcriber.
func (c *GoogleClient) Transcribe(ctx context.Context, audioBytes []byte, formatHint, languageHint string) (string, error) {
	if len(audioBytes) < c.minAudioBytes {
		return "", NewError(KindAudioTooSmall,
			fmt.Sprintf("audio payload is %d bytes, below the %d byte minimum", len(audioBytes), c.minAudioBytes), nil)
	}

	wav, err := c.converter.ToWAV(ctx, audioBytes, formatHint)
	if err != nil {
		return "", NewError(KindDecodeFailed, "audio normalization failed", err)
	}
	pcm, err := audio.PCMFromWAV(wav)
	if err != nil {
		return "", NewError(KindDecodeFailed, "unexpected normalized waveform", err)
	}

	locale := Locale(languageHint)
	c.logger.Debug().
		Str("locale", locale).
		Int("pcm_bytes", len(pcm)).
		Msg("Sending audio to speech recognition")

	transcript, err := c.recognize(ctx, pcm, locale)
	if err != nil {
		return "", err
	}
	if transcript == "" {
		return "", NewError(KindNotUnderstood, "no speech recognized", nil)
	}
	return transcript, nil
}

func (c *GoogleClient) recognize(ctx context.Context, pcm []byte, locale string) (string, error) {
	params := url.Values{}
	params.Set("client", "chromium")
	params.Set("lang", locale)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		googleSpeechEndpoint+"?"+params.Encode(), bytes.NewReader(pcm))
	if err != nil {
		return "", NewError(KindUnexpected, "failed to build recognition request", err)
	}
	req.Header.Set("Content-Type", fmt.Sprintf("audio/l16; rate=%d", audio.SampleRate))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", NewError(KindServiceError, "speech recognition request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", NewError(KindServiceError,
			fmt.Sprintf("speech recognition returned status %d", resp.StatusCode), nil)
	}

	// The endpoint streams one JSON object per line; the first line is often
	// an empty result placeholder.
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var parsed googleResult
		if err := json.Unmarshal(line, &parsed); err != nil {
			continue
		}
		for _, result := range parsed.Result {
			if len(result.Alternative) > 0 && result.Alternative[0].Transcript != "" {
				return result.Alternative[0].Transcript, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", NewError(KindServiceError, "failed reading recognition response", err)
	}

	return "", nil
}
