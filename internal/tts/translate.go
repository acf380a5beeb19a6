package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	translateTTSURL    = "https://translate.google.com/translate_tts"
	translateChunkSize = 200
	translateUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// TranslateClient synthesizes speech with the unofficial Google Translate
// text-to-speech endpoint. It is the fallback engine: lower quality than the
// neural voices but resilient when the primary service misbehaves.
type TranslateClient struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewTranslateClient creates a fallback TTS client with the given per-request
// timeout.
func NewTranslateClient(timeout time.Duration, logger zerolog.Logger) *TranslateClient {
	return &TranslateClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "tts_translate").Logger(),
	}
}

// Synthesize renders text as MP3 audio. Long texts are split on whitespace
// into chunks the endpoint accepts; MP3 segments concatenate cleanly.
func (c *TranslateClient) Synthesize(ctx context.Context, text, languageTag string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	lang := TranslateLang(languageTag)
	var audio bytes.Buffer
	for _, chunk := range splitChunks(text, translateChunkSize) {
		segment, err := c.fetchChunk(ctx, chunk, lang)
		if err != nil {
			return nil, err
		}
		audio.Write(segment)
	}
	if audio.Len() == 0 {
		return nil, fmt.Errorf("synthesis produced no audio")
	}
	return audio.Bytes(), nil
}

func (c *TranslateClient) fetchChunk(ctx context.Context, chunk, lang string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", lang)
	params.Set("q", chunk)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, translateTTSURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building tts request: %w", err)
	}
	req.Header.Set("User-Agent", translateUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts service returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tts response: %w", err)
	}
	return data, nil
}

// splitChunks splits text on whitespace into pieces of at most max runes.
// A single word longer than max becomes its own chunk.
func splitChunks(text string, max int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current strings.Builder
	currentLen := 0
	for _, word := range words {
		wordLen := len([]rune(word))
		if currentLen > 0 && currentLen+1+wordLen > max {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
