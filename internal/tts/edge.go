package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	edgeTrustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	edgeWSSURL             = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	edgeOutputFormat       = "audio-24khz-48kbitrate-mono-mp3"
	edgeUserAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.0.0"
	edgeOrigin             = "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"
)

// EdgeClient synthesizes speech with the Microsoft Edge read-aloud service
// over a WebSocket. Each Synthesize call opens a fresh connection, sends the
// speech config and one SSML request, and collects binary audio frames until
// the service signals the end of the turn.
type EdgeClient struct {
	dialer  *websocket.Dialer
	timeout time.Duration
	logger  zerolog.Logger
}

// NewEdgeClient creates an Edge TTS client with the given per-request timeout.
func NewEdgeClient(timeout time.Duration, logger zerolog.Logger) *EdgeClient {
	return &EdgeClient{
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		timeout: timeout,
		logger:  logger.With().Str("component", "tts_edge").Logger(),
	}
}

// Synthesize renders text as MP3 audio using the neural voice mapped to the
// language tag.
func (c *EdgeClient) Synthesize(ctx context.Context, text, languageTag string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	connID := strings.ReplaceAll(uuid.New().String(), "-", "")
	url := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s", edgeWSSURL, edgeTrustedClientToken, connID)

	header := http.Header{}
	header.Set("User-Agent", edgeUserAgent)
	header.Set("Origin", edgeOrigin)

	conn, _, err := c.dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dialing edge tts: %w", err)
	}
	defer conn.Close()

	// Unblock reads when the context expires.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(speechConfigMessage())); err != nil {
		return nil, fmt.Errorf("sending speech config: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMessage(connID, text, EdgeVoice(languageTag)))); err != nil {
		return nil, fmt.Errorf("sending ssml request: %w", err)
	}

	var audio bytes.Buffer
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("reading synthesis stream: %w", err)
		}
		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				if audio.Len() == 0 {
					return nil, fmt.Errorf("synthesis produced no audio")
				}
				return audio.Bytes(), nil
			}
		case websocket.BinaryMessage:
			payload, ok := audioPayload(data)
			if ok {
				audio.Write(payload)
			}
		}
	}
}

// audioPayload strips the length-prefixed header block from a binary frame
// and returns the audio bytes. Frames whose header path is not exactly
// "audio" (audio.metadata in particular) carry no payload for us.
func audioPayload(frame []byte) ([]byte, bool) {
	if len(frame) < 2 {
		return nil, false
	}
	headerLen := int(binary.BigEndian.Uint16(frame[:2]))
	if len(frame) < 2+headerLen {
		return nil, false
	}
	headers := string(frame[2 : 2+headerLen])
	for _, line := range strings.Split(headers, "\r\n") {
		if line == "Path:audio" {
			return frame[2+headerLen:], true
		}
	}
	return nil, false
}

func speechConfigMessage() string {
	config := `{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` + edgeOutputFormat + `"}}}}`
	return "X-Timestamp:" + edgeTimestamp() + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		config
}

func ssmlMessage(requestID, text, voice string) string {
	ssml := fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'><voice name='%s'><prosody pitch='+0Hz' rate='+0%%' volume='+0%%'>%s</prosody></voice></speak>`,
		voice, html.EscapeString(text),
	)
	return "X-RequestId:" + requestID + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + edgeTimestamp() + "\r\n" +
		"Path:ssml\r\n\r\n" +
		ssml
}

func edgeTimestamp() string {
	return time.Now().UTC().Format("Mon Jan 02 2006 15:04:05") + " GMT+0000 (Coordinated Universal Time)"
}
