// Package gateway implements the client-facing WebSocket surface: the
// connection registry, the per-connection voice orchestrator, and the
// non-streaming text chat endpoint.
package gateway

import (
	"github.com/krishisetu/agent-gateway/internal/agent"
)

// Inbound frame types.
const (
	FrameAudioStream = "audio_stream"
	FramePing        = "ping"
)

// Outbound frame types.
const (
	FrameTranscript  = "transcript"
	FrameStreamChunk = "stream_chunk"
	FrameStreamEnd   = "stream_end"
	FrameAudioURL    = "audio_url"
	FrameError       = "error"
	FramePong        = "pong"
)

// InboundFrame is a client-to-gateway message. One JSON object per logical
// event.
type InboundFrame struct {
	Type       string          `json:"type"`
	AudioData  string          `json:"audio_data,omitempty"`
	Format     string          `json:"format,omitempty"`
	IsFirst    bool            `json:"is_first,omitempty"`
	IsFinal    bool            `json:"is_final,omitempty"`
	UILanguage string          `json:"ui_language,omitempty"`
	Location   *agent.Location `json:"location,omitempty"`
}

// OutboundFrame is a gateway-to-client message.
type OutboundFrame struct {
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	Language string `json:"language,omitempty"`
	URL      string `json:"url,omitempty"`
	Message  string `json:"message,omitempty"`
}

func transcriptFrame(content, lang string) OutboundFrame {
	return OutboundFrame{Type: FrameTranscript, Content: content, Language: lang}
}

func chunkFrame(content string) OutboundFrame {
	return OutboundFrame{Type: FrameStreamChunk, Content: content}
}

func streamEndFrame(content, lang string) OutboundFrame {
	return OutboundFrame{Type: FrameStreamEnd, Content: content, Language: lang}
}

func audioURLFrame(url, lang string) OutboundFrame {
	return OutboundFrame{Type: FrameAudioURL, URL: url, Language: lang}
}

func errorFrame(message string) OutboundFrame {
	return OutboundFrame{Type: FrameError, Message: message}
}

func pongFrame() OutboundFrame {
	return OutboundFrame{Type: FramePong}
}
