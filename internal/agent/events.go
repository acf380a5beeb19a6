// Package agent implements the WebSocket client for the upstream AI agent:
// one connection per logical query, a single outbound query frame, and a
// framed streaming response.
package agent

import "encoding/json"

// EventKind tags the decoded variants of inbound agent frames.
type EventKind int

const (
	// EventChunk carries an incremental piece of the streamed answer
	EventChunk EventKind = iota
	// EventEnd terminates the stream; Text, when non-empty, is the
	// authoritative final response
	EventEnd
	// EventError is a structured error from the agent
	EventError
	// EventSessionInfo covers keepalive/bookkeeping frames (session_created,
	// system, pong) that carry nothing for the caller
	EventSessionInfo
	// EventUnknown is any frame type we don't recognize; logged and skipped
	// so new upstream frame kinds don't break the stream
	EventUnknown
)

// Event is one decoded frame from the agent response stream.
type Event struct {
	Kind EventKind
	// Text is the chunk content for EventChunk, or the complete response for
	// EventEnd (may be empty when the agent only streamed chunks).
	Text string
	// Message is the error message for EventError.
	Message string
	// RawType is the frame's wire type, kept for logging unknown frames.
	RawType string
}

// The upstream agent uses several interchangeable field names for the same
// semantic payload. Extraction is "first non-empty of an ordered list" so a
// new alias is a one-line change.
var (
	chunkFields = []string{"content", "text", "chunk"}
	endFields   = []string{"complete_response", "response", "content", "text"}
)

// DecodeEvent parses one inbound agent frame. A frame that is not valid JSON
// or has no type yields an error; unrecognized types decode as EventUnknown.
func DecodeEvent(raw []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Event{}, err
	}

	frameType := stringField(fields, "type")

	switch frameType {
	case "stream_chunk":
		return Event{Kind: EventChunk, Text: firstNonEmpty(fields, chunkFields), RawType: frameType}, nil
	case "stream_end":
		return Event{Kind: EventEnd, Text: firstNonEmpty(fields, endFields), RawType: frameType}, nil
	case "error":
		msg := stringField(fields, "message")
		if msg == "" {
			msg = "Unknown agent error"
		}
		return Event{Kind: EventError, Message: msg, RawType: frameType}, nil
	case "session_created", "system", "pong":
		return Event{Kind: EventSessionInfo, RawType: frameType}, nil
	default:
		return Event{Kind: EventUnknown, RawType: frameType}, nil
	}
}

// firstNonEmpty returns the first candidate field that decodes to a non-empty
// string.
func firstNonEmpty(fields map[string]json.RawMessage, candidates []string) string {
	for _, name := range candidates {
		if s := stringField(fields, name); s != "" {
			return s
		}
	}
	return ""
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
