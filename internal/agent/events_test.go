package agent

import "testing"

func TestDecodeEvent_ChunkFieldAliases(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"content field", `{"type":"stream_chunk","content":"hello"}`, "hello"},
		{"text field", `{"type":"stream_chunk","text":"hello"}`, "hello"},
		{"chunk field", `{"type":"stream_chunk","chunk":"hello"}`, "hello"},
		{"content wins over text", `{"type":"stream_chunk","content":"a","text":"b"}`, "a"},
		{"empty content falls through", `{"type":"stream_chunk","content":"","text":"b"}`, "b"},
		{"non-string skipped", `{"type":"stream_chunk","content":42,"text":"b"}`, "b"},
		{"no payload", `{"type":"stream_chunk"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}
			if ev.Kind != EventChunk {
				t.Fatalf("Expected EventChunk, got %d", ev.Kind)
			}
			if ev.Text != tt.expected {
				t.Errorf("Expected text %q, got %q", tt.expected, ev.Text)
			}
		})
	}
}

func TestDecodeEvent_EndFieldAliases(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{`{"type":"stream_end","complete_response":"full"}`, "full"},
		{`{"type":"stream_end","response":"full"}`, "full"},
		{`{"type":"stream_end","content":"full"}`, "full"},
		{`{"type":"stream_end","text":"full"}`, "full"},
		{`{"type":"stream_end","response":"r","content":"c"}`, "r"},
		{`{"type":"stream_end"}`, ""},
	}

	for _, tt := range tests {
		ev, err := DecodeEvent([]byte(tt.raw))
		if err != nil {
			t.Fatalf("DecodeEvent(%s) failed: %v", tt.raw, err)
		}
		if ev.Kind != EventEnd {
			t.Fatalf("Expected EventEnd, got %d", ev.Kind)
		}
		if ev.Text != tt.expected {
			t.Errorf("DecodeEvent(%s): expected %q, got %q", tt.raw, tt.expected, ev.Text)
		}
	}
}

func TestDecodeEvent_ErrorFrame(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"error","message":"boom"}`))
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if ev.Kind != EventError || ev.Message != "boom" {
		t.Errorf("Expected error event with message 'boom', got %+v", ev)
	}

	ev, _ = DecodeEvent([]byte(`{"type":"error"}`))
	if ev.Message == "" {
		t.Error("Expected a default message for a bare error frame")
	}
}

func TestDecodeEvent_SessionInfoFrames(t *testing.T) {
	for _, frameType := range []string{"session_created", "system", "pong"} {
		ev, err := DecodeEvent([]byte(`{"type":"` + frameType + `"}`))
		if err != nil {
			t.Fatalf("DecodeEvent(%s) failed: %v", frameType, err)
		}
		if ev.Kind != EventSessionInfo {
			t.Errorf("Expected %s to decode as EventSessionInfo, got %d", frameType, ev.Kind)
		}
	}
}

func TestDecodeEvent_UnknownFrame(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"telemetry","data":1}`))
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if ev.Kind != EventUnknown || ev.RawType != "telemetry" {
		t.Errorf("Expected unknown event with raw type 'telemetry', got %+v", ev)
	}
}

func TestDecodeEvent_MalformedJSON(t *testing.T) {
	if _, err := DecodeEvent([]byte(`not json`)); err == nil {
		t.Error("Expected error for malformed frame")
	}
}
