package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/krishisetu/agent-gateway/internal/agent"
)

func newChatHandler(t *testing.T, agentURL string) *ChatHandler {
	t.Helper()
	cfg := testConfig()
	dialer := func() *agent.Client {
		return agent.NewClient(agentURL, time.Second, cfg.AgentMaxRetries, zerolog.Nop())
	}
	return NewChatHandler(cfg, dialer, zerolog.Nop())
}

func postChat(t *testing.T, h *ChatHandler, body string) (*httptest.ResponseRecorder, ChatResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp ChatResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, resp
}

func TestChatReturnsSanitizedAgentResponse(t *testing.T) {
	agentURL := fakeAgentServer(t, func(conn *websocket.Conn) {
		sendJSON(t, conn, map[string]any{"type": "stream_chunk", "content": "partial"})
		sendJSON(t, conn, map[string]any{"type": "stream_end", "complete_response": "undefined  the answer  undefined"})
	})
	h := newChatHandler(t, agentURL)

	rec, resp := postChat(t, h, `{"message":"what is the weather","language":"en"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !resp.Success {
		t.Fatalf("success = false: %+v", resp)
	}
	if resp.Response != "the answer" {
		t.Errorf("response = %q, want sanitized text", resp.Response)
	}
	if resp.Language != "en" || resp.DetectedLanguage != "en" {
		t.Errorf("languages = %q/%q", resp.Language, resp.DetectedLanguage)
	}
}

func TestChatAppliesUILanguageOverride(t *testing.T) {
	agentURL := fakeAgentServer(t, func(conn *websocket.Conn) {
		sendJSON(t, conn, map[string]any{"type": "stream_end", "complete_response": "ठीक है"})
	})
	h := newChatHandler(t, agentURL)

	// Short Latin-script text classifies as the default language; an explicit
	// non-default UI selection wins for output.
	_, resp := postChat(t, h, `{"message":"ok","language":"hi"}`)
	if resp.DetectedLanguage != "en" {
		t.Errorf("detected = %q, want en", resp.DetectedLanguage)
	}
	if resp.Language != "hi" {
		t.Errorf("language = %q, want hi", resp.Language)
	}
}

func TestChatValidation(t *testing.T) {
	h := newChatHandler(t, "ws://127.0.0.1:1/unused")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty message", `{"message":"  ","language":"en"}`, http.StatusBadRequest},
		{"oversized message", `{"message":"` + strings.Repeat("x", maxChatMessageLen+1) + `","language":"en"}`, http.StatusBadRequest},
		{"bad json", `{nope`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := postChat(t, h, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestChatRejectsNonPost(t *testing.T) {
	h := newChatHandler(t, "ws://127.0.0.1:1/unused")
	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestChatAgentFailureReturnsFriendlyMessage(t *testing.T) {
	h := newChatHandler(t, "ws://127.0.0.1:1/unused")

	rec, resp := postChat(t, h, `{"message":"hello","language":"en"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Success {
		t.Error("success should be false when the agent is unreachable")
	}
	if resp.Response == "" {
		t.Error("response should carry a user-facing message")
	}
}

func TestLanguagesHandlerListsAllSupported(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/languages", nil)
	rec := httptest.NewRecorder()
	LanguagesHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Languages []map[string]string `json:"languages"`
		Default   string              `json:"default"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Languages) != 10 {
		t.Errorf("languages = %d, want 10", len(body.Languages))
	}
	if body.Default != "en" {
		t.Errorf("default = %q, want en", body.Default)
	}
}
