package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/krishisetu/agent-gateway/internal/agent"
	"github.com/krishisetu/agent-gateway/internal/config"
	"github.com/krishisetu/agent-gateway/internal/language"
)

const maxChatMessageLen = 5000

// ChatRequest is the non-streaming text request body.
type ChatRequest struct {
	Message  string          `json:"message"`
	Language string          `json:"language"`
	Location *agent.Location `json:"location,omitempty"`
}

// ChatResponse is the non-streaming text reply.
type ChatResponse struct {
	Response         string `json:"response"`
	Language         string `json:"language"`
	DetectedLanguage string `json:"detected_language"`
	Success          bool   `json:"success"`
}

// ChatHandler serves the plain-text path: one request, one fully drained
// agent session, one response. The same language policy and sanitation as
// the voice path apply, without chunk relay or synthesis.
type ChatHandler struct {
	cfg      *config.Config
	newAgent AgentDialer
	logger   zerolog.Logger
}

// NewChatHandler wires the text chat endpoint.
func NewChatHandler(cfg *config.Config, newAgent AgentDialer, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		cfg:      cfg,
		newAgent: newAgent,
		logger:   logger.With().Str("component", "chat_handler").Logger(),
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message must not be empty"})
		return
	}
	if len(req.Message) > maxChatMessageLen {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message too long"})
		return
	}

	uiLang := strings.ToLower(strings.TrimSpace(req.Language))
	detected, outputLang := language.Resolve(req.Message, uiLang, language.ModalityText)

	response, err := h.queryAgent(r.Context(), req.Message, outputLang, req.Location)
	if err != nil {
		h.logger.Error().Err(err).Msg("chat agent query failed")
		writeJSON(w, http.StatusOK, ChatResponse{
			Response:         agentErrorMessage(err),
			Language:         outputLang,
			DetectedLanguage: detected,
			Success:          false,
		})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:         agent.Sanitize(response),
		Language:         outputLang,
		DetectedLanguage: detected,
		Success:          true,
	})
}

func (h *ChatHandler) queryAgent(ctx context.Context, message, outputLang string, loc *agent.Location) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.AgentDrainTimeout())
	defer cancel()

	client := h.newAgent()
	defer client.Close()

	if err := client.Dial(ctx); err != nil {
		return "", err
	}
	query := agent.BuildQuery(message, outputLang, language.ModalityText, loc)
	if err := client.Send(query); err != nil {
		return "", err
	}
	return agent.Collect(ctx, client.Stream(ctx))
}

// LanguagesHandler lists the supported languages with native display names.
func LanguagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		langs := make([]map[string]string, 0, len(language.Tags()))
		for _, tag := range language.Tags() {
			langs = append(langs, map[string]string{
				"code": tag,
				"name": language.Name(tag),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"languages": langs,
			"default":   language.Default,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
