package gateway

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/krishisetu/agent-gateway/internal/agent"
	"github.com/krishisetu/agent-gateway/internal/artifact"
	"github.com/krishisetu/agent-gateway/internal/config"
	"github.com/krishisetu/agent-gateway/internal/observability"
	"github.com/krishisetu/agent-gateway/internal/stt"
	"github.com/krishisetu/agent-gateway/internal/tts"
)

// Handler accepts client voice connections and runs one Session per socket.
type Handler struct {
	cfg         *config.Config
	registry    *Registry
	transcriber stt.Transcriber
	synthesizer tts.Synthesizer
	store       *artifact.Store
	logger      zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewHandler wires the voice endpoint.
func NewHandler(cfg *config.Config, registry *Registry, transcriber stt.Transcriber,
	synthesizer tts.Synthesizer, store *artifact.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		cfg:         cfg,
		registry:    registry,
		transcriber: transcriber,
		synthesizer: synthesizer,
		store:       store,
		logger:      logger.With().Str("component", "voice_handler").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the connection's read loop. The
// goroutine serving this request owns the session for its whole lifetime.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := observability.NewConnectionID()
	h.registry.Register(connID, conn)

	session := NewSession(connID, h.registry, h.transcriber, h.synthesizer,
		h.store, h.cfg, h.agentDialer(), h.logger)
	session.metrics.RecordConnect()

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error().Interface("panic", rec).Str("connection_id", connID).
				Msg("connection task panicked")
		}
		session.Close()
		session.metrics.RecordDisconnect()
		h.registry.Unregister(connID)
	}()

	ctx := r.Context()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn().Err(err).Str("connection_id", connID).Msg("client read failed")
			}
			return
		}
		session.HandleFrame(ctx, raw)
	}
}

func (h *Handler) agentDialer() AgentDialer {
	return NewAgentDialer(h.cfg, h.logger)
}

// NewAgentDialer builds the per-turn upstream client factory from config.
// Each call of the returned function yields a fresh single-query session.
func NewAgentDialer(cfg *config.Config, logger zerolog.Logger) AgentDialer {
	return func() *agent.Client {
		return agent.NewClient(cfg.AgentWSURL, cfg.AgentDialTimeout(), cfg.AgentMaxRetries, logger)
	}
}
