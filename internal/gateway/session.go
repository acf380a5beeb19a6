package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/krishisetu/agent-gateway/internal/agent"
	"github.com/krishisetu/agent-gateway/internal/artifact"
	"github.com/krishisetu/agent-gateway/internal/config"
	"github.com/krishisetu/agent-gateway/internal/language"
	"github.com/krishisetu/agent-gateway/internal/observability"
	"github.com/krishisetu/agent-gateway/internal/stt"
	"github.com/krishisetu/agent-gateway/internal/tts"
)

// State is the per-connection orchestrator state. Each connection owns its
// own value; turns on one connection never interleave.
type State int

const (
	StateIdle State = iota
	StateAwaitingFirstAudio
	StateTranscribing
	StateQueryingAgent
	StateSynthesizing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstAudio:
		return "awaiting_first_audio"
	case StateTranscribing:
		return "transcribing"
	case StateQueryingAgent:
		return "querying_agent"
	case StateSynthesizing:
		return "synthesizing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AgentDialer creates a fresh upstream client for one query session.
type AgentDialer func() *agent.Client

// Session is the voice orchestrator for one client connection. It consumes
// inbound frames, sequences transcription, the agent stream, and synthesis,
// and emits outbound frames through the Sender. All methods run on the
// connection's reader goroutine, so turn state needs no locking.
type Session struct {
	id          string
	sender      Sender
	transcriber stt.Transcriber
	synthesizer tts.Synthesizer
	store       *artifact.Store
	cfg         *config.Config
	newAgent    AgentDialer
	logger      zerolog.Logger
	metrics     *observability.ConnMetrics

	state        State
	uiLanguage   string
	turnLocation *agent.Location
}

// NewSession creates the orchestrator for one connection.
func NewSession(id string, sender Sender, transcriber stt.Transcriber, synthesizer tts.Synthesizer,
	store *artifact.Store, cfg *config.Config, newAgent AgentDialer, logger zerolog.Logger) *Session {
	return &Session{
		id:          id,
		sender:      sender,
		transcriber: transcriber,
		synthesizer: synthesizer,
		store:       store,
		cfg:         cfg,
		newAgent:    newAgent,
		logger:      logger.With().Str("connection_id", id).Logger(),
		metrics:     observability.NewConnMetrics(id),
		state:       StateIdle,
		uiLanguage:  language.Default,
	}
}

// State reports the current orchestrator state.
func (s *Session) State() State {
	return s.state
}

// Close marks the session terminal. Further frames are ignored.
func (s *Session) Close() {
	s.state = StateClosed
}

// HandleFrame processes one inbound client frame. All per-turn failures are
// converted to an error frame; nothing here terminates the connection.
func (s *Session) HandleFrame(ctx context.Context, raw []byte) {
	if s.state == StateClosed {
		return
	}

	frame, err := decodeInbound(raw)
	if err != nil {
		s.logger.Warn().Err(err).Msg("malformed client frame")
		s.send(errorFrame("Invalid message format."))
		return
	}

	switch frame.Type {
	case FramePing:
		s.send(pongFrame())
	case FrameAudioStream:
		s.handleAudio(ctx, frame)
	default:
		s.send(errorFrame("Unsupported message type: " + frame.Type))
	}
}

func (s *Session) handleAudio(ctx context.Context, frame InboundFrame) {
	if frame.IsFirst {
		s.uiLanguage = language.Normalize(frame.UILanguage)
		s.turnLocation = frame.Location
		if s.state == StateIdle {
			s.state = StateAwaitingFirstAudio
		}
	} else if frame.Location != nil {
		s.turnLocation = frame.Location
	}

	if frame.AudioData == "" {
		s.send(errorFrame("No audio data received."))
		return
	}
	if !frame.IsFinal {
		// The final fragment carries the complete payload; earlier fragments
		// only declare turn metadata.
		return
	}

	s.processTurn(ctx, frame)
}

// processTurn runs one complete voice exchange: decode, transcribe, query the
// agent with live chunk relay, sanitize, synthesize.
func (s *Session) processTurn(ctx context.Context, frame InboundFrame) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("turn processing panicked")
			s.send(errorFrame("Something went wrong. Please try again."))
			s.metrics.RecordError("panic", "orchestrator")
			s.state = StateIdle
		}
	}()

	s.metrics.RecordTurnStart()
	s.state = StateTranscribing

	audioBytes, err := decodeAudioPayload(frame.AudioData)
	if err != nil {
		s.logger.Warn().Err(err).Msg("audio payload decode failed")
		s.send(errorFrame("Audio data is not valid base64."))
		s.failTurn("validation")
		return
	}

	transcript, err := s.transcribe(ctx, audioBytes, frame.Format)
	if err != nil {
		s.send(errorFrame(stt.UserMessage(err)))
		s.failTurn("stt")
		return
	}
	s.send(transcriptFrame(transcript, s.uiLanguage))

	s.state = StateQueryingAgent
	_, outputLang := language.Resolve(transcript, s.uiLanguage, language.ModalityVoice)

	finalText, err := s.queryAgent(ctx, transcript, outputLang)
	if err != nil {
		s.send(errorFrame(agentErrorMessage(err)))
		s.failTurn("agent")
		return
	}

	sanitized := agent.Sanitize(finalText)
	s.send(streamEndFrame(sanitized, outputLang))

	s.state = StateSynthesizing
	s.synthesize(ctx, sanitized, outputLang)

	s.state = StateIdle
	s.metrics.RecordTurnEnd(true)
}

func (s *Session) transcribe(ctx context.Context, audioBytes []byte, formatHint string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TranscribeTimeout)*time.Second)
	defer cancel()

	s.metrics.RecordSTTStart()
	transcript, err := s.transcriber.Transcribe(ctx, audioBytes, formatHint, s.uiLanguage)
	s.metrics.RecordSTTEnd(err == nil)
	if err != nil {
		s.logger.Warn().Err(err).Int("kind", int(stt.KindOf(err))).Msg("transcription failed")
		return "", err
	}
	s.logger.Info().Str("transcript", transcript).Str("ui_language", s.uiLanguage).Msg("transcription complete")
	return transcript, nil
}

// queryAgent opens a fresh upstream session, sends the query, and drains the
// stream under the overall deadline, relaying chunks to the client as they
// arrive. The End frame's text, when present, supersedes the concatenation.
func (s *Session) queryAgent(ctx context.Context, message, outputLang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AgentDrainTimeout())
	defer cancel()

	client := s.newAgent()
	defer client.Close()

	s.metrics.RecordAgentStart()
	ok := false
	defer func() { s.metrics.RecordAgentEnd(ok) }()

	if err := client.Dial(ctx); err != nil {
		return "", err
	}
	query := agent.BuildQuery(message, outputLang, language.ModalityVoice, s.turnLocation)
	if err := client.Send(query); err != nil {
		return "", err
	}

	var chunks strings.Builder
	finalText := ""
	for ev := range client.Stream(ctx) {
		switch ev.Kind {
		case agent.EventChunk:
			s.send(chunkFrame(ev.Text))
			chunks.WriteString(ev.Text)
		case agent.EventEnd:
			finalText = ev.Text
		case agent.EventError:
			return "", &agent.ResponseError{Message: ev.Message}
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ok = true
	if finalText != "" {
		return finalText, nil
	}
	return chunks.String(), nil
}

// synthesize renders the response as speech and emits an audio_url frame.
// Failure here never fails the turn; the text answer is already delivered.
func (s *Session) synthesize(ctx context.Context, text, lang string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TTSTimeout)*time.Second)
	defer cancel()

	s.metrics.RecordTTSStart()
	audio, err := s.synthesizer.Synthesize(ctx, text, lang)
	if err != nil {
		s.metrics.RecordTTSEnd(false)
		s.logger.Warn().Err(err).Str("language", lang).Msg("speech synthesis failed, skipping audio")
		return
	}
	s.metrics.RecordTTSEnd(true)
	if len(audio) == 0 {
		return
	}

	id, err := s.store.Put(audio)
	if err != nil {
		s.logger.Error().Err(err).Msg("storing audio artifact failed")
		return
	}
	s.send(audioURLFrame(s.cfg.BaseURL()+s.store.URL(id), lang))
}

func (s *Session) failTurn(component string) {
	s.metrics.RecordError("turn_failed", component)
	s.metrics.RecordTurnEnd(false)
	s.state = StateIdle
}

func (s *Session) send(frame OutboundFrame) {
	if err := s.sender.Send(s.id, frame); err != nil {
		s.logger.Debug().Err(err).Str("frame", frame.Type).Msg("outbound frame dropped")
	}
}

func decodeInbound(raw []byte) (InboundFrame, error) {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return InboundFrame{}, err
	}
	return frame, nil
}

// decodeAudioPayload accepts plain base64 or a data URL wrapping it.
func decodeAudioPayload(data string) ([]byte, error) {
	if idx := strings.Index(data, ";base64,"); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+len(";base64,"):]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return base64.RawStdEncoding.DecodeString(data)
	}
	return decoded, nil
}

// agentErrorMessage maps upstream failures to user-facing text.
func agentErrorMessage(err error) string {
	var connectErr *agent.ConnectError
	if errors.As(err, &connectErr) {
		return "Could not reach the assistant. Please try again."
	}
	var respErr *agent.ResponseError
	if errors.As(err, &respErr) {
		return respErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The assistant did not respond in time. Please try again."
	}
	return "The assistant is unavailable right now. Please try again."
}
