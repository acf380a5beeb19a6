package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krishisetu/agent-gateway/internal/artifact"
	"github.com/krishisetu/agent-gateway/internal/audio"
	"github.com/krishisetu/agent-gateway/internal/config"
	"github.com/krishisetu/agent-gateway/internal/gateway"
	"github.com/krishisetu/agent-gateway/internal/observability"
	"github.com/krishisetu/agent-gateway/internal/resilience"
	"github.com/krishisetu/agent-gateway/internal/stt"
	"github.com/krishisetu/agent-gateway/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("agent_ws_url", cfg.AgentWSURL).
		Str("stt_engine", cfg.STTEngine).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Agent Gateway Service starting")

	// Audio artifact store with background sweep
	audioDir := cfg.AudioDir
	if audioDir == "" {
		audioDir = filepath.Join(os.TempDir(), "krishi_audio")
	}
	store, err := artifact.NewStore(audioDir, time.Duration(cfg.AudioMaxAge)*time.Second, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create artifact store")
	}
	if err := store.StartSweeper(time.Duration(cfg.AudioSweepInterval) * time.Second); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start artifact sweeper")
	}
	defer store.StopSweeper()

	// Speech engines
	converter := audio.NewConverter(cfg.FFmpegPath)
	var transcriber stt.Transcriber
	switch cfg.STTEngine {
	case "deepgram":
		transcriber = stt.NewDeepgramClient(cfg.DeepgramAPIKey, cfg.DeepgramModel, cfg.MinAudioBytes, converter, logger)
	default:
		transcriber = stt.NewGoogleClient(cfg.GoogleSpeechKey, cfg.MinAudioBytes, converter,
			time.Duration(cfg.TranscribeTimeout)*time.Second, logger)
	}

	ttsTimeout := time.Duration(cfg.TTSTimeout) * time.Second
	ttsBreaker := resilience.NewCircuitBreaker("edge-tts",
		cfg.CircuitBreakerMaxFailures, time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second)
	synthesizer := tts.NewChain(
		tts.NewEdgeClient(ttsTimeout, logger),
		tts.NewTranslateClient(ttsTimeout, logger),
		ttsBreaker, logger)

	// Client-facing surface
	registry := gateway.NewRegistry(logger)
	voiceHandler := gateway.NewHandler(cfg, registry, transcriber, synthesizer, store, logger)
	chatHandler := gateway.NewChatHandler(cfg, gateway.NewAgentDialer(cfg, logger), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", rootHandler)
	mux.Handle("/api/voice", voiceHandler)
	mux.Handle("/api/chat", chatHandler)
	mux.HandleFunc("/api/languages", gateway.LanguagesHandler())
	mux.HandleFunc("/api/audio/", store.Handler())
	mux.HandleFunc("/api/health", observability.HealthCheckHandler())

	// Readiness: validate local collaborators without paid upstream calls.
	checks := map[string]observability.HealthCheckFunc{
		"artifact_store": func(ctx context.Context) (bool, error) {
			if _, statErr := os.Stat(audioDir); statErr != nil {
				return false, statErr
			}
			return true, nil
		},
		"ffmpeg": func(ctx context.Context) (bool, error) {
			if _, lookErr := exec.LookPath(cfg.FFmpegPath); lookErr != nil {
				return false, lookErr
			}
			return true, nil
		},
		"agent_config": func(ctx context.Context) (bool, error) {
			if cfg.AgentWSURL == "" {
				return false, fmt.Errorf("agent URL not configured")
			}
			return true, nil
		},
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/api/voice", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"service":"agent-gateway","status":"running"}`)
}
