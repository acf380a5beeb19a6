package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the agent gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8000"`

	// Public base URL for this service (e.g. https://xxx.onrender.com in production).
	// Used to build the audio_url sent to clients. If unset, audio URLs point at
	// http://localhost:PORT.
	PublicURL string `envconfig:"PUBLIC_URL" default:""`

	// Upstream AI agent WebSocket endpoint
	AgentWSURL          string `envconfig:"AGENT_WS_URL" required:"true"`
	AgentConnectTimeout int    `envconfig:"AGENT_CONNECT_TIMEOUT" default:"30"` // seconds, per dial attempt
	AgentMaxRetries     int    `envconfig:"AGENT_MAX_RETRIES" default:"3"`      // dial attempts before giving up
	AgentStreamTimeout  int    `envconfig:"AGENT_STREAM_TIMEOUT" default:"60"`  // seconds, whole drain phase

	// Speech-to-text configuration
	STTEngine         string `envconfig:"STT_ENGINE" default:"google"` // google, deepgram
	DeepgramAPIKey    string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel     string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	GoogleSpeechKey   string `envconfig:"GOOGLE_SPEECH_KEY" default:""`
	FFmpegPath        string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	MinAudioBytes     int    `envconfig:"MIN_AUDIO_BYTES" default:"100"`   // smaller payloads are rejected
	TranscribeTimeout int    `envconfig:"TRANSCRIBE_TIMEOUT" default:"30"` // seconds

	// Text-to-speech configuration
	TTSTimeout int `envconfig:"TTS_TIMEOUT" default:"30"` // seconds per engine attempt

	// Synthesized audio artifact store
	AudioDir           string `envconfig:"AUDIO_DIR" default:""`               // empty: <tmp>/krishi_audio
	AudioMaxAge        int    `envconfig:"AUDIO_MAX_AGE" default:"3600"`       // seconds before sweep removes a file
	AudioSweepInterval int    `envconfig:"AUDIO_SWEEP_INTERVAL" default:"600"` // seconds between sweeps

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables.
// It first attempts to load from a .env file if one exists, then from the environment.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.AgentWSURL == "" {
		return nil, fmt.Errorf("AGENT_WS_URL is required")
	}
	if cfg.STTEngine != "google" && cfg.STTEngine != "deepgram" {
		return nil, fmt.Errorf("unknown STT_ENGINE %q (want google or deepgram)", cfg.STTEngine)
	}
	if cfg.STTEngine == "deepgram" && cfg.DeepgramAPIKey == "" {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY is required when STT_ENGINE=deepgram")
	}

	return &cfg, nil
}

// BaseURL returns the externally reachable base URL for this service.
func (c *Config) BaseURL() string {
	if c.PublicURL != "" {
		return trimTrailingSlash(c.PublicURL)
	}
	return fmt.Sprintf("http://localhost:%s", c.Port)
}

// AgentDialTimeout returns the per-attempt dial timeout as a duration.
func (c *Config) AgentDialTimeout() time.Duration {
	return time.Duration(c.AgentConnectTimeout) * time.Second
}

// AgentDrainTimeout returns the overall per-turn agent deadline as a duration.
func (c *Config) AgentDrainTimeout() time.Duration {
	return time.Duration(c.AgentStreamTimeout) * time.Second
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
