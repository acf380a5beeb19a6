package tts

import (
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/krishisetu/agent-gateway/internal/resilience"
)

func TestEdgeVoice(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"en", "en-IN-NeerjaNeural"},
		{"hi", "hi-IN-SwaraNeural"},
		{"bn", "bn-IN-TanishaaNeural"},
		{"te", "te-IN-ShrutiNeural"},
		{"ta", "ta-IN-PallaviNeural"},
		{"mr", "mr-IN-AarohiNeural"},
		{"gu", "gu-IN-DhwaniNeural"},
		{"kn", "kn-IN-SapnaNeural"},
		{"ml", "ml-IN-SobhanaNeural"},
		{"pa", "pa-IN-SalmanNeural"},
		{"fr", "en-IN-NeerjaNeural"},
		{"", "en-IN-NeerjaNeural"},
	}
	for _, tt := range tests {
		if got := EdgeVoice(tt.tag); got != tt.want {
			t.Errorf("EdgeVoice(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestTranslateLangFallsBackToEnglish(t *testing.T) {
	if got := TranslateLang("hi"); got != "hi" {
		t.Errorf("TranslateLang(hi) = %q, want hi", got)
	}
	if got := TranslateLang("xx"); got != "en" {
		t.Errorf("TranslateLang(xx) = %q, want en", got)
	}
}

func TestAudioPayload(t *testing.T) {
	headers := "X-RequestId:abc\r\nContent-Type:audio/mpeg\r\nPath:audio\r\n"
	audio := []byte{0xFF, 0xFB, 0x90, 0x00}

	frame := make([]byte, 2+len(headers)+len(audio))
	binary.BigEndian.PutUint16(frame[:2], uint16(len(headers)))
	copy(frame[2:], headers)
	copy(frame[2+len(headers):], audio)

	payload, ok := audioPayload(frame)
	if !ok {
		t.Fatal("expected audio payload to be recognized")
	}
	if string(payload) != string(audio) {
		t.Errorf("payload = %v, want %v", payload, audio)
	}
}

func TestAudioPayloadRejectsNonAudioFrames(t *testing.T) {
	rejected := []string{
		"Path:audio.metadata\r\n",
		"X-RequestId:abc\r\nPath:audio.metadata\r\n",
		"Content-Type:audio/mpeg\r\nPath:turn.start\r\n",
	}
	for _, headers := range rejected {
		frame := make([]byte, 2+len(headers)+4)
		binary.BigEndian.PutUint16(frame[:2], uint16(len(headers)))
		copy(frame[2:], headers)

		if _, ok := audioPayload(frame); ok {
			t.Errorf("headers %q should not yield audio", headers)
		}
	}
	if _, ok := audioPayload([]byte{0x01}); ok {
		t.Error("truncated frame should not yield audio")
	}
}

func TestSplitChunks(t *testing.T) {
	chunks := splitChunks(strings.Repeat("word ", 100), 20)
	for i, c := range chunks {
		if len([]rune(c)) > 20 {
			t.Errorf("chunk %d exceeds limit: %q", i, c)
		}
	}
	joined := strings.Join(chunks, " ")
	if joined != strings.TrimSpace(strings.Repeat("word ", 100)) {
		t.Error("chunking lost content")
	}

	single := splitChunks("short text", 200)
	if len(single) != 1 || single[0] != "short text" {
		t.Errorf("splitChunks(short) = %v", single)
	}
}

type fakeSynth struct {
	audio []byte
	err   error
	calls int
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	f.calls++
	return f.audio, f.err
}

func newTestChain(primary, fallback Synthesizer) *Chain {
	breaker := resilience.NewCircuitBreaker("tts-test", 5, 30*time.Second)
	return NewChain(primary, fallback, breaker, zerolog.Nop())
}

func TestChainUsesPrimary(t *testing.T) {
	primary := &fakeSynth{audio: []byte("primary-mp3")}
	fallback := &fakeSynth{audio: []byte("fallback-mp3")}
	chain := newTestChain(primary, fallback)

	audio, err := chain.Synthesize(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "primary-mp3" {
		t.Errorf("audio = %q, want primary output", audio)
	}
	if fallback.calls != 0 {
		t.Error("fallback should not run when primary succeeds")
	}
}

func TestChainFallsBack(t *testing.T) {
	primary := &fakeSynth{err: errors.New("service down")}
	fallback := &fakeSynth{audio: []byte("fallback-mp3")}
	chain := newTestChain(primary, fallback)

	audio, err := chain.Synthesize(context.Background(), "hello", "hi")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "fallback-mp3" {
		t.Errorf("audio = %q, want fallback output", audio)
	}
}

func TestChainBothEnginesFail(t *testing.T) {
	primary := &fakeSynth{err: errors.New("primary down")}
	fallback := &fakeSynth{err: errors.New("fallback down")}
	chain := newTestChain(primary, fallback)

	if _, err := chain.Synthesize(context.Background(), "hello", "en"); err == nil {
		t.Fatal("expected error when both engines fail")
	}
}

func TestChainEmptyTextYieldsNoAudioNoError(t *testing.T) {
	primary := &fakeSynth{audio: []byte("x")}
	fallback := &fakeSynth{audio: []byte("y")}
	chain := newTestChain(primary, fallback)

	audio, err := chain.Synthesize(context.Background(), "   ", "en")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if audio != nil {
		t.Errorf("audio = %v, want nil for empty text", audio)
	}
	if primary.calls != 0 || fallback.calls != 0 {
		t.Error("no engine should run for empty text")
	}
}

func TestChainOpenBreakerSkipsPrimary(t *testing.T) {
	primary := &fakeSynth{err: errors.New("down")}
	fallback := &fakeSynth{audio: []byte("fallback-mp3")}
	breaker := resilience.NewCircuitBreaker("tts-test", 1, time.Minute)
	chain := NewChain(primary, fallback, breaker, zerolog.Nop())

	// First call trips the breaker.
	if _, err := chain.Synthesize(context.Background(), "a", "en"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	primaryCalls := primary.calls

	if _, err := chain.Synthesize(context.Background(), "b", "en"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if primary.calls != primaryCalls {
		t.Error("open breaker should skip the primary engine")
	}
	if fallback.calls != 2 {
		t.Errorf("fallback calls = %d, want 2", fallback.calls)
	}
}

func TestChainHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &fakeSynth{err: context.Canceled}
	fallback := &fakeSynth{audio: []byte("x")}
	chain := newTestChain(primary, fallback)

	_, err := chain.Synthesize(ctx, "hello", "en")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if fallback.calls != 0 {
		t.Error("fallback should not run after cancellation")
	}
}
