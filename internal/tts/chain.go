package tts

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/krishisetu/agent-gateway/internal/resilience"
)

// Chain runs the primary synthesizer behind a circuit breaker and falls back
// to the secondary engine when the primary fails or the breaker is open.
// Empty input yields no audio and no error.
type Chain struct {
	primary  Synthesizer
	fallback Synthesizer
	breaker  *resilience.CircuitBreaker
	logger   zerolog.Logger
}

// NewChain builds a synthesis chain. The breaker guards only the primary
// engine; the fallback is always attempted directly.
func NewChain(primary, fallback Synthesizer, breaker *resilience.CircuitBreaker, logger zerolog.Logger) *Chain {
	return &Chain{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   logger.With().Str("component", "tts_chain").Logger(),
	}
}

// Synthesize tries the primary engine, then the fallback. It returns nil
// audio with a nil error when the text is empty after trimming.
func (c *Chain) Synthesize(ctx context.Context, text, languageTag string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var audio []byte
	err := c.breaker.Call(func() error {
		var synthErr error
		audio, synthErr = c.primary.Synthesize(ctx, text, languageTag)
		return synthErr
	})
	if err == nil {
		return audio, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	c.logger.Warn().Err(err).Str("language", languageTag).Msg("primary synthesis failed, trying fallback")

	audio, fallbackErr := c.fallback.Synthesize(ctx, text, languageTag)
	if fallbackErr != nil {
		return nil, fmt.Errorf("all synthesis engines failed: primary: %v; fallback: %w", err, fallbackErr)
	}
	return audio, nil
}
