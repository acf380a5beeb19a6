package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/krishisetu/agent-gateway/internal/resilience"
)

// ConnectError means the agent was unreachable after the retry budget.
type ConnectError struct {
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("agent unreachable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ResponseError is a structured error frame received from the agent.
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("agent error: %s", e.Message)
}

// Client manages one upstream WebSocket session scoped to exactly one query.
// Sessions are never reused across turns: dial, send one query frame, drain
// the response stream, close.
type Client struct {
	url         string
	dialTimeout time.Duration
	maxRetries  int
	logger      zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	closeOnce sync.Once
}

// NewClient creates a client for one agent query session.
func NewClient(url string, dialTimeout time.Duration, maxRetries int, logger zerolog.Logger) *Client {
	return &Client{
		url:         url,
		dialTimeout: dialTimeout,
		maxRetries:  maxRetries,
		logger:      logger,
	}
}

// Dial establishes the WebSocket connection. Each failed attempt waits a
// backoff that grows linearly with the attempt number; exhausting the budget
// returns a ConnectError.
func (c *Client) Dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}

	cfg := &resilience.RetryConfig{
		MaxAttempts: c.maxRetries,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  10 * time.Second,
		Strategy:    resilience.BackoffLinear,
	}

	attempt := 0
	err := resilience.Retry(ctx, func() error {
		attempt++
		c.logger.Debug().Int("attempt", attempt).Int("max", c.maxRetries).Msg("Dialing agent")
		conn, resp, err := dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("Agent dial failed")
			return err
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		return nil
	}, cfg, nil)

	if err != nil {
		return &ConnectError{Attempts: attempt, Err: err}
	}
	c.logger.Debug().Str("url", c.url).Msg("Agent connection established")
	return nil
}

// Send writes the single query frame for this session.
func (c *Client) Send(q Query) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("agent client is not connected")
	}
	if err := conn.WriteJSON(q); err != nil {
		return fmt.Errorf("failed to send query: %w", err)
	}
	return nil
}

// Stream returns a lazily-consumed sequence of decoded agent events. The
// channel closes when the stream terminates: End or Error event, transport
// error, malformed frame (treated as stream end), or context cancellation.
// Keepalive and unknown frames are filtered out here.
func (c *Client) Stream(ctx context.Context) <-chan Event {
	events := make(chan Event)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	go func() {
		defer close(events)
		if conn == nil {
			return
		}

		// Cancellation unblocks the blocking read by expiring its deadline.
		readerDone := make(chan struct{})
		defer close(readerDone)
		go func() {
			select {
			case <-ctx.Done():
				conn.SetReadDeadline(time.Now())
			case <-readerDone:
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Warn().Err(err).Msg("Agent stream read ended")
				}
				return
			}

			ev, err := DecodeEvent(raw)
			if err != nil {
				// Malformed frame: end the stream with whatever the caller
				// has accumulated so far.
				c.logger.Warn().Err(err).Msg("Malformed agent frame, ending stream")
				return
			}

			switch ev.Kind {
			case EventSessionInfo:
				continue
			case EventUnknown:
				c.logger.Warn().Str("type", ev.RawType).Msg("Unknown agent frame type")
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}

			if ev.Kind == EventEnd || ev.Kind == EventError {
				return
			}
		}
	}()

	return events
}

// Close releases the underlying transport. Safe to call on every exit path;
// the connection is closed exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	})
}

// Collect drains an event stream to the authoritative final text. The End
// frame's complete response, when present, supersedes the chunk concatenation.
// An Error event surfaces as a ResponseError; a context deadline surfaces as
// the context's error.
func Collect(ctx context.Context, events <-chan Event) (string, error) {
	var chunks strings.Builder
	finalText := ""

	for ev := range events {
		switch ev.Kind {
		case EventChunk:
			chunks.WriteString(ev.Text)
		case EventEnd:
			finalText = ev.Text
		case EventError:
			return "", &ResponseError{Message: ev.Message}
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if finalText != "" {
		return finalText, nil
	}
	return chunks.String(), nil
}
