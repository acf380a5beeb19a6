package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// registryPair yields a registered server-side connection and the client end.
func registryPair(t *testing.T, reg *Registry, connID string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ready := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		reg.Register(connID, conn)
		close(ready)
		// Hold the connection until the registry closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	<-ready
	return client
}

func TestRegistrySendDeliversFrame(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	client := registryPair(t, reg, "conn-a")

	if err := reg.Send("conn-a", transcriptFrame("hello", "en")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var frame OutboundFrame
	if err := client.ReadJSON(&frame); err != nil {
		t.Fatalf("client read: %v", err)
	}
	if frame.Type != FrameTranscript || frame.Content != "hello" || frame.Language != "en" {
		t.Errorf("frame = %+v", frame)
	}
}

func TestRegistrySendToUnknownConnectionFails(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	if err := reg.Send("nobody", pongFrame()); err == nil {
		t.Error("expected error for unknown connection id")
	}
}

func TestRegistryUnregisterClosesAndForgets(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	registryPair(t, reg, "conn-b")

	if reg.Count() != 1 {
		t.Fatalf("Count = %d, want 1", reg.Count())
	}
	reg.Unregister("conn-b")
	if reg.Count() != 0 {
		t.Errorf("Count after unregister = %d, want 0", reg.Count())
	}
	if err := reg.Send("conn-b", pongFrame()); err == nil {
		t.Error("send after unregister should fail")
	}

	// Unregistering twice is harmless.
	reg.Unregister("conn-b")
}
