package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/config"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/security"
)

func newHubClient(userID string) *Client {
	return &Client{
		userID: userID,
		send:   make(chan []byte, 8),
		done:   make(chan struct{}),
	}
}

func TestHubJoinEmitLeave(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t), nil)

	alice := newHubClient("alice")
	bob := newHubClient("bob")
	alice.hub = hub
	bob.hub = hub

	hub.register(alice)
	hub.register(bob)

	hub.Join(alice, "listing:42")
	hub.Join(bob, "listing:42")
	if got := hub.RoomSize("listing:42"); got != 2 {
		t.Fatalf("expected room size 2, got %d", got)
	}

	hub.Emit(alice, "listing:42", json.RawMessage(`{"price":120000}`))

	for _, client := range []*Client{alice, bob} {
		select {
		case payload := <-client.send:
			var frame Frame
			if err := json.Unmarshal(payload, &frame); err != nil {
				t.Fatalf("unmarshal frame: %v", err)
			}
			if frame.Event != EventEmit || frame.Room != "listing:42" || frame.From != "alice" {
				t.Fatalf("unexpected frame %+v", frame)
			}
		default:
			t.Fatalf("client %s received no frame", client.userID)
		}
	}

	hub.Leave(bob, "listing:42")
	if got := hub.RoomSize("listing:42"); got != 1 {
		t.Fatalf("expected room size 1 after leave, got %d", got)
	}

	hub.Emit(alice, "listing:42", json.RawMessage(`"sold"`))
	select {
	case <-bob.send:
		t.Fatal("bob must not receive frames after leaving")
	default:
	}
}

func TestHubUnregisterRemovesFromRooms(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t), nil)

	client := newHubClient("alice")
	client.hub = hub

	hub.register(client)
	hub.Join(client, "listing:42")
	hub.unregister(client)

	if got := hub.RoomSize("listing:42"); got != 0 {
		t.Fatalf("expected empty room after unregister, got %d", got)
	}

	select {
	case <-client.done:
	default:
		t.Fatal("expected done channel to be closed")
	}

	// A second unregister is a no-op.
	hub.unregister(client)
}

func TestHubEmitToUnknownRoom(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t), nil)
	hub.Emit(nil, "nobody-here", json.RawMessage(`{}`))
}

func newGatewayServer(t *testing.T) (*httptest.Server, *security.TokenService, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := security.NewTokenService(security.TokenConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}

	hub := NewHub(zaptest.NewLogger(t), nil)
	gateway := NewGateway(hub, tokens, config.RealtimeSettings{
		SendQueueSize: 8,
		WriteTimeout:  time.Second,
	}, zaptest.NewLogger(t))

	router := gin.New()
	router.GET("/ws", gateway.Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, tokens, hub
}

func wsURL(server *httptest.Server, token string) string {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func TestGatewayRejectsBadToken(t *testing.T) {
	server, _, _ := newGatewayServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "not-a-token"), nil)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(server, ""), nil)
	if err == nil {
		t.Fatal("expected handshake without token to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func TestGatewayJoinEmitRoundTrip(t *testing.T) {
	server, tokens, _ := newGatewayServer(t)

	dial := func(userID string) *websocket.Conn {
		access, err := tokens.IssueAccessToken(userID)
		if err != nil {
			t.Fatalf("IssueAccessToken returned error: %v", err)
		}
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, access), nil)
		if err != nil {
			t.Fatalf("dial as %s: %v", userID, err)
		}
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	alice := dial("alice")
	bob := dial("bob")

	join := `{"event":"join","room":"listing:42"}`
	if err := alice.WriteMessage(websocket.TextMessage, []byte(join)); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if err := bob.WriteMessage(websocket.TextMessage, []byte(join)); err != nil {
		t.Fatalf("bob join: %v", err)
	}

	// Give the server a moment to process both joins.
	time.Sleep(100 * time.Millisecond)

	emit := `{"event":"emit","room":"listing:42","data":{"price":120000}}`
	if err := alice.WriteMessage(websocket.TextMessage, []byte(emit)); err != nil {
		t.Fatalf("alice emit: %v", err)
	}

	bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := bob.ReadMessage()
	if err != nil {
		t.Fatalf("bob read: %v", err)
	}

	var frame Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if frame.Event != EventEmit || frame.Room != "listing:42" || frame.From != "alice" {
		t.Fatalf("unexpected frame %+v", frame)
	}
}

func TestGatewayRejectsRefreshToken(t *testing.T) {
	server, tokens, _ := newGatewayServer(t)

	refresh, err := tokens.IssueRefreshToken("alice")
	if err != nil {
		t.Fatalf("IssueRefreshToken returned error: %v", err)
	}

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, refresh), nil)
	if err == nil {
		t.Fatal("expected handshake with refresh token to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}
