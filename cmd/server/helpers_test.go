package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/mrader1248/happy-games/internal/config"
	"github.com/mrader1248/happy-games/pkg/protocol"
)

// newTestServer builds a fully wired server on an httptest listener.
func newTestServer(t *testing.T, cfg config.Config) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(cfg)
	ts := httptest.NewServer(s.router)
	t.Cleanup(ts.Close)
	return s, ts
}

// wsURL converts an httptest base URL into its websocket equivalent.
func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

// createGame creates a game over the HTTP API and returns its id.
func createGame(t *testing.T, ts *httptest.Server, user, engineName string) string {
	t.Helper()
	body, _ := json.Marshal(protocol.CreateGameRequest{User: user, EngineName: engineName})
	resp, err := http.Post(ts.URL+"/game", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create game request failed: %v", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Status string `json:"status"`
		Result struct {
			GameID string `json:"gameId"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if envelope.Status != protocol.StatusOK {
		t.Fatalf("create game rejected: %+v", envelope)
	}
	if envelope.Result.GameID == "" {
		t.Fatalf("create game returned no id")
	}
	return envelope.Result.GameID
}

// dialGame opens a websocket, sends the handshake, and returns the
// connection together with the server's ack.
func dialGame(t *testing.T, ts *httptest.Server, user, gameID string) (*websocket.Conn, protocol.HandshakeAck) {
	t.Helper()
	ctx := context.Background()

	conn, _, err := websocket.Dial(ctx, wsURL(ts)+"/game-socket", nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "test done") })

	req, _ := json.Marshal(protocol.HandshakeRequest{User: user, GameID: gameID})
	if err := conn.Write(ctx, websocket.MessageText, req); err != nil {
		t.Fatalf("failed to write handshake: %v", err)
	}

	ack := readAck(t, conn)
	return conn, ack
}

// readAck reads one handshake ack frame.
func readAck(t *testing.T, conn *websocket.Conn) protocol.HandshakeAck {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msgType, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read ack: %v", err)
	}
	if msgType != websocket.MessageText {
		t.Fatalf("expected text ack, got type %v", msgType)
	}
	var ack protocol.HandshakeAck
	if err := json.Unmarshal(data, &ack); err != nil {
		t.Fatalf("failed to unmarshal ack: %v", err)
	}
	return ack
}

// readBroadcast reads one broadcast delivery frame.
func readBroadcast(t *testing.T, conn *websocket.Conn) protocol.BroadcastMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read broadcast: %v", err)
	}
	var msg protocol.BroadcastMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal broadcast: %v", err)
	}
	return msg
}

// sendChat sends a chat frame.
func sendChat(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	ctx := context.Background()
	frame, _ := json.Marshal(protocol.ClientFrame{Message: &protocol.ChatMessage{Text: text}})
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		t.Fatalf("failed to send chat frame: %v", err)
	}
}

// sendDisconnect sends the disconnect-intent frame.
func sendDisconnect(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	ctx := context.Background()
	frame, _ := json.Marshal(protocol.ClientFrame{Action: &protocol.Action{Todo: protocol.ActionDisconnect}})
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		t.Fatalf("failed to send disconnect frame: %v", err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
