package types

import (
	"sync/atomic"

	"github.com/coder/websocket"
)

// Message is a single broadcast chat message. Immutable once appended
// to a game's history.
type Message struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	User string `json:"user"`
}

// EngineInfo describes a registered game engine.
type EngineInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// GameInfo describes an active game for the listing endpoint.
type GameInfo struct {
	GameID string     `json:"gameId"`
	Engine EngineInfo `json:"engine"`
}

// WebSocketConnection wraps a websocket with a buffered outbound
// channel drained by a write pump. Senders must never block on Send;
// use QueueFrame, which drops instead of stalling.
type WebSocketConnection struct {
	Conn *websocket.Conn
	User string
	Send chan []byte

	// DroppedFrames counts outbound frames discarded because the send
	// buffer was full.
	DroppedFrames atomic.Int64
}

// QueueFrame enqueues an outbound frame without blocking. Returns
// false when the frame was dropped.
func (c *WebSocketConnection) QueueFrame(frame []byte) bool {
	select {
	case c.Send <- frame:
		return true
	default:
		c.DroppedFrames.Add(1)
		return false
	}
}

type ServerStats struct {
	TotalGames       int   `json:"total_games"`
	TotalPlayers     int   `json:"total_players"`
	ConnectedClients int   `json:"connected_clients"`
	DroppedFrames    int64 `json:"dropped_frames"`
}
