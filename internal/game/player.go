package game

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/mrader1248/happy-games/internal/types"
)

// Player is the membership record of one user in one game. It lives
// for the whole membership: a reconnecting user gets a fresh transport
// attached to the same Player rather than a new roster entry.
//
// The live gate distinguishes "still draining history replay" from
// "receiving live broadcasts": while it is closed, non-historical
// notifications are dropped because the same messages are covered by
// the replay in progress.
type Player struct {
	user string

	mu   sync.Mutex
	conn *types.WebSocketConnection
	live bool
}

// NewPlayer creates a detached player for user. The transport is bound
// later via Attach.
func NewPlayer(user string) *Player {
	return &Player{user: user}
}

// User returns the identity the player was created with.
func (p *Player) User() string { return p.user }

// Attach binds a transport and closes the live gate until the history
// replay for this connection has been issued.
func (p *Player) Attach(conn *types.WebSocketConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn = conn
	p.live = false
}

// Detach clears the transport; subsequent Notify calls are no-ops.
// Detaching a transport that has already been replaced by a reconnect
// leaves the newer transport in place and returns false.
func (p *Player) Detach(conn *types.WebSocketConnection) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != conn {
		return false
	}
	p.conn = nil
	p.live = false
	return true
}

// GoLive opens the live gate.
func (p *Player) GoLive() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live = true
}

// Connected reports whether a transport is currently attached.
func (p *Player) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil
}

// Notify forwards a message to the player's transport, fire and
// forget. It is a no-op when no transport is attached, or when the
// message is live traffic while the gate is still closed. A full send
// buffer drops the frame rather than blocking the broadcaster.
func (p *Player) Notify(msg types.Message, historical bool) {
	p.mu.Lock()
	conn := p.conn
	live := p.live
	p.mu.Unlock()

	if conn == nil {
		return
	}
	if !historical && !live {
		return
	}

	frame, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal message for player %s: %v", p.user, err)
		return
	}
	if !conn.QueueFrame(frame) {
		log.Printf("send buffer full for player %s, dropping message %s", p.user, msg.ID)
	}
}
