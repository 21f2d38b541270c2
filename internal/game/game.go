package game

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/mrader1248/happy-games/internal/types"
)

const (
	// DefaultMaxPlayers bounds the roster of a game.
	DefaultMaxPlayers = 4
	// DefaultHistoryLimit bounds the per-game message history.
	DefaultHistoryLimit = 100
)

// Game is a bounded-capacity room whose members exchange broadcast
// messages. The join lock guards roster mutation only; broadcast and
// replay synchronize on the history buffer.
type Game struct {
	id      string
	max     int
	history *History

	joinMu  sync.RWMutex
	players map[string]*Player
}

// New creates an empty game. Non-positive maxPlayers or historyLimit
// fall back to the defaults.
func New(id string, maxPlayers, historyLimit int) *Game {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Game{
		id:      id,
		max:     maxPlayers,
		history: NewHistory(historyLimit),
		players: make(map[string]*Player),
	}
}

// ID returns the game's immutable identifier.
func (g *Game) ID() string { return g.id }

// MaxPlayers returns the fixed roster capacity.
func (g *Game) MaxPlayers() int { return g.max }

// History exposes the game's message buffer.
func (g *Game) History() *History { return g.history }

// AddPlayer inserts a player under the given name. It returns false
// without mutation when the name is already taken or the roster is at
// capacity. Concurrent calls never admit the same name twice and never
// push the roster past capacity.
func (g *Game) AddPlayer(name string, p *Player) bool {
	g.joinMu.Lock()
	defer g.joinMu.Unlock()

	if _, exists := g.players[name]; exists {
		log.Printf("player %q is already in game %s", name, g.id)
		return false
	}
	if len(g.players) >= g.max {
		log.Printf("game %s is full, rejecting player %q", g.id, name)
		return false
	}
	g.players[name] = p
	return true
}

// RemovePlayer removes the named player. Returns false when absent.
func (g *Game) RemovePlayer(name string) bool {
	g.joinMu.Lock()
	defer g.joinMu.Unlock()

	if _, exists := g.players[name]; !exists {
		return false
	}
	delete(g.players, name)
	return true
}

// RemoveIfDisconnected removes the named player only while no
// transport is attached, and reports whether the roster changed. A
// departure that raced with a reconnect finds the new transport
// attached and leaves the membership alone.
func (g *Game) RemoveIfDisconnected(name string) bool {
	g.joinMu.Lock()
	defer g.joinMu.Unlock()

	p, exists := g.players[name]
	if !exists || p.Connected() {
		return false
	}
	delete(g.players, name)
	return true
}

// Player returns the roster entry for name, or nil.
func (g *Game) Player(name string) *Player {
	g.joinMu.RLock()
	defer g.joinMu.RUnlock()
	return g.players[name]
}

// PlayerCount returns the current roster size.
func (g *Game) PlayerCount() int {
	g.joinMu.RLock()
	defer g.joinMu.RUnlock()
	return len(g.players)
}

// snapshotPlayers copies the roster for fan-out outside the join lock.
func (g *Game) snapshotPlayers() []*Player {
	g.joinMu.RLock()
	defer g.joinMu.RUnlock()

	out := make([]*Player, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, p)
	}
	return out
}

// Broadcast appends a message to the history and fans it out to every
// player. Empty text is rejected before the history is touched. The
// fan-out runs under the history lock: each player sees live messages
// in history order even with concurrent senders, and a concurrently
// replaying player sees the message either in its replay or, once its
// gate opens, as live traffic; never neither. Notify never blocks, so
// holding the lock through the fan-out does not stall other senders
// behind a slow consumer.
func (g *Game) Broadcast(text, user string) bool {
	if text == "" {
		return false
	}

	msg := types.Message{
		ID:   uuid.NewString(),
		Text: text,
		User: user,
	}
	g.history.AppendAndDeliver(msg, func(m types.Message) {
		for _, p := range g.snapshotPlayers() {
			p.Notify(m, false)
		}
	})
	return true
}

// ReplayHistory delivers the buffered messages to p oldest first and
// opens its live gate. The gate flip happens under the history lock,
// so a broadcast appended after the replay snapshot is guaranteed to
// find the gate open.
func (g *Game) ReplayHistory(p *Player) {
	g.history.Replay(func(msg types.Message) {
		p.Notify(msg, true)
	}, p.GoLive)
}
