// Package state holds the process-wide registries: which games exist,
// which game each user belongs to, and which websocket clients are
// connected. The game registry and the user bindings share one lock so
// that create, join, and leave are atomic with respect to each other;
// the client map is guarded independently.
package state

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mrader1248/happy-games/internal/engine"
	"github.com/mrader1248/happy-games/internal/game"
	"github.com/mrader1248/happy-games/internal/types"
)

// Entry pairs an active game with the engine that created it.
type Entry struct {
	Game   *game.Game
	Engine engine.Engine
}

type Manager struct {
	mu           sync.RWMutex
	games        map[string]*Entry
	gameIDByUser map[string]string

	clientsMu sync.RWMutex
	clients   map[string]*types.WebSocketConnection
}

func NewManager() *Manager {
	return &Manager{
		games:        make(map[string]*Entry),
		gameIDByUser: make(map[string]string),
		clients:      make(map[string]*types.WebSocketConnection),
	}
}

// CreateGame constructs a new game through eng and joins user as its
// first player. The creator's Player has no transport yet; its
// websocket handshake attaches one later.
func (m *Manager) CreateGame(user string, eng engine.Engine) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, bound := m.gameIDByUser[user]; bound {
		return "", ErrUserInAnotherGame
	}

	gameID := uuid.NewString()
	g := eng.NewGame(gameID)
	if !g.AddPlayer(user, game.NewPlayer(user)) {
		return "", ErrJoinFailed
	}
	m.games[gameID] = &Entry{Game: g, Engine: eng}
	m.gameIDByUser[user] = gameID
	return gameID, nil
}

// JoinGame admits user into gameID over conn: it resolves the game,
// enforces the one-game-per-user rule, reattaches the user's existing
// roster entry or inserts a fresh one, and records the user binding.
// The whole sequence runs under the registry lock, so it cannot
// interleave with a concurrent LeaveGame tearing the same membership
// down. A rejected join leaves the binding untouched.
func (m *Manager) JoinGame(user, gameID string, conn *types.WebSocketConnection) (*Entry, *game.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.games[gameID]
	if !ok {
		return nil, nil, ErrGameNotFound
	}
	if bound, ok := m.gameIDByUser[user]; ok && bound != gameID {
		return nil, nil, ErrUserInAnotherGame
	}

	p := entry.Game.Player(user)
	if p == nil {
		p = game.NewPlayer(user)
		if !entry.Game.AddPlayer(user, p) {
			return nil, nil, ErrJoinFailed
		}
	}
	p.Attach(conn)
	m.gameIDByUser[user] = gameID
	return entry, p, nil
}

// GetGame resolves a game id.
func (m *Manager) GetGame(gameID string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.games[gameID]
	return entry, ok
}

// ListGames returns descriptors for all active games.
func (m *Manager) ListGames() []types.GameInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	games := make([]types.GameInfo, 0, len(m.games))
	for id, entry := range m.games {
		games = append(games, types.GameInfo{
			GameID: id,
			Engine: types.EngineInfo{Name: entry.Engine.Name(), Title: entry.Engine.Title()},
		})
	}
	return games
}

// BindUser records that user belongs to gameID, enforcing at most one
// game per user. Re-binding to the same game is allowed (reconnect).
// An empty gameID only checks that the user is free without binding.
func (m *Manager) BindUser(user, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.gameIDByUser[user]; ok && existing != gameID {
		return ErrUserInAnotherGame
	}
	if gameID != "" {
		m.gameIDByUser[user] = gameID
	}
	return nil
}

// UserGame returns the game id the user is currently bound to.
func (m *Manager) UserGame(user string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gameID, ok := m.gameIDByUser[user]
	return gameID, ok
}

// ReleaseUser drops the user's game binding.
func (m *Manager) ReleaseUser(user string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gameIDByUser, user)
}

// LeaveGame tears down user's membership in gameID. The roster entry
// is removed only while its transport is detached, the binding is
// released only while it still points at gameID, and the game is
// dropped from the registry once its roster is empty. A reconnect that
// attached a new transport in the meantime keeps everything in place.
func (m *Manager) LeaveGame(user, gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.games[gameID]
	if !ok {
		if m.gameIDByUser[user] == gameID {
			delete(m.gameIDByUser, user)
		}
		return
	}
	if !entry.Game.RemoveIfDisconnected(user) {
		return
	}
	if m.gameIDByUser[user] == gameID {
		delete(m.gameIDByUser, user)
	}
	if entry.Game.PlayerCount() == 0 {
		delete(m.games, gameID)
	}
}

func (m *Manager) AddClient(user string, conn *types.WebSocketConnection) {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	m.clients[user] = conn
}

// RemoveClient forgets the user's connection, unless a reconnect has
// already replaced it with a different one.
func (m *Manager) RemoveClient(user string, conn *types.WebSocketConnection) {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	if m.clients[user] == conn {
		delete(m.clients, user)
	}
}

func (m *Manager) GetClient(user string) (*types.WebSocketConnection, bool) {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	conn, ok := m.clients[user]
	return conn, ok
}

// GetStats summarizes registry and connection counters.
func (m *Manager) GetStats() types.ServerStats {
	m.mu.RLock()
	totalGames := len(m.games)
	totalPlayers := 0
	for _, entry := range m.games {
		totalPlayers += entry.Game.PlayerCount()
	}
	m.mu.RUnlock()

	m.clientsMu.RLock()
	connected := len(m.clients)
	var dropped int64
	for _, conn := range m.clients {
		dropped += conn.DroppedFrames.Load()
	}
	m.clientsMu.RUnlock()

	return types.ServerStats{
		TotalGames:       totalGames,
		TotalPlayers:     totalPlayers,
		ConnectedClients: connected,
		DroppedFrames:    dropped,
	}
}
