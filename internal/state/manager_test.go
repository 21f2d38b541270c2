package state_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/mrader1248/happy-games/internal/engine/dummy"
	"github.com/mrader1248/happy-games/internal/game"
	"github.com/mrader1248/happy-games/internal/state"
	"github.com/mrader1248/happy-games/internal/types"
)

// newConn builds a transport stub for attaching players outside a real
// websocket handshake.
func newConn(user string) *types.WebSocketConnection {
	return &types.WebSocketConnection{User: user, Send: make(chan []byte, 8)}
}

func TestCreateGameJoinsCreator(t *testing.T) {
	m := state.NewManager()
	eng := dummy.New(4, 100)

	gameID, err := m.CreateGame("alice", eng)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if gameID == "" {
		t.Fatalf("expected a game id")
	}

	entry, ok := m.GetGame(gameID)
	if !ok {
		t.Fatalf("game missing from registry")
	}
	if entry.Game.PlayerCount() != 1 {
		t.Fatalf("expected creator in roster, got %d players", entry.Game.PlayerCount())
	}
	if entry.Game.Player("alice") == nil {
		t.Fatalf("creator player not found in roster")
	}
	if bound, ok := m.UserGame("alice"); !ok || bound != gameID {
		t.Fatalf("creator not bound to game: %q %v", bound, ok)
	}
}

func TestCreateGameRejectsSecondGamePerUser(t *testing.T) {
	m := state.NewManager()
	eng := dummy.New(4, 100)

	if _, err := m.CreateGame("alice", eng); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := m.CreateGame("alice", eng)
	if !errors.Is(err, state.ErrUserInAnotherGame) {
		t.Fatalf("expected ErrUserInAnotherGame, got %v", err)
	}
}

func TestBindUserEnforcesSingleGame(t *testing.T) {
	m := state.NewManager()

	if err := m.BindUser("bob", "game-1"); err != nil {
		t.Fatalf("first bind failed: %v", err)
	}
	if err := m.BindUser("bob", "game-1"); err != nil {
		t.Fatalf("re-bind to the same game should succeed: %v", err)
	}
	if err := m.BindUser("bob", "game-2"); !errors.Is(err, state.ErrUserInAnotherGame) {
		t.Fatalf("expected ErrUserInAnotherGame, got %v", err)
	}
}

func TestLeaveGameRemovesEmptyGame(t *testing.T) {
	m := state.NewManager()
	eng := dummy.New(4, 100)

	gameID, err := m.CreateGame("alice", eng)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	m.LeaveGame("alice", gameID)

	if _, ok := m.GetGame(gameID); ok {
		t.Fatalf("empty game should be dropped from the registry")
	}
	if _, ok := m.UserGame("alice"); ok {
		t.Fatalf("user binding should be released")
	}
}

func TestLeaveGameKeepsNonEmptyGame(t *testing.T) {
	m := state.NewManager()
	eng := dummy.New(4, 100)

	gameID, err := m.CreateGame("alice", eng)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	entry, _ := m.GetGame(gameID)
	if err := m.BindUser("bob", gameID); err != nil {
		t.Fatalf("bind bob failed: %v", err)
	}
	if !entry.Game.AddPlayer("bob", game.NewPlayer("bob")) {
		t.Fatalf("bob could not join")
	}

	m.LeaveGame("bob", gameID)

	if _, ok := m.GetGame(gameID); !ok {
		t.Fatalf("game with remaining players must stay registered")
	}
	if entry.Game.PlayerCount() != 1 {
		t.Fatalf("expected 1 remaining player, got %d", entry.Game.PlayerCount())
	}
	if _, ok := m.UserGame("bob"); ok {
		t.Fatalf("bob's binding should be released")
	}
}

func TestLeaveGameUnknownGameReleasesUser(t *testing.T) {
	m := state.NewManager()
	if err := m.BindUser("carol", "gone"); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	m.LeaveGame("carol", "gone")

	if _, ok := m.UserGame("carol"); ok {
		t.Fatalf("binding to a vanished game should still be released")
	}
}

func TestListGamesAndStats(t *testing.T) {
	m := state.NewManager()
	eng := dummy.New(4, 100)

	gameID, err := m.CreateGame("alice", eng)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	games := m.ListGames()
	if len(games) != 1 {
		t.Fatalf("expected 1 active game, got %d", len(games))
	}
	if games[0].GameID != gameID || games[0].Engine.Name != dummy.EngineName {
		t.Fatalf("unexpected listing %+v", games[0])
	}

	stats := m.GetStats()
	if stats.TotalGames != 1 {
		t.Fatalf("expected 1 total game, got %d", stats.TotalGames)
	}
	if stats.TotalPlayers != 1 {
		t.Fatalf("expected 1 total player, got %d", stats.TotalPlayers)
	}
	if stats.ConnectedClients != 0 {
		t.Fatalf("expected 0 connected clients, got %d", stats.ConnectedClients)
	}
}

func TestJoinGameReattachesExistingPlayer(t *testing.T) {
	m := state.NewManager()
	gameID, err := m.CreateGame("alice", dummy.New(4, 100))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	entry, p, err := m.JoinGame("alice", gameID, newConn("alice"))
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if p != entry.Game.Player("alice") {
		t.Fatalf("join must reuse the creator's roster entry")
	}
	if !p.Connected() {
		t.Fatalf("join should leave the transport attached")
	}
	if entry.Game.PlayerCount() != 1 {
		t.Fatalf("expected 1 player, got %d", entry.Game.PlayerCount())
	}
}

func TestJoinGameUnknownGame(t *testing.T) {
	m := state.NewManager()
	_, _, err := m.JoinGame("alice", "no-such-game", newConn("alice"))
	if !errors.Is(err, state.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	if _, ok := m.UserGame("alice"); ok {
		t.Fatalf("rejected join must not bind the user")
	}
}

func TestJoinGameRejectsSecondGamePerUser(t *testing.T) {
	m := state.NewManager()
	eng := dummy.New(4, 100)
	if _, err := m.CreateGame("alice", eng); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	otherID, err := m.CreateGame("bob", eng)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, _, err = m.JoinGame("alice", otherID, newConn("alice"))
	if !errors.Is(err, state.ErrUserInAnotherGame) {
		t.Fatalf("expected ErrUserInAnotherGame, got %v", err)
	}
}

func TestJoinGameConcurrentSameUser(t *testing.T) {
	m := state.NewManager()
	gameID, err := m.CreateGame("host", dummy.New(4, 100))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const handshakes = 16
	var wg sync.WaitGroup
	for i := 0; i < handshakes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := m.JoinGame("alice", gameID, newConn("alice")); err != nil {
				t.Errorf("join failed: %v", err)
			}
		}()
	}
	wg.Wait()

	entry, ok := m.GetGame(gameID)
	if !ok {
		t.Fatalf("game missing from registry")
	}
	if entry.Game.PlayerCount() != 2 {
		t.Fatalf("expected host plus one alice entry, got %d players", entry.Game.PlayerCount())
	}
	if bound, ok := m.UserGame("alice"); !ok || bound != gameID {
		t.Fatalf("alice not bound to game: %q %v", bound, ok)
	}
}

func TestLeaveGameSkipsReconnectedPlayer(t *testing.T) {
	m := state.NewManager()
	gameID, err := m.CreateGame("alice", dummy.New(4, 100))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	oldConn := newConn("alice")
	_, p, err := m.JoinGame("alice", gameID, oldConn)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	// The old transport drops and a reconnect attaches before the
	// departure is processed.
	if !p.Detach(oldConn) {
		t.Fatalf("detach of current transport should succeed")
	}
	if _, _, err := m.JoinGame("alice", gameID, newConn("alice")); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}

	m.LeaveGame("alice", gameID)

	entry, ok := m.GetGame(gameID)
	if !ok {
		t.Fatalf("game must survive a stale departure")
	}
	if entry.Game.Player("alice") == nil {
		t.Fatalf("reconnected player must keep its roster entry")
	}
	if bound, ok := m.UserGame("alice"); !ok || bound != gameID {
		t.Fatalf("reconnected player must stay bound: %q %v", bound, ok)
	}
}

func TestReconnectDisconnectStressKeepsRegistryConsistent(t *testing.T) {
	m := state.NewManager()
	eng := dummy.New(4, 100)
	gameID, err := m.CreateGame("alice", eng)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 200; i++ {
		oldConn := newConn("alice")
		_, p, err := m.JoinGame("alice", gameID, oldConn)
		if err != nil {
			// A previous round's departure emptied the game and
			// dropped it from the registry.
			if !errors.Is(err, state.ErrGameNotFound) {
				t.Fatalf("join failed: %v", err)
			}
			gameID, err = m.CreateGame("alice", eng)
			if err != nil {
				t.Fatalf("recreate failed: %v", err)
			}
			continue
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if p.Detach(oldConn) {
				m.LeaveGame("alice", gameID)
			}
		}()
		go func() {
			defer wg.Done()
			_, _, _ = m.JoinGame("alice", gameID, newConn("alice"))
		}()
		wg.Wait()

		// Whatever the interleaving, a surviving binding must point at
		// a registered game that still holds the player.
		if bound, ok := m.UserGame("alice"); ok {
			entry, exists := m.GetGame(bound)
			if !exists {
				t.Fatalf("round %d: alice bound to missing game %s", i, bound)
			}
			if entry.Game.Player("alice") == nil {
				t.Fatalf("round %d: alice bound to %s but absent from its roster", i, bound)
			}
		}
	}
}
