// Package dummy provides the plain chat-relay engine: no rules, every
// message is broadcast to the whole room.
package dummy

import "github.com/mrader1248/happy-games/internal/game"

const (
	EngineName  = "dummy"
	EngineTitle = "Dummy Game"
)

type Engine struct {
	maxPlayers   int
	historyLimit int
}

// New creates the dummy engine. Non-positive limits fall back to the
// game package defaults.
func New(maxPlayers, historyLimit int) *Engine {
	return &Engine{maxPlayers: maxPlayers, historyLimit: historyLimit}
}

func (e *Engine) Name() string  { return EngineName }
func (e *Engine) Title() string { return EngineTitle }

func (e *Engine) NewGame(id string) *game.Game {
	return game.New(id, e.maxPlayers, e.historyLimit)
}
