// Package engine defines the pluggable game-engine abstraction. An
// engine is resolved by name when a game is created and acts as the
// constructor for that game's behavior.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mrader1248/happy-games/internal/game"
	"github.com/mrader1248/happy-games/internal/types"
)

// Engine constructs games and describes itself for the listing
// endpoint.
type Engine interface {
	Name() string
	Title() string
	NewGame(id string) *game.Game
}

// Registry maps engine names to implementations. Engines are
// registered at startup and only read afterwards.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds an engine under its own name, replacing any previous
// registration.
func (r *Registry) Register(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Name()] = e
}

// ErrUnknownEngine is returned by Get for a name nothing was
// registered under.
var ErrUnknownEngine = errors.New("unknown engine")

// Get resolves an engine by name.
func (r *Registry) Get(name string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	return e, nil
}

// List returns descriptors for all registered engines, sorted by name
// for consistent ordering.
func (r *Registry) List() []types.EngineInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]types.EngineInfo, 0, len(r.engines))
	for _, e := range r.engines {
		infos = append(infos, types.EngineInfo{Name: e.Name(), Title: e.Title()})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}
