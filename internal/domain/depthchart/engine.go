// Package depthchart ranks players into per-game, per-position depth charts
// and answers "who is under player X" queries.
//
// The engine keeps no state of its own: every call reads a fresh snapshot
// from the Store, computes over it in memory, and writes at most once.
package depthchart

import (
	"context"
	"fmt"

	"github.com/okian/depthchart/internal/domain/model"
)

// Store is the persistence contract the engine depends on.
type Store interface {
	// Add persists p and returns it with a fresh, strictly increasing
	// Sequence. Fails if a player with the same identity already exists.
	Add(ctx context.Context, p model.Player) (model.Player, error)

	// Remove deletes exactly the given stored record.
	Remove(ctx context.Context, p model.Player) error

	// List returns every stored player in no guaranteed order.
	List(ctx context.Context) ([]model.Player, error)
}

// Engine implements the depth chart operations over a Store.
type Engine struct {
	store Store
}

// New returns an Engine backed by store.
func New(store Store) *Engine {
	return &Engine{store: store}
}

// AddPlayer normalizes p and persists it. Store errors are returned as is.
func (e *Engine) AddPlayer(ctx context.Context, p model.Player) (model.Player, error) {
	return e.store.Add(ctx, Normalize(p))
}

// GetChart returns every chart, each sorted, concatenated.
func (e *Engine) GetChart(ctx context.Context) ([]model.Player, error) {
	players, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return Chart(players), nil
}

// GetPlayersUnder returns the players ranked below the identified player.
func (e *Engine) GetPlayersUnder(ctx context.Context, target model.Identity) ([]model.Player, error) {
	chart, err := e.GetChart(ctx)
	if err != nil {
		return nil, err
	}
	return PlayersUnder(chart, target)
}

// RemovePlayer deletes the first stored record matching target.
// Nothing is removed when no record matches.
func (e *Engine) RemovePlayer(ctx context.Context, target model.Identity) error {
	players, err := e.store.List(ctx)
	if err != nil {
		return err
	}
	p, ok := find(players, target)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, target)
	}
	return e.store.Remove(ctx, p)
}
