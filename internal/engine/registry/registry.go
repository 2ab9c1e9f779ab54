// Package registry is the only process-wide mutable state (spec §9): a
// mutex-guarded map from game id to its *session.Executor. Grounded on
// the teacher's repository.NewGameRepository() singleton-per-process
// pattern, generalized from storing *model.Game values to storing
// live Executor handles (each owning its own wired subsystems).
package registry

import (
	"sync"

	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/session"
)

// Registry holds every in-memory game the process currently serves.
// It does not itself persist anything; durability is the EventLog's
// job. Nothing reloads games from their logs when the process starts:
// a restarted process begins with an empty Registry.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*session.Executor
}

func New() *Registry {
	return &Registry{games: map[string]*session.Executor{}}
}

// Create registers a freshly built Executor under its game id. It
// returns an error if a game with that id is already registered,
// matching the teacher's create-is-not-upsert repository semantics.
func (r *Registry) Create(e *session.Executor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := e.Game().ID
	if _, exists := r.games[id]; exists {
		return enginerr.Newf(enginerr.KindInvalidRequest, "game %s already registered", id)
	}
	r.games[id] = e
	return nil
}

// Find returns the Executor for gameID, or NotFound.
func (r *Registry) Find(gameID string) (*session.Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.games[gameID]
	if !ok {
		return nil, enginerr.NotFound("game", gameID)
	}
	return e, nil
}

// Delete removes a game from the registry. It does not touch the
// event log; callers that also want durable deletion call
// eventlog.Store.Delete themselves.
func (r *Registry) Delete(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, gameID)
}

// List returns every currently registered game id, in no particular
// order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	return ids
}
