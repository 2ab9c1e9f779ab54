// Package eventlog implements the append-only, per-game EventLog of
// spec §4.1: the authoritative source for recovery and replay. Append is
// synchronous from the coordinator's perspective and keyed by
// (gameId, seq, kind, payload); a failed append aborts the originating
// action and leaves no partial state.
package eventlog

import (
	"context"
	"sync"

	"mtgserver/internal/engine/domain"
)

// Store is the durability contract the SessionCoordinator depends on.
// The in-memory implementation below is the default; a Postgres-backed
// implementation (internal/engine/eventlog/pg) satisfies the same
// interface for deployments that need durability across process restart.
type Store interface {
	Append(ctx context.Context, gameID string, rec domain.EventRecord) error
	ForwardIterate(ctx context.Context, gameID string) ([]domain.EventRecord, error)
	LatestSeq(ctx context.Context, gameID string) (int64, error)
	Delete(ctx context.Context, gameID string) error
	// TruncateAfter discards every event with Seq > seq, used by Undo to
	// rewind a game to a checkpoint before Replay rebuilds it.
	TruncateAfter(ctx context.Context, gameID string, seq int64) error
}

// MemoryStore is the default in-process Store, grounded on the
// teacher's in-memory repository pattern (mutex-guarded map of slices).
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]domain.EventRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: map[string][]domain.EventRecord{}}
}

func (s *MemoryStore) Append(ctx context.Context, gameID string, rec domain.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[gameID] = append(s.logs[gameID], rec)
	return nil
}

func (s *MemoryStore) ForwardIterate(ctx context.Context, gameID string) ([]domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.logs[gameID]
	out := make([]domain.EventRecord, len(src))
	copy(out, src)
	return out, nil
}

func (s *MemoryStore) LatestSeq(ctx context.Context, gameID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.logs[gameID]
	if len(src) == 0 {
		return 0, nil
	}
	return src[len(src)-1].Seq, nil
}

func (s *MemoryStore) Delete(ctx context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, gameID)
	return nil
}

func (s *MemoryStore) TruncateAfter(ctx context.Context, gameID string, seq int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.logs[gameID]
	kept := src[:0:0]
	for _, rec := range src {
		if rec.Seq <= seq {
			kept = append(kept, rec)
		}
	}
	s.logs[gameID] = kept
	return nil
}
