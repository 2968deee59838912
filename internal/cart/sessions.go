package cart

import (
	"context"
	"log/slog"
	"sync"
)

// LineStore persists ledger snapshots per session. *Store is the Redis
// implementation.
type LineStore interface {
	Save(ctx context.Context, sessionID string, lines []Line) error
	Load(ctx context.Context, sessionID string) ([]Line, error)
	Delete(ctx context.Context, sessionID string) error
}

var _ LineStore = (*Store)(nil)

// Sessions maps session ids to ledgers, creating on first use. When a store is
// attached, ledgers are rehydrated on first access and written back after
// every mutation.
type Sessions struct {
	store LineStore

	mu      sync.Mutex
	ledgers map[string]*Ledger
}

func NewSessions(store LineStore) *Sessions {
	return &Sessions{store: store, ledgers: map[string]*Ledger{}}
}

func (s *Sessions) Ledger(ctx context.Context, sessionID string) *Ledger {
	s.mu.Lock()
	l, ok := s.ledgers[sessionID]
	if !ok {
		l = NewLedger()
		s.ledgers[sessionID] = l
	}
	s.mu.Unlock()

	if !ok && s.store != nil {
		lines, err := s.store.Load(ctx, sessionID)
		if err != nil {
			slog.Warn("cart rehydrate failed", "session", sessionID, "err", err)
		} else if lines != nil {
			// a concurrent first touch may have mutated the ledger already;
			// the snapshot only seeds an empty one
			l.restoreIfEmpty(lines)
		}
	}
	return l
}

// Persist writes the ledger's current lines back to the store. Errors are
// logged, never surfaced.
func (s *Sessions) Persist(ctx context.Context, sessionID string) {
	if s.store == nil {
		return
	}
	l := s.Ledger(ctx, sessionID)
	if err := s.store.Save(ctx, sessionID, l.Lines()); err != nil {
		slog.Warn("cart persist failed", "session", sessionID, "err", err)
	}
}

// Drop forgets the session locally and in the store (logout / session end).
func (s *Sessions) Drop(ctx context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.ledgers, sessionID)
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			slog.Warn("cart delete failed", "session", sessionID, "err", err)
		}
	}
}
