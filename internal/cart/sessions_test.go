package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsIsolation(t *testing.T) {
	s := NewSessions(nil)
	ctx := context.Background()

	a := s.Ledger(ctx, "sess-a")
	b := s.Ledger(ctx, "sess-b")

	a.AddOrIncrement(product("p", 10))

	assert.Equal(t, 1, a.Quantity("p"))
	assert.Zero(t, b.Quantity("p"), "sessions must not share ledgers")
}

func TestSessionsReturnsSameLedger(t *testing.T) {
	s := NewSessions(nil)
	ctx := context.Background()

	first := s.Ledger(ctx, "sess-a")
	first.AddOrIncrement(product("p", 10))

	second := s.Ledger(ctx, "sess-a")
	require.Same(t, first, second)
	assert.Equal(t, 1, second.Quantity("p"))
}

type memLineStore struct {
	saved map[string][]Line
}

func newMemLineStore() *memLineStore { return &memLineStore{saved: map[string][]Line{}} }

func (m *memLineStore) Save(ctx context.Context, sessionID string, lines []Line) error {
	m.saved[sessionID] = lines
	return nil
}

func (m *memLineStore) Load(ctx context.Context, sessionID string) ([]Line, error) {
	return m.saved[sessionID], nil
}

func (m *memLineStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.saved, sessionID)
	return nil
}

func TestSessionsRehydratesOnFirstTouch(t *testing.T) {
	store := newMemLineStore()
	store.saved["sess-a"] = []Line{{Product: product("p", 10), Quantity: 2}}

	s := NewSessions(store)
	l := s.Ledger(context.Background(), "sess-a")
	assert.Equal(t, 2, l.Quantity("p"))
}

// A snapshot arriving after the ledger already took live mutations must not
// overwrite them.
func TestRehydrateDoesNotClobberLiveMutations(t *testing.T) {
	l := NewLedger()
	l.AddOrIncrement(product("live", 10))

	l.restoreIfEmpty([]Line{{Product: product("stale", 5), Quantity: 3}})

	assert.Equal(t, 1, l.Quantity("live"))
	assert.Zero(t, l.Quantity("stale"))

	empty := NewLedger()
	empty.restoreIfEmpty([]Line{{Product: product("stale", 5), Quantity: 3}})
	assert.Equal(t, 3, empty.Quantity("stale"))
}

func TestSessionsPersist(t *testing.T) {
	store := newMemLineStore()
	s := NewSessions(store)
	ctx := context.Background()

	s.Ledger(ctx, "sess-a").AddOrIncrement(product("p", 10))
	s.Persist(ctx, "sess-a")

	require.Len(t, store.saved["sess-a"], 1)
	assert.Equal(t, 1, store.saved["sess-a"][0].Quantity)
}

func TestSessionsDrop(t *testing.T) {
	s := NewSessions(nil)
	ctx := context.Background()

	l := s.Ledger(ctx, "sess-a")
	l.AddOrIncrement(product("p", 10))

	s.Drop(ctx, "sess-a")

	fresh := s.Ledger(ctx, "sess-a")
	assert.Zero(t, fresh.Quantity("p"))
}
