package cart

import (
	"sync"

	"github.com/viha/freshmart-api/internal/catalog"
)

// Line is one cart entry, keyed by product id. The embedded product is a
// snapshot frozen at add time: later catalog reloads or price changes never
// touch it.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Ledger holds the line items for one session. Quantity is always >= 1 while
// a line is present; decrementing a quantity-1 line removes it.
type Ledger struct {
	mu    sync.Mutex
	lines []Line
}

func NewLedger() *Ledger { return &Ledger{} }

// AddOrIncrement bumps the quantity for an existing line by exactly 1, leaving
// the frozen product snapshot as it was, or appends a new quantity-1 line.
func (l *Ledger) AddOrIncrement(p catalog.Product) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.lines {
		if l.lines[i].Product.ID == p.ID {
			l.lines[i].Quantity++
			return
		}
	}
	l.lines = append(l.lines, Line{Product: p, Quantity: 1})
}

// DecrementOrRemove lowers the quantity by 1, removing the line when it would
// hit zero. Unknown product ids are a no-op.
func (l *Ledger) DecrementOrRemove(productID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.lines {
		if l.lines[i].Product.ID != productID {
			continue
		}
		if l.lines[i].Quantity > 1 {
			l.lines[i].Quantity--
		} else {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
		}
		return
	}
}

// Remove drops the line regardless of quantity. No-op when absent.
func (l *Ledger) Remove(productID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.lines {
		if l.lines[i].Product.ID == productID {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the ledger. Called after a placed order.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

// Quantity reports the held quantity for a product id, 0 when absent.
func (l *Ledger) Quantity(productID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ln := range l.lines {
		if ln.Product.ID == productID {
			return ln.Quantity
		}
	}
	return 0
}

// TotalItemCount sums quantities across lines (cart badge).
func (l *Ledger) TotalItemCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ln := range l.lines {
		n += ln.Quantity
	}
	return n
}

// Lines returns a copy in insertion order.
func (l *Ledger) Lines() []Line {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Line(nil), l.lines...)
}

// restoreIfEmpty seeds the ledger from a persisted snapshot (Redis
// rehydration). A ledger that picked up mutations while the snapshot was in
// flight wins: live writes are never clobbered by stale persistence.
func (l *Ledger) restoreIfEmpty(lines []Line) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		l.lines = lines
	}
}
