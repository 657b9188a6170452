package watch

import "sync"

// Ledger maps item ids to the last price observed this session. It is
// never persisted.
type Ledger struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{prices: make(map[string]float64)}
}

// LastPrice returns the recorded price for id.
func (l *Ledger) LastPrice(id string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.prices[id]
	return p, ok
}

// SetLastPrice records price for id, replacing any previous value.
func (l *Ledger) SetLastPrice(id string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prices[id] = price
}

// Reset forgets every entry.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.prices)
}

// Len returns the number of tracked items.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.prices)
}

// Prune removes entries whose id is not in keep and returns how many were
// removed.
func (l *Ledger) Prune(keep map[string]struct{}) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	for id := range l.prices {
		if _, ok := keep[id]; !ok {
			delete(l.prices, id)
			n++
		}
	}
	return n
}
