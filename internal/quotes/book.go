// Package quotes holds the latest price per stock symbol.
package quotes

import (
	"sync"

	"github.com/nfrund/realtimehub/internal/domain"
)

// Book maps symbol to its latest quote. Writes are last-write-wins and the
// iteration order is the order in which symbols were first seen.
type Book struct {
	mu     sync.RWMutex
	quotes map[string]domain.StockQuote
	order  []string
}

// NewBook creates an empty Book.
func NewBook() *Book {
	return &Book{quotes: make(map[string]domain.StockQuote)}
}

// Update applies quotes in order, so a batch with a repeated symbol keeps its last value.
func (b *Book) Update(quotes ...domain.StockQuote) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, q := range quotes {
		if _, seen := b.quotes[q.Symbol]; !seen {
			b.order = append(b.order, q.Symbol)
		}
		b.quotes[q.Symbol] = q
	}
}

// HandleMessage applies a price_update message; every other kind is ignored.
func (b *Book) HandleMessage(msg domain.SSEMessage) error {
	if msg.Type != domain.SSEPriceUpdate {
		return nil
	}
	quotes, err := msg.Quotes()
	if err != nil {
		return domain.NewError("quotes.update", domain.KindMalformed, err)
	}
	b.Update(quotes...)
	return nil
}

// Get returns the quote for symbol.
func (b *Book) Get(symbol string) (domain.StockQuote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[symbol]
	return q, ok
}

// All returns every quote in first-seen order.
func (b *Book) All() []domain.StockQuote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.StockQuote, 0, len(b.order))
	for _, sym := range b.order {
		out = append(out, b.quotes[sym])
	}
	return out
}

// Len returns the number of symbols held.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.quotes)
}
