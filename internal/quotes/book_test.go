package quotes

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/realtimehub/internal/domain"
)

func TestBook_BatchWithDuplicatesKeepsLast(t *testing.T) {
	b := NewBook()
	b.Update(
		domain.StockQuote{Symbol: "AAPL", Price: 100},
		domain.StockQuote{Symbol: "MSFT", Price: 300},
		domain.StockQuote{Symbol: "AAPL", Price: 101},
		domain.StockQuote{Symbol: "AAPL", Price: 102},
	)

	q, ok := b.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 102.0, q.Price)
	assert.Equal(t, 2, b.Len())
}

func TestBook_OverwritesAndKeepsFirstSeenOrder(t *testing.T) {
	b := NewBook()
	b.Update(domain.StockQuote{Symbol: "GOOGL", Price: 1})
	b.Update(domain.StockQuote{Symbol: "AAPL", Price: 2})
	b.Update(domain.StockQuote{Symbol: "GOOGL", Price: 3})

	all := b.All()
	require.Len(t, all, 2)
	assert.Equal(t, "GOOGL", all[0].Symbol)
	assert.Equal(t, 3.0, all[0].Price)
	assert.Equal(t, "AAPL", all[1].Symbol)
}

func TestBook_HandleMessage(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.HandleMessage(domain.SSEMessage{
		Type: domain.SSEPriceUpdate,
		Data: []byte(`[{"symbol":"AAPL","price":1},{"symbol":"AAPL","price":2}]`),
	}))
	require.NoError(t, b.HandleMessage(domain.SSEMessage{
		Type: domain.SSEPriceUpdate,
		Data: []byte(`{"symbol":"MSFT","price":5,"change":-1,"changePercent":-0.2}`),
	}))
	require.NoError(t, b.HandleMessage(domain.SSEMessage{Type: "heartbeat", Data: []byte(`{"symbol":"X"}`)}))
	require.NoError(t, b.HandleMessage(domain.SSEMessage{Type: domain.SSEConnectionEstablished, ClientID: "c1"}))

	assert.Equal(t, 2, b.Len())
	q, _ := b.Get("AAPL")
	assert.Equal(t, 2.0, q.Price)
	q, _ = b.Get("MSFT")
	assert.Equal(t, -0.2, q.ChangePercent)

	err := b.HandleMessage(domain.SSEMessage{Type: domain.SSEPriceUpdate, Data: []byte(`[{"symbol":1}]`)})
	assert.Equal(t, domain.KindMalformed, domain.KindOf(err))
}

func TestBook_ConcurrentUpdates(t *testing.T) {
	b := NewBook()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Update(domain.StockQuote{Symbol: "AAPL", Price: float64(i*100 + j)})
				_ = b.All()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, b.Len())
}
