package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_KindAndUnwrap(t *testing.T) {
	err := NewError("sse.subscribe", KindPrecondition, ErrNotConnected)
	wrapped := fmt.Errorf("handler: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotConnected))
	assert.Equal(t, KindPrecondition, KindOf(wrapped))
	assert.Equal(t, "sse.subscribe: not connected", err.Error())
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
}

func TestSSEMessage_Quotes(t *testing.T) {
	t.Run("single object", func(t *testing.T) {
		msg := SSEMessage{Type: SSEPriceUpdate, Data: []byte(`{"symbol":"AAPL","price":190.5,"change":1.2,"changePercent":0.63}`)}
		quotes, err := msg.Quotes()
		assert.NoError(t, err)
		assert.Equal(t, []StockQuote{{Symbol: "AAPL", Price: 190.5, Change: 1.2, ChangePercent: 0.63}}, quotes)
	})

	t.Run("batch", func(t *testing.T) {
		msg := SSEMessage{Type: SSEPriceUpdate, Data: []byte(` [{"symbol":"AAPL","price":1},{"symbol":"MSFT","price":2}]`)}
		quotes, err := msg.Quotes()
		assert.NoError(t, err)
		assert.Len(t, quotes, 2)
		assert.Equal(t, "MSFT", quotes[1].Symbol)
	})

	t.Run("missing data", func(t *testing.T) {
		quotes, err := SSEMessage{Type: SSEPriceUpdate}.Quotes()
		assert.NoError(t, err)
		assert.Nil(t, quotes)
	})

	t.Run("malformed data", func(t *testing.T) {
		_, err := SSEMessage{Type: SSEPriceUpdate, Data: []byte(`{"symbol":`)}.Quotes()
		assert.Error(t, err)
	})
}
