package domain

import (
	"bytes"
	"encoding/json"
)

// SSE message kinds the client reacts to.
const (
	SSEPriceUpdate           = "price_update"
	SSEConnectionEstablished = "connection_established"
)

// StockQuote is the latest known price for one symbol.
type StockQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// SSEMessage is the JSON carried in the data field of every stream event.
// Data holds either a single StockQuote or an array of them.
type SSEMessage struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Quotes decodes Data as a batch, accepting a single object as a batch of one.
func (m SSEMessage) Quotes() ([]StockQuote, error) {
	raw := bytes.TrimSpace(m.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var batch []StockQuote
		if err := json.Unmarshal(raw, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
	var single StockQuote
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []StockQuote{single}, nil
}

// SubscriptionRequest is the body of the subscribe/unsubscribe calls.
type SubscriptionRequest struct {
	Symbols []string `json:"symbols"`
}

// SubscriptionResult is the response of the subscribe/unsubscribe calls.
type SubscriptionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
