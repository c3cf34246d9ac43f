package sse

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/gin-contrib/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Fields(t *testing.T) {
	body := ": keep-alive\n" +
		"id: 7\r\n" +
		"event: price\r\n" +
		"data: first\n" +
		"data:second\n" +
		"\n" +
		"\n" +
		"data: {\"type\":\"x\"}\n\n"

	r := NewReader(strings.NewReader(body))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{ID: "7", Event: "price", Data: "first\nsecond"}, ev)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"x"}`, ev.Data)
	assert.Empty(t, ev.Event)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_DropsIncompleteEvent(t *testing.T) {
	r := NewReader(strings.NewReader("data: done\n\ndata: half"))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "done", ev.Data)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_DecodesGinEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sse.Encode(&buf, sse.Event{Event: "message", Data: map[string]any{"type": "price_update"}}))
	require.NoError(t, sse.Encode(&buf, sse.Event{Data: "line1\nline2"}))

	r := NewReader(&buf)

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "message", ev.Event)
	assert.JSONEq(t, `{"type":"price_update"}`, ev.Data)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", ev.Data)
}
