package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/httpapi"
)

var me = domain.Session{Username: "ada@example.com", Token: "tok"}

// fakeChat is a chat backend: a socket endpoint at /ws and the history endpoint.
type fakeChat struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	conns    chan *websocket.Conn
	received chan Envelope
	closed   chan struct{}

	mu      sync.Mutex
	auth    []string
	history map[string]string
}

func newFakeChat(t *testing.T) *fakeChat {
	f := &fakeChat{
		t:        t,
		conns:    make(chan *websocket.Conn, 4),
		received: make(chan Envelope, 16),
		closed:   make(chan struct{}, 4),
		history:  make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", f.socket)
	mux.HandleFunc("/chat/history", f.chatHistory)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(func() {
		f.srv.CloseClientConnections()
		f.srv.Close()
	})
	return f
}

func (f *fakeChat) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
}

func (f *fakeChat) socket(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if !assert.NoError(f.t, err) {
		return
	}
	f.conns <- conn

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			f.closed <- struct{}{}
			return
		}
		f.received <- env
	}
}

func (f *fakeChat) chatHistory(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "Bearer tok", r.Header.Get("Authorization"))
	assert.Equal(f.t, me.Username, r.URL.Query().Get("user1"))

	f.mu.Lock()
	body, ok := f.history[r.URL.Query().Get("user2")]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (f *fakeChat) accept() *websocket.Conn {
	select {
	case c := <-f.conns:
		return c
	case <-time.After(2 * time.Second):
		f.t.Fatal("no socket connection")
		return nil
	}
}

func push(t *testing.T, conn *websocket.Conn, event string, data any) {
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: raw}))
}

func TestConnector_SingleActiveSocket(t *testing.T) {
	f := newFakeChat(t)
	c := NewConnector(f.url())
	ctx := context.Background()

	first, err := c.Connect(ctx, "tok")
	require.NoError(t, err)
	f.accept()

	second, err := c.Connect(ctx, "tok")
	require.NoError(t, err)
	f.accept()

	select {
	case <-f.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("first socket was not closed")
	}
	assert.True(t, first.Closed())
	assert.False(t, second.Closed())
	assert.Same(t, second, c.Socket())

	f.mu.Lock()
	assert.Equal(t, []string{"Bearer tok", "Bearer tok"}, f.auth)
	f.mu.Unlock()

	require.NoError(t, c.Disconnect())
	assert.Nil(t, c.Socket())
	assert.True(t, second.Closed())
	require.NoError(t, c.Disconnect())
}

func TestConnector_RequiresToken(t *testing.T) {
	c := NewConnector("ws://127.0.0.1:1/ws")
	_, err := c.Connect(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNoToken)
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
}

func TestConnector_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewConnector("ws" + strings.TrimPrefix(srv.URL, "http") + "/ws")
	_, err := c.Connect(context.Background(), "tok")
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
	assert.Nil(t, c.Socket())
}

// stalledSocketServer accepts connections but never answers the handshake.
func stalledSocketServer(t *testing.T) (url string, started, aborted <-chan struct{}) {
	hit := make(chan struct{}, 4)
	gone := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit <- struct{}{}
		<-r.Context().Done()
		gone <- struct{}{}
	}))
	t.Cleanup(func() {
		srv.CloseClientConnections()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", hit, gone
}

func TestConnector_DisconnectAbortsHandshake(t *testing.T) {
	url, started, aborted := stalledSocketServer(t)
	c := NewConnector(url)

	connectErr := make(chan error, 1)
	go func() {
		_, err := c.Connect(context.Background(), "tok")
		connectErr <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("handshake never reached the server")
	}

	disconnected := make(chan error, 1)
	go func() { disconnected <- c.Disconnect() }()
	select {
	case err := <-disconnected:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Disconnect blocked on the pending handshake")
	}

	select {
	case err := <-connectErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("pending Connect did not return")
	}
	select {
	case <-aborted:
	case <-time.After(2 * time.Second):
		t.Fatal("handshake request was not aborted")
	}
	assert.Nil(t, c.Socket())
}

func TestConnector_HandshakeFollowsCallerContext(t *testing.T) {
	url, _, _ := stalledSocketServer(t)
	c := NewConnector(url)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Connect(ctx, "tok")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Nil(t, c.Socket())
}

func TestSocket_PeerClose(t *testing.T) {
	f := newFakeChat(t)
	s, err := Dial(context.Background(), f.url(), "tok")
	require.NoError(t, err)
	conn := f.accept()

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not exit")
	}
	assert.True(t, s.Closed())

	err = s.Emit(context.Background(), EventMessage, "late")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.NoError(t, s.Close())
}

func TestRoom_UsersAndLiveMessages(t *testing.T) {
	f := newFakeChat(t)
	s, err := Dial(context.Background(), f.url(), me.Token)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	conn := f.accept()

	room := NewRoom(httpapi.New(f.srv.URL), me)
	room.Bind(s)

	assert.Empty(t, room.DisplayName())

	push(t, conn, EventUsers, []domain.Contact{
		{Name: "Ada Lovelace", Email: me.Username, Online: true},
		{Name: "Bob", Email: "bob@example.com", Online: false},
	})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not a frame")))
	push(t, conn, EventMessage, domain.ChatMessage{From: "bob@example.com", Message: "hi", Timestamp: "2025-01-01T10:00:00Z"})

	require.Eventually(t, func() bool { return len(room.Messages()) == 1 }, 2*time.Second, 5*time.Millisecond)

	assert.Len(t, room.Users(), 2)
	assert.Equal(t, []domain.Contact{{Name: "Bob", Email: "bob@example.com"}}, room.Contacts())
	assert.Equal(t, "Ada Lovelace", room.DisplayName())
	assert.Equal(t, "AL", room.Initials())
	assert.False(t, room.IsOwn(room.Messages()[0]))
	assert.False(t, s.Closed(), "a malformed frame must not close the socket")

	push(t, conn, EventUsers, []domain.Contact{{Name: "Carol", Email: "carol@example.com", Online: true}})
	require.Eventually(t, func() bool { return len(room.Users()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, room.DisplayName(), "users snapshot replaces the previous one")
}

func TestRoom_SelectReplacesWithHistory(t *testing.T) {
	f := newFakeChat(t)
	f.history["bob@example.com"] = `[
		{"from":"ada@example.com","message":"hello","timestamp":"2025-01-01T09:00:00Z"},
		{"from":"bob@example.com","message":"hey","timestamp":"2025-01-01T09:01:00Z"}
	]`

	s, err := Dial(context.Background(), f.url(), me.Token)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	conn := f.accept()

	room := NewRoom(httpapi.New(f.srv.URL), me)
	room.Bind(s)
	ctx := context.Background()

	push(t, conn, EventMessage, domain.ChatMessage{From: "carol@example.com", Message: "earlier"})
	require.Eventually(t, func() bool { return len(room.Messages()) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, room.Select(ctx, domain.Contact{Name: "Bob", Email: "bob@example.com"}))
	msgs := room.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Message)
	assert.True(t, room.IsOwn(msgs[0]))

	// Live messages are appended regardless of the selected conversation.
	push(t, conn, EventMessage, domain.ChatMessage{From: "carol@example.com", Message: "psst"})
	require.Eventually(t, func() bool { return len(room.Messages()) == 3 }, 2*time.Second, 5*time.Millisecond)

	err = room.Select(ctx, domain.Contact{Name: "Dave", Email: "dave@example.com"})
	require.Error(t, err)
	assert.Empty(t, room.Messages())
	selected, ok := room.Selected()
	assert.True(t, ok)
	assert.Equal(t, "dave@example.com", selected.Email)
}

func TestRoom_Send(t *testing.T) {
	f := newFakeChat(t)
	f.history["bob@example.com"] = `[]`

	room := NewRoom(httpapi.New(f.srv.URL), me)
	ctx := context.Background()

	require.NoError(t, room.Send(ctx, "   "))
	assert.ErrorIs(t, room.Send(ctx, "hi"), domain.ErrNoContact)

	require.NoError(t, room.Select(ctx, domain.Contact{Name: "Bob", Email: "bob@example.com"}))
	assert.ErrorIs(t, room.Send(ctx, "hi"), domain.ErrNotConnected)

	s, err := Dial(ctx, f.url(), me.Token)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	f.accept()
	room.Bind(s)

	require.NoError(t, room.Send(ctx, ""))
	require.NoError(t, room.Send(ctx, "hello bob"))

	select {
	case env := <-f.received:
		assert.Equal(t, EventMessage, env.Event)
		var out domain.OutgoingMessage
		require.NoError(t, json.Unmarshal(env.Data, &out))
		assert.Equal(t, domain.OutgoingMessage{From: me.Username, To: "bob@example.com", Message: "hello bob"}, out)
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}
}

func TestRoom_UnbindStopsUpdates(t *testing.T) {
	f := newFakeChat(t)
	s, err := Dial(context.Background(), f.url(), me.Token)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	conn := f.accept()

	room := NewRoom(httpapi.New(f.srv.URL), me)
	room.Bind(s)
	room.Unbind()

	marker := make(chan struct{})
	s.On("marker", func(json.RawMessage) { close(marker) })

	push(t, conn, EventMessage, domain.ChatMessage{From: "bob@example.com", Message: "x"})
	push(t, conn, "marker", nil)

	select {
	case <-marker:
	case <-time.After(2 * time.Second):
		t.Fatal("marker not dispatched")
	}
	assert.Empty(t, room.Messages())
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Ada Lovelace", "AL"},
		{"ada", "A"},
		{"ada byron king", "AB"},
		{"", ""},
		{"élodie durand", "ÉD"},
		{"ada  lovelace", "AL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Initials(tt.name))
		})
	}
}
