package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/httpapi"
)

const opSend = "chat.send"

// Room is the state of one chat view: the contact snapshot, the selected
// contact and the visible message sequence.
//
// Every live `message` event is appended, whichever conversation it belongs
// to; the sequence is only narrowed when Select reloads history.
type Room struct {
	api     *httpapi.Client
	session domain.Session

	onUsers   func([]domain.Contact)
	onMessage func(domain.ChatMessage)

	mu       sync.RWMutex
	socket   *Socket
	users    []domain.Contact
	selected domain.Contact
	messages []domain.ChatMessage
	// selectSeq discards history responses for a contact no longer selected.
	selectSeq uint64
}

// RoomOption configures a Room.
type RoomOption func(*Room)

// OnUsers registers a callback for every contact snapshot.
func OnUsers(fn func([]domain.Contact)) RoomOption {
	return func(r *Room) { r.onUsers = fn }
}

// OnMessage registers a callback for every live message.
func OnMessage(fn func(domain.ChatMessage)) RoomOption {
	return func(r *Room) { r.onMessage = fn }
}

// NewRoom creates the view state for the logged-in session.
func NewRoom(api *httpapi.Client, session domain.Session, opts ...RoomOption) *Room {
	r := &Room{api: api, session: session}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind attaches the room to s, replacing any previous binding.
func (r *Room) Bind(s *Socket) {
	r.Unbind()

	s.On(EventUsers, r.handleUsers)
	s.On(EventMessage, r.handleMessage)

	r.mu.Lock()
	r.socket = s
	r.mu.Unlock()
}

// Unbind detaches the room's handlers from its socket.
func (r *Room) Unbind() {
	r.mu.Lock()
	s := r.socket
	r.socket = nil
	r.mu.Unlock()

	if s != nil {
		s.Off(EventUsers)
		s.Off(EventMessage)
	}
}

func (r *Room) handleUsers(data json.RawMessage) {
	var users []domain.Contact
	if err := json.Unmarshal(data, &users); err != nil {
		slog.Warn("Ignoring malformed users event", "error", err)
		return
	}

	r.mu.Lock()
	r.users = users
	r.mu.Unlock()

	if r.onUsers != nil {
		r.onUsers(users)
	}
}

func (r *Room) handleMessage(data json.RawMessage) {
	var msg domain.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("Ignoring malformed message event", "error", err)
		return
	}

	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()

	if r.onMessage != nil {
		r.onMessage(msg)
	}
}

// Select makes contact the active conversation and replaces the message
// sequence with its history. A failed fetch leaves the sequence empty.
func (r *Room) Select(ctx context.Context, contact domain.Contact) error {
	r.mu.Lock()
	r.selected = contact
	r.selectSeq++
	seq := r.selectSeq
	r.mu.Unlock()

	if contact.Email == "" {
		return nil
	}

	history, err := FetchHistory(ctx, r.api, r.session.Token, r.session.Username, contact.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.selectSeq {
		return err
	}
	if err != nil {
		slog.Warn("Error fetching chat history", "contact", contact.Email, "error", err)
		r.messages = nil
		return err
	}
	r.messages = history
	return nil
}

// Send emits text to the selected contact. Blank text is ignored.
func (r *Room) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	r.mu.RLock()
	s, to := r.socket, r.selected.Email
	r.mu.RUnlock()

	if to == "" {
		return domain.NewError(opSend, domain.KindPrecondition, domain.ErrNoContact)
	}
	if s == nil {
		return domain.NewError(opSend, domain.KindPrecondition, domain.ErrNotConnected)
	}
	return s.Emit(ctx, EventMessage, domain.OutgoingMessage{
		From:    r.session.Username,
		To:      to,
		Message: text,
	})
}

// Users returns the full contact snapshot, including the logged-in user.
func (r *Room) Users() []domain.Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Contact(nil), r.users...)
}

// Contacts returns the snapshot without the logged-in user's own entry.
func (r *Room) Contacts() []domain.Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Contact, 0, len(r.users))
	for _, u := range r.users {
		if u.Email != r.session.Username {
			out = append(out, u)
		}
	}
	return out
}

// Selected returns the active contact; ok is false when none is selected.
func (r *Room) Selected() (contact domain.Contact, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected, r.selected.Email != ""
}

// Messages returns the visible message sequence.
func (r *Room) Messages() []domain.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.ChatMessage(nil), r.messages...)
}

// IsOwn reports whether msg was sent by the logged-in user.
func (r *Room) IsOwn(msg domain.ChatMessage) bool {
	return msg.From == r.session.Username
}

// Username returns the logged-in user's email.
func (r *Room) Username() string {
	return r.session.Username
}

// DisplayName is the name of the contact whose email is the logged-in
// username, or "" until such a contact appears.
func (r *Room) DisplayName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == r.session.Username {
			return u.Name
		}
	}
	return ""
}

// Initials returns up to two upper-cased initials of DisplayName.
func (r *Room) Initials() string {
	return Initials(r.DisplayName())
}

// Initials takes the first letter of each space-separated word of name,
// keeps the first two and upper-cases them.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, " ") {
		for _, r := range part {
			b.WriteRune(r)
			break
		}
	}
	initials := []rune(b.String())
	if len(initials) > 2 {
		initials = initials[:2]
	}
	return cases.Upper(language.Und).String(string(initials))
}
