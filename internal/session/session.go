package session

import (
	"context"
	"errors"

	"github.com/nfrund/realtimehub/internal/domain"
)

// Manager reads and writes the session keys on a Store.
type Manager struct {
	store Store
}

// NewManager creates a Manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Token returns the stored token, or "" when there is none.
func (m *Manager) Token(ctx context.Context) (string, error) {
	v, _, err := m.store.Get(ctx, domain.KeyAuthToken)
	return v, err
}

// Username returns the stored username, or "" when there is none.
func (m *Manager) Username(ctx context.Context) (string, error) {
	v, _, err := m.store.Get(ctx, domain.KeyUsername)
	return v, err
}

// HasToken reports whether a non-empty token is stored. Read errors count as absent.
func (m *Manager) HasToken(ctx context.Context) bool {
	token, err := m.Token(ctx)
	return err == nil && token != ""
}

// Current returns the stored session; ok is false when no token is present.
func (m *Manager) Current(ctx context.Context) (s domain.Session, ok bool, err error) {
	if s.Token, err = m.Token(ctx); err != nil {
		return domain.Session{}, false, err
	}
	if s.Username, err = m.Username(ctx); err != nil {
		return domain.Session{}, false, err
	}
	return s, s.Token != "", nil
}

// SetUsername stores the username on its own, before a token exists.
func (m *Manager) SetUsername(ctx context.Context, username string) error {
	return m.store.Set(ctx, domain.KeyUsername, username)
}

// SetToken stores the token.
func (m *Manager) SetToken(ctx context.Context, token string) error {
	return m.store.Set(ctx, domain.KeyAuthToken, token)
}

// Save stores both halves of s.
func (m *Manager) Save(ctx context.Context, s domain.Session) error {
	if err := m.SetUsername(ctx, s.Username); err != nil {
		return err
	}
	return m.SetToken(ctx, s.Token)
}

// Clear removes every session key. Clearing an empty store is a no-op.
func (m *Manager) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{domain.KeyUsername, domain.KeyAuthToken, domain.KeyName} {
		if err := m.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ForgetName removes the cached display name, as a chat view does when it unmounts.
func (m *Manager) ForgetName(ctx context.Context) error {
	return m.store.Delete(ctx, domain.KeyName)
}
