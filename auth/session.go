// Package auth owns the current identity. All session mutations go through
// the Manager; no other component writes credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tradewind-cards/tradewind/api"
	"github.com/tradewind-cards/tradewind/credstore"
	"github.com/tradewind-cards/tradewind/logger"
	"github.com/tradewind-cards/tradewind/notify"
)

const (
	tokenPath       = "/api/token/"
	userCreatePath  = "/api/user/create/"
	userDestroyPath = "/api/user/destroy/"
)

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

type Identity struct {
	Username string
	Email    string
}

type Manager struct {
	mu       sync.RWMutex
	state    State
	identity Identity

	client   *api.Client
	creds    credstore.Store
	notifier notify.Notifier
}

// NewManager returns a manager in the loading state. Call Restore to derive
// the identity from the credential store.
func NewManager(client *api.Client, creds credstore.Store, notifier notify.Notifier) *Manager {
	return &Manager{
		state:    StateLoading,
		client:   client,
		creds:    creds,
		notifier: notifier,
	}
}

// Restore derives the session from stored credentials without a validation
// round trip. An expired token surfaces later as a request failure.
func (m *Manager) Restore(ctx context.Context) {
	access, accessErr := m.creds.Get(ctx, credstore.KeyAccessToken)
	username, usernameErr := m.creds.Get(ctx, credstore.KeyUsername)

	m.mu.Lock()
	defer m.mu.Unlock()

	if accessErr != nil || usernameErr != nil || access == "" || username == "" {
		m.state = StateUnauthenticated
		m.identity = Identity{}
		logger.LogAuth("No stored session found")
		return
	}

	email, err := m.creds.Get(ctx, credstore.KeyEmail)
	if err != nil && !errors.Is(err, credstore.ErrNotFound) {
		email = ""
	}

	m.state = StateAuthenticated
	m.identity = Identity{Username: username, Email: email}
	logger.LogAuth("Session restored", "username", username)
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Identity returns the current identity; ok is false unless the session is
// authenticated.
func (m *Manager) Identity() (Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity, m.state == StateAuthenticated
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges the password for a credential pair and transitions to
// authenticated. On failure the state is left unchanged and the most
// specific upstream message is surfaced.
func (m *Manager) Login(ctx context.Context, username, email, password string) error {
	var pair tokenPair
	err := m.client.Post(ctx, tokenPath, map[string]string{
		"username": username,
		"password": password,
	}, &pair)
	if err != nil {
		msg := api.ErrorMessage(err, "Login failed. Please try again.")
		m.notifier.Push(notify.Notification{Title: "Login failed", Description: msg, Level: notify.LevelError})
		return fmt.Errorf("login: %w", err)
	}

	if err := m.storeSession(ctx, pair, username, email); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.identity = Identity{Username: username, Email: email}
	m.mu.Unlock()

	logger.LogAuth("Logged in", "username", username)
	m.notifier.Push(notify.Notification{Title: "Welcome", Description: "Logged in as " + username, Level: notify.LevelSuccess})
	return nil
}

// Register creates the account and then logs in with the same credentials;
// account creation alone does not authenticate.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	err := m.client.Post(ctx, userCreatePath, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		msg := api.ErrorMessage(err, "Registration failed. Please try again.")
		m.notifier.Push(notify.Notification{Title: "Registration failed", Description: msg, Level: notify.LevelError})
		return fmt.Errorf("register: %w", err)
	}

	return m.Login(ctx, username, email, password)
}

// Logout clears credentials and identity unconditionally. It is idempotent
// and never fails; removal errors only get logged.
func (m *Manager) Logout(ctx context.Context, reason string) {
	for _, key := range []string{
		credstore.KeyAccessToken,
		credstore.KeyRefreshToken,
		credstore.KeyUsername,
		credstore.KeyEmail,
	} {
		if err := m.creds.Remove(ctx, key); err != nil {
			logger.LogError("Failed to clear credential", err, "key", key)
		}
	}

	m.mu.Lock()
	m.state = StateUnauthenticated
	m.identity = Identity{}
	m.mu.Unlock()

	logger.LogAuth("Logged out", "reason", reason)
	if reason != "" {
		m.notifier.Push(notify.Notification{Title: "Signed out", Description: reason, Level: notify.LevelInfo})
	}
}

// DestroyAccount deletes the account upstream and logs out only after a
// confirmed success. An ambiguous failure leaves the session authenticated.
func (m *Manager) DestroyAccount(ctx context.Context) error {
	if err := m.client.Delete(ctx, userDestroyPath); err != nil {
		msg := api.ErrorMessage(err, "Failed to delete account.")
		m.notifier.Push(notify.Notification{Title: "Account deletion failed", Description: msg, Level: notify.LevelError})
		return fmt.Errorf("destroy account: %w", err)
	}

	m.Logout(ctx, "Your account has been deleted.")
	return nil
}

// TerminateIfExpired forces a logout when err is session-ending and reports
// whether it did so. Dependent components call this to decide between "force
// logout" and "transient error, show message".
func (m *Manager) TerminateIfExpired(ctx context.Context, err error) bool {
	if err == nil || !api.IsSessionExpired(err) {
		return false
	}
	m.Logout(ctx, "Your session has expired. Please log in again.")
	return true
}

func (m *Manager) storeSession(ctx context.Context, pair tokenPair, username, email string) error {
	values := map[string]string{
		credstore.KeyAccessToken:  pair.Access,
		credstore.KeyRefreshToken: pair.Refresh,
		credstore.KeyUsername:     username,
	}
	if email != "" {
		values[credstore.KeyEmail] = email
	}
	for key, value := range values {
		if err := m.creds.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
