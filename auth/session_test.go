package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/tradewind-cards/tradewind/api"
	"github.com/tradewind-cards/tradewind/credstore"
	"github.com/tradewind-cards/tradewind/notify"
)

type captureNotifier struct {
	mu      sync.Mutex
	entries []notify.Notification
}

func (c *captureNotifier) Push(n notify.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, n)
}

func (c *captureNotifier) last() (notify.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return notify.Notification{}, false
	}
	return c.entries[len(c.entries)-1], true
}

func TestManager_Restore(t *testing.T) {
	tests := []struct {
		name      string
		seed      map[string]string
		wantState State
		wantUser  string
	}{
		{
			name: "access token and username present",
			seed: map[string]string{
				credstore.KeyAccessToken: "tok",
				credstore.KeyUsername:    "ash",
				credstore.KeyEmail:       "ash@example.com",
			},
			wantState: StateAuthenticated,
			wantUser:  "ash",
		},
		{
			name:      "username missing",
			seed:      map[string]string{credstore.KeyAccessToken: "tok"},
			wantState: StateUnauthenticated,
		},
		{
			name:      "access token missing",
			seed:      map[string]string{credstore.KeyUsername: "ash"},
			wantState: StateUnauthenticated,
		},
		{
			name:      "empty store",
			seed:      nil,
			wantState: StateUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := credstore.NewMemoryStore()
			for k, v := range tt.seed {
				_ = store.Set(ctx, k, v)
			}

			m := NewManager(api.NewClient("http://localhost", store, 0), store, notify.Nop{})
			if m.State() != StateLoading {
				t.Fatalf("initial state = %v, want loading", m.State())
			}

			m.Restore(ctx)
			if m.State() != tt.wantState {
				t.Errorf("state after Restore = %v, want %v", m.State(), tt.wantState)
			}
			identity, ok := m.Identity()
			if tt.wantState == StateAuthenticated {
				if !ok || identity.Username != tt.wantUser {
					t.Errorf("Identity() = %+v, %v; want username %q", identity, ok, tt.wantUser)
				}
			} else if ok {
				t.Errorf("Identity() ok = true, want false")
			}
		})
	}
}

func TestManager_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/token/" {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "pikachu1" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access": "a1", "refresh": "r1"})
	}))
	defer srv.Close()

	ctx := context.Background()
	store := credstore.NewMemoryStore()
	sink := &captureNotifier{}
	m := NewManager(api.NewClient(srv.URL, store, 0), store, sink)
	m.Restore(ctx)

	if err := m.Login(ctx, "ash", "ash@example.com", "pikachu1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if m.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", m.State())
	}

	for key, want := range map[string]string{
		credstore.KeyAccessToken:  "a1",
		credstore.KeyRefreshToken: "r1",
		credstore.KeyUsername:     "ash",
		credstore.KeyEmail:        "ash@example.com",
	} {
		got, err := store.Get(ctx, key)
		if err != nil || got != want {
			t.Errorf("stored %s = %q, %v; want %q", key, got, err, want)
		}
	}
}

func TestManager_LoginFailureLeavesStateUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string][]string{"username": {"This field may not be blank."}})
	}))
	defer srv.Close()

	ctx := context.Background()
	store := credstore.NewMemoryStore()
	sink := &captureNotifier{}
	m := NewManager(api.NewClient(srv.URL, store, 0), store, sink)
	m.Restore(ctx)

	err := m.Login(ctx, "", "", "x")
	if err == nil {
		t.Fatal("Login() error = nil, want error")
	}
	if m.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", m.State())
	}

	// The field-level message wins over any general detail.
	if n, ok := sink.last(); !ok || n.Description != "This field may not be blank." {
		t.Errorf("surfaced message = %+v, want field-level message", n)
	}
	if _, err := store.Get(ctx, credstore.KeyAccessToken); !errors.Is(err, credstore.ErrNotFound) {
		t.Errorf("access token stored on failed login: %v", err)
	}
}

func TestManager_RegisterCreatesThenLogsIn(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/api/user/create/":
			w.WriteHeader(http.StatusCreated)
		case "/api/token/":
			json.NewEncoder(w).Encode(map[string]string{"access": "a1", "refresh": "r1"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	store := credstore.NewMemoryStore()
	m := NewManager(api.NewClient(srv.URL, store, 0), store, notify.Nop{})
	m.Restore(ctx)

	if err := m.Register(ctx, "misty", "misty@example.com", "starmie1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	want := []string{"/api/user/create/", "/api/token/"}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("calls = %v, want %v (registration does not authenticate by itself)", calls, want)
	}
	if m.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", m.State())
	}
}

func TestManager_LogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()
	_ = store.Set(ctx, credstore.KeyAccessToken, "tok")
	_ = store.Set(ctx, credstore.KeyUsername, "ash")

	m := NewManager(api.NewClient("http://localhost", store, 0), store, notify.Nop{})
	m.Restore(ctx)

	m.Logout(ctx, "bye")
	m.Logout(ctx, "") // second call must be harmless

	if m.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", m.State())
	}
	if _, err := store.Get(ctx, credstore.KeyAccessToken); !errors.Is(err, credstore.ErrNotFound) {
		t.Errorf("access token still stored after logout")
	}
	if _, err := store.Get(ctx, credstore.KeyUsername); !errors.Is(err, credstore.ErrNotFound) {
		t.Errorf("username still stored after logout")
	}
}

func TestManager_DestroyAccount(t *testing.T) {
	t.Run("success logs out", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodDelete && r.URL.Path == "/api/user/destroy/" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			http.NotFound(w, r)
		}))
		defer srv.Close()

		ctx := context.Background()
		store := credstore.NewMemoryStore()
		_ = store.Set(ctx, credstore.KeyAccessToken, "tok")
		_ = store.Set(ctx, credstore.KeyUsername, "ash")

		m := NewManager(api.NewClient(srv.URL, store, 0), store, notify.Nop{})
		m.Restore(ctx)

		if err := m.DestroyAccount(ctx); err != nil {
			t.Fatalf("DestroyAccount() error = %v", err)
		}
		if m.State() != StateUnauthenticated {
			t.Errorf("state = %v, want unauthenticated", m.State())
		}
	})

	t.Run("failure keeps the session", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		ctx := context.Background()
		store := credstore.NewMemoryStore()
		_ = store.Set(ctx, credstore.KeyAccessToken, "tok")
		_ = store.Set(ctx, credstore.KeyRefreshToken, "r")
		_ = store.Set(ctx, credstore.KeyUsername, "ash")

		m := NewManager(api.NewClient(srv.URL, store, 0), store, notify.Nop{})
		m.Restore(ctx)

		if err := m.DestroyAccount(ctx); err == nil {
			t.Fatal("DestroyAccount() error = nil, want error")
		}
		if m.State() != StateAuthenticated {
			t.Errorf("state = %v, want authenticated (destructive action must not assume success)", m.State())
		}
	})
}

func TestManager_TerminateIfExpired(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()
	_ = store.Set(ctx, credstore.KeyAccessToken, "tok")
	_ = store.Set(ctx, credstore.KeyUsername, "ash")

	m := NewManager(api.NewClient("http://localhost", store, 0), store, notify.Nop{})
	m.Restore(ctx)

	if m.TerminateIfExpired(ctx, &api.UpstreamError{Status: http.StatusBadRequest}) {
		t.Error("TerminateIfExpired(400) = true, want false")
	}
	if m.State() != StateAuthenticated {
		t.Fatalf("state changed by a transient error")
	}

	if !m.TerminateIfExpired(ctx, &api.AuthError{Reason: "refresh failed"}) {
		t.Error("TerminateIfExpired(AuthError) = false, want true")
	}
	if m.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated after forced logout", m.State())
	}
}
