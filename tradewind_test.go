package tradewind

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/tradewind-cards/tradewind/auth"
)

func TestApp_New(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/token/" {
			json.NewEncoder(w).Encode(map[string]string{"access": "a1", "refresh": "r1"})
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ctx := context.Background()
	cfg := Config{
		API:   APIConfig{BaseURL: srv.URL},
		Store: StoreConfig{Path: filepath.Join(t.TempDir(), "credentials.db")},
	}

	app, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	// A fresh store resolves to unauthenticated, never loading.
	if got := app.Session.State(); got != auth.StateUnauthenticated {
		t.Errorf("Session.State() = %v, want unauthenticated", got)
	}

	if err := app.Session.Login(ctx, "ash", "", "pikachu1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// A second app over the same store picks the session back up.
	again, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() (reopen) error = %v", err)
	}
	defer again.Close()

	if got := again.Session.State(); got != auth.StateAuthenticated {
		t.Errorf("Session.State() after restart = %v, want authenticated", got)
	}
	identity, _ := again.Session.Identity()
	if identity.Username != "ash" {
		t.Errorf("restored username = %q, want %q", identity.Username, "ash")
	}
}

func TestApp_MemoryStoreWhenNoPath(t *testing.T) {
	app, err := New(context.Background(), Config{API: APIConfig{BaseURL: "http://localhost:8000"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if app.Store == nil || app.Cards == nil || app.Trades == nil || app.Notifications == nil {
		t.Error("app components not wired")
	}
}
