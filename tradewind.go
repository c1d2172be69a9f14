// Package tradewind wires the card-trading platform client together for a
// UI layer: durable credential store, authenticated request pipeline,
// session manager, card/marketplace model, trade offers and the
// notification sink.
package tradewind

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tradewind-cards/tradewind/api"
	"github.com/tradewind-cards/tradewind/auth"
	"github.com/tradewind-cards/tradewind/cards"
	"github.com/tradewind-cards/tradewind/credstore"
	"github.com/tradewind-cards/tradewind/logger"
	"github.com/tradewind-cards/tradewind/notify"
	"github.com/tradewind-cards/tradewind/trades"
)

type App struct {
	Cfg           Config
	Store         credstore.Store
	Client        *api.Client
	Session       *auth.Manager
	Cards         *cards.Service
	Trades        *trades.Service
	Notifications *notify.Sink

	closer interface{ Close() error }
}

// New builds the full client. The session is restored from the store before
// New returns, so App.Session.State is either authenticated or
// unauthenticated, never loading.
func New(ctx context.Context, cfg Config) (*App, error) {
	slog.SetDefault(slog.New(logger.NewHandlerWithLevel(cfg.Log.Level)))

	app := &App{Cfg: cfg}

	if cfg.Store.Path != "" {
		store, err := credstore.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential store: %w", err)
		}
		app.Store = store
		app.closer = store
	} else {
		app.Store = credstore.NewMemoryStore()
	}

	app.Notifications = notify.NewSink()
	app.Client = api.NewClient(cfg.API.BaseURL, app.Store, cfg.API.Timeout())
	app.Session = auth.NewManager(app.Client, app.Store, app.Notifications)
	app.Session.Restore(ctx)

	app.Cards = cards.NewService(app.Client, app.Session, app.Notifications)
	app.Trades = trades.NewService(app.Client, app.Session, app.Cards, app.Notifications)

	logger.LogSystem("Tradewind client ready",
		"base_url", cfg.API.BaseURL,
		"session", app.Session.State().String())
	return app, nil
}

func (a *App) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
