// Package cards mirrors the user's collection and the marketplace listing
// set, and translates list/delist/purchase intents into authority calls. The
// mirrors are replaced wholesale on fetch and patched in place from
// single-entity mutation responses; ownership never changes locally without
// a confirming response.
package cards

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/tradewind-cards/tradewind/api"
	"github.com/tradewind-cards/tradewind/auth"
	"github.com/tradewind-cards/tradewind/internal/mirror"
	"github.com/tradewind-cards/tradewind/logger"
	"github.com/tradewind-cards/tradewind/notify"
)

const (
	cardsByOwnerPath = "/api/card/"
	tradablePath     = "/api/cards/by-user/"
	marketplacePath  = "/api/cards/marketplace/"
	purchasePath     = "/api/cards/purchase/"
)

type Service struct {
	client   *api.Client
	session  *auth.Manager
	notifier notify.Notifier

	mine   *mirror.Mirror[Card]
	market *mirror.Mirror[Card]

	mu           sync.Mutex
	balance      int
	balanceKnown bool
}

func NewService(client *api.Client, session *auth.Manager, notifier notify.Notifier) *Service {
	return &Service{
		client:   client,
		session:  session,
		notifier: notifier,
		mine:     mirror.New[Card](),
		market:   mirror.New[Card](),
	}
}

// ListMyCards fetches all cards owned by the current identity and replaces
// the owned-cards mirror.
func (s *Service) ListMyCards(ctx context.Context) ([]Card, error) {
	identity, err := s.requireIdentity()
	if err != nil {
		return nil, err
	}

	seq := s.mine.Begin()
	var result []Card
	query := url.Values{"owner": {identity.Username}}
	if err := s.client.Get(ctx, cardsByOwnerPath, query, &result); err != nil {
		s.fail(ctx, err, "Failed to load your cards. Please try again.")
		return nil, fmt.Errorf("list my cards: %w", err)
	}

	s.mine.Replace(seq, result)
	return result, nil
}

// ListTradableCards fetches username's cards that are not listed for sale,
// the candidates for a direct trade.
func (s *Service) ListTradableCards(ctx context.Context, username string) ([]Card, error) {
	if _, err := s.requireIdentity(); err != nil {
		return nil, err
	}

	var result []Card
	query := url.Values{"username": {username}}
	if err := s.client.Get(ctx, tradablePath, query, &result); err != nil {
		var notFound *api.NotFoundError
		if errors.As(err, &notFound) {
			err = &api.NotFoundError{Resource: fmt.Sprintf("user %q", username)}
			s.notifier.Push(notify.Notification{
				Title:       "User not found",
				Description: fmt.Sprintf("User '%s' was not found.", username),
				Level:       notify.LevelWarning,
			})
			return nil, err
		}
		s.fail(ctx, err, "Failed to load cards for "+username+".")
		return nil, fmt.Errorf("list tradable cards: %w", err)
	}
	return result, nil
}

// ListMarketplace fetches every listed card, optionally filtered upstream by
// a case-insensitive substring of the name, and replaces the marketplace
// mirror.
func (s *Service) ListMarketplace(ctx context.Context, nameFilter string) ([]Card, error) {
	if _, err := s.requireIdentity(); err != nil {
		return nil, err
	}

	seq := s.market.Begin()
	query := url.Values{}
	if nameFilter != "" {
		query.Set("name", nameFilter)
	}

	var resp struct {
		Cards []Card `json:"cards"`
	}
	if err := s.client.Get(ctx, marketplacePath, query, &resp); err != nil {
		s.fail(ctx, err, "Failed to load the marketplace. Please try again.")
		return nil, fmt.Errorf("list marketplace: %w", err)
	}

	s.market.Replace(seq, resp.Cards)
	return resp.Cards, nil
}

// ListForSale puts the card on the marketplace at price. Listing an already
// listed card overwrites its price. The authority enforces ownership.
func (s *Service) ListForSale(ctx context.Context, cardID int64, price int) (Card, error) {
	if price <= 0 {
		err := &api.ValidationError{Message: "Price must be a positive number of credits."}
		s.notifier.Push(notify.Notification{Title: "Invalid price", Description: err.Message, Level: notify.LevelWarning})
		return Card{}, err
	}
	if _, err := s.requireIdentity(); err != nil {
		return Card{}, err
	}

	card, err := s.setPrice(ctx, cardID, price)
	if err != nil {
		s.fail(ctx, err, "Failed to list card for sale.")
		return Card{}, fmt.Errorf("list for sale: %w", err)
	}

	logger.LogMarket("Card listed", "card_id", cardID, "price", price)
	s.notifier.Push(notify.Notification{
		Title:       "Card listed",
		Description: fmt.Sprintf("%s is now available in the marketplace for %d credits.", card.Name, price),
		Level:       notify.LevelSuccess,
	})
	return card, nil
}

// Delist takes the card off the marketplace.
func (s *Service) Delist(ctx context.Context, cardID int64) (Card, error) {
	if _, err := s.requireIdentity(); err != nil {
		return Card{}, err
	}

	card, err := s.setPrice(ctx, cardID, NotForSalePrice)
	if err != nil {
		s.fail(ctx, err, "Failed to remove card from sale.")
		return Card{}, fmt.Errorf("delist: %w", err)
	}

	s.market.Remove(func(c Card) bool { return c.ID == cardID })
	s.notifier.Push(notify.Notification{
		Title:       "Card delisted",
		Description: fmt.Sprintf("%s is no longer for sale.", card.Name),
		Level:       notify.LevelSuccess,
	})
	return card, nil
}

func (s *Service) setPrice(ctx context.Context, cardID int64, price int) (Card, error) {
	var resp struct {
		Card Card `json:"card"`
	}
	err := s.client.Post(ctx, marketplacePath, map[string]any{
		"card_id": cardID,
		"price":   price,
	}, &resp)
	if err != nil {
		return Card{}, err
	}

	// Patch the one affected card; the marketplace set is reconciled on the
	// next fetch.
	s.mine.Patch(
		func(c Card) bool { return c.ID == cardID },
		func(Card) Card { return resp.Card },
	)
	return resp.Card, nil
}

type PurchaseResult struct {
	Card       Card   `json:"card"`
	Message    string `json:"message"`
	NewBalance int    `json:"new_balance"`
}

// Purchase buys a listed card. The authority transfers ownership, debits the
// balance, and delists the card atomically; locally the card leaves the
// marketplace mirror and joins the owned mirror only after the confirming
// response.
func (s *Service) Purchase(ctx context.Context, cardID int64) (*PurchaseResult, error) {
	if _, err := s.requireIdentity(); err != nil {
		return nil, err
	}

	var result PurchaseResult
	err := s.client.Post(ctx, purchasePath, map[string]any{"card_id": cardID}, &result)
	if err != nil {
		s.fail(ctx, err, "Failed to purchase this card.")
		return nil, fmt.Errorf("purchase: %w", err)
	}

	s.market.Remove(func(c Card) bool { return c.ID == cardID })
	s.mine.Append(result.Card)

	s.mu.Lock()
	s.balance = result.NewBalance
	s.balanceKnown = true
	s.mu.Unlock()

	logger.LogMarket("Card purchased", "card_id", cardID, "new_balance", result.NewBalance)
	s.notifier.Push(notify.Notification{Title: "Purchase complete", Description: result.Message, Level: notify.LevelSuccess})
	return &result, nil
}

// MyCards returns the owned-cards mirror.
func (s *Service) MyCards() []Card {
	return s.mine.Snapshot()
}

// Marketplace returns the marketplace mirror.
func (s *Service) Marketplace() []Card {
	return s.market.Snapshot()
}

// Balance reports the balance cached from the last purchase response; known
// is false until a purchase has confirmed one.
func (s *Service) Balance() (balance int, known bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, s.balanceKnown
}

func (s *Service) requireIdentity() (auth.Identity, error) {
	identity, ok := s.session.Identity()
	if !ok {
		return auth.Identity{}, &api.AuthError{Reason: "not authenticated"}
	}
	return identity, nil
}

// fail surfaces err: session-ending errors force a logout, everything else
// becomes a user-facing message.
func (s *Service) fail(ctx context.Context, err error, fallback string) {
	if s.session.TerminateIfExpired(ctx, err) {
		return
	}
	s.notifier.Push(notify.Notification{
		Title:       "Error",
		Description: api.ErrorMessage(err, fallback),
		Level:       notify.LevelError,
	})
}
