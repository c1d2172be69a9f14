// Package trades drives the trade-offer lifecycle. The authority owns the
// canonical rules; the client pre-checks only what lets an offer fail fast,
// and reconciles its mirror from the authority's responses.
package trades

import (
	"context"
	"fmt"

	"github.com/tradewind-cards/tradewind/api"
	"github.com/tradewind-cards/tradewind/auth"
	"github.com/tradewind-cards/tradewind/cards"
	"github.com/tradewind-cards/tradewind/internal/mirror"
	"github.com/tradewind-cards/tradewind/logger"
	"github.com/tradewind-cards/tradewind/notify"
)

const (
	tradesPath = "/api/trades/"
	actionPath = "/api/trades/action/"
)

// TradableLister supplies the recipient's tradable cards for the fail-fast
// check before an offer is submitted.
type TradableLister interface {
	ListTradableCards(ctx context.Context, username string) ([]cards.Card, error)
}

type Service struct {
	client   *api.Client
	session  *auth.Manager
	tradable TradableLister
	notifier notify.Notifier

	offers *mirror.Mirror[Offer]
}

func NewService(client *api.Client, session *auth.Manager, tradable TradableLister, notifier notify.Notifier) *Service {
	return &Service{
		client:   client,
		session:  session,
		tradable: tradable,
		notifier: notifier,
		offers:   mirror.New[Offer](),
	}
}

// CreateOffer proposes trading myCardID for theirCardID owned by
// recipientUsername. Self-trades are refused without a network call, and the
// recipient's tradable set is checked first so an impossible offer fails
// here instead of at acceptance time; the authority re-validates regardless.
func (s *Service) CreateOffer(ctx context.Context, recipientUsername string, myCardID, theirCardID int64) (*Offer, error) {
	identity, ok := s.session.Identity()
	if !ok {
		return nil, &api.AuthError{Reason: "not authenticated"}
	}

	if recipientUsername == identity.Username {
		err := &api.ValidationError{Message: "You cannot trade with yourself. Please enter a different username."}
		s.notifier.Push(notify.Notification{Title: "Invalid trade", Description: err.Message, Level: notify.LevelWarning})
		return nil, err
	}

	theirCards, err := s.tradable.ListTradableCards(ctx, recipientUsername)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if !containsCard(theirCards, theirCardID) {
		err := &api.ValidationError{Message: "The selected card doesn't belong to the recipient or isn't available for trading."}
		s.notifier.Push(notify.Notification{Title: "Invalid trade", Description: err.Message, Level: notify.LevelWarning})
		return nil, err
	}

	var offer Offer
	err = s.client.Post(ctx, tradesPath, map[string]any{
		"recipient_username": recipientUsername,
		"sender_card":        myCardID,
		"recipient_card":     theirCardID,
	}, &offer)
	if err != nil {
		s.fail(ctx, err, "Failed to create trade offer. Please try again.")
		return nil, fmt.Errorf("create offer: %w", err)
	}

	s.offers.Append(offer)
	logger.LogTrade("Trade offer created", "trade_id", offer.ID, "recipient", recipientUsername)
	s.notifier.Push(notify.Notification{
		Title:       "Offer sent",
		Description: fmt.Sprintf("Your trade offer has been sent to %s.", recipientUsername),
		Level:       notify.LevelSuccess,
	})
	return &offer, nil
}

// ListMyOffers fetches every offer where the current identity is sender or
// recipient, any status, and replaces the mirror.
func (s *Service) ListMyOffers(ctx context.Context) ([]Offer, error) {
	if _, ok := s.session.Identity(); !ok {
		return nil, &api.AuthError{Reason: "not authenticated"}
	}

	seq := s.offers.Begin()
	var result []Offer
	if err := s.client.Get(ctx, tradesPath, nil, &result); err != nil {
		s.fail(ctx, err, "Failed to load trade offers. Please try again.")
		return nil, fmt.Errorf("list offers: %w", err)
	}

	s.offers.Replace(seq, result)
	return result, nil
}

type ActionResult struct {
	Message string `json:"message"`
	Trade   Offer  `json:"trade"`
}

// Act submits accept, decline or cancel for the offer. The authority
// enforces the role and status preconditions; on success the one affected
// offer is patched in place from the returned payload, no refetch.
func (s *Service) Act(ctx context.Context, offerID int64, action Action) (*ActionResult, error) {
	if _, ok := s.session.Identity(); !ok {
		return nil, &api.AuthError{Reason: "not authenticated"}
	}

	switch action {
	case ActionAccept, ActionDecline, ActionCancel:
	default:
		return nil, &api.ValidationError{Message: fmt.Sprintf("unknown trade action %q", action)}
	}

	var result ActionResult
	err := s.client.Post(ctx, actionPath, map[string]any{
		"trade_id": offerID,
		"action":   action,
	}, &result)
	if err != nil {
		s.fail(ctx, err, fmt.Sprintf("Failed to %s trade", action))
		return nil, fmt.Errorf("trade action %s: %w", action, err)
	}

	s.offers.Patch(
		func(o Offer) bool { return o.ID == offerID },
		func(Offer) Offer { return result.Trade },
	)

	logger.LogTrade("Trade offer updated", "trade_id", offerID, "status", string(result.Trade.Status))
	s.notifier.Push(notify.Notification{Title: "Trade updated", Description: result.Message, Level: notify.LevelSuccess})
	return &result, nil
}

// Offers returns the offers mirror.
func (s *Service) Offers() []Offer {
	return s.offers.Snapshot()
}

// PendingSent returns my still-open outgoing offers.
func (s *Service) PendingSent() []Offer {
	identity, ok := s.session.Identity()
	if !ok {
		return nil
	}
	return PendingSent(s.offers.Snapshot(), identity.Username)
}

// PendingReceived returns the offers awaiting my decision.
func (s *Service) PendingReceived() []Offer {
	identity, ok := s.session.Identity()
	if !ok {
		return nil
	}
	return PendingReceived(s.offers.Snapshot(), identity.Username)
}

// Completed returns my offers in a terminal state.
func (s *Service) Completed() []Offer {
	return Completed(s.offers.Snapshot())
}

func containsCard(list []cards.Card, id int64) bool {
	for _, c := range list {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (s *Service) fail(ctx context.Context, err error, fallback string) {
	if s.session.TerminateIfExpired(ctx, err) {
		return
	}
	s.notifier.Push(notify.Notification{
		Title:       "Action failed",
		Description: api.ErrorMessage(err, fallback),
		Level:       notify.LevelError,
	})
}
