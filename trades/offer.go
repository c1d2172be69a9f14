package trades

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusCanceled Status = "canceled"
)

// Action is a state transition request on a pending offer.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

// Offer is a direct card-for-card trade proposal. It is created pending and
// moves to exactly one of accepted, declined or canceled; once non-pending
// it is immutable except for UpdatedAt.
type Offer struct {
	ID                int64     `json:"id"`
	Sender            int64     `json:"sender"`
	Recipient         int64     `json:"recipient"`
	SenderCard        int64     `json:"sender_card"`
	RecipientCard     int64     `json:"recipient_card"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	SenderUsername    string    `json:"sender_username"`
	RecipientUsername string    `json:"recipient_username"`
	SenderCardName    string    `json:"sender_card_name"`
	RecipientCardName string    `json:"recipient_card_name"`
}

func (o Offer) Pending() bool {
	return o.Status == StatusPending
}

// The authority enforces role and status preconditions; these helpers exist
// so the UI only offers controls that can succeed.

func (o Offer) CanAccept(username string) bool {
	return o.Pending() && o.RecipientUsername == username
}

func (o Offer) CanDecline(username string) bool {
	return o.Pending() && o.RecipientUsername == username
}

func (o Offer) CanCancel(username string) bool {
	return o.Pending() && o.SenderUsername == username
}

// PendingSent filters offers to those still awaiting the other side.
func PendingSent(offers []Offer, username string) []Offer {
	return filter(offers, func(o Offer) bool {
		return o.Pending() && o.SenderUsername == username
	})
}

// PendingReceived filters offers to those awaiting a decision by username.
func PendingReceived(offers []Offer, username string) []Offer {
	return filter(offers, func(o Offer) bool {
		return o.Pending() && o.RecipientUsername == username
	})
}

// Completed filters offers to those in a terminal state.
func Completed(offers []Offer) []Offer {
	return filter(offers, func(o Offer) bool { return !o.Pending() })
}

func filter(offers []Offer, keep func(Offer) bool) []Offer {
	var result []Offer
	for _, o := range offers {
		if keep(o) {
			result = append(result, o)
		}
	}
	return result
}
