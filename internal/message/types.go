// Package message stores chat messages and tracks their delivery
// state. Inbound messages come from webhook events; outbound messages
// are written optimistically by the send path and later reconciled with
// the gateway's echo of the sent message.
package message

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

// ErrNotFound means no message matches the lookup.
var ErrNotFound = errors.New("message not found")

// Direction of a message relative to the connection owner.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Status is the delivery state of a message.
type Status string

const (
	// StatusPending marks an optimistic outbound placeholder not yet
	// confirmed by the gateway.
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
	// StatusReceived is the terminal state of inbound messages.
	StatusReceived Status = "received"
)

// statusRank orders the forward-only delivery progression. Failed sits
// outside the progression and is always reachable.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// NextStatus clamps a status transition: delivery state never moves
// backwards, because the gateway re-delivers acks out of order.
func NextStatus(current, proposed Status) Status {
	if proposed == StatusFailed {
		return StatusFailed
	}
	cur, curOK := statusRank[current]
	next, nextOK := statusRank[proposed]
	if !curOK || !nextOK {
		return current
	}
	if next <= cur {
		return current
	}
	return proposed
}

// Message is one chat message.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConnectionID   uuid.UUID `json:"connection_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	// ProviderID is the gateway's message id, unique per connection.
	// Placeholders carry a synthetic id until reconciled.
	ProviderID  string                `json:"provider_id"`
	Direction   Direction             `json:"direction"`
	ContentType wagateway.ContentType `json:"content_type"`
	Body        string                `json:"body"`
	MediaURL    string                `json:"media_url,omitempty"`
	MediaMime   string                `json:"media_mime,omitempty"`
	Status      Status                `json:"status"`
	SentAt      time.Time             `json:"sent_at"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}
