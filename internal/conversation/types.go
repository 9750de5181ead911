// Package conversation manages chat threads keyed by the gateway's JID
// (the network-level chat identifier). JIDs for the same contact drift
// across gateway reconnects, so resolution falls back to the phone
// number and heals the stored JID in place.
package conversation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means no conversation matches the lookup.
var ErrNotFound = errors.New("conversation not found")

// Conversation is one chat thread on a connection.
type Conversation struct {
	ID           uuid.UUID `json:"id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	// JID is the gateway chat identifier, unique per connection.
	JID string `json:"jid"`
	// Phone is the extracted phone number, "" for groups and anonymized
	// contacts.
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	IsGroup bool   `json:"is_group"`

	UnreadCount   int        `json:"unread_count"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
