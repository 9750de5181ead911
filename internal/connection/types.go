// Package connection holds the read model for provisioned WhatsApp
// connections. Provisioning itself happens elsewhere; the ingestion
// pipeline only looks connections up by gateway instance id.
package connection

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means no connection matches the lookup.
var ErrNotFound = errors.New("connection not found")

// Connection binds a gateway instance to a tenant.
type Connection struct {
	ID         uuid.UUID `json:"id"`
	OrgID      uuid.UUID `json:"org_id"`
	InstanceID string    `json:"instance_id"`
	// Token authenticates calls to the gateway's instance API.
	Token string `json:"-"`
	// AllowGroups controls whether group-chat events are ingested.
	AllowGroups bool      `json:"allow_groups"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
