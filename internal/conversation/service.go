package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zaptalkhq/zaptalk/internal/db"
	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

// Service resolves inbound events to conversations.
type Service struct {
	logger *slog.Logger
	repo   Repository
}

// NewService creates the conversation service.
func NewService(log *slog.Logger, repo Repository) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger: log.With(slog.String("service", "conversation")),
		repo:   repo,
	}
}

// ResolveInput identifies the chat an event belongs to.
type ResolveInput struct {
	ConnectionID uuid.UUID
	JID          string
	// SenderName backfills the display name of a new or unnamed
	// conversation. Never overwrites an existing name.
	SenderName string
}

// Resolve finds or creates the conversation for a chat identifier.
//
// Lookup order: exact JID, then (for individuals) phone number. A phone
// hit means the contact's JID drifted across a gateway reconnect; the
// stored JID is rewritten so the next event hits the exact match. A
// concurrent-create race is absorbed by retrying the JID lookup after a
// unique violation.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (Conversation, error) {
	jid := wagateway.NormalizeJID(in.JID)
	if jid == "" {
		return Conversation{}, fmt.Errorf("empty chat identifier")
	}
	isGroup := wagateway.IsGroupJID(jid)

	c, err := s.repo.GetByJID(ctx, in.ConnectionID, jid)
	if err == nil {
		s.backfillName(ctx, &c, in.SenderName)
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Conversation{}, err
	}

	phone := ""
	if !isGroup {
		phone = wagateway.PhoneFromJID(jid)
		if phone != "" {
			c, err = s.repo.GetByPhone(ctx, in.ConnectionID, phone)
			if err == nil {
				s.logger.Info("healing drifted conversation jid",
					slog.String("conversation_id", c.ID.String()),
					slog.String("old_jid", c.JID),
					slog.String("new_jid", jid))
				if err := s.repo.UpdateJID(ctx, c.ID, jid); err != nil {
					return Conversation{}, err
				}
				c.JID = jid
				s.backfillName(ctx, &c, in.SenderName)
				return c, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return Conversation{}, err
			}
		}
	}

	c = Conversation{
		ID:           uuid.New(),
		ConnectionID: in.ConnectionID,
		JID:          jid,
		Phone:        phone,
		Name:         in.SenderName,
		IsGroup:      isGroup,
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		if db.IsUniqueViolation(err) {
			// Lost a create race; the winner's row is what we want.
			return s.repo.GetByJID(ctx, in.ConnectionID, jid)
		}
		return Conversation{}, err
	}
	return c, nil
}

// RecordActivity advances the conversation's activity marker after a
// message was stored. Inbound messages also bump the unread counter.
func (s *Service) RecordActivity(ctx context.Context, id uuid.UUID, at time.Time, inbound bool) error {
	return s.repo.TouchActivity(ctx, id, at, inbound)
}

func (s *Service) backfillName(ctx context.Context, c *Conversation, name string) {
	if name == "" || c.Name != "" || c.IsGroup {
		return
	}
	if err := s.repo.SetNameIfEmpty(ctx, c.ID, name); err != nil {
		s.logger.Warn("backfill conversation name failed",
			slog.String("conversation_id", c.ID.String()),
			slog.String("error", err.Error()))
		return
	}
	c.Name = name
}
