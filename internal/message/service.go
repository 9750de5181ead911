package message

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

// DefaultPlaceholderWindow bounds how far back placeholder
// reconciliation looks when no window is configured.
const DefaultPlaceholderWindow = 90 * time.Second

// Service records messages and applies delivery-state updates.
type Service struct {
	logger            *slog.Logger
	repo              Repository
	placeholderWindow time.Duration
}

// NewService creates the message service.
func NewService(log *slog.Logger, repo Repository, placeholderWindow time.Duration) *Service {
	if log == nil {
		log = slog.Default()
	}
	if placeholderWindow <= 0 {
		placeholderWindow = DefaultPlaceholderWindow
	}
	return &Service{
		logger:            log.With(slog.String("service", "message")),
		repo:              repo,
		placeholderWindow: placeholderWindow,
	}
}

// RecordInput describes a message event to persist.
type RecordInput struct {
	ConnectionID   uuid.UUID
	ConversationID uuid.UUID
	ProviderID     string
	Direction      Direction
	ContentType    wagateway.ContentType
	Body           string
	SentAt         time.Time
}

// Record persists a message event exactly once.
//
// The gateway redelivers webhooks, so the provider id is the
// idempotency key: a known id returns the stored row untouched. An
// outbound echo first tries to claim a recent pending placeholder
// written by the send path; only when none exists does it insert a new
// row. A concurrent-insert race on the provider id resolves to the
// winner's row.
func (s *Service) Record(ctx context.Context, in RecordInput) (Message, bool, error) {
	if in.ProviderID == "" {
		return Message{}, false, fmt.Errorf("empty provider id")
	}

	existing, err := s.repo.GetByProviderID(ctx, in.ConnectionID, in.ProviderID)
	if err == nil {
		s.logger.Debug("duplicate message delivery ignored",
			slog.String("provider_id", in.ProviderID))
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Message{}, false, err
	}

	if in.Direction == DirectionOutbound {
		placeholder, err := s.repo.FindPendingPlaceholder(ctx, in.ConversationID, s.placeholderWindow)
		if err == nil {
			if err := s.repo.ConfirmPlaceholder(ctx, placeholder.ID, in.ProviderID, in.SentAt); err != nil {
				return Message{}, false, err
			}
			placeholder.ProviderID = in.ProviderID
			placeholder.Status = StatusSent
			placeholder.SentAt = in.SentAt
			return placeholder, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Message{}, false, err
		}
	}

	m := Message{
		ID:             uuid.New(),
		ConnectionID:   in.ConnectionID,
		ConversationID: in.ConversationID,
		ProviderID:     in.ProviderID,
		Direction:      in.Direction,
		ContentType:    in.ContentType,
		Body:           in.Body,
		Status:         initialStatus(in.Direction),
		SentAt:         in.SentAt,
	}
	if err := s.repo.Create(ctx, &m); err != nil {
		if db.IsUniqueViolation(err) {
			winner, lookupErr := s.repo.GetByProviderID(ctx, in.ConnectionID, in.ProviderID)
			if lookupErr != nil {
				return Message{}, false, lookupErr
			}
			return winner, false, nil
		}
		return Message{}, false, err
	}
	return m, true, nil
}

// ApplyStatus applies a delivery-state update to the message with the
// given provider id. Unknown ack values and updates for messages that
// have not arrived yet are ignored: acks race message events and the
// gateway redelivers them later.
func (s *Service) ApplyStatus(ctx context.Context, connectionID uuid.UUID, providerID, ack string) error {
	proposed, ok := statusForAck(ack)
	if !ok {
		s.logger.Debug("unknown ack value ignored", slog.String("ack", ack))
		return nil
	}

	m, err := s.repo.GetByProviderID(ctx, connectionID, providerID)
	if errors.Is(err, ErrNotFound) {
		s.logger.Debug("status update for unknown message ignored",
			slog.String("provider_id", providerID),
			slog.String("ack", ack))
		return nil
	}
	if err != nil {
		return err
	}

	next := NextStatus(m.Status, proposed)
	if next == m.Status {
		return nil
	}
	return s.repo.UpdateStatus(ctx, m.ID, next)
}

// AttachMedia stores the cached asset's location on a message.
func (s *Service) AttachMedia(ctx context.Context, id uuid.UUID, mediaURL, mediaMime string) error {
	return s.repo.UpdateMedia(ctx, id, mediaURL, mediaMime)
}

func initialStatus(d Direction) Status {
	if d == DirectionInbound {
		return StatusReceived
	}
	return StatusSent
}

// statusForAck maps normalized ack markers (see wagateway.Payload.Ack)
// to delivery states.
func statusForAck(ack string) (Status, bool) {
	switch ack {
	case "pending", "clock":
		return StatusPending, true
	case "sent", "server":
		return StatusSent, true
	case "delivered", "device":
		return StatusDelivered, true
	case "read", "played", "viewed":
		return StatusRead, true
	case "failed", "error":
		return StatusFailed, true
	default:
		return "", false
	}
}
