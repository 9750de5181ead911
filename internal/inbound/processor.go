// Package inbound orchestrates webhook ingestion: classify the event,
// resolve its conversation, record the message, and cache its media.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zaptalkhq/zaptalk/internal/connection"
	"github.com/zaptalkhq/zaptalk/internal/conversation"
	"github.com/zaptalkhq/zaptalk/internal/media"
	"github.com/zaptalkhq/zaptalk/internal/message"
	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

// DefaultEagerTimeout bounds the synchronous media fetch when no
// timeout is configured.
const DefaultEagerTimeout = 4 * time.Second

// Processor handles classified webhook events for one gateway.
type Processor struct {
	logger        *slog.Logger
	connections   connection.Repository
	conversations *conversation.Service
	messages      *message.Service
	cache         *media.Cache
	pool          *media.WorkerPool
	ring          *Ring
	eagerTimeout  time.Duration
}

// NewProcessor creates the ingestion processor.
func NewProcessor(
	log *slog.Logger,
	connections connection.Repository,
	conversations *conversation.Service,
	messages *message.Service,
	cache *media.Cache,
	pool *media.WorkerPool,
	ring *Ring,
	eagerTimeout time.Duration,
) *Processor {
	if log == nil {
		log = slog.Default()
	}
	if eagerTimeout <= 0 {
		eagerTimeout = DefaultEagerTimeout
	}
	return &Processor{
		logger:        log.With(slog.String("service", "inbound")),
		connections:   connections,
		conversations: conversations,
		messages:      messages,
		cache:         cache,
		pool:          pool,
		ring:          ring,
		eagerTimeout:  eagerTimeout,
	}
}

// Handle processes one webhook delivery. Errors are returned for
// logging only; the webhook transport acknowledges regardless, because
// the gateway disables hooks that keep failing.
func (p *Processor) Handle(ctx context.Context, instanceID string, payload wagateway.Payload) error {
	kind := wagateway.Classify(payload)
	p.ring.Add(instanceID, Event{
		At:        time.Now(),
		Kind:      kind,
		MessageID: payload.MessageID(),
		ChatID:    payload.ChatID(),
	})

	log := p.logger.With(
		slog.String("instance_id", instanceID),
		slog.String("event", string(kind)))

	switch kind {
	case wagateway.EventMessageReceived:
		return p.handleMessage(ctx, log, instanceID, payload, message.DirectionInbound)
	case wagateway.EventMessageSent:
		return p.handleMessage(ctx, log, instanceID, payload, message.DirectionOutbound)
	case wagateway.EventStatusUpdate:
		return p.handleStatus(ctx, log, instanceID, payload)
	case wagateway.EventConnectionUpdate:
		log.Info("connection state event",
			slog.String("state", payload.String("state", "status", "connected")))
		return nil
	default:
		log.Debug("unclassifiable event ignored")
		return nil
	}
}

func (p *Processor) handleMessage(ctx context.Context, log *slog.Logger, instanceID string, payload wagateway.Payload, direction message.Direction) error {
	conn, err := p.connections.GetByInstanceID(ctx, instanceID)
	if errors.Is(err, connection.ErrNotFound) {
		log.Warn("event for unknown instance ignored")
		return nil
	}
	if err != nil {
		return err
	}

	chatID := payload.ChatID()
	if chatID == "" {
		log.Warn("message event without chat identifier ignored")
		return nil
	}
	if wagateway.IsGroupJID(chatID) && !conn.AllowGroups {
		log.Debug("group message ignored", slog.String("chat_id", chatID))
		return nil
	}

	providerID := payload.MessageID()
	if providerID == "" {
		log.Warn("message event without message id ignored")
		return nil
	}

	contentType := wagateway.DetectContentType(payload)
	body := payload.Text()
	ref := media.Locate(payload, contentType, providerID)

	// Empty events (reactions stripped by the gateway, protocol noise)
	// must not materialize conversations or rows.
	if body == "" && ref.Kind == media.RefNone {
		log.Debug("empty message event ignored", slog.String("provider_id", providerID))
		return nil
	}

	conv, err := p.conversations.Resolve(ctx, conversation.ResolveInput{
		ConnectionID: conn.ID,
		JID:          chatID,
		SenderName:   payload.SenderName(),
	})
	if err != nil {
		return fmt.Errorf("resolve conversation: %w", err)
	}

	m, created, err := p.messages.Record(ctx, message.RecordInput{
		ConnectionID:   conn.ID,
		ConversationID: conv.ID,
		ProviderID:     providerID,
		Direction:      direction,
		ContentType:    contentType,
		Body:           body,
		SentAt:         payload.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	if !created {
		return nil
	}

	if err := p.conversations.RecordActivity(ctx, conv.ID, m.SentAt, direction == message.DirectionInbound); err != nil {
		log.Warn("record conversation activity failed",
			slog.String("conversation_id", conv.ID.String()),
			slog.String("error", err.Error()))
	}

	if ref.Kind != media.RefNone {
		p.cacheMedia(ctx, log, conn, m, media.FetchRequest{
			ConnectionID: conn.ID.String(),
			InstanceID:   conn.InstanceID,
			Token:        conn.Token,
			ContentType:  contentType,
			Ref:          ref,
			MessageID:    providerID,
			MediaKeyB64:  payload.MediaKeyB64(contentType),
		})
	}
	return nil
}

// cacheMedia makes a deadline-bounded eager attempt so fast assets are
// available by the time a client refetches the conversation, and always
// queues a background retry. Whichever pass stores first wins; the
// other returns early.
func (p *Processor) cacheMedia(ctx context.Context, log *slog.Logger, conn connection.Connection, m message.Message, req media.FetchRequest) {
	var cached atomic.Bool

	eagerCtx, cancel := context.WithTimeout(ctx, p.eagerTimeout)
	defer cancel()
	result, err := p.cache.Fetch(eagerCtx, req)
	if err == nil {
		// Mark done only once the reference is stored: a stored object
		// the message does not point at is as good as no object, and
		// the background pass can still repair a failed attach.
		if err := p.messages.AttachMedia(ctx, m.ID, result.AccessPath, result.Mime); err != nil {
			log.Warn("attach media failed, deferring to background",
				slog.String("message_id", m.ID.String()),
				slog.String("error", err.Error()))
		} else {
			cached.Store(true)
		}
	} else {
		log.Debug("eager media fetch failed, deferring to background",
			slog.String("message_id", m.ID.String()),
			slog.String("error", err.Error()))
	}

	p.pool.Submit("cache_media", func(ctx context.Context) error {
		if cached.Load() {
			return nil
		}
		result, err := p.cache.Fetch(ctx, req)
		if err != nil {
			return fmt.Errorf("background media fetch %s: %w", m.ID, err)
		}
		return p.messages.AttachMedia(ctx, m.ID, result.AccessPath, result.Mime)
	})
}

func (p *Processor) handleStatus(ctx context.Context, log *slog.Logger, instanceID string, payload wagateway.Payload) error {
	conn, err := p.connections.GetByInstanceID(ctx, instanceID)
	if errors.Is(err, connection.ErrNotFound) {
		log.Warn("status update for unknown instance ignored")
		return nil
	}
	if err != nil {
		return err
	}

	providerID := payload.MessageID()
	if providerID == "" {
		log.Debug("status update without message id ignored")
		return nil
	}
	return p.messages.ApplyStatus(ctx, conn.ID, providerID, payload.Ack())
}

// Recent exposes the diagnostic ring for the admin surface.
func (p *Processor) Recent(instanceID string) []Event {
	return p.ring.Recent(instanceID)
}
