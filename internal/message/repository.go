package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists messages.
type Repository interface {
	GetByProviderID(ctx context.Context, connectionID uuid.UUID, providerID string) (Message, error)
	// FindPendingPlaceholder returns the oldest unconfirmed outbound
	// placeholder in the conversation created within the trailing window.
	FindPendingPlaceholder(ctx context.Context, conversationID uuid.UUID, window time.Duration) (Message, error)
	Create(ctx context.Context, m *Message) error
	// ConfirmPlaceholder stamps a placeholder with the gateway's real
	// provider id and advances it to sent.
	ConfirmPlaceholder(ctx context.Context, id uuid.UUID, providerID string, sentAt time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateMedia(ctx context.Context, id uuid.UUID, mediaURL, mediaMime string) error
}

const messageColumns = `
	id, connection_id, conversation_id, provider_id, direction, content_type,
	body, COALESCE(media_url, ''), COALESCE(media_mime, ''), status, sent_at,
	created_at, updated_at`

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Postgres-backed message repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) GetByProviderID(ctx context.Context, connectionID uuid.UUID, providerID string) (Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE connection_id = $1 AND provider_id = $2`, messageColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, connectionID, providerID), "get message by provider id")
}

func (r *pgRepository) FindPendingPlaceholder(ctx context.Context, conversationID uuid.UUID, window time.Duration) (Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE conversation_id = $1
		  AND direction = $2
		  AND status = $3
		  AND created_at >= $4
		ORDER BY created_at ASC
		LIMIT 1`, messageColumns)
	cutoff := time.Now().Add(-window)
	return r.scanOne(
		r.pool.QueryRow(ctx, query, conversationID, DirectionOutbound, StatusPending, cutoff),
		"find pending placeholder",
	)
}

func (r *pgRepository) Create(ctx context.Context, m *Message) error {
	const query = `
		INSERT INTO messages (
			id, connection_id, conversation_id, provider_id, direction,
			content_type, body, media_url, media_mime, status, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10, $11)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		m.ID, m.ConnectionID, m.ConversationID, m.ProviderID, m.Direction,
		m.ContentType, m.Body, m.MediaURL, m.MediaMime, m.Status, m.SentAt,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *pgRepository) ConfirmPlaceholder(ctx context.Context, id uuid.UUID, providerID string, sentAt time.Time) error {
	const query = `
		UPDATE messages SET
			provider_id = $2,
			status = $3,
			sent_at = $4,
			updated_at = now()
		WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, providerID, StatusSent, sentAt); err != nil {
		return fmt.Errorf("confirm placeholder: %w", err)
	}
	return nil
}

func (r *pgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	const query = `UPDATE messages SET status = $2, updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, status); err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	return nil
}

func (r *pgRepository) UpdateMedia(ctx context.Context, id uuid.UUID, mediaURL, mediaMime string) error {
	const query = `
		UPDATE messages SET media_url = $2, media_mime = $3, updated_at = now()
		WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, mediaURL, mediaMime); err != nil {
		return fmt.Errorf("update message media: %w", err)
	}
	return nil
}

func (r *pgRepository) scanOne(row pgx.Row, op string) (Message, error) {
	var m Message
	err := row.Scan(
		&m.ID, &m.ConnectionID, &m.ConversationID, &m.ProviderID, &m.Direction,
		&m.ContentType, &m.Body, &m.MediaURL, &m.MediaMime, &m.Status, &m.SentAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}
