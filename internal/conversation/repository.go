package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists conversations.
type Repository interface {
	GetByJID(ctx context.Context, connectionID uuid.UUID, jid string) (Conversation, error)
	// GetByPhone matches individual (non-group) conversations only.
	GetByPhone(ctx context.Context, connectionID uuid.UUID, phone string) (Conversation, error)
	Create(ctx context.Context, c *Conversation) error
	// UpdateJID rewrites a conversation's JID after identifier drift.
	UpdateJID(ctx context.Context, id uuid.UUID, jid string) error
	// SetNameIfEmpty backfills the display name without overwriting an
	// existing one.
	SetNameIfEmpty(ctx context.Context, id uuid.UUID, name string) error
	// TouchActivity advances last_message_at and optionally increments
	// the unread counter.
	TouchActivity(ctx context.Context, id uuid.UUID, at time.Time, incrementUnread bool) error
}

const conversationColumns = `
	id, connection_id, jid, phone, name, is_group,
	unread_count, last_message_at, created_at, updated_at`

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Postgres-backed conversation repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) GetByJID(ctx context.Context, connectionID uuid.UUID, jid string) (Conversation, error) {
	query := fmt.Sprintf(`SELECT %s FROM conversations WHERE connection_id = $1 AND jid = $2`, conversationColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, connectionID, jid), "get conversation by jid")
}

func (r *pgRepository) GetByPhone(ctx context.Context, connectionID uuid.UUID, phone string) (Conversation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM conversations
		WHERE connection_id = $1 AND phone = $2 AND NOT is_group
		ORDER BY updated_at DESC
		LIMIT 1`, conversationColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, connectionID, phone), "get conversation by phone")
}

func (r *pgRepository) Create(ctx context.Context, c *Conversation) error {
	const query = `
		INSERT INTO conversations (id, connection_id, jid, phone, name, is_group)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING unread_count, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		c.ID, c.ConnectionID, c.JID, c.Phone, c.Name, c.IsGroup,
	).Scan(&c.UnreadCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (r *pgRepository) UpdateJID(ctx context.Context, id uuid.UUID, jid string) error {
	const query = `UPDATE conversations SET jid = $2, updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, jid); err != nil {
		return fmt.Errorf("update conversation jid: %w", err)
	}
	return nil
}

func (r *pgRepository) SetNameIfEmpty(ctx context.Context, id uuid.UUID, name string) error {
	const query = `
		UPDATE conversations SET name = $2, updated_at = now()
		WHERE id = $1 AND (name = '' OR name IS NULL)`
	if _, err := r.pool.Exec(ctx, query, id, name); err != nil {
		return fmt.Errorf("set conversation name: %w", err)
	}
	return nil
}

func (r *pgRepository) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time, incrementUnread bool) error {
	const query = `
		UPDATE conversations SET
			last_message_at = GREATEST(COALESCE(last_message_at, $2), $2),
			unread_count = unread_count + $3,
			updated_at = now()
		WHERE id = $1`
	increment := 0
	if incrementUnread {
		increment = 1
	}
	if _, err := r.pool.Exec(ctx, query, id, at, increment); err != nil {
		return fmt.Errorf("touch conversation activity: %w", err)
	}
	return nil
}

func (r *pgRepository) scanOne(row pgx.Row, op string) (Conversation, error) {
	var c Conversation
	err := row.Scan(
		&c.ID, &c.ConnectionID, &c.JID, &c.Phone, &c.Name, &c.IsGroup,
		&c.UnreadCount, &c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}
