package connection

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads connections from Postgres.
type Repository interface {
	GetByInstanceID(ctx context.Context, instanceID string) (Connection, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Postgres-backed connection repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) GetByInstanceID(ctx context.Context, instanceID string) (Connection, error) {
	const query = `
		SELECT id, org_id, instance_id, token, allow_groups, status, created_at, updated_at
		FROM connections
		WHERE instance_id = $1`

	var c Connection
	err := r.pool.QueryRow(ctx, query, instanceID).Scan(
		&c.ID, &c.OrgID, &c.InstanceID, &c.Token,
		&c.AllowGroups, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Connection{}, ErrNotFound
	}
	if err != nil {
		return Connection{}, fmt.Errorf("get connection by instance id: %w", err)
	}
	return c, nil
}
