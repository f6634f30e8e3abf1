package repositories

import (
	"context"
	"fmt"

	"github.com/accessly/prefsync/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresSyncEventRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSyncEventRepository(pool *pgxpool.Pool) *PostgresSyncEventRepository {
	return &PostgresSyncEventRepository{pool: pool}
}

func (r *PostgresSyncEventRepository) Append(ctx context.Context, event *models.SyncEvent) error {
	query := `INSERT INTO user_sync_events (user_id, action, source, device_id, success, created_at)
	          VALUES ($1, $2, $3, $4, $5, NOW())
	          RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		event.UserID,
		event.Action,
		event.Source,
		event.DeviceID,
		event.Success,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append sync event: %w", err)
	}
	return nil
}

func (r *PostgresSyncEventRepository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SyncEvent, error) {
	query := `SELECT id, user_id, action, source, device_id, success, created_at
	          FROM user_sync_events
	          WHERE user_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync events: %w", err)
	}
	defer rows.Close()

	var events []*models.SyncEvent
	for rows.Next() {
		var event models.SyncEvent
		err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.Action,
			&event.Source,
			&event.DeviceID,
			&event.Success,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync event: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync events: %w", err)
	}
	return events, nil
}
