package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/accessly/prefsync/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDocumentRepository struct {
	pool        *pgxpool.Pool
	historyKeep int
}

func NewPostgresDocumentRepository(pool *pgxpool.Pool, historyKeep int) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{pool: pool, historyKeep: historyKeep}
}

func (r *PostgresDocumentRepository) Get(ctx context.Context, userID uuid.UUID) (*models.SettingsDocument, error) {
	query := `SELECT user_id, body, version, created_at, updated_at
	          FROM user_settings
	          WHERE user_id = $1`

	var doc models.SettingsDocument
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&doc.UserID,
		&doc.Body,
		&doc.Version,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings document: %w", err)
	}
	return &doc, nil
}

// Put creates the document at version 1 or replaces the body and bumps the
// version by exactly 1. The whole upsert is a single conditional statement,
// so concurrent writers for the same owner serialize on the row and every
// completed call observes a distinct version. No process-level lock is
// involved; writes for different owners never contend.
func (r *PostgresDocumentRepository) Put(ctx context.Context, userID uuid.UUID, body map[string]any) (*models.SettingsDocument, error) {
	query := `INSERT INTO user_settings (user_id, body, version, created_at, updated_at)
	          VALUES ($1, $2, 1, NOW(), NOW())
	          ON CONFLICT (user_id) DO UPDATE
	          SET body = EXCLUDED.body,
	              version = user_settings.version + 1,
	              updated_at = NOW()
	          RETURNING user_id, body, version, created_at, updated_at`

	var doc models.SettingsDocument
	err := r.pool.QueryRow(ctx, query, userID, body).Scan(
		&doc.UserID,
		&doc.Body,
		&doc.Version,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to put settings document: %w", err)
	}
	return &doc, nil
}

// AppendHistory inserts a snapshot of body, then prunes entries beyond the
// most recent historyKeep for the user. Pruning runs in the same call but
// not the same statement; a prune failure after a successful insert is
// surfaced to the caller, which treats history as best-effort.
func (r *PostgresDocumentRepository) AppendHistory(ctx context.Context, userID uuid.UUID, body map[string]any) error {
	insert := `INSERT INTO user_settings_history (user_id, body, created_at)
	           VALUES ($1, $2, NOW())`

	if _, err := r.pool.Exec(ctx, insert, userID, body); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	prune := `DELETE FROM user_settings_history
	          WHERE user_id = $1
	            AND id NOT IN (
	              SELECT id FROM user_settings_history
	              WHERE user_id = $1
	              ORDER BY created_at DESC, id DESC
	              LIMIT $2
	            )`

	if _, err := r.pool.Exec(ctx, prune, userID, r.historyKeep); err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}

func (r *PostgresDocumentRepository) ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.HistoryEntry, error) {
	query := `SELECT id, user_id, body, created_at
	          FROM user_settings_history
	          WHERE user_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Body, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}

func (r *PostgresDocumentRepository) HistoryStats(ctx context.Context, userID uuid.UUID) (HistoryStats, error) {
	query := `SELECT COUNT(*), MAX(created_at)
	          FROM user_settings_history
	          WHERE user_id = $1`

	var stats HistoryStats
	err := r.pool.QueryRow(ctx, query, userID).Scan(&stats.Count, &stats.LastBackup)
	if err != nil {
		return HistoryStats{}, fmt.Errorf("failed to get history stats: %w", err)
	}
	return stats, nil
}
