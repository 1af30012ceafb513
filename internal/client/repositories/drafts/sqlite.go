package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmezger/herdlog/internal/client/models"
	"github.com/jmezger/herdlog/internal/dbx"
)

// SQLiteRepository implements Repository on the client's local database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a new SQLiteRepository bound to db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Put replaces the snapshot under key with a full copy. The delete+insert
// pair runs in one transaction so a snapshot is never observed half-written.
func (r *SQLiteRepository) Put(ctx context.Context, key string, snap *models.DraftSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to serialize draft: %w", err)
	}

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO drafts (key, payload, saved_at) VALUES (?, ?, ?)`,
			key, payload, snap.SavedAt.UTC().Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store draft %s: %w", key, err)
	}
	return nil
}

// Get returns the snapshot stored under key, or (nil, nil) when absent.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (*models.DraftSnapshot, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM drafts WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft %s: %w", key, err)
	}

	snap := &models.DraftSnapshot{}
	if err := json.Unmarshal(payload, snap); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", key, err)
	}
	return snap, nil
}

// Delete removes the snapshot stored under key, if any.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", key, err)
	}
	return nil
}
