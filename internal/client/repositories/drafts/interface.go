// Package drafts persists best-effort snapshots of in-progress entries to the
// local database, keyed per editing session.
package drafts

import (
	"context"

	"github.com/jmezger/herdlog/internal/client/models"
)

// Repository is the draft store. Writes are best-effort: a failed Put is
// logged by the caller and retried on the next autosave interval, never
// surfaced to the user.
type Repository interface {
	// Put fully replaces the snapshot stored under key.
	Put(ctx context.Context, key string, snap *models.DraftSnapshot) error

	// Get returns the snapshot stored under key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) (*models.DraftSnapshot, error)

	// Delete removes the snapshot stored under key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, key string) error
}
