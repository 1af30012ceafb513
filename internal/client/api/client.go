// Package api talks to the remote record store and the analysis workflow
// service. The orchestration core only sees the Client interface; the HTTP
// implementation lives alongside it.
package api

import (
	"context"

	"github.com/jmezger/herdlog/internal/client/models"
)

// Client is the outbound surface of the journaling client.
//
// CreateEntry and UpdateEntry are the persistence write; their failure aborts
// a submission. Dispatch is fire-and-forget from the caller's point of view:
// its failure never rolls back an already-persisted entry. RunStatus and
// RetryRun drive the job-status poller.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	CreateEntry(ctx context.Context, e *models.JournalEntry) (*models.JournalEntry, error)
	UpdateEntry(ctx context.Context, e *models.JournalEntry) (*models.JournalEntry, error)
	Dispatch(ctx context.Context, e *models.JournalEntry, settings models.DispatchSettings) error
	RunStatus(ctx context.Context, runID string) (*models.AnalysisRun, error)
	RetryRun(ctx context.Context, runID string) error
}

// TokenSource supplies the access token attached to outbound requests.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) AccessToken(ctx context.Context) (string, error) {
	return f(ctx)
}
