package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmezger/herdlog/internal/client/api"
	"github.com/jmezger/herdlog/internal/client/identity"
	"github.com/jmezger/herdlog/internal/client/models"
	"github.com/jmezger/herdlog/internal/logging"
)

// Submitter is the single entry point for turning validated in-memory fields
// into a persisted record and kicking off analysis.
//
// The sequence is best-effort, not one atomic transaction: the record store
// and the analysis dispatch are independent external systems. Only the
// persistence write can abort the whole submission; everything after it is
// asynchronous and independently retryable.
type Submitter struct {
	api        api.Client
	identity   identity.Provider
	autosave   *AutosaveManager
	dispatcher *Dispatcher
	notifier   *Notifier
	log        logging.Logger

	// onRetry, when set, becomes the action on the store-failure
	// notification; the session wires it to re-invoke the whole submit.
	onRetry func()
	// onView, when set, becomes the action on the "saved" notification.
	onView func(entryID string)
}

func NewSubmitter(client api.Client, idp identity.Provider, autosave *AutosaveManager, dispatcher *Dispatcher, notifier *Notifier, log logging.Logger) *Submitter {
	return &Submitter{
		api:        client,
		identity:   idp,
		autosave:   autosave,
		dispatcher: dispatcher,
		notifier:   notifier,
		log:        log,
	}
}

// SetRetryAction installs the callback offered when the persistence write
// fails.
func (s *Submitter) SetRetryAction(fn func()) { s.onRetry = fn }

// SetViewAction installs the callback offered on the "saved" notification.
func (s *Submitter) SetViewAction(fn func(entryID string)) { s.onView = fn }

// Submit validates the record-level invariants, resolves the current user,
// persists the entry (create or update by id presence), discards the draft,
// and hands the persisted record to analysis dispatch without awaiting it.
// It returns as soon as the persistence write has succeeded; the AI pipeline
// continues asynchronously.
func (s *Submitter) Submit(ctx context.Context, e *models.JournalEntry, traceID string) (*models.JournalEntry, error) {
	if err := e.CheckInvariants(); err != nil {
		return nil, err
	}

	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot submit: %w", err)
	}

	record := *e
	record.UserID = user.ID
	record.TraceID = traceID
	record.UpdatedAt = time.Now().UTC()
	if !record.Persisted() {
		record.CreatedAt = record.UpdatedAt
	}

	// one run id per submission; an edit of an existing entry arrives here
	// with a fresh trace id already, so the whole correlation lineage is new
	runID := uuid.NewString()

	s.notifier.Notify(Notification{
		Flow:    FlowSubmission,
		Kind:    KindInfo,
		Message: "Submitting entry…",
	})

	// drain any in-flight autosave so a slow save cannot resurrect the draft
	// after we discard it below
	s.autosave.Suspend()

	persisted, err := s.persist(ctx, &record)
	if err != nil {
		s.autosave.Resume()
		s.log.Error(ctx, "entry persistence failed", "entry_id", record.ID, "error", err)
		s.notifier.Notify(Notification{
			Flow:        FlowSubmission,
			Kind:        KindError,
			Message:     "Could not save entry",
			ActionLabel: "Retry",
			Action:      s.onRetry,
			Sticky:      true,
		})
		return nil, err
	}

	if err := s.autosave.Discard(ctx); err != nil {
		// the entry is safely persisted; a leftover draft is only noise
		s.log.Warn(ctx, "failed to discard draft after submit", "error", err)
	}
	// the session stays open for further edits; those need draft protection too
	s.autosave.Resume()

	if s.dispatcher.Enabled() {
		dispatchCtx := context.WithoutCancel(ctx)
		go func() {
			_ = s.dispatcher.Dispatch(dispatchCtx, persisted, runID)
		}()
	}

	saved := Notification{
		Flow:    FlowSubmission,
		Kind:    KindSuccess,
		Message: "Entry saved",
	}
	if s.onView != nil {
		id := persisted.ID
		saved.ActionLabel = "View"
		saved.Action = func() { s.onView(id) }
	}
	s.notifier.Notify(saved)

	s.log.Info(ctx, "entry submitted", "entry_id", persisted.ID, "run_id", runID, "trace_id", traceID)
	return persisted, nil
}

// persist calls create or update depending on whether the store has already
// assigned an id. Resubmitting a persisted entry always updates, never
// duplicates.
func (s *Submitter) persist(ctx context.Context, record *models.JournalEntry) (*models.JournalEntry, error) {
	if record.Persisted() {
		return s.api.UpdateEntry(ctx, record)
	}
	return s.api.CreateEntry(ctx, record)
}
