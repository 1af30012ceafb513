package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmezger/herdlog/internal/client/api"
	"github.com/jmezger/herdlog/internal/client/identity"
	"github.com/jmezger/herdlog/internal/client/models"
	"github.com/jmezger/herdlog/internal/client/query"
	"github.com/jmezger/herdlog/internal/client/repositories/drafts"
	"github.com/jmezger/herdlog/internal/client/repositories/metadata"
	"github.com/jmezger/herdlog/internal/common"
	"github.com/jmezger/herdlog/internal/logging"
)

// ErrSessionClosed is returned by operations invoked after teardown.
var ErrSessionClosed = errors.New("session closed")

// SessionConfig carries the timing and dispatch settings of one editing
// session.
type SessionConfig struct {
	AutosaveInterval time.Duration
	Poller           PollerOptions
	Dispatch         DispatchConfig
	// FollowCeiling bounds how long the submission flow keeps mirroring the
	// poller; past it the last-known state stays visible and updates stop.
	FollowCeiling time.Duration
}

func (c *SessionConfig) withDefaults() {
	if c.AutosaveInterval <= 0 {
		c.AutosaveInterval = 30 * time.Second
	}
	if c.FollowCeiling <= 0 {
		c.FollowCeiling = 5 * time.Minute
	}
}

// Capabilities are the optional feature flags of a session. Surfaces that
// lack a feature open the session without its option.
type Capabilities struct {
	WeatherAttach     bool
	SPARSettings      bool
	AssessmentPreview bool
}

// SessionOption configures a session at construction time.
type SessionOption func(*Session)

func WithWeatherAttach() SessionOption {
	return func(s *Session) { s.caps.WeatherAttach = true }
}

func WithSPARSettings() SessionOption {
	return func(s *Session) { s.caps.SPARSettings = true }
}

func WithAssessmentPreview() SessionOption {
	return func(s *Session) { s.caps.AssessmentPreview = true }
}

// Deps bundles the external collaborators a session consumes.
type Deps struct {
	API      api.Client
	Identity identity.Provider
	Drafts   drafts.Repository
	Metadata metadata.Repository
	Sink     Sink
	Log      logging.Logger
}

// Session owns one entry-editing lifecycle: the working copy of the entry,
// the autosave timer, the submission path, analysis dispatch, the status
// poller, and the notification sequencer. All state mutation goes through the
// session's single-writer lock; Close tears down every timer it owns.
type Session struct {
	mu          sync.Mutex
	entry       models.JournalEntry
	traceID     string
	traceKey    string
	draftKey    string
	startedAt   time.Time
	followUntil time.Time
	closed      bool

	cfg  SessionConfig
	caps Capabilities

	cancel     context.CancelFunc
	autosave   *AutosaveManager
	submitter  *Submitter
	dispatcher *Dispatcher
	poller     *Poller
	notifier   *Notifier
	meta       metadata.Repository
	log        logging.Logger
}

// NewSession opens an editing session, fresh or populated from an existing
// record. A new trace id is issued per session: editing and resubmitting an
// entry always starts a new correlation lineage.
func NewSession(ctx context.Context, cfg SessionConfig, deps Deps, existing *models.JournalEntry, opts ...SessionOption) *Session {
	cfg.withDefaults()

	s := &Session{
		cfg:       cfg,
		startedAt: time.Now(),
		traceID:   uuid.NewString(),
		meta:      deps.Metadata,
		log:       deps.Log,
	}
	for _, opt := range opts {
		opt(s)
	}

	entryID := ""
	if existing != nil {
		s.entry = *existing
		entryID = existing.ID
	} else {
		s.entry = models.JournalEntry{Date: time.Now(), Source: "app"}
	}
	s.entry.TraceID = s.traceID
	s.draftKey = models.DraftKey(entryID, s.startedAt)

	s.notifier = NewNotifier(deps.Sink, deps.Log)
	s.autosave = NewAutosaveManager(s.draftKey, deps.Drafts, s.snapshot, s.notifier, deps.Log)
	s.poller = NewPoller(deps.API, cfg.Poller, s.onRunChange, deps.Log)
	s.dispatcher = NewDispatcher(deps.API, cfg.Dispatch, s.notifier, s.poller, deps.Log)
	s.submitter = NewSubmitter(deps.API, deps.Identity, s.autosave, s.dispatcher, s.notifier, deps.Log)
	s.submitter.SetRetryAction(func() {
		go func() { _, _ = s.Submit(context.Background()) }()
	})

	s.recordTrace(ctx, entryID)

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.autosave.Run(sessionCtx, cfg.AutosaveInterval)

	return s
}

// recordTrace remembers the trace id issued for this entry lineage. Best
// effort; the session works the same without the record.
func (s *Session) recordTrace(ctx context.Context, entryID string) {
	if entryID == "" {
		entryID = "new"
	}
	s.traceKey = common.MetaKeyTracePrefix + entryID
	if s.meta == nil {
		return
	}
	if err := s.meta.Set(ctx, s.traceKey, []byte(s.traceID)); err != nil {
		s.log.Warn(ctx, "failed to record trace id", "error", err)
	}
}

// Edit applies a mutation to the working copy and marks the draft dirty. The
// autosave timer picks the change up on its next tick without blocking the
// caller.
func (s *Session) Edit(mutate func(e *models.JournalEntry)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	mutate(&s.entry)
	s.mu.Unlock()

	s.autosave.MarkDirty()
	return nil
}

// AttachWeather attaches a resolved weather snapshot. A failed lookup is the
// caller's error to surface; this method never fabricates data.
func (s *Session) AttachWeather(w *models.Weather) error {
	if !s.caps.WeatherAttach {
		return fmt.Errorf("weather attach is not enabled for this session")
	}
	return s.Edit(func(e *models.JournalEntry) { e.Weather = w })
}

// SetDispatchOverrides sets per-session category/query overrides for the
// analysis settings bundle.
func (s *Session) SetDispatchOverrides(category, queryOverride string) error {
	if !s.caps.SPARSettings {
		return fmt.Errorf("analysis settings are not enabled for this session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.dispatcher.cfg.CategoryOverride = category
	s.dispatcher.cfg.QueryOverride = queryOverride
	return nil
}

// AssessmentPreview returns the retrieval query that would accompany a
// dispatch of the current fields. The second result is false when the
// capability is disabled.
func (s *Session) AssessmentPreview() (string, bool) {
	if !s.caps.AssessmentPreview {
		return "", false
	}
	entry := s.Entry()
	return query.Compose(&entry), true
}

// Entry returns a copy of the working entry.
func (s *Session) Entry() models.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry
}

// TraceID returns the correlation id issued for this edit session.
func (s *Session) TraceID() string { return s.traceID }

// DraftKey returns the draft-store key scoped to this session.
func (s *Session) DraftKey() string { return s.draftKey }

// Autosave exposes the autosave manager, mainly for status display.
func (s *Session) Autosave() *AutosaveManager { return s.autosave }

// Notifier exposes the session's notification sequencer.
func (s *Session) Notifier() *Notifier { return s.notifier }

// snapshot is the SnapshotFunc handed to the autosave manager.
func (s *Session) snapshot() models.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry
}

// Submit runs field-level validation and hands the entry to the submission
// orchestrator. On success the working copy is replaced by the persisted
// record (now carrying its store-assigned id).
func (s *Session) Submit(ctx context.Context) (*models.JournalEntry, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	record := s.entry
	traceID := s.traceID
	s.followUntil = time.Now().Add(s.cfg.FollowCeiling)
	s.mu.Unlock()

	if err := record.Validate(); err != nil {
		return nil, err
	}

	persisted, err := s.submitter.Submit(ctx, &record, traceID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if !s.closed {
		s.entry = *persisted
	}
	s.mu.Unlock()
	return persisted, nil
}

// RetryAnalysis re-dispatches a failed or timed-out run with the same run id.
func (s *Session) RetryAnalysis(ctx context.Context) error {
	return s.poller.Retry(ctx)
}

// AnalysisState returns the poller's current state.
func (s *Session) AnalysisState() models.RunStatus {
	return s.poller.State()
}

// AnalysisProgress returns the approximate progress fraction of the current
// run.
func (s *Session) AnalysisProgress() float64 {
	return s.poller.Progress()
}

// DiscardDraft removes the session's draft snapshot explicitly. The trace
// record goes with it; an abandoned draft ends its correlation lineage.
func (s *Session) DiscardDraft(ctx context.Context) error {
	if err := s.autosave.Discard(ctx); err != nil {
		return err
	}
	if s.meta != nil {
		if err := s.meta.Delete(ctx, s.traceKey); err != nil {
			s.log.Warn(ctx, "failed to delete trace record", "error", err)
		}
	}
	s.notifier.DismissFlow(FlowDraft)
	return nil
}

// Close tears the session down: the autosave timer and any active poll loop
// are cancelled. Calls already in flight may complete, but their results no
// longer mutate session state.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.poller.Stop()
}

// onRunChange mirrors poller transitions into the analysis notification
// flow, updating the visible notification in place. Once the follow ceiling
// passes, the last-known state stays visible and further updates are dropped.
func (s *Session) onRunChange(runID string, status models.RunStatus, run *models.AnalysisRun) {
	s.mu.Lock()
	closed := s.closed
	followUntil := s.followUntil
	s.mu.Unlock()

	if closed {
		return
	}
	if !followUntil.IsZero() && time.Now().After(followUntil) {
		s.log.Debug(context.Background(), "follow ceiling passed, leaving last state visible",
			"run_id", runID, "status", status)
		return
	}

	switch status {
	case models.RunStatusPending:
		s.notifier.Notify(Notification{
			Flow:    FlowAnalysis,
			Kind:    KindInfo,
			Message: "Analyzing entry…",
		})
	case models.RunStatusProcessing:
		s.notifier.Notify(Notification{
			Flow:    FlowAnalysis,
			Kind:    KindInfo,
			Message: fmt.Sprintf("Analyzing entry… %d%%", int(s.poller.Progress()*100)),
		})
	case models.RunStatusCompleted:
		s.notifier.Notify(Notification{
			Flow:    FlowAnalysis,
			Kind:    KindSuccess,
			Message: "Analysis complete",
		})
	case models.RunStatusFailed:
		msg := "Analysis failed"
		if run != nil && run.Error != "" {
			msg = "Analysis failed: " + run.Error
		}
		s.notifier.Notify(Notification{
			Flow:        FlowAnalysis,
			Kind:        KindError,
			Message:     msg,
			ActionLabel: "Retry",
			Action:      s.retryAnalysisAction,
			Sticky:      true,
		})
	case models.RunStatusTimeout:
		s.notifier.Notify(Notification{
			Flow:        FlowAnalysis,
			Kind:        KindWarning,
			Message:     "Analysis timed out",
			ActionLabel: "Retry",
			Action:      s.retryAnalysisAction,
			Sticky:      true,
		})
	}
}

func (s *Session) retryAnalysisAction() {
	go func() {
		if err := s.RetryAnalysis(context.Background()); err != nil {
			s.log.Warn(context.Background(), "analysis retry failed", "error", err)
		}
	}()
}
