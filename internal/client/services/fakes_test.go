package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jmezger/herdlog/internal/client/identity"
	"github.com/jmezger/herdlog/internal/client/models"
	"github.com/jmezger/herdlog/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// recordSink captures every Show/Dismiss so tests can assert sequencing.
type recordSink struct {
	mu        sync.Mutex
	shown     []Notification
	dismissed []Flow
}

func (s *recordSink) Show(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, n)
}

func (s *recordSink) Dismiss(flow Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed = append(s.dismissed, flow)
}

func (s *recordSink) Shown() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.shown))
	copy(out, s.shown)
	return out
}

func (s *recordSink) Dismissed() []Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Flow, len(s.dismissed))
	copy(out, s.dismissed)
	return out
}

// memDrafts is an in-memory drafts.Repository with call counters.
type memDrafts struct {
	mu      sync.Mutex
	store   map[string]*models.DraftSnapshot
	puts    int
	deletes int
	putErr  error
	delErr  error
}

func newMemDrafts() *memDrafts {
	return &memDrafts{store: make(map[string]*models.DraftSnapshot)}
}

func (m *memDrafts) Put(_ context.Context, key string, snap *models.DraftSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	copied := *snap
	m.store[key] = &copied
	return nil
}

func (m *memDrafts) Get(_ context.Context, key string) (*models.DraftSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.store[key]
	if !ok {
		return nil, nil
	}
	copied := *snap
	return &copied, nil
}

func (m *memDrafts) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.store, key)
	return nil
}

func (m *memDrafts) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func (m *memDrafts) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.store[key]
	return ok
}

// fakeAPI implements api.Client with overridable hooks and call counters.
type fakeAPI struct {
	mu sync.Mutex

	createCalls   int
	updateCalls   int
	dispatchCalls int
	statusCalls   int
	retryCalls    int

	createErr   error
	updateErr   error
	dispatchErr error
	retryErr    error

	lastDispatched *models.JournalEntry
	lastSettings   models.DispatchSettings

	statusFn func(call int, runID string) (*models.AnalysisRun, error)
}

func (f *fakeAPI) Close() error                 { return nil }
func (f *fakeAPI) Ping(_ context.Context) error { return nil }

func (f *fakeAPI) CreateEntry(_ context.Context, e *models.JournalEntry) (*models.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	persisted := *e
	persisted.ID = uuid.NewString()
	return &persisted, nil
}

func (f *fakeAPI) UpdateEntry(_ context.Context, e *models.JournalEntry) (*models.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	persisted := *e
	return &persisted, nil
}

func (f *fakeAPI) Dispatch(_ context.Context, e *models.JournalEntry, settings models.DispatchSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatchCalls++
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	copied := *e
	f.lastDispatched = &copied
	f.lastSettings = settings
	return nil
}

func (f *fakeAPI) RunStatus(_ context.Context, runID string) (*models.AnalysisRun, error) {
	f.mu.Lock()
	f.statusCalls++
	call := f.statusCalls
	fn := f.statusFn
	f.mu.Unlock()
	if fn != nil {
		return fn(call, runID)
	}
	return &models.AnalysisRun{RunID: runID, Status: models.RunStatusProcessing}, nil
}

func (f *fakeAPI) RetryRun(_ context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retryCalls++
	return f.retryErr
}

func (f *fakeAPI) counts() (create, update, dispatch, status, retry int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls, f.updateCalls, f.dispatchCalls, f.statusCalls, f.retryCalls
}

// fakeIdentity returns a fixed user or a fixed error.
type fakeIdentity struct {
	user *identity.User
	err  error
}

func (f *fakeIdentity) CurrentUser(_ context.Context) (*identity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}
