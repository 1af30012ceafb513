package services

import (
	"context"
	"sync"
	"time"

	"github.com/jmezger/herdlog/internal/client/models"
	"github.com/jmezger/herdlog/internal/client/repositories/drafts"
	"github.com/jmezger/herdlog/internal/logging"
)

// SnapshotFunc captures the current editable field set as a draft snapshot.
// The session controller supplies it; it must be safe to call from the
// autosave goroutine.
type SnapshotFunc func() models.JournalEntry

// AutosaveManager periodically persists a snapshot of in-progress edits to
// the local draft store. Saves are best-effort: a failed write is logged and
// retried on the next interval, never surfaced to the user.
type AutosaveManager struct {
	mu          sync.Mutex
	dirty       bool
	saving      bool
	suspended   bool
	lastSavedAt time.Time

	inFlight sync.WaitGroup

	key      string
	snapshot SnapshotFunc
	repo     drafts.Repository
	notifier *Notifier
	log      logging.Logger
}

func NewAutosaveManager(key string, repo drafts.Repository, snapshot SnapshotFunc, notifier *Notifier, log logging.Logger) *AutosaveManager {
	return &AutosaveManager{
		key:      key,
		repo:     repo,
		snapshot: snapshot,
		notifier: notifier,
		log:      log.With("draft_key", key),
	}
}

// MarkDirty records that a field changed since the last save. Calling it
// repeatedly is idempotent and never blocks on I/O.
func (m *AutosaveManager) MarkDirty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = true
}

// Dirty reports whether unsaved edits exist.
func (m *AutosaveManager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// LastSavedAt returns the time of the last successful save; zero when the
// draft has never been written.
func (m *AutosaveManager) LastSavedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSavedAt
}

// Tick performs one autosave pass: if edits are dirty and no save is already
// in flight, it writes a full snapshot to the draft store. A Tick that finds
// a save pending is a no-op, keeping at most one concurrent save per key.
func (m *AutosaveManager) Tick(ctx context.Context) {
	m.mu.Lock()
	if !m.dirty || m.saving || m.suspended {
		m.mu.Unlock()
		return
	}
	m.saving = true
	m.inFlight.Add(1)
	entry := m.snapshot()
	m.mu.Unlock()

	snap := &models.DraftSnapshot{Entry: entry, SavedAt: time.Now().UTC()}
	err := m.repo.Put(ctx, m.key, snap)

	m.mu.Lock()
	m.saving = false
	if err == nil {
		m.dirty = false
		m.lastSavedAt = snap.SavedAt
	}
	m.mu.Unlock()
	m.inFlight.Done()

	if err != nil {
		// best effort: keep the dirty flag so the next interval retries
		m.log.Warn(ctx, "draft autosave failed", "error", err)
		return
	}

	m.notifier.Notify(Notification{
		Flow:    FlowDraft,
		Kind:    KindInfo,
		Message: "Draft saved",
	})
}

// Run drives Tick on a fixed interval until ctx is cancelled. It is started
// by the session controller in its own goroutine.
func (m *AutosaveManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Suspend blocks new autosaves and waits for any in-flight save to finish.
// Submission calls it first so a slow autosave can never resurrect a draft
// after a successful submit.
func (m *AutosaveManager) Suspend() {
	m.mu.Lock()
	m.suspended = true
	m.mu.Unlock()
	m.inFlight.Wait()
}

// Resume re-enables autosaving after a failed submission attempt.
func (m *AutosaveManager) Resume() {
	m.mu.Lock()
	m.suspended = false
	m.mu.Unlock()
}

// Discard deletes the stored snapshot and resets state. It is called after a
// successful submission or an explicit user discard.
func (m *AutosaveManager) Discard(ctx context.Context) error {
	m.inFlight.Wait()

	if err := m.repo.Delete(ctx, m.key); err != nil {
		return err
	}

	m.mu.Lock()
	m.dirty = false
	m.lastSavedAt = time.Time{}
	m.mu.Unlock()
	return nil
}
