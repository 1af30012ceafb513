package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmezger/herdlog/internal/client/models"
)

func newTestAutosave(repo *memDrafts, snapshot SnapshotFunc) (*AutosaveManager, *recordSink) {
	sink := &recordSink{}
	nt := NewNotifier(sink, testLogger())
	m := NewAutosaveManager("draft:test:1", repo, snapshot, nt, testLogger())
	return m, sink
}

func TestAutosaveCoalescesEdits(t *testing.T) {
	repo := newMemDrafts()
	entry := models.JournalEntry{Title: "Morning Feeding Check"}
	m, _ := newTestAutosave(repo, func() models.JournalEntry { return entry })

	for i := 0; i < 10; i++ {
		m.MarkDirty()
	}
	m.Tick(context.Background())

	require.Equal(t, 1, repo.putCount())
	require.False(t, m.Dirty())
	require.True(t, repo.has("draft:test:1"))
}

func TestAutosaveCleanTickWritesNothing(t *testing.T) {
	repo := newMemDrafts()
	m, sink := newTestAutosave(repo, func() models.JournalEntry { return models.JournalEntry{} })

	m.Tick(context.Background())
	m.Tick(context.Background())

	require.Equal(t, 0, repo.putCount())
	require.Empty(t, sink.Shown())
}

func TestAutosaveFailureKeepsDirtyAndRetries(t *testing.T) {
	repo := newMemDrafts()
	repo.putErr = errors.New("disk full")
	m, sink := newTestAutosave(repo, func() models.JournalEntry { return models.JournalEntry{} })

	m.MarkDirty()
	m.Tick(context.Background())

	require.True(t, m.Dirty(), "failed save must keep edits dirty")
	require.Empty(t, sink.Shown(), "failures stay silent")

	repo.putErr = nil
	m.Tick(context.Background())

	require.False(t, m.Dirty())
	require.Equal(t, 2, repo.putCount())
	require.False(t, m.LastSavedAt().IsZero())
}

func TestAutosaveSuspendBlocksTicks(t *testing.T) {
	repo := newMemDrafts()
	m, _ := newTestAutosave(repo, func() models.JournalEntry { return models.JournalEntry{} })

	m.MarkDirty()
	m.Suspend()
	m.Tick(context.Background())
	require.Equal(t, 0, repo.putCount())

	m.Resume()
	m.Tick(context.Background())
	require.Equal(t, 1, repo.putCount())
}

func TestAutosaveDiscardRemovesDraft(t *testing.T) {
	repo := newMemDrafts()
	m, _ := newTestAutosave(repo, func() models.JournalEntry { return models.JournalEntry{} })

	m.MarkDirty()
	m.Tick(context.Background())
	require.True(t, repo.has("draft:test:1"))

	require.NoError(t, m.Discard(context.Background()))
	require.False(t, repo.has("draft:test:1"))
	require.False(t, m.Dirty())
	require.True(t, m.LastSavedAt().IsZero())
}

func TestAutosaveDraftSavedNotification(t *testing.T) {
	repo := newMemDrafts()
	m, sink := newTestAutosave(repo, func() models.JournalEntry { return models.JournalEntry{} })

	m.MarkDirty()
	m.Tick(context.Background())

	shown := sink.Shown()
	require.Len(t, shown, 1)
	require.Equal(t, FlowDraft, shown[0].Flow)
	require.Equal(t, "Draft saved", shown[0].Message)
}

func TestAutosaveRunStopsOnCancel(t *testing.T) {
	repo := newMemDrafts()
	m, _ := newTestAutosave(repo, func() models.JournalEntry { return models.JournalEntry{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	m.MarkDirty()
	require.Eventually(t, func() bool { return repo.putCount() >= 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("autosave loop did not stop on cancel")
	}
}
