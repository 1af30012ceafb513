package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmezger/herdlog/internal/client/models"
	"github.com/jmezger/herdlog/internal/common"
	"github.com/jmezger/herdlog/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func staticToken(tok string) TokenSource {
	return TokenSourceFunc(func(ctx context.Context) (string, error) { return tok, nil })
}

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, staticToken("tok-1"), testLogger())
}

func TestCreateEntry_PostsAndDecodesAssignedID(t *testing.T) {
	var gotAuth, gotPath, gotMethod string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method

		var e models.JournalEntry
		require.NoError(t, json.NewDecoder(r.Body).Decode(&e))
		e.ID = "e-100"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(e)
	}))

	out, err := c.CreateEntry(context.Background(), &models.JournalEntry{Title: "Morning Feeding Check"})
	require.NoError(t, err)
	assert.Equal(t, "e-100", out.ID)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "/api/v1/entries", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestUpdateEntry_PutsToEntryPath(t *testing.T) {
	var gotPath, gotMethod string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.JournalEntry{ID: "e-7"})
	}))

	_, err := c.UpdateEntry(context.Background(), &models.JournalEntry{ID: "e-7", Title: "Updated title"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/entries/e-7", gotPath)
	assert.Equal(t, http.MethodPut, gotMethod)
}

func TestUpdateEntry_WithoutIDFails(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := c.UpdateEntry(context.Background(), &models.JournalEntry{})
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestCreateEntry_ServerErrorMapsToStoreUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusInternalServerError)
	}))

	_, err := c.CreateEntry(context.Background(), &models.JournalEntry{})
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestDispatch_SendsCorrelationIDs(t *testing.T) {
	var got dispatchRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))

	settings := models.DispatchSettings{
		Enabled: true,
		RunID:   "run-1",
		TraceID: "trace-1",
		Route:   models.RouteSettings{Intent: "journal_analysis"},
		Vector:  models.VectorSettings{MatchCount: 5, MinSimilarity: 0.75},
	}
	err := c.Dispatch(context.Background(), &models.JournalEntry{ID: "e-1"}, settings)
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.Settings.RunID)
	assert.Equal(t, "trace-1", got.Settings.TraceID)
	assert.Equal(t, "e-1", got.Entry.ID)
}

func TestDispatch_FailureMapsToDispatchFailed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow unreachable", http.StatusBadGateway)
	}))

	err := c.Dispatch(context.Background(), &models.JournalEntry{}, models.DispatchSettings{})
	require.ErrorIs(t, err, common.ErrDispatchFailed)
}

func TestRunStatus_DecodesRun(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analysis/runs/run-9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.AnalysisRun{RunID: "run-9", Status: models.RunStatusProcessing})
	}))

	run, err := c.RunStatus(context.Background(), "run-9")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusProcessing, run.Status)
}

func TestRunStatus_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "hiccup", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.AnalysisRun{RunID: "run-2", Status: models.RunStatusPending})
	}))

	run, err := c.RunStatus(context.Background(), "run-2")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, run.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunStatus_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))

	_, err := c.RunStatus(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryRun_PostsToRetryPath(t *testing.T) {
	var gotPath, gotMethod string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusAccepted)
	}))

	require.NoError(t, c.RetryRun(context.Background(), "run-3"))
	assert.Equal(t, "/api/v1/analysis/runs/run-3/retry", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestDo_UnauthorizedMapsToInvalidToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := c.Ping(context.Background())
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
