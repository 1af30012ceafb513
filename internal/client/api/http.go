package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jmezger/herdlog/internal/client/models"
	"github.com/jmezger/herdlog/internal/common"
	"github.com/jmezger/herdlog/internal/logging"
)

// HTTPClient implements Client over the backend's JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logging.Logger
}

func NewHTTPClient(baseURL string, tokens TokenSource, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		log:     log,
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/ping", nil, nil)
}

func (c *HTTPClient) CreateEntry(ctx context.Context, e *models.JournalEntry) (*models.JournalEntry, error) {
	var out models.JournalEntry
	if err := c.do(ctx, http.MethodPost, "/api/v1/entries", e, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return &out, nil
}

func (c *HTTPClient) UpdateEntry(ctx context.Context, e *models.JournalEntry) (*models.JournalEntry, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("%w: update requires an entry id", common.ErrStoreUnavailable)
	}
	var out models.JournalEntry
	path := "/api/v1/entries/" + url.PathEscape(e.ID)
	if err := c.do(ctx, http.MethodPut, path, e, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return &out, nil
}

// dispatchRequest is the wire shape of one analysis dispatch.
type dispatchRequest struct {
	Entry    *models.JournalEntry    `json:"entry"`
	Settings models.DispatchSettings `json:"settings"`
}

func (c *HTTPClient) Dispatch(ctx context.Context, e *models.JournalEntry, settings models.DispatchSettings) error {
	req := dispatchRequest{Entry: e, Settings: settings}
	if err := c.do(ctx, http.MethodPost, "/api/v1/analysis/dispatch", req, nil); err != nil {
		return fmt.Errorf("%w: %w", common.ErrDispatchFailed, err)
	}
	return nil
}

// RunStatus queries the job record by run id. The query is idempotent, so
// transient failures are retried with a short fibonacci backoff before the
// error is handed back to the poller.
func (c *HTTPClient) RunStatus(ctx context.Context, runID string) (*models.AnalysisRun, error) {
	path := "/api/v1/analysis/runs/" + url.PathEscape(runID)

	var run models.AnalysisRun
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.do(ctx, http.MethodGet, path, nil, &run); err != nil {
			if isTransient(err) {
				c.log.Warn(ctx, "run status query failed, retrying", "run_id", runID, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	return &run, nil
}

func (c *HTTPClient) RetryRun(ctx context.Context, runID string) error {
	path := "/api/v1/analysis/runs/" + url.PathEscape(runID) + "/retry"
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("failed to retry run %s: %w", runID, err)
	}
	return nil
}

// httpError carries the response status of a failed call so errors can be
// classified without string matching.
type httpError struct {
	Status int
	Body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

func isTransient(err error) bool {
	var herr *httpError
	if errors.As(err, &herr) {
		return herr.Status >= 500
	}
	if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrorNotFound) {
		return false
	}
	// network-level failures (no response at all) are worth one more try
	return true
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set(common.AuthHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrInvalidToken
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrorNotFound
	case resp.StatusCode >= 400:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &httpError{Status: resp.StatusCode, Body: string(b)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
