package models

import (
	"strings"
	"time"
)

// RunStatus is the local view of an analysis run's lifecycle.
type RunStatus string

const (
	RunStatusIdle       RunStatus = "idle"
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusTimeout    RunStatus = "timeout"
)

// Terminal reports whether no further status queries should be issued for a
// run in this state.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusTimeout:
		return true
	}
	return false
}

// AnalysisRun is the job-status record owned by the external analysis
// service. The client only ever reads it.
type AnalysisRun struct {
	RunID     string    `json:"run_id"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Error     string    `json:"error,omitempty"`
}

// ParseRunStatus maps the status strings reported by the external job record
// onto the local enum. Unknown active-looking statuses are treated as
// processing; the poller stays optimistic and keeps querying.
func ParseRunStatus(s string) RunStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "queued", "accepted":
		return RunStatusPending
	case "completed", "complete", "done", "succeeded":
		return RunStatusCompleted
	case "failed", "error":
		return RunStatusFailed
	case "timeout", "timed_out":
		return RunStatusTimeout
	default:
		return RunStatusProcessing
	}
}
