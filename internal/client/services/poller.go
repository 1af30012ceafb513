package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmezger/herdlog/internal/client/api"
	"github.com/jmezger/herdlog/internal/client/models"
	"github.com/jmezger/herdlog/internal/common"
	"github.com/jmezger/herdlog/internal/logging"
)

// PollerOptions tunes the job-status poller. Zero values fall back to the
// documented defaults.
type PollerOptions struct {
	// Interval between status queries while a run is active.
	Interval time.Duration
	// Estimate is the expected analysis duration, used for the progress
	// fraction.
	Estimate time.Duration
	// Ceiling is the overall deadline after which the poller reports timeout
	// locally even without a terminal status from the job record.
	Ceiling time.Duration
}

func (o *PollerOptions) withDefaults() {
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	if o.Estimate <= 0 {
		o.Estimate = time.Minute
	}
	if o.Ceiling <= 0 {
		o.Ceiling = 3 * o.Estimate
	}
}

// StateChangeFunc observes poller transitions. It is called outside the
// poller's lock; run is nil for locally-derived transitions (start, timeout).
type StateChangeFunc func(runID string, status models.RunStatus, run *models.AnalysisRun)

// Poller tracks one analysis run through
// idle → pending → processing → {completed | failed | timeout}.
// A query failure is swallowed and retried on the next tick; the machine is
// optimistic about transient errors. Once a terminal state is observed no
// further queries are issued for that run id.
type Poller struct {
	mu        sync.Mutex
	state     models.RunStatus
	runID     string
	startedAt time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	api      api.Client
	opts     PollerOptions
	onChange StateChangeFunc
	log      logging.Logger
}

func NewPoller(client api.Client, opts PollerOptions, onChange StateChangeFunc, log logging.Logger) *Poller {
	opts.withDefaults()
	return &Poller{
		state:    models.RunStatusIdle,
		api:      client,
		opts:     opts,
		onChange: onChange,
		log:      log,
	}
}

// State returns the poller's current state.
func (p *Poller) State() models.RunStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RunID returns the run currently (or last) tracked.
func (p *Poller) RunID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runID
}

// Progress approximates completion as elapsed/estimate, clamped to [0, 0.9]
// while processing: the poller never claims 100% before a terminal state is
// observed. Completed runs report 1.
func (p *Poller) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case models.RunStatusCompleted:
		return 1
	case models.RunStatusProcessing:
		frac := float64(time.Since(p.startedAt)) / float64(p.opts.Estimate)
		if frac < 0 {
			frac = 0
		}
		if frac > 0.9 {
			frac = 0.9
		}
		return frac
	default:
		return 0
	}
}

// Start begins polling a new run. Any still-running poll loop for a previous
// run id is cancelled first, so at most one poller loop is active per
// session.
func (p *Poller) Start(ctx context.Context, runID string) {
	p.stopLoop()

	p.mu.Lock()
	p.baseCtx = ctx
	p.runID = runID
	p.state = models.RunStatusPending
	p.startedAt = time.Now()

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	p.emit(runID, models.RunStatusPending, nil)
	go p.loop(loopCtx, done)
}

// Stop cancels the poll loop without touching the current state. In-flight
// queries are allowed to finish; their results are discarded.
func (p *Poller) Stop() {
	p.stopLoop()
}

// Retry re-invokes the external job's retry endpoint with the same run id and
// re-enters pending. Only failed and timed-out runs are retryable.
func (p *Poller) Retry(ctx context.Context) error {
	p.mu.Lock()
	state := p.state
	runID := p.runID
	baseCtx := p.baseCtx
	p.mu.Unlock()

	if state != models.RunStatusFailed && state != models.RunStatusTimeout {
		return fmt.Errorf("%w: %s", common.ErrRunNotRetryable, state)
	}

	if err := p.api.RetryRun(ctx, runID); err != nil {
		return fmt.Errorf("failed to retry run %s: %w", runID, err)
	}

	if baseCtx == nil {
		baseCtx = ctx
	}
	p.Start(baseCtx, runID)
	return nil
}

func (p *Poller) stopLoop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !p.poll(ctx) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// poll performs one status query and applies the transition rules. It
// returns false when polling should stop (terminal state reached).
func (p *Poller) poll(ctx context.Context) bool {
	p.mu.Lock()
	state := p.state
	runID := p.runID
	startedAt := p.startedAt
	p.mu.Unlock()

	if state != models.RunStatusPending && state != models.RunStatusProcessing {
		return false
	}

	if time.Since(startedAt) > p.opts.Ceiling {
		p.setState(runID, models.RunStatusTimeout, nil)
		return false
	}

	run, err := p.api.RunStatus(ctx, runID)
	if err != nil {
		// transient query failures don't change state; try again next tick
		p.log.Warn(ctx, "run status query failed", "run_id", runID, "error", err)
		return true
	}

	next := models.ParseRunStatus(string(run.Status))
	if next == models.RunStatusPending && state == models.RunStatusProcessing {
		// the job record lagging behind is not a regression
		return true
	}

	if next != state {
		p.setState(runID, next, run)
	}
	return !next.Terminal()
}

func (p *Poller) setState(runID string, next models.RunStatus, run *models.AnalysisRun) {
	p.mu.Lock()
	if p.runID != runID {
		// a newer run took over while this query was in flight
		p.mu.Unlock()
		return
	}
	p.state = next
	p.mu.Unlock()

	p.emit(runID, next, run)
}

func (p *Poller) emit(runID string, status models.RunStatus, run *models.AnalysisRun) {
	if p.onChange != nil {
		p.onChange(runID, status, run)
	}
}
