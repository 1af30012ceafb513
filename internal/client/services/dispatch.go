package services

import (
	"context"

	"github.com/jmezger/herdlog/internal/client/api"
	"github.com/jmezger/herdlog/internal/client/models"
	"github.com/jmezger/herdlog/internal/client/query"
	"github.com/jmezger/herdlog/internal/logging"
)

// DispatchConfig is the settings bundle template for analysis dispatches.
// Overrides left empty fall back to the entry's own category and the composed
// retrieval query.
type DispatchConfig struct {
	Enabled             bool
	RouteIntent         string
	VectorMatchCount    int
	VectorMinSimilarity float64
	CategoryOverride    string
	QueryOverride       string
}

// Dispatcher packages a persisted entry plus the settings bundle and sends it
// to the external workflow endpoint, tagged with the run id and trace id.
// Dispatch failure never rolls back the persisted record; the user gets a
// non-blocking retry action instead.
type Dispatcher struct {
	api      api.Client
	cfg      DispatchConfig
	notifier *Notifier
	poller   *Poller
	log      logging.Logger
}

func NewDispatcher(client api.Client, cfg DispatchConfig, notifier *Notifier, poller *Poller, log logging.Logger) *Dispatcher {
	return &Dispatcher{
		api:      client,
		cfg:      cfg,
		notifier: notifier,
		poller:   poller,
		log:      log,
	}
}

// Enabled reports whether AI dispatch is switched on in the current settings.
func (d *Dispatcher) Enabled() bool {
	return d.cfg.Enabled
}

// Settings builds the dispatch settings bundle for one run of one entry.
func (d *Dispatcher) Settings(e *models.JournalEntry, runID string) models.DispatchSettings {
	category := d.cfg.CategoryOverride
	if category == "" {
		category = string(e.Category)
	}
	q := d.cfg.QueryOverride
	if q == "" {
		q = query.Compose(e)
	}

	s := models.DispatchSettings{
		Enabled: d.cfg.Enabled,
		RunID:   runID,
		TraceID: e.TraceID,
		Route:   models.RouteSettings{Intent: d.cfg.RouteIntent},
		Vector: models.VectorSettings{
			MatchCount:    d.cfg.VectorMatchCount,
			MinSimilarity: d.cfg.VectorMinSimilarity,
		},
		ToolInputs: models.ToolInputs{Category: category, Query: q},
	}
	s.Normalize()
	return s
}

// Dispatch sends the entry to the workflow endpoint. On success the poller
// starts tracking the run. On failure a recoverable-error notification offers
// a retry that re-invokes dispatch with the same run id.
func (d *Dispatcher) Dispatch(ctx context.Context, e *models.JournalEntry, runID string) error {
	settings := d.Settings(e, runID)

	if err := d.api.Dispatch(ctx, e, settings); err != nil {
		d.log.Error(ctx, "analysis dispatch failed", "run_id", runID, "trace_id", e.TraceID, "error", err)
		d.notifier.Notify(Notification{
			Flow:        FlowAnalysis,
			Kind:        KindError,
			Message:     "Analysis could not be started",
			ActionLabel: "Retry",
			Action: func() {
				// same run id on retry; the correlation lineage is preserved
				go d.Dispatch(context.WithoutCancel(ctx), e, runID)
			},
			Sticky: true,
		})
		return err
	}

	d.log.Info(ctx, "analysis dispatched", "run_id", runID, "trace_id", e.TraceID)
	d.poller.Start(context.WithoutCancel(ctx), runID)
	return nil
}
