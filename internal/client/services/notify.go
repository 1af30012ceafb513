// Package services contains the orchestration core of the client: draft
// autosave, submission, analysis dispatch, job-status polling, and
// notification sequencing, all owned by a per-editing-session controller.
package services

import (
	"context"
	"sync"

	"github.com/jmezger/herdlog/internal/logging"
)

// Flow identifies one logical notification stream. Within a flow at most one
// notification is visible at a time; a new one supersedes its predecessor.
//
// Submission and analysis are separate flows on purpose: the saved
// confirmation must stay visible while the analysis follow-on updates in
// place beside it, instead of the two superseding each other.
type Flow string

const (
	FlowSubmission Flow = "submission"
	FlowDraft      Flow = "draft"
	FlowAnalysis   Flow = "analysis"
)

// Kind is the visual severity of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notification is one user-visible message, optionally carrying an action the
// surface can offer (e.g. "Retry", "View").
type Notification struct {
	Flow        Flow
	Kind        Kind
	Message     string
	ActionLabel string
	Action      func()
	Sticky      bool
}

// Sink renders notifications. The CLI provides one implementation; tests use
// a recording fake. Sink methods are invoked with the sequencer's lock held,
// so implementations must not call back into the Notifier.
type Sink interface {
	Show(n Notification)
	Dismiss(flow Flow)
}

// Notifier serializes notifications so that no two within one flow are ever
// visible simultaneously. Starting a new notification for a flow dismisses
// that flow's previous one first; flows never stack.
type Notifier struct {
	mu     sync.Mutex
	sink   Sink
	active map[Flow]*Notification
	log    logging.Logger
}

func NewNotifier(sink Sink, log logging.Logger) *Notifier {
	return &Notifier{
		sink:   sink,
		active: make(map[Flow]*Notification),
		log:    log,
	}
}

// Notify shows n, superseding any visible notification of the same flow.
func (nt *Notifier) Notify(n Notification) {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	if _, ok := nt.active[n.Flow]; ok {
		nt.sink.Dismiss(n.Flow)
	}
	copied := n
	nt.active[n.Flow] = &copied
	nt.sink.Show(n)
	nt.log.Debug(context.Background(), "notification shown", "flow", n.Flow, "kind", n.Kind, "message", n.Message)
}

// DismissFlow removes the visible notification of a flow, if any.
func (nt *Notifier) DismissFlow(flow Flow) {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	if _, ok := nt.active[flow]; ok {
		delete(nt.active, flow)
		nt.sink.Dismiss(flow)
	}
}

// Active returns the currently visible notification for a flow, or nil.
func (nt *Notifier) Active(flow Flow) *Notification {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	n, ok := nt.active[flow]
	if !ok {
		return nil
	}
	copied := *n
	return &copied
}
