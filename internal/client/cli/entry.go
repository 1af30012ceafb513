package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jmezger/herdlog/internal/client/models"
	"github.com/jmezger/herdlog/internal/client/services"
	"github.com/jmezger/herdlog/internal/common"
)

var errNoOpenEntry = errors.New("no open entry; use 'new' first")

func (a *App) requireSession() (*services.Session, error) {
	if a.session == nil {
		fmt.Fprintln(a.out, "No open entry; use 'new' first")
		return nil, errNoOpenEntry
	}
	return a.session, nil
}

// NewEntry opens a fresh editing session and runs the field prompts once.
func (a *App) NewEntry(ctx context.Context) error {
	a.closeSession()
	a.session = services.NewSession(ctx, a.sessionConfig(), a.sessionDeps(), nil,
		services.WithAssessmentPreview())
	return a.EditEntry(ctx)
}

// OpenDraft prints the snapshot the autosaver last wrote for the open entry.
func (a *App) OpenDraft(ctx context.Context) error {
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	snap, err := a.repos.Drafts.Get(ctx, s.DraftKey())
	if err != nil {
		fmt.Fprintln(a.out, "Could not read draft:", err)
		return err
	}
	if snap == nil {
		fmt.Fprintln(a.out, "No draft saved yet")
		return nil
	}

	fmt.Fprintf(a.out, "Draft saved at %s\n", snap.SavedAt.Local().Format("15:04:05"))
	printEntry(a.out, &snap.Entry)
	return nil
}

// EditEntry prompts for the editable fields of the open entry. Empty input
// keeps the current value.
func (a *App) EditEntry(ctx context.Context) error {
	s, err := a.requireSession()
	if err != nil {
		return err
	}
	current := s.Entry()

	title, err := GetSimpleText(a.reader, prompt("Title", current.Title), a.out)
	if err != nil {
		return err
	}
	animalID, err := GetSimpleText(a.reader, prompt("Animal id", current.AnimalID), a.out)
	if err != nil {
		return err
	}
	category, err := GetSimpleText(a.reader, prompt("Category", string(current.Category)), a.out)
	if err != nil {
		return err
	}
	body, err := GetMultiline(a.reader, "Body", a.out)
	if err != nil {
		return err
	}
	durationText, err := GetSimpleText(a.reader, prompt("Duration (minutes)", strconv.Itoa(current.DurationMinutes)), a.out)
	if err != nil {
		return err
	}

	var duration int
	if durationText != "" {
		duration, err = strconv.Atoi(durationText)
		if err != nil {
			fmt.Fprintln(a.out, "Duration must be a number of minutes")
			return err
		}
	}

	return s.Edit(func(e *models.JournalEntry) {
		if title != "" {
			e.Title = title
		}
		if animalID != "" {
			e.AnimalID = animalID
		}
		if category != "" {
			e.Category = models.Category(category)
		}
		if body != "" {
			e.Body = body
		}
		if durationText != "" {
			e.DurationMinutes = duration
		}
	})
}

// Preview prints the retrieval query an analysis dispatch would carry.
func (a *App) Preview(ctx context.Context) error {
	s, err := a.requireSession()
	if err != nil {
		return err
	}
	text, ok := s.AssessmentPreview()
	if !ok {
		fmt.Fprintln(a.out, "Preview is not enabled")
		return nil
	}
	fmt.Fprintln(a.out, text)
	return nil
}

// Submit validates the open entry and submits it. Field errors are printed
// with the offending field so the user can fix them and resubmit.
func (a *App) Submit(ctx context.Context) error {
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	persisted, err := s.Submit(ctx)
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(a.out, "Invalid %s: %s\n", verr.Field, verr.Reason)
		}
		return err
	}

	fmt.Fprintf(a.out, "Entry %s saved\n", persisted.ID)
	return nil
}

// Status prints the draft and analysis state of the open entry.
func (a *App) Status(ctx context.Context) error {
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	if saved := s.Autosave().LastSavedAt(); !saved.IsZero() {
		fmt.Fprintf(a.out, "Draft saved at %s\n", saved.Local().Format("15:04:05"))
	} else {
		fmt.Fprintln(a.out, "Draft not saved yet")
	}

	state := s.AnalysisState()
	switch state {
	case models.RunStatusIdle:
		fmt.Fprintln(a.out, "No analysis running")
	case models.RunStatusProcessing:
		fmt.Fprintf(a.out, "Analysis %s (%d%%)\n", state, int(s.AnalysisProgress()*100))
	default:
		fmt.Fprintf(a.out, "Analysis %s\n", state)
	}
	return nil
}

// Retry re-runs a failed or timed-out analysis.
func (a *App) Retry(ctx context.Context) error {
	s, err := a.requireSession()
	if err != nil {
		return err
	}
	if err := s.RetryAnalysis(ctx); err != nil {
		if errors.Is(err, common.ErrRunNotRetryable) {
			fmt.Fprintln(a.out, "Nothing to retry")
		} else {
			fmt.Fprintln(a.out, "Retry failed:", err)
		}
		return err
	}
	fmt.Fprintln(a.out, "Analysis restarted")
	return nil
}

// Discard drops the open entry's draft and closes the session.
func (a *App) Discard(ctx context.Context) error {
	s, err := a.requireSession()
	if err != nil {
		return err
	}
	if err := s.DiscardDraft(ctx); err != nil {
		fmt.Fprintln(a.out, "Could not discard draft:", err)
		return err
	}
	a.closeSession()
	fmt.Fprintln(a.out, "Draft discarded")
	return nil
}

func prompt(label, current string) string {
	if current == "" {
		return label
	}
	return fmt.Sprintf("%s [%s]", label, current)
}

func printEntry(out io.Writer, e *models.JournalEntry) {
	fmt.Fprintf(out, "  Title:    %s\n", e.Title)
	fmt.Fprintf(out, "  Animal:   %s\n", e.AnimalID)
	fmt.Fprintf(out, "  Category: %s\n", e.Category)
	fmt.Fprintf(out, "  Duration: %d min\n", e.DurationMinutes)
	fmt.Fprintf(out, "  Body:     %s\n", e.Body)
}
