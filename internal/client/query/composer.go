// Package query builds the retrieval query string handed to the analysis
// workflow's vector-search step.
package query

import (
	"strconv"
	"strings"

	"github.com/jmezger/herdlog/internal/client/models"
)

// Compose builds a newline-joined retrieval query from the entry fields, in
// deterministic section order: body text, standard codes, objectives, then
// the weight-update line. Empty sections are omitted entirely so the result
// never contains blank lines. An empty entry yields an empty string.
func Compose(e *models.JournalEntry) string {
	if e == nil {
		return ""
	}

	var sections []string

	if body := strings.TrimSpace(e.Body); body != "" {
		sections = append(sections, body)
	}

	if len(e.StandardCodes) > 0 {
		sections = append(sections, "Standards: "+strings.Join(e.StandardCodes, ", "))
	}

	if len(e.Objectives) > 0 {
		sections = append(sections, "Objectives: "+strings.Join(e.Objectives, ", "))
	}

	if line := weightLine(e.Weight); line != "" {
		sections = append(sections, line)
	}

	return strings.Join(sections, "\n")
}

// weightLine formats the feed/weight-strategy sub-record as
// "cw=<value> • tw=<value> • d=<date>", including only the sub-fields that
// are present and always ending with the date.
func weightLine(w *models.WeightStrategy) string {
	if w == nil {
		return ""
	}

	var parts []string
	if w.CurrentWeight != nil {
		parts = append(parts, "cw="+strconv.FormatFloat(*w.CurrentWeight, 'f', -1, 64))
	}
	if w.TargetWeight != nil {
		parts = append(parts, "tw="+strconv.FormatFloat(*w.TargetWeight, 'f', -1, 64))
	}
	if w.TargetDate != nil {
		parts = append(parts, "d="+w.TargetDate.Format("2006-01-02"))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " • ")
}
