package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmezger/herdlog/internal/common"
)

func validEntry() *JournalEntry {
	return &JournalEntry{
		AnimalID:        "a-42",
		Title:           "Morning Feeding Check",
		Body:            strings.Repeat("fed the heifer and checked water trough levels before school today again ", 5),
		Date:            time.Now(),
		Category:        CategoryDailyCare,
		DurationMinutes: 45,
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validEntry().Validate())
}

func TestValidate_TitleTooShort(t *testing.T) {
	e := validEntry()
	e.Title = "Fed"

	err := e.Validate()
	require.Error(t, err)

	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
}

func TestValidate_BodyTooFewWords(t *testing.T) {
	e := validEntry()
	e.Body = "fed the heifer and checked water this morning before school ok"

	err := e.Validate()
	require.Error(t, err)

	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "body", verr.Field)
}

func TestValidate_DurationOutOfRange(t *testing.T) {
	for _, minutes := range []int{0, 4, 481} {
		e := validEntry()
		e.DurationMinutes = minutes

		err := e.Validate()
		require.Error(t, err, "duration %d", minutes)

		var verr *common.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "duration_minutes", verr.Field)
	}
}

func TestValidate_MissingAnimal(t *testing.T) {
	e := validEntry()
	e.AnimalID = ""

	var verr *common.ValidationError
	require.ErrorAs(t, e.Validate(), &verr)
	assert.Equal(t, "animal_id", verr.Field)
}

func TestValidate_DateTooFarInFuture(t *testing.T) {
	e := validEntry()
	e.Date = time.Now().AddDate(0, 0, 8)

	var verr *common.ValidationError
	require.ErrorAs(t, e.Validate(), &verr)
	assert.Equal(t, "date", verr.Field)
}

func TestParseRunStatus(t *testing.T) {
	assert.Equal(t, RunStatusPending, ParseRunStatus("queued"))
	assert.Equal(t, RunStatusProcessing, ParseRunStatus("running"))
	assert.Equal(t, RunStatusProcessing, ParseRunStatus("in_progress"))
	assert.Equal(t, RunStatusCompleted, ParseRunStatus("Done"))
	assert.Equal(t, RunStatusFailed, ParseRunStatus("error"))
	assert.Equal(t, RunStatusTimeout, ParseRunStatus("timed_out"))
}

func TestRunStatus_Terminal(t *testing.T) {
	assert.False(t, RunStatusIdle.Terminal())
	assert.False(t, RunStatusPending.Terminal())
	assert.False(t, RunStatusProcessing.Terminal())
	assert.True(t, RunStatusCompleted.Terminal())
	assert.True(t, RunStatusFailed.Terminal())
	assert.True(t, RunStatusTimeout.Terminal())
}

func TestDraftKey_ScopedPerSession(t *testing.T) {
	start := time.Now()
	assert.Equal(t, DraftKey("", start), DraftKey("", start))
	assert.NotEqual(t, DraftKey("", start), DraftKey("", start.Add(time.Nanosecond)))
	assert.Contains(t, DraftKey("e1", start), "draft:e1:")
	assert.Contains(t, DraftKey("", start), "draft:new:")
}

func TestDispatchSettings_Normalize(t *testing.T) {
	s := DispatchSettings{Vector: VectorSettings{MatchCount: 50, MinSimilarity: 1.7}}
	s.Normalize()
	assert.Equal(t, 20, s.Vector.MatchCount)
	assert.Equal(t, 1.0, s.Vector.MinSimilarity)

	s = DispatchSettings{Vector: VectorSettings{MatchCount: 0, MinSimilarity: -0.2}}
	s.Normalize()
	assert.Equal(t, 1, s.Vector.MatchCount)
	assert.Equal(t, 0.0, s.Vector.MinSimilarity)
}
