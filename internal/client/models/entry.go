// Package models defines the journal entry record, its validation rules, and
// the correlation records used by the analysis pipeline.
package models

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jmezger/herdlog/internal/common"
)

// Category classifies the kind of work an entry records.
type Category string

const (
	CategoryDailyCare   Category = "daily_care"
	CategoryHealthCheck Category = "health_check"
	CategoryFeeding     Category = "feeding"
	CategoryTraining    Category = "training"
	CategoryShowPrep    Category = "show_prep"
	CategoryVeterinary  Category = "veterinary"
	CategoryBreeding    Category = "breeding"
	CategoryOther       Category = "other"
)

// MinBodyTokens is the minimum number of whitespace-separated words the entry
// body must contain before it can be submitted.
const MinBodyTokens = 25

// MaxFutureDays bounds how far in the future the activity date may lie.
const MaxFutureDays = 7

// Location is a resolved device location attached to an entry. The lookup
// itself happens outside this module; a failed lookup surfaces as an error
// upstream and never produces fabricated coordinates.
type Location struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Name       string    `json:"name,omitempty"`
	Accuracy   float64   `json:"accuracy,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Weather is a resolved weather snapshot attached to an entry.
type Weather struct {
	TempCelsius float64 `json:"temp_celsius"`
	Condition   string  `json:"condition"`
	Humidity    int     `json:"humidity,omitempty"`
	WindSpeed   float64 `json:"wind_speed,omitempty"`
}

// WeightStrategy is the optional feed/weight-strategy sub-record.
type WeightStrategy struct {
	CurrentWeight *float64   `json:"current_weight,omitempty"`
	TargetWeight  *float64   `json:"target_weight,omitempty"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
}

// DegreeMeta carries FFA-degree metadata for entries that count toward a
// degree application.
type DegreeMeta struct {
	DegreeType      string  `json:"degree_type"`
	ProjectType     string  `json:"project_type,omitempty"`
	CountsForDegree bool    `json:"counts_for_degree"`
	Hours           float64 `json:"hours,omitempty"`
	FinancialValue  float64 `json:"financial_value,omitempty"`
	EvidenceType    string  `json:"evidence_type,omitempty"`
}

// JournalEntry is one structured activity record. The store assigns ID on
// first create; a zero ID means the entry has never been persisted.
type JournalEntry struct {
	ID              string          `json:"id,omitempty"`
	UserID          string          `json:"user_id"`
	AnimalID        string          `json:"animal_id" validate:"required"`
	Title           string          `json:"title" validate:"required,min=5"`
	Body            string          `json:"body" validate:"required"`
	Date            time.Time       `json:"date"`
	Category        Category        `json:"category" validate:"required"`
	DurationMinutes int             `json:"duration_minutes" validate:"gte=5,lte=480"`
	StandardCodes   []string        `json:"standard_codes,omitempty"`
	SkillCodes      []string        `json:"skill_codes,omitempty"`
	Objectives      []string        `json:"objectives,omitempty"`
	Challenges      string          `json:"challenges,omitempty"`
	Improvements    string          `json:"improvements,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	Location        *Location       `json:"location,omitempty"`
	Weather         *Weather        `json:"weather,omitempty"`
	Weight          *WeightStrategy `json:"weight,omitempty"`
	Degree          *DegreeMeta     `json:"degree,omitempty"`
	Source          string          `json:"source,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	TraceID         string          `json:"trace_id,omitempty"`
	Public          bool            `json:"public"`
	Synced          bool            `json:"synced"`
	CreatedAt       time.Time       `json:"created_at,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report field names as their json tags so errors match the wire shape
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BodyTokenCount returns the number of whitespace-separated words in the body.
func (e *JournalEntry) BodyTokenCount() int {
	return len(strings.Fields(e.Body))
}

// Persisted reports whether the store has assigned this entry an id.
func (e *JournalEntry) Persisted() bool {
	return e.ID != ""
}

// Validate runs full field-level validation and returns a
// *common.ValidationError naming the first violated field, or nil.
func (e *JournalEntry) Validate() error {
	if err := validate.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &common.ValidationError{Field: fe.Field(), Reason: validationReason(fe)}
		}
		return err
	}
	return e.CheckInvariants()
}

// CheckInvariants re-checks the two record-level invariants the submission
// path depends on (title length, body token count) plus the date window.
// It is cheap and safe to call again right before persisting.
func (e *JournalEntry) CheckInvariants() error {
	if len(strings.TrimSpace(e.Title)) < 5 {
		return &common.ValidationError{Field: "title", Reason: "must be at least 5 characters"}
	}
	if e.BodyTokenCount() < MinBodyTokens {
		return &common.ValidationError{Field: "body", Reason: "must contain at least 25 words"}
	}
	if !e.Date.IsZero() && e.Date.After(time.Now().AddDate(0, 0, MaxFutureDays)) {
		return &common.ValidationError{Field: "date", Reason: "must not be more than 7 days in the future"}
	}
	return nil
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "is below the allowed minimum (" + fe.Param() + ")"
	case "max", "lte":
		return "is above the allowed maximum (" + fe.Param() + ")"
	default:
		return "failed rule " + fe.Tag()
	}
}
