package models

// RouteSettings selects the workflow branch on the analysis side.
type RouteSettings struct {
	Intent string `json:"intent"`
}

// VectorSettings tunes the retrieval step of the analysis workflow.
type VectorSettings struct {
	MatchCount    int     `json:"matchCount"`
	MinSimilarity float64 `json:"minSimilarity"`
}

// ToolInputs carries optional per-dispatch overrides. Query defaults to the
// composed retrieval query when left empty.
type ToolInputs struct {
	Category string `json:"category,omitempty"`
	Query    string `json:"query,omitempty"`
}

// DispatchSettings is the settings bundle sent alongside a persisted entry to
// the external workflow endpoint. RunID correlates one dispatch/poll cycle;
// TraceID spans the editing lineage of the entry.
type DispatchSettings struct {
	Enabled    bool           `json:"enabled"`
	RunID      string         `json:"runId"`
	TraceID    string         `json:"traceId"`
	Route      RouteSettings  `json:"route"`
	Vector     VectorSettings `json:"vector"`
	ToolInputs ToolInputs     `json:"toolInputs"`
}

// Normalize clamps the vector settings into their documented ranges:
// match count in [1,20], minimum similarity in [0,1].
func (s *DispatchSettings) Normalize() {
	if s.Vector.MatchCount < 1 {
		s.Vector.MatchCount = 1
	}
	if s.Vector.MatchCount > 20 {
		s.Vector.MatchCount = 20
	}
	if s.Vector.MinSimilarity < 0 {
		s.Vector.MinSimilarity = 0
	}
	if s.Vector.MinSimilarity > 1 {
		s.Vector.MinSimilarity = 1
	}
}
