package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/jmezger/herdlog/internal/flagx"
	"github.com/jmezger/herdlog/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	APIBaseURL          *string         `json:"api_base_url"`
	DatabaseDSN         *string         `json:"database_dsn"`
	AutosaveInterval    *timex.Duration `json:"autosave_interval"`
	PollInterval        *timex.Duration `json:"poll_interval"`
	AnalysisEstimate    *timex.Duration `json:"analysis_estimate"`
	AnalysisCeiling     *timex.Duration `json:"analysis_ceiling"`
	FollowCeiling       *timex.Duration `json:"follow_ceiling"`
	AIEnabled           *bool           `json:"ai_enabled"`
	RouteIntent         *string         `json:"route_intent"`
	VectorMatchCount    *int            `json:"vector_match_count"`
	VectorMinSimilarity *float64        `json:"vector_min_similarity"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; when no
// path is given nothing is loaded. Fields absent from the JSON leave the
// current value untouched. Read or unmarshal errors panic; a config file
// named explicitly on the command line is expected to be valid.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != nil {
		cfg.APIBaseURL = *jc.APIBaseURL
	}
	if jc.DatabaseDSN != nil {
		cfg.DatabaseDSN = *jc.DatabaseDSN
	}
	if jc.AutosaveInterval != nil {
		cfg.AutosaveInterval = time.Duration(jc.AutosaveInterval.Duration)
	}
	if jc.PollInterval != nil {
		cfg.PollInterval = time.Duration(jc.PollInterval.Duration)
	}
	if jc.AnalysisEstimate != nil {
		cfg.AnalysisEstimate = time.Duration(jc.AnalysisEstimate.Duration)
	}
	if jc.AnalysisCeiling != nil {
		cfg.AnalysisCeiling = time.Duration(jc.AnalysisCeiling.Duration)
	}
	if jc.FollowCeiling != nil {
		cfg.FollowCeiling = time.Duration(jc.FollowCeiling.Duration)
	}
	if jc.AIEnabled != nil {
		cfg.AIEnabled = *jc.AIEnabled
	}
	if jc.RouteIntent != nil {
		cfg.RouteIntent = *jc.RouteIntent
	}
	if jc.VectorMatchCount != nil {
		cfg.VectorMatchCount = *jc.VectorMatchCount
	}
	if jc.VectorMinSimilarity != nil {
		cfg.VectorMinSimilarity = *jc.VectorMinSimilarity
	}
}
