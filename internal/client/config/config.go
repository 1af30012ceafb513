package config

import "time"

// Config holds runtime settings for the herdlog CLI.
//
// Units: intervals are time.Duration values. AnalysisCeiling left at zero
// means three times AnalysisEstimate.
type Config struct {
	APIBaseURL  string
	DatabaseDSN string

	AutosaveInterval time.Duration

	PollInterval     time.Duration
	AnalysisEstimate time.Duration
	AnalysisCeiling  time.Duration
	FollowCeiling    time.Duration

	AIEnabled           bool
	RouteIntent         string
	VectorMatchCount    int
	VectorMinSimilarity float64
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.DatabaseDSN = "file:herdlog.db"
	c.AutosaveInterval = 30 * time.Second
	c.PollInterval = 2 * time.Second
	c.AnalysisEstimate = time.Minute
	c.AnalysisCeiling = 0
	c.FollowCeiling = 5 * time.Minute
	c.AIEnabled = true
	c.RouteIntent = "journal_analysis"
	c.VectorMatchCount = 5
	c.VectorMinSimilarity = 0.75
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (including a .env file if present), a JSON file (if given),
// and command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
