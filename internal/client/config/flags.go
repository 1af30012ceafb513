package config

import (
	"flag"
	"os"
	"time"

	"github.com/jmezger/herdlog/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend API (default from Config)
//	-d string   local database DSN (default from Config)
//	-s int      autosave interval in seconds (default from Config)
//	-p int      analysis poll interval in seconds (default from Config)
//	-ai bool    enable AI analysis dispatch (default from Config)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-p", "-ai"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the backend API")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local database DSN")
	autosaveInterval := fs.Int("s", int(cfg.AutosaveInterval.Seconds()), "autosave interval (in seconds)")
	pollInterval := fs.Int("p", int(cfg.PollInterval.Seconds()), "analysis poll interval (in seconds)")
	fs.BoolVar(&cfg.AIEnabled, "ai", cfg.AIEnabled, "enable AI analysis dispatch")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AutosaveInterval = time.Duration(*autosaveInterval) * time.Second
	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
}
