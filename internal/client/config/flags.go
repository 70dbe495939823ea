package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   API base URL
//	-x int      status code that signals an expired credential
//	-m string   refresh mode: independent or coalesce
//	-t int      per-request timeout in seconds (0 disables)
//	-d string   path of the local SQLite database
//	-l string   log level
//	-i int      online check interval in seconds
//
// args is filtered with flagx.FilterArgs so flags owned by other loaders
// (such as -c) do not cause parse errors.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-x", "-m", "-t", "-d", "-l", "-i"})

	fs := flag.NewFlagSet("sessionkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	fs.IntVar(&cfg.ExpiredStatus, "x", cfg.ExpiredStatus, "expired credential status code")
	fs.StringVar(&cfg.RefreshMode, "m", cfg.RefreshMode, "refresh mode (independent|coalesce)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds, 0 disables)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	return nil
}
