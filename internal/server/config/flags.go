package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-s string   cookie signing secret
//	-t int      access token validity, seconds
//	-r int      refresh token validity, minutes
//	-x int      expired credential status code
//	-l string   log level
//
// Duration flags are integers that are converted to time.Duration values.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-r", "-x", "-l"})

	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to run server")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	access := fs.Int("t", int(cfg.AccessTokenTTL.Seconds()), "access token validity (in seconds)")
	refresh := fs.Int("r", int(cfg.RefreshTokenTTL.Minutes()), "refresh token validity (in minutes)")
	fs.IntVar(&cfg.ExpiredStatus, "x", cfg.ExpiredStatus, "expired credential status code")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.AccessTokenTTL = time.Duration(*access) * time.Second
	cfg.RefreshTokenTTL = time.Duration(*refresh) * time.Minute
	return nil
}
