package config

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/notice"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/rotation"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

// Config holds runtime settings for the sessionkeeper CLI.
//
// Units: every interval is a time.Duration; RequestTimeout 0 means no
// client-side deadline.
type Config struct {
	APIBaseURL    string
	RefreshPath   string
	ExpiredStatus int
	RefreshMode   string

	RequestTimeout      time.Duration
	NoticeTTL           time.Duration
	OnlineCheckInterval time.Duration

	MinCurrentPasswordLen int
	MinStrengthScore      int
	OTPLength             int

	DatabasePath string
	LogLevel     string
	LogFormat    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	p := rotation.DefaultPolicy()

	c.APIBaseURL = "http://127.0.0.1:8080"
	c.RefreshPath = common.PathRefresh
	c.ExpiredStatus = http.StatusForbidden
	c.RefreshMode = string(client.RefreshIndependent)
	c.RequestTimeout = 0
	c.NoticeTTL = notice.DefaultTTL
	c.OnlineCheckInterval = 3 * time.Second
	c.MinCurrentPasswordLen = p.MinCurrentPasswordLen
	c.MinStrengthScore = p.MinStrengthScore
	c.OTPLength = p.OTPLength
	c.DatabasePath = "session.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("api base url is required"))
	}
	if _, err := client.ParseRefreshMode(c.RefreshMode); err != nil {
		errs = append(errs, err)
	}
	if c.OTPLength <= 0 {
		errs = append(errs, fmt.Errorf("otp length must be positive, got %d", c.OTPLength))
	}
	if c.ExpiredStatus < 400 || c.ExpiredStatus > 499 {
		errs = append(errs, fmt.Errorf("expired status must be a 4xx code, got %d", c.ExpiredStatus))
	}
	if c.MinStrengthScore < 0 || c.MinStrengthScore > 4 {
		errs = append(errs, fmt.Errorf("min strength score must be within 0..4, got %d", c.MinStrengthScore))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout must not be negative"))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, errors.New("online check interval must be positive"))
	}
	return errors.Join(errs...)
}

// Policy derives the rotation policy from c.
func (c *Config) Policy() rotation.Policy {
	return rotation.Policy{
		MinCurrentPasswordLen: c.MinCurrentPasswordLen,
		MinStrengthScore:      c.MinStrengthScore,
		OTPLength:             c.OTPLength,
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
